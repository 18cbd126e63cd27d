package token

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
	"github.com/valhalla-so/valhalla-server/pkg/solana/system"
)

// AssociatedTokenAccountProgramKey  is the address of the associated token account program that should be used.
//
// Current key: ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL
var AssociatedTokenAccountProgramKey = ed25519.PublicKey{140, 151, 37, 143, 78, 36, 137, 241, 187, 61, 16, 41, 20, 142, 13, 131, 11, 90, 19, 153, 218, 255, 16, 132, 4, 142, 123, 216, 219, 233, 248, 89}

const (
	associatedCommandCreate           byte = 0
	associatedCommandCreateIdempotent byte = 1
)

// GetAssociatedAccount returns the associated account address for a mint
// owned by the conventional token program.
//
// Reference: https://spl.solana.com/associated-token-account#finding-the-associated-token-account-address
func GetAssociatedAccount(wallet, mint ed25519.PublicKey) (ed25519.PublicKey, error) {
	return GetAssociatedAccountForProgram(wallet, mint, ProgramKey)
}

// GetAssociatedAccountForProgram returns the associated account address for a
// mint owned by the provided token program. Token and Token-2022 derive
// different addresses for the same wallet and mint.
func GetAssociatedAccountForProgram(wallet, mint, program ed25519.PublicKey) (ed25519.PublicKey, error) {
	return solana.FindProgramAddress(
		AssociatedTokenAccountProgramKey,
		wallet,
		program,
		mint,
	)
}

// CreateAssociatedTokenAccountIdempotent creates the associated token account
// if it doesn't already exist.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/master/associated-token-account/program/src/instruction.rs
func CreateAssociatedTokenAccountIdempotent(subsidizer, wallet, mint, program ed25519.PublicKey) (solana.Instruction, ed25519.PublicKey, error) {
	addr, err := GetAssociatedAccountForProgram(wallet, mint, program)
	if err != nil {
		return solana.Instruction{}, nil, err
	}

	return solana.NewInstruction(
		AssociatedTokenAccountProgramKey,
		[]byte{associatedCommandCreateIdempotent},
		solana.NewAccountMeta(subsidizer, true),
		solana.NewAccountMeta(addr, false),
		solana.NewReadonlyAccountMeta(wallet, false),
		solana.NewReadonlyAccountMeta(mint, false),
		solana.NewReadonlyAccountMeta(system.ProgramKey[:], false),
		solana.NewReadonlyAccountMeta(program, false),
	), addr, nil
}

type DecompiledCreateAssociatedAccount struct {
	Subsidizer   ed25519.PublicKey
	Address      ed25519.PublicKey
	Owner        ed25519.PublicKey
	Mint         ed25519.PublicKey
	TokenProgram ed25519.PublicKey
	Idempotent   bool
}

func DecompileCreateAssociatedAccount(i solana.Instruction) (*DecompiledCreateAssociatedAccount, error) {
	if !bytes.Equal(i.Program, AssociatedTokenAccountProgramKey) {
		return nil, solana.ErrIncorrectProgram
	}
	if len(i.Data) > 1 || (len(i.Data) == 1 && i.Data[0] > associatedCommandCreateIdempotent) {
		return nil, solana.ErrIncorrectInstruction
	}
	if len(i.Accounts) != 6 {
		return nil, errors.Errorf("invalid number of accounts: %d (expected %d)", len(i.Accounts), 6)
	}
	if !bytes.Equal(i.Accounts[4].PublicKey, system.ProgramKey[:]) {
		return nil, errors.Errorf("system program key mismatch")
	}
	if !IsTokenProgram(i.Accounts[5].PublicKey) {
		return nil, errors.Errorf("token program key mismatch")
	}

	return &DecompiledCreateAssociatedAccount{
		Subsidizer:   i.Accounts[0].PublicKey,
		Address:      i.Accounts[1].PublicKey,
		Owner:        i.Accounts[2].PublicKey,
		Mint:         i.Accounts[3].PublicKey,
		TokenProgram: i.Accounts[5].PublicKey,
		Idempotent:   len(i.Data) == 1 && i.Data[0] == associatedCommandCreateIdempotent,
	}, nil
}
