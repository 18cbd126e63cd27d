// Package system builds and parses the system program instructions the
// vault program invokes.
package system

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
)

// ProgramKey is the all zero system program address
var ProgramKey [32]byte

const (
	commandCreateAccount uint32 = 0
	commandTransfer      uint32 = 2

	commandSize = 4

	// command | lamports | space | owner
	createAccountSize = commandSize + 8 + 8 + ed25519.PublicKeySize
	// command | lamports
	transferSize = commandSize + 8
)

// CreateAccount allocates size bytes owned by owner at address, funded with
// lamports by funder. Both funder and address sign.
func CreateAccount(funder, address, owner ed25519.PublicKey, lamports, size uint64) solana.Instruction {
	data := make([]byte, createAccountSize)
	binary.LittleEndian.PutUint32(data, commandCreateAccount)
	binary.LittleEndian.PutUint64(data[commandSize:], lamports)
	binary.LittleEndian.PutUint64(data[commandSize+8:], size)
	copy(data[commandSize+16:], owner)

	return solana.NewInstruction(
		ProgramKey[:],
		data,
		solana.NewAccountMeta(funder, true),
		solana.NewAccountMeta(address, true),
	)
}

type DecompiledCreateAccount struct {
	Funder  ed25519.PublicKey
	Address ed25519.PublicKey

	Lamports uint64
	Size     uint64
	Owner    ed25519.PublicKey
}

func DecompileCreateAccount(i solana.Instruction) (*DecompiledCreateAccount, error) {
	if err := checkLayout(i, commandCreateAccount, createAccountSize); err != nil {
		return nil, err
	}

	return &DecompiledCreateAccount{
		Funder:   i.Accounts[0].PublicKey,
		Address:  i.Accounts[1].PublicKey,
		Lamports: binary.LittleEndian.Uint64(i.Data[commandSize:]),
		Size:     binary.LittleEndian.Uint64(i.Data[commandSize+8:]),
		Owner:    append(ed25519.PublicKey{}, i.Data[commandSize+16:]...),
	}, nil
}

// Transfer moves lamports from a signing funder to any account.
func Transfer(from, to ed25519.PublicKey, lamports uint64) solana.Instruction {
	data := make([]byte, transferSize)
	binary.LittleEndian.PutUint32(data, commandTransfer)
	binary.LittleEndian.PutUint64(data[commandSize:], lamports)

	return solana.NewInstruction(
		ProgramKey[:],
		data,
		solana.NewAccountMeta(from, true),
		solana.NewAccountMeta(to, false),
	)
}

type DecompiledTransfer struct {
	From     ed25519.PublicKey
	To       ed25519.PublicKey
	Lamports uint64
}

func DecompileTransfer(i solana.Instruction) (*DecompiledTransfer, error) {
	if err := checkLayout(i, commandTransfer, transferSize); err != nil {
		return nil, err
	}

	return &DecompiledTransfer{
		From:     i.Accounts[0].PublicKey,
		To:       i.Accounts[1].PublicKey,
		Lamports: binary.LittleEndian.Uint64(i.Data[commandSize:]),
	}, nil
}

// Both supported commands take exactly two accounts
func checkLayout(i solana.Instruction, command uint32, size int) error {
	switch {
	case !bytes.Equal(i.Program, ProgramKey[:]):
		return solana.ErrIncorrectProgram
	case Command(i.Data) != command:
		return solana.ErrIncorrectInstruction
	case len(i.Accounts) != 2:
		return errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	case len(i.Data) != size:
		return errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}
	return nil
}

// Command returns the command encoded in data, or math.MaxUint32 when data
// is too short to hold one.
func Command(data []byte) uint32 {
	if len(data) < commandSize {
		return ^uint32(0)
	}
	return binary.LittleEndian.Uint32(data)
}

func IsCreateAccount(data []byte) bool {
	return Command(data) == commandCreateAccount
}

func IsTransfer(data []byte) bool {
	return Command(data) == commandTransfer
}
