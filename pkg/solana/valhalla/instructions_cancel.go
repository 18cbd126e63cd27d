package valhalla

import (
	"crypto/ed25519"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
)

var CancelInstructionDiscriminator = []byte{
	232, 219, 223, 41, 219, 236, 220, 190,
}

type CancelInstructionAccounts struct {
	Signer              ed25519.PublicKey
	Creator             ed25519.PublicKey
	Recipient           ed25519.PublicKey
	Vault               ed25519.PublicKey
	VaultEscrow         ed25519.PublicKey
	CreatorTokenAccount ed25519.PublicKey
	Mint                ed25519.PublicKey
	TokenProgram        ed25519.PublicKey
}

func NewCancelInstruction(
	accounts *CancelInstructionAccounts,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte, len(CancelInstructionDiscriminator))

	putDiscriminator(data, CancelInstructionDiscriminator, &offset)

	return solana.Instruction{
		Program: PROGRAM_ID,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Signer,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.Creator,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Recipient,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Vault,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.VaultEscrow,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.CreatorTokenAccount,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Mint,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.TokenProgram,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  SPL_ASSOCIATED_TOKEN_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  SYSTEM_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}

func DecompileCancelInstruction(ix solana.Instruction) (*CancelInstructionAccounts, error) {
	var offset int

	if err := checkInstruction(ix, CancelInstructionDiscriminator, 0, 10, &offset); err != nil {
		return nil, err
	}

	var accounts CancelInstructionAccounts

	// Instruction Accounts
	accounts.Signer = ix.Accounts[0].PublicKey
	accounts.Creator = ix.Accounts[1].PublicKey
	accounts.Recipient = ix.Accounts[2].PublicKey
	accounts.Vault = ix.Accounts[3].PublicKey
	accounts.VaultEscrow = ix.Accounts[4].PublicKey
	accounts.CreatorTokenAccount = ix.Accounts[5].PublicKey
	accounts.Mint = ix.Accounts[6].PublicKey
	accounts.TokenProgram = ix.Accounts[7].PublicKey

	return &accounts, nil
}
