package valhalla

import (
	"crypto/ed25519"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
)

var CloseInstructionDiscriminator = []byte{
	98, 165, 201, 177, 108, 65, 206, 96,
}

type CloseInstructionAccounts struct {
	Signer       ed25519.PublicKey
	Creator      ed25519.PublicKey
	Vault        ed25519.PublicKey
	VaultEscrow  ed25519.PublicKey
	Mint         ed25519.PublicKey
	TokenProgram ed25519.PublicKey
}

func NewCloseInstruction(
	accounts *CloseInstructionAccounts,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte, len(CloseInstructionDiscriminator))

	putDiscriminator(data, CloseInstructionDiscriminator, &offset)

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
				PublicKey:  accounts.Mint,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.TokenProgram,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}

func DecompileCloseInstruction(ix solana.Instruction) (*CloseInstructionAccounts, error) {
	var offset int

	if err := checkInstruction(ix, CloseInstructionDiscriminator, 0, 6, &offset); err != nil {
		return nil, err
	}

	var accounts CloseInstructionAccounts

	// Instruction Accounts
	accounts.Signer = ix.Accounts[0].PublicKey
	accounts.Creator = ix.Accounts[1].PublicKey
	accounts.Vault = ix.Accounts[2].PublicKey
	accounts.VaultEscrow = ix.Accounts[3].PublicKey
	accounts.Mint = ix.Accounts[4].PublicKey
	accounts.TokenProgram = ix.Accounts[5].PublicKey

	return &accounts, nil
}
