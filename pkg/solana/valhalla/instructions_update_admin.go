package valhalla

import (
	"crypto/ed25519"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
)

var UpdateAdminInstructionDiscriminator = []byte{
	161, 176, 40, 213, 60, 184, 179, 228,
}

type UpdateAdminInstructionAccounts struct {
	Admin    ed25519.PublicKey
	Config   ed25519.PublicKey
	NewAdmin ed25519.PublicKey
}

func NewUpdateAdminInstruction(
	accounts *UpdateAdminInstructionAccounts,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte, len(UpdateAdminInstructionDiscriminator))

	putDiscriminator(data, UpdateAdminInstructionDiscriminator, &offset)

	return solana.Instruction{
		Program: PROGRAM_ID,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Admin,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.Config,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.NewAdmin,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}

func DecompileUpdateAdminInstruction(ix solana.Instruction) (*UpdateAdminInstructionAccounts, error) {
	var offset int

	if err := checkInstruction(ix, UpdateAdminInstructionDiscriminator, 0, 3, &offset); err != nil {
		return nil, err
	}

	var accounts UpdateAdminInstructionAccounts

	// Instruction Accounts
	accounts.Admin = ix.Accounts[0].PublicKey
	accounts.Config = ix.Accounts[1].PublicKey
	accounts.NewAdmin = ix.Accounts[2].PublicKey

	return &accounts, nil
}
