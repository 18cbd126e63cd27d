package valhalla

import (
	"crypto/ed25519"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
)

var UpdateDaoTreasuryInstructionDiscriminator = []byte{
	50, 210, 233, 46, 9, 38, 87, 196,
}

type UpdateDaoTreasuryInstructionAccounts struct {
	Admin          ed25519.PublicKey
	Config         ed25519.PublicKey
	NewDaoTreasury ed25519.PublicKey
}

func NewUpdateDaoTreasuryInstruction(
	accounts *UpdateDaoTreasuryInstructionAccounts,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte, len(UpdateDaoTreasuryInstructionDiscriminator))

	putDiscriminator(data, UpdateDaoTreasuryInstructionDiscriminator, &offset)

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
				PublicKey:  accounts.NewDaoTreasury,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}

func DecompileUpdateDaoTreasuryInstruction(ix solana.Instruction) (*UpdateDaoTreasuryInstructionAccounts, error) {
	var offset int

	if err := checkInstruction(ix, UpdateDaoTreasuryInstructionDiscriminator, 0, 3, &offset); err != nil {
		return nil, err
	}

	var accounts UpdateDaoTreasuryInstructionAccounts

	// Instruction Accounts
	accounts.Admin = ix.Accounts[0].PublicKey
	accounts.Config = ix.Accounts[1].PublicKey
	accounts.NewDaoTreasury = ix.Accounts[2].PublicKey

	return &accounts, nil
}
