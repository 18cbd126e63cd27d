package valhalla

import (
	"crypto/ed25519"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
)

var UpdateGovernanceTokenAmountInstructionDiscriminator = []byte{
	87, 119, 105, 95, 233, 93, 222, 118,
}

const (
	UpdateGovernanceTokenAmountInstructionArgsSize = 8 // governance_token_amount
)

type UpdateGovernanceTokenAmountInstructionArgs struct {
	GovernanceTokenAmount uint64
}

type UpdateGovernanceTokenAmountInstructionAccounts struct {
	Admin  ed25519.PublicKey
	Config ed25519.PublicKey
}

func NewUpdateGovernanceTokenAmountInstruction(
	accounts *UpdateGovernanceTokenAmountInstructionAccounts,
	args *UpdateGovernanceTokenAmountInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte,
		len(UpdateGovernanceTokenAmountInstructionDiscriminator)+
			UpdateGovernanceTokenAmountInstructionArgsSize)

	putDiscriminator(data, UpdateGovernanceTokenAmountInstructionDiscriminator, &offset)
	putUint64(data, args.GovernanceTokenAmount, &offset)

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
		},
	}
}

func DecompileUpdateGovernanceTokenAmountInstruction(ix solana.Instruction) (*UpdateGovernanceTokenAmountInstructionArgs, *UpdateGovernanceTokenAmountInstructionAccounts, error) {
	var offset int

	if err := checkInstruction(ix, UpdateGovernanceTokenAmountInstructionDiscriminator, UpdateGovernanceTokenAmountInstructionArgsSize, 2, &offset); err != nil {
		return nil, nil, err
	}

	var args UpdateGovernanceTokenAmountInstructionArgs
	var accounts UpdateGovernanceTokenAmountInstructionAccounts

	// Instruction Args
	getUint64(ix.Data, &args.GovernanceTokenAmount, &offset)

	// Instruction Accounts
	accounts.Admin = ix.Accounts[0].PublicKey
	accounts.Config = ix.Accounts[1].PublicKey

	return &args, &accounts, nil
}
