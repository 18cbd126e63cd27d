package valhalla

import (
	"crypto/ed25519"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
)

var UpdateDevFeeInstructionDiscriminator = []byte{
	170, 152, 29, 116, 61, 77, 221, 81,
}

const (
	UpdateDevFeeInstructionArgsSize = 8 // dev_fee
)

type UpdateDevFeeInstructionArgs struct {
	DevFee uint64
}

type UpdateDevFeeInstructionAccounts struct {
	Admin  ed25519.PublicKey
	Config ed25519.PublicKey
}

func NewUpdateDevFeeInstruction(
	accounts *UpdateDevFeeInstructionAccounts,
	args *UpdateDevFeeInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte,
		len(UpdateDevFeeInstructionDiscriminator)+
			UpdateDevFeeInstructionArgsSize)

	putDiscriminator(data, UpdateDevFeeInstructionDiscriminator, &offset)
	putUint64(data, args.DevFee, &offset)

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

func DecompileUpdateDevFeeInstruction(ix solana.Instruction) (*UpdateDevFeeInstructionArgs, *UpdateDevFeeInstructionAccounts, error) {
	var offset int

	if err := checkInstruction(ix, UpdateDevFeeInstructionDiscriminator, UpdateDevFeeInstructionArgsSize, 2, &offset); err != nil {
		return nil, nil, err
	}

	var args UpdateDevFeeInstructionArgs
	var accounts UpdateDevFeeInstructionAccounts

	// Instruction Args
	getUint64(ix.Data, &args.DevFee, &offset)

	// Instruction Accounts
	accounts.Admin = ix.Accounts[0].PublicKey
	accounts.Config = ix.Accounts[1].PublicKey

	return &args, &accounts, nil
}
