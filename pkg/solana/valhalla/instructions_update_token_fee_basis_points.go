package valhalla

import (
	"crypto/ed25519"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
)

var UpdateTokenFeeBasisPointsInstructionDiscriminator = []byte{
	242, 207, 78, 61, 81, 37, 216, 94,
}

const (
	UpdateTokenFeeBasisPointsInstructionArgsSize = 8 // token_fee_basis_points
)

type UpdateTokenFeeBasisPointsInstructionArgs struct {
	TokenFeeBasisPoints uint64
}

type UpdateTokenFeeBasisPointsInstructionAccounts struct {
	Admin  ed25519.PublicKey
	Config ed25519.PublicKey
}

func NewUpdateTokenFeeBasisPointsInstruction(
	accounts *UpdateTokenFeeBasisPointsInstructionAccounts,
	args *UpdateTokenFeeBasisPointsInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte,
		len(UpdateTokenFeeBasisPointsInstructionDiscriminator)+
			UpdateTokenFeeBasisPointsInstructionArgsSize)

	putDiscriminator(data, UpdateTokenFeeBasisPointsInstructionDiscriminator, &offset)
	putUint64(data, args.TokenFeeBasisPoints, &offset)

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

func DecompileUpdateTokenFeeBasisPointsInstruction(ix solana.Instruction) (*UpdateTokenFeeBasisPointsInstructionArgs, *UpdateTokenFeeBasisPointsInstructionAccounts, error) {
	var offset int

	if err := checkInstruction(ix, UpdateTokenFeeBasisPointsInstructionDiscriminator, UpdateTokenFeeBasisPointsInstructionArgsSize, 2, &offset); err != nil {
		return nil, nil, err
	}

	var args UpdateTokenFeeBasisPointsInstructionArgs
	var accounts UpdateTokenFeeBasisPointsInstructionAccounts

	// Instruction Args
	getUint64(ix.Data, &args.TokenFeeBasisPoints, &offset)

	// Instruction Accounts
	accounts.Admin = ix.Accounts[0].PublicKey
	accounts.Config = ix.Accounts[1].PublicKey

	return &args, &accounts, nil
}
