package valhalla

import (
	"crypto/ed25519"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
)

var CreateConfigInstructionDiscriminator = []byte{
	201, 207, 243, 114, 75, 111, 47, 189,
}

const (
	CreateConfigInstructionFixedArgsSize = (1 + // decimals
		8 + // dev_fee
		8 + // autopay_multiplier
		8 + // token_fee_basis_points
		8) // governance_token_amount
)

type CreateConfigInstructionArgs struct {
	Name                  string
	Symbol                string
	Uri                   string
	Decimals              uint8
	DevFee                uint64
	AutopayMultiplier     uint64
	TokenFeeBasisPoints   uint64
	GovernanceTokenAmount uint64
}

type CreateConfigInstructionAccounts struct {
	Admin               ed25519.PublicKey
	Config              ed25519.PublicKey
	DevTreasury         ed25519.PublicKey
	DaoTreasury         ed25519.PublicKey
	GovernanceTokenMint ed25519.PublicKey
}

func (args *CreateConfigInstructionArgs) size() int {
	return CreateConfigInstructionFixedArgsSize +
		stringSize(args.Name) +
		stringSize(args.Symbol) +
		stringSize(args.Uri)
}

func NewCreateConfigInstruction(
	accounts *CreateConfigInstructionAccounts,
	args *CreateConfigInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte,
		len(CreateConfigInstructionDiscriminator)+
			args.size())

	putDiscriminator(data, CreateConfigInstructionDiscriminator, &offset)
	putString(data, args.Name, &offset)
	putString(data, args.Symbol, &offset)
	putString(data, args.Uri, &offset)
	putUint8(data, args.Decimals, &offset)
	putUint64(data, args.DevFee, &offset)
	putUint64(data, args.AutopayMultiplier, &offset)
	putUint64(data, args.TokenFeeBasisPoints, &offset)
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
			{
				PublicKey:  accounts.DevTreasury,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.DaoTreasury,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.GovernanceTokenMint,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  SPL_TOKEN_PROGRAM_ID,
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

func DecompileCreateConfigInstruction(ix solana.Instruction) (*CreateConfigInstructionArgs, *CreateConfigInstructionAccounts, error) {
	var offset int

	if err := checkInstruction(ix, CreateConfigInstructionDiscriminator, CreateConfigInstructionFixedArgsSize, 7, &offset); err != nil {
		return nil, nil, err
	}

	var args CreateConfigInstructionArgs
	var accounts CreateConfigInstructionAccounts

	// Instruction Args
	if !getString(ix.Data, &args.Name, &offset) {
		return nil, nil, ErrInvalidInstructionData
	}
	if !getString(ix.Data, &args.Symbol, &offset) {
		return nil, nil, ErrInvalidInstructionData
	}
	if !getString(ix.Data, &args.Uri, &offset) {
		return nil, nil, ErrInvalidInstructionData
	}
	getUint8(ix.Data, &args.Decimals, &offset)
	getUint64(ix.Data, &args.DevFee, &offset)
	getUint64(ix.Data, &args.AutopayMultiplier, &offset)
	getUint64(ix.Data, &args.TokenFeeBasisPoints, &offset)
	getUint64(ix.Data, &args.GovernanceTokenAmount, &offset)

	// Instruction Accounts
	accounts.Admin = ix.Accounts[0].PublicKey
	accounts.Config = ix.Accounts[1].PublicKey
	accounts.DevTreasury = ix.Accounts[2].PublicKey
	accounts.DaoTreasury = ix.Accounts[3].PublicKey
	accounts.GovernanceTokenMint = ix.Accounts[4].PublicKey

	return &args, &accounts, nil
}
