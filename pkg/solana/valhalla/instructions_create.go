package valhalla

import (
	"crypto/ed25519"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
)

var CreateInstructionDiscriminator = []byte{
	24, 30, 200, 40, 5, 28, 7, 119,
}

const (
	CreateInstructionArgsSize = (8 + // identifier
		NameSize + // name
		8 + // amount_to_be_vested
		8 + // total_vesting_duration
		8 + // start_date
		8 + // payout_interval
		1 + // cancel_authority
		1) // autopay
)

type CreateInstructionArgs struct {
	Identifier           uint64
	Name                 [NameSize]byte
	AmountToBeVested     uint64
	TotalVestingDuration uint64
	StartDate            uint64
	PayoutInterval       uint64
	CancelAuthority      Authority
	Autopay              bool
}

type CreateInstructionAccounts struct {
	Creator                       ed25519.PublicKey
	Recipient                     ed25519.PublicKey
	DevTreasury                   ed25519.PublicKey
	DaoTreasury                   ed25519.PublicKey
	Config                        ed25519.PublicKey
	Vault                         ed25519.PublicKey
	VaultEscrow                   ed25519.PublicKey
	CreatorTokenAccount           ed25519.PublicKey
	DaoTreasuryTokenAccount       ed25519.PublicKey
	CreatorGovernanceTokenAccount ed25519.PublicKey
	Mint                          ed25519.PublicKey
	GovernanceTokenMint           ed25519.PublicKey
	TokenProgram                  ed25519.PublicKey
}

func NewCreateInstruction(
	accounts *CreateInstructionAccounts,
	args *CreateInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte,
		len(CreateInstructionDiscriminator)+
			CreateInstructionArgsSize)

	putDiscriminator(data, CreateInstructionDiscriminator, &offset)
	putUint64(data, args.Identifier, &offset)
	putName(data, args.Name, &offset)
	putUint64(data, args.AmountToBeVested, &offset)
	putUint64(data, args.TotalVestingDuration, &offset)
	putUint64(data, args.StartDate, &offset)
	putUint64(data, args.PayoutInterval, &offset)
	putUint8(data, uint8(args.CancelAuthority), &offset)
	putBool(data, args.Autopay, &offset)

	return solana.Instruction{
		Program: PROGRAM_ID,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Creator,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.Recipient,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.DevTreasury,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.DaoTreasury,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Config,
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
				PublicKey:  accounts.DaoTreasuryTokenAccount,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.CreatorGovernanceTokenAccount,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Mint,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.GovernanceTokenMint,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.TokenProgram,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  SPL_TOKEN_PROGRAM_ID,
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

func DecompileCreateInstruction(ix solana.Instruction) (*CreateInstructionArgs, *CreateInstructionAccounts, error) {
	var offset int

	if err := checkInstruction(ix, CreateInstructionDiscriminator, CreateInstructionArgsSize, 16, &offset); err != nil {
		return nil, nil, err
	}

	var args CreateInstructionArgs
	var accounts CreateInstructionAccounts

	// Instruction Args
	getUint64(ix.Data, &args.Identifier, &offset)
	getName(ix.Data, &args.Name, &offset)
	getUint64(ix.Data, &args.AmountToBeVested, &offset)
	getUint64(ix.Data, &args.TotalVestingDuration, &offset)
	getUint64(ix.Data, &args.StartDate, &offset)
	getUint64(ix.Data, &args.PayoutInterval, &offset)
	var cancelAuthority uint8
	getUint8(ix.Data, &cancelAuthority, &offset)
	args.CancelAuthority = Authority(cancelAuthority)
	getBool(ix.Data, &args.Autopay, &offset)

	// Instruction Accounts
	accounts.Creator = ix.Accounts[0].PublicKey
	accounts.Recipient = ix.Accounts[1].PublicKey
	accounts.DevTreasury = ix.Accounts[2].PublicKey
	accounts.DaoTreasury = ix.Accounts[3].PublicKey
	accounts.Config = ix.Accounts[4].PublicKey
	accounts.Vault = ix.Accounts[5].PublicKey
	accounts.VaultEscrow = ix.Accounts[6].PublicKey
	accounts.CreatorTokenAccount = ix.Accounts[7].PublicKey
	accounts.DaoTreasuryTokenAccount = ix.Accounts[8].PublicKey
	accounts.CreatorGovernanceTokenAccount = ix.Accounts[9].PublicKey
	accounts.Mint = ix.Accounts[10].PublicKey
	accounts.GovernanceTokenMint = ix.Accounts[11].PublicKey
	accounts.TokenProgram = ix.Accounts[12].PublicKey

	return &args, &accounts, nil
}
