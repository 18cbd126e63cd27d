package valhalla

import (
	"crypto/ed25519"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
)

var MintGovernanceTokensInstructionDiscriminator = []byte{
	34, 236, 35, 108, 203, 108, 129, 215,
}

const (
	MintGovernanceTokensInstructionArgsSize = 8 // amount
)

type MintGovernanceTokensInstructionArgs struct {
	Amount uint64
}

type MintGovernanceTokensInstructionAccounts struct {
	Admin                ed25519.PublicKey
	Receiver             ed25519.PublicKey
	Config               ed25519.PublicKey
	GovernanceTokenMint  ed25519.PublicKey
	ReceiverTokenAccount ed25519.PublicKey
}

func NewMintGovernanceTokensInstruction(
	accounts *MintGovernanceTokensInstructionAccounts,
	args *MintGovernanceTokensInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte,
		len(MintGovernanceTokensInstructionDiscriminator)+
			MintGovernanceTokensInstructionArgsSize)

	putDiscriminator(data, MintGovernanceTokensInstructionDiscriminator, &offset)
	putUint64(data, args.Amount, &offset)

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
				PublicKey:  accounts.Receiver,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Config,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.GovernanceTokenMint,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.ReceiverTokenAccount,
				IsWritable: true,
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

func DecompileMintGovernanceTokensInstruction(ix solana.Instruction) (*MintGovernanceTokensInstructionArgs, *MintGovernanceTokensInstructionAccounts, error) {
	var offset int

	if err := checkInstruction(ix, MintGovernanceTokensInstructionDiscriminator, MintGovernanceTokensInstructionArgsSize, 8, &offset); err != nil {
		return nil, nil, err
	}

	var args MintGovernanceTokensInstructionArgs
	var accounts MintGovernanceTokensInstructionAccounts

	// Instruction Args
	getUint64(ix.Data, &args.Amount, &offset)

	// Instruction Accounts
	accounts.Admin = ix.Accounts[0].PublicKey
	accounts.Receiver = ix.Accounts[1].PublicKey
	accounts.Config = ix.Accounts[2].PublicKey
	accounts.GovernanceTokenMint = ix.Accounts[3].PublicKey
	accounts.ReceiverTokenAccount = ix.Accounts[4].PublicKey

	return &args, &accounts, nil
}
