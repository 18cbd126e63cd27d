package valhalla

import (
	"crypto/ed25519"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
)

var DisburseInstructionDiscriminator = []byte{
	68, 250, 205, 89, 217, 142, 13, 44,
}

type DisburseInstructionAccounts struct {
	Signer                       ed25519.PublicKey
	Creator                      ed25519.PublicKey
	Recipient                    ed25519.PublicKey
	Config                       ed25519.PublicKey
	Vault                        ed25519.PublicKey
	VaultEscrow                  ed25519.PublicKey
	SignerGovernanceTokenAccount ed25519.PublicKey
	RecipientTokenAccount        ed25519.PublicKey
	Mint                         ed25519.PublicKey
	GovernanceTokenMint          ed25519.PublicKey
	TokenProgram                 ed25519.PublicKey
}

func NewDisburseInstruction(
	accounts *DisburseInstructionAccounts,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte, len(DisburseInstructionDiscriminator))

	putDiscriminator(data, DisburseInstructionDiscriminator, &offset)

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
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Recipient,
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
				PublicKey:  accounts.SignerGovernanceTokenAccount,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.RecipientTokenAccount,
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

func DecompileDisburseInstruction(ix solana.Instruction) (*DisburseInstructionAccounts, error) {
	var offset int

	if err := checkInstruction(ix, DisburseInstructionDiscriminator, 0, 14, &offset); err != nil {
		return nil, err
	}

	var accounts DisburseInstructionAccounts

	// Instruction Accounts
	accounts.Signer = ix.Accounts[0].PublicKey
	accounts.Creator = ix.Accounts[1].PublicKey
	accounts.Recipient = ix.Accounts[2].PublicKey
	accounts.Config = ix.Accounts[3].PublicKey
	accounts.Vault = ix.Accounts[4].PublicKey
	accounts.VaultEscrow = ix.Accounts[5].PublicKey
	accounts.SignerGovernanceTokenAccount = ix.Accounts[6].PublicKey
	accounts.RecipientTokenAccount = ix.Accounts[7].PublicKey
	accounts.Mint = ix.Accounts[8].PublicKey
	accounts.GovernanceTokenMint = ix.Accounts[9].PublicKey
	accounts.TokenProgram = ix.Accounts[10].PublicKey

	return &accounts, nil
}
