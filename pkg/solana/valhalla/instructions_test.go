package valhalla

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateInstruction(t *testing.T) {
	accounts := &CreateInstructionAccounts{
		Creator:                       newKey(t),
		Recipient:                     newKey(t),
		DevTreasury:                   newKey(t),
		DaoTreasury:                   newKey(t),
		Config:                        newKey(t),
		Vault:                         newKey(t),
		VaultEscrow:                   newKey(t),
		CreatorTokenAccount:           newKey(t),
		DaoTreasuryTokenAccount:       newKey(t),
		CreatorGovernanceTokenAccount: newKey(t),
		Mint:                          newKey(t),
		GovernanceTokenMint:           newKey(t),
		TokenProgram:                  SPL_TOKEN_PROGRAM_ID,
	}
	args := &CreateInstructionArgs{
		Identifier:           12345,
		Name:                 ToName("advisors"),
		AmountToBeVested:     1_000,
		TotalVestingDuration: 3_600,
		StartDate:            1_700_000_000,
		PayoutInterval:       60,
		CancelAuthority:      AuthorityRecipient,
		Autopay:              true,
	}

	ix := NewCreateInstruction(accounts, args)
	assert.Equal(t, PROGRAM_ID, ix.Program)
	assert.Len(t, ix.Data, 8+CreateInstructionArgsSize)
	assert.Len(t, ix.Accounts, 16)
	assert.True(t, ix.IsSigner(accounts.Creator))
	assert.False(t, ix.IsSigner(accounts.Recipient))
	assert.True(t, ix.IsWritable(accounts.VaultEscrow))
	assert.Equal(t, InstructionTypeCreate, GetInstructionType(ix.Data))

	decodedArgs, decodedAccounts, err := DecompileCreateInstruction(ix)
	require.NoError(t, err)
	assert.Equal(t, args, decodedArgs)
	assert.Equal(t, accounts, decodedAccounts)

	ix.Data[0] ^= 0xff
	_, _, err = DecompileCreateInstruction(ix)
	assert.Equal(t, ErrInvalidInstructionData, err)
	assert.Equal(t, InstructionTypeUnknown, GetInstructionType(ix.Data))

	ix = NewCreateInstruction(accounts, args)
	ix.Accounts = ix.Accounts[:10]
	_, _, err = DecompileCreateInstruction(ix)
	assert.Equal(t, ErrInvalidInstructionData, err)

	ix = NewCreateInstruction(accounts, args)
	ix.Program = SYSTEM_PROGRAM_ID
	_, _, err = DecompileCreateInstruction(ix)
	assert.Equal(t, ErrInvalidProgram, err)
}

func TestCreateConfigInstruction(t *testing.T) {
	accounts := &CreateConfigInstructionAccounts{
		Admin:               newKey(t),
		Config:              newKey(t),
		DevTreasury:         newKey(t),
		DaoTreasury:         newKey(t),
		GovernanceTokenMint: newKey(t),
	}
	args := &CreateConfigInstructionArgs{
		Name:                  "Odin",
		Symbol:                "ODIN",
		Uri:                   "https://example.com/odin.json",
		Decimals:              GovernanceTokenDecimals,
		DevFee:                MinSolFee,
		AutopayMultiplier:     2,
		TokenFeeBasisPoints:   50,
		GovernanceTokenAmount: 10,
	}
	assert.True(t, args.ValidMetadata())

	ix := NewCreateConfigInstruction(accounts, args)
	assert.Len(t, ix.Data, 8+CreateConfigInstructionFixedArgsSize+4+4+4+len(args.Name)+len(args.Symbol)+len(args.Uri))

	decodedArgs, decodedAccounts, err := DecompileCreateConfigInstruction(ix)
	require.NoError(t, err)
	assert.Equal(t, args, decodedArgs)
	assert.Equal(t, accounts, decodedAccounts)

	// truncated string payload
	ix.Data = ix.Data[:14]
	_, _, err = DecompileCreateConfigInstruction(ix)
	assert.Equal(t, ErrInvalidInstructionData, err)

	args.Symbol = "TOOLONGSYMBOL"
	assert.False(t, args.ValidMetadata())
}

func TestNoArgInstructions(t *testing.T) {
	disburse := &DisburseInstructionAccounts{
		Signer:                       newKey(t),
		Creator:                      newKey(t),
		Recipient:                    newKey(t),
		Config:                       newKey(t),
		Vault:                        newKey(t),
		VaultEscrow:                  newKey(t),
		SignerGovernanceTokenAccount: newKey(t),
		RecipientTokenAccount:        newKey(t),
		Mint:                         newKey(t),
		GovernanceTokenMint:          newKey(t),
		TokenProgram:                 SPL_TOKEN_PROGRAM_ID,
	}
	ix := NewDisburseInstruction(disburse)
	assert.Equal(t, DisburseInstructionDiscriminator, ix.Data)
	decodedDisburse, err := DecompileDisburseInstruction(ix)
	require.NoError(t, err)
	assert.Equal(t, disburse, decodedDisburse)

	// a disburse payload is not a cancel
	_, err = DecompileCancelInstruction(ix)
	assert.Equal(t, ErrInvalidInstructionData, err)

	closeAccounts := &CloseInstructionAccounts{
		Signer:       newKey(t),
		Creator:      newKey(t),
		Vault:        newKey(t),
		VaultEscrow:  newKey(t),
		Mint:         newKey(t),
		TokenProgram: SPL_TOKEN_PROGRAM_ID,
	}
	ix = NewCloseInstruction(closeAccounts)
	assert.Equal(t, InstructionTypeClose, GetInstructionType(ix.Data))
	decodedClose, err := DecompileCloseInstruction(ix)
	require.NoError(t, err)
	assert.Equal(t, closeAccounts, decodedClose)
}

func TestProgramError(t *testing.T) {
	assert.Equal(t, "custom program error: 0x1770 (Locked): The vault is locked!", ErrLocked.Error())
	assert.EqualValues(t, 6001, ErrUnauthorized.Code())
	assert.EqualValues(t, 6005, ErrInvalidTokenFeeBasisPoints.Code())
	assert.EqualValues(t, 6008, ErrInvalidPayoutSchedule.Code())
	assert.Equal(t, "ConstraintHasOne", ErrConstraintHasOne.Name())

	e, ok := ProgramErrorFromCode(6002)
	assert.True(t, ok)
	assert.Equal(t, ErrNoPayout, e)

	_, ok = ProgramErrorFromCode(7000)
	assert.False(t, ok)
	assert.Equal(t, "Unknown", ProgramError(7000).Name())
}
