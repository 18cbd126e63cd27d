package valhalla

import (
	"fmt"
)

// ProgramError is a numerical error returned by the vault program. Values in
// the 6000 range are program specific, lower values are raised by the account
// validation layer.
type ProgramError uint32

const (
	ErrInstructionFallbackNotFound  ProgramError = 101
	ErrInstructionDidNotDeserialize ProgramError = 102
	ErrConstraintHasOne             ProgramError = 2001
	ErrConstraintSeeds              ProgramError = 2006
	ErrAccountDiscriminatorMismatch ProgramError = 3002
	ErrAccountOwnedByWrongProgram   ProgramError = 3007
	ErrAccountNotInitialized        ProgramError = 3012
)

const (
	ErrLocked ProgramError = iota + 0x1770
	ErrUnauthorized
	ErrNoPayout
	ErrAlreadyInitialized
	ErrCloseVaultFailed
	ErrInvalidTokenFeeBasisPoints
	ErrInvalidSolFee
	ErrFeePaymentFailed
	ErrInvalidPayoutSchedule
	ErrInvalidAmount
)

var programErrorNames = map[ProgramError]string{
	ErrInstructionFallbackNotFound:  "InstructionFallbackNotFound",
	ErrInstructionDidNotDeserialize: "InstructionDidNotDeserialize",
	ErrConstraintHasOne:             "ConstraintHasOne",
	ErrConstraintSeeds:              "ConstraintSeeds",
	ErrAccountDiscriminatorMismatch: "AccountDiscriminatorMismatch",
	ErrAccountOwnedByWrongProgram:   "AccountOwnedByWrongProgram",
	ErrAccountNotInitialized:        "AccountNotInitialized",
	ErrLocked:                       "Locked",
	ErrUnauthorized:                 "Unauthorized",
	ErrNoPayout:                     "NoPayout",
	ErrAlreadyInitialized:           "AlreadyInitialized",
	ErrCloseVaultFailed:             "CloseVaultFailed",
	ErrInvalidTokenFeeBasisPoints:   "InvalidTokenFeeBasisPoints",
	ErrInvalidSolFee:                "InvalidSolFee",
	ErrFeePaymentFailed:             "FeePaymentFailed",
	ErrInvalidPayoutSchedule:        "InvalidPayoutSchedule",
	ErrInvalidAmount:                "InvalidAmount",
}

var programErrorMessages = map[ProgramError]string{
	ErrInstructionFallbackNotFound:  "Fallback functions are not supported",
	ErrInstructionDidNotDeserialize: "The program could not deserialize the given instruction",
	ErrConstraintHasOne:             "A has one constraint was violated",
	ErrConstraintSeeds:              "A seeds constraint was violated",
	ErrAccountDiscriminatorMismatch: "Account discriminator did not match what was expected",
	ErrAccountOwnedByWrongProgram:   "The given account is owned by a different program than expected",
	ErrAccountNotInitialized:        "The program expected this account to be already initialized",
	ErrLocked:                       "The vault is locked!",
	ErrUnauthorized:                 "You do not have authority to perform this action!",
	ErrNoPayout:                     "The vault has no tokens left to pay out!",
	ErrAlreadyInitialized:           "The config account has already been initialized!",
	ErrCloseVaultFailed:             "Failed to close the vault!",
	ErrInvalidTokenFeeBasisPoints:   "Token fee basis points must be between 0 and 10000!",
	ErrInvalidSolFee:                "The SOL fee is below the minimum!",
	ErrFeePaymentFailed:             "Failed to pay the fees!",
	ErrInvalidPayoutSchedule:        "Vesting duration must be a multiple of the payout interval!",
	ErrInvalidAmount:                "The amount to be vested must be greater than zero!",
}

// Error implements error
func (e ProgramError) Error() string {
	return fmt.Sprintf("custom program error: 0x%x (%s): %s", uint32(e), e.Name(), e.Message())
}

// Code implements solana.ProgramError
func (e ProgramError) Code() uint32 {
	return uint32(e)
}

func (e ProgramError) Name() string {
	name, ok := programErrorNames[e]
	if !ok {
		return "Unknown"
	}
	return name
}

func (e ProgramError) Message() string {
	return programErrorMessages[e]
}

// ProgramErrorFromCode maps a custom error code back to a known program error.
func ProgramErrorFromCode(code uint32) (ProgramError, bool) {
	e := ProgramError(code)
	_, ok := programErrorNames[e]
	return e, ok
}
