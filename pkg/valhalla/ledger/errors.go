package ledger

import (
	"github.com/pkg/errors"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
	"github.com/valhalla-so/valhalla-server/pkg/solana/token"
)

var (
	ErrAccountNotFound          = errors.New("account not found")
	ErrAccountAlreadyInUse      = errors.New("account already in use")
	ErrInsufficientLamports     = errors.New("insufficient lamports")
	ErrInsufficientFundsForRent = errors.New("insufficient funds for rent")
	ErrAccountHasWithheldFees   = errors.New("account has withheld transfer fees")
	ErrPrivilegeEscalation      = errors.New("cross-program invocation with unauthorized signer or writable account")
	ErrEmptyTransaction         = errors.New("transaction has no instructions")
)

// Runtime errors that have a well known instruction error key
var (
	ErrMissingRequiredSignature error = solana.InstructionErrorMissingRequiredSignature
	ErrInvalidAccountOwner      error = solana.InstructionErrorIncorrectProgramID
	ErrUnknownProgram           error = solana.InstructionErrorUnsupportedProgramID
	ErrMissingAccount           error = solana.InstructionErrorMissingAccount
	ErrReadonlyDataModified     error = solana.InstructionErrorReadonlyDataModified
	ErrExternalDataModified     error = solana.InstructionErrorExternalAccountDataModified
	ErrExternalLamportSpend     error = solana.InstructionErrorExternalAccountLamportSpend
	ErrCallDepth                error = solana.InstructionErrorCallDepth
	ErrInvalidSeeds             error = solana.InstructionErrorInvalidSeeds
	ErrInvalidInstructionData   error = solana.InstructionErrorInvalidInstructionData
	ErrInvalidAccountData       error = solana.InstructionErrorInvalidAccountData
	ErrNotEnoughAccountKeys     error = solana.InstructionErrorNotEnoughAccountKeys
)

// Token program errors
var (
	ErrInsufficientFunds  error = token.ErrorInsufficientFunds
	ErrMintMismatch       error = token.ErrorMintMismatch
	ErrOwnerMismatch      error = token.ErrorOwnerMismatch
	ErrAccountHasBalance  error = token.ErrorNonNativeHasBalance
	ErrUninitializedState error = token.ErrorUninitializedState
	ErrDecimalsMismatch   error = token.ErrorMintDecimalsMismatch
	ErrOverflow           error = token.ErrorOverflow
)
