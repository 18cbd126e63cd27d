package solana

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstructionError_Custom(t *testing.T) {
	err := error(InstructionError{Index: 2, Err: errors.Wrap(CustomError(0x1770), "disburse")})

	var ixErr InstructionError
	require.True(t, errors.As(err, &ixErr))
	assert.Equal(t, 2, ixErr.Index)
	assert.Equal(t, InstructionErrorCustom, ixErr.ErrorKey())
	require.NotNil(t, ixErr.CustomError())
	assert.EqualValues(t, 0x1770, *ixErr.CustomError())
	assert.True(t, errors.Is(err, CustomError(0x1770)))
	assert.Equal(t, "Error processing Instruction 2: disburse: custom program error: 0x1770", err.Error())
}

func TestInstructionError_Key(t *testing.T) {
	err := InstructionError{Index: 0, Err: errors.Wrap(InstructionErrorMissingRequiredSignature, "creator")}
	assert.Equal(t, InstructionErrorMissingRequiredSignature, err.ErrorKey())
	assert.Nil(t, err.CustomError())
	assert.True(t, errors.Is(err, InstructionErrorMissingRequiredSignature))

	err = InstructionError{Index: 1, Err: errors.New("boom")}
	assert.Equal(t, InstructionErrorGenericError, err.ErrorKey())

	assert.Empty(t, InstructionError{}.ErrorKey())
}
