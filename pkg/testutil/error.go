package testutil

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
)

// AssertInstructionError verifies that err is a failed instruction at index
// carrying the expected program error code.
func AssertInstructionError(t *testing.T, err error, index int, expected solana.ProgramError) {
	require.Error(t, err)

	var ixnErr solana.InstructionError
	require.True(t, errors.As(err, &ixnErr), "not an instruction error: %v", err)
	assert.Equal(t, index, ixnErr.Index)

	custom := ixnErr.CustomError()
	require.NotNil(t, custom, "not a program error: %v", err)
	assert.Equal(t, expected.Code(), custom.Code())
}
