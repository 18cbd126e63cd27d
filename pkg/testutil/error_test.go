package testutil

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
)

func TestAssertInstructionError(t *testing.T) {
	err := errors.Wrap(solana.InstructionError{Index: 1, Err: solana.CustomError(0x1770)}, "submit")
	AssertInstructionError(t, err, 1, solana.CustomError(0x1770))
}
