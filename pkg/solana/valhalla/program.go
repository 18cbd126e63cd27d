package valhalla

import (
	"crypto/ed25519"
	"errors"

	"github.com/valhalla-so/valhalla-server/pkg/solana/system"
	"github.com/valhalla-so/valhalla-server/pkg/solana/token"
)

var (
	ErrInvalidProgram         = errors.New("invalid program id")
	ErrInvalidAccountData     = errors.New("unexpected account data")
	ErrInvalidInstructionData = errors.New("unexpected instruction data")
)

var (
	PROGRAM_ADDRESS = mustBase58Decode("8eqnKMrBM7kk73d7U4UDVzn9SFX9o8nE1woX6x6nAkgP")
	PROGRAM_ID      = ed25519.PublicKey(PROGRAM_ADDRESS)
)

var (
	SYSTEM_PROGRAM_ID               = ed25519.PublicKey(system.ProgramKey[:])
	SPL_TOKEN_PROGRAM_ID            = token.ProgramKey
	SPL_ASSOCIATED_TOKEN_PROGRAM_ID = token.AssociatedTokenAccountProgramKey
)

const (
	// MinSolFee is the smallest devFee, in lamports, a deployment is expected to charge
	MinSolFee = system.LamportsPerSol / 1000

	// MaxBasisPoints bounds tokenFeeBasisPoints
	MaxBasisPoints = 10_000

	// GovernanceTokenDecimals is fixed for the reward token
	GovernanceTokenDecimals = 9

	// NameSize is the fixed size of a vault's display name
	NameSize = 32

	maxTokenNameLength   = 32
	maxTokenSymbolLength = 10
	maxTokenUriLength    = 200
)
