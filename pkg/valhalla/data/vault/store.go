package vault

import (
	"context"

	"github.com/valhalla-so/valhalla-server/pkg/database/query"
)

type Store interface {
	// Save creates or updates a vault record. Updates observed at a slot at or
	// before the stored one fail with ErrStaleVaultState.
	Save(ctx context.Context, record *Record) error

	// GetByAddress gets a vault by its address.
	GetByAddress(ctx context.Context, address string) (*Record, error)

	// GetAllByCreator returns the vaults created by an account.
	GetAllByCreator(ctx context.Context, creator string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*Record, error)

	// GetAllByRecipient returns the vaults paying out to an account.
	GetAllByRecipient(ctx context.Context, recipient string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*Record, error)

	// GetAllByMint returns the vaults holding a mint.
	GetAllByMint(ctx context.Context, mint string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*Record, error)

	// GetAllByState returns vaults in the provided state.
	GetAllByState(ctx context.Context, state State, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*Record, error)

	// GetAutopayDue returns active autopay vaults with an incomplete schedule
	// whose next payout is at or before now, earliest first.
	GetAutopayDue(ctx context.Context, now uint64, limit uint64) ([]*Record, error)

	// GetCountByState returns the number of vaults in the provided state.
	GetCountByState(ctx context.Context, state State) (uint64, error)
}
