package pg

import (
	"context"
	"database/sql"

	"github.com/jackc/pgerrcode"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/valhalla-so/valhalla-server/pkg/retry"
)

var (
	ErrAlreadyInTx      = errors.New("already executing in existing db tx")
	ErrNotInTx          = errors.New("not executing in existing db tx")
	ErrIsolationTooWeak = errors.New("existing tx does not meet the requested isolation level")
)

const maxSerializationRetries = 5

type scopedTxKey struct{}

type scopedTx struct {
	tx        *sqlx.Tx
	isolation sql.IsolationLevel
}

// ExecuteRetryable runs fn again when it aborts with a serialization failure
func ExecuteRetryable(fn func() error) error {
	_, err := retry.Retry(
		fn,
		retry.RetriableIf(IsSerializationFailure),
		retry.Limit(maxSerializationRetries),
	)
	return err
}

// IsSerializationFailure reports whether err aborted a tx due to concurrent updates
func IsSerializationFailure(err error) bool {
	return hasCode(err, pgerrcode.SerializationFailure)
}

// ExecuteTxWithinCtx opens a tx that is carried by the context passed to fn.
// Store calls made with that context through ExecuteInTx join the tx. The tx
// commits when fn succeeds and rolls back otherwise.
func ExecuteTxWithinCtx(ctx context.Context, db *sqlx.DB, isolation sql.IsolationLevel, fn func(context.Context) error) error {
	if _, ok := ctx.Value(scopedTxKey{}).(*scopedTx); ok {
		return ErrAlreadyInTx
	}

	isolation = withDefault(isolation)
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: isolation})
	if err != nil {
		return err
	}

	return finish(tx, fn(context.WithValue(ctx, scopedTxKey{}, &scopedTx{tx: tx, isolation: isolation})))
}

// ExecuteInTx runs fn in the tx carried by ctx when there is one, leaving
// commit and rollback to its owner. Otherwise fn runs in a new tx that is
// finished here.
func ExecuteInTx(ctx context.Context, db *sqlx.DB, isolation sql.IsolationLevel, fn func(tx *sqlx.Tx) error) error {
	isolation = withDefault(isolation)

	existing, err := txFromCtx(ctx, isolation)
	switch err {
	case nil:
		return fn(existing)
	case ErrNotInTx:
	default:
		return err
	}

	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: isolation})
	if err != nil {
		return err
	}
	return finish(tx, fn(tx))
}

func finish(tx *sqlx.Tx, err error) error {
	if err != nil {
		// Rollback releases the connection back to the pool
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return errors.Wrap(rollbackErr, "failed to rollback transaction")
		}
		return err
	}
	return tx.Commit()
}

func txFromCtx(ctx context.Context, isolation sql.IsolationLevel) (*sqlx.Tx, error) {
	scoped, ok := ctx.Value(scopedTxKey{}).(*scopedTx)
	if !ok {
		return nil, ErrNotInTx
	}
	if scoped.isolation < isolation {
		return nil, ErrIsolationTooWeak
	}
	return scoped.tx, nil
}

// Postgres runs at read committed unless told otherwise
func withDefault(isolation sql.IsolationLevel) sql.IsolationLevel {
	if isolation == sql.LevelDefault {
		return sql.LevelReadCommitted
	}
	return isolation
}
