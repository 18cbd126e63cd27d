package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	pgutil "github.com/valhalla-so/valhalla-server/pkg/database/postgres"
	q "github.com/valhalla-so/valhalla-server/pkg/database/query"
	"github.com/valhalla-so/valhalla-server/pkg/solana/valhalla"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/data/vault"
)

const (
	tableName = "valhalla__core_vault"

	allColumns = `id, address, identifier, name, creator, recipient, mint,
		total_vesting_duration, created_timestamp, start_date, last_payment_timestamp, initial_deposit_amount,
		total_number_of_payouts, payout_interval, number_of_payments_made, next_payout_at,
		cancel_authority, autopay, state, slot, created_at, last_updated_at`
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	Address string `db:"address"`

	Identifier uint64 `db:"identifier"`
	Name       string `db:"name"`
	Creator    string `db:"creator"`
	Recipient  string `db:"recipient"`
	Mint       string `db:"mint"`

	TotalVestingDuration uint64 `db:"total_vesting_duration"`
	CreatedTimestamp     uint64 `db:"created_timestamp"`
	StartDate            uint64 `db:"start_date"`
	LastPaymentTimestamp uint64 `db:"last_payment_timestamp"`
	InitialDepositAmount uint64 `db:"initial_deposit_amount"`
	TotalNumberOfPayouts uint64 `db:"total_number_of_payouts"`
	PayoutInterval       uint64 `db:"payout_interval"`
	NumberOfPaymentsMade uint64 `db:"number_of_payments_made"`
	NextPayoutAt         uint64 `db:"next_payout_at"`

	CancelAuthority uint `db:"cancel_authority"`
	Autopay         bool `db:"autopay"`

	State uint `db:"state"`

	Slot uint64 `db:"slot"`

	CreatedAt     time.Time `db:"created_at"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
}

func toModel(obj *vault.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	return &model{
		Address: obj.Address,

		Identifier: obj.Identifier,
		Name:       obj.Name,
		Creator:    obj.Creator,
		Recipient:  obj.Recipient,
		Mint:       obj.Mint,

		TotalVestingDuration: obj.TotalVestingDuration,
		CreatedTimestamp:     obj.CreatedTimestamp,
		StartDate:            obj.StartDate,
		LastPaymentTimestamp: obj.LastPaymentTimestamp,
		InitialDepositAmount: obj.InitialDepositAmount,
		TotalNumberOfPayouts: obj.TotalNumberOfPayouts,
		PayoutInterval:       obj.PayoutInterval,
		NumberOfPaymentsMade: obj.NumberOfPaymentsMade,
		NextPayoutAt:         obj.NextPayoutAt,

		CancelAuthority: uint(obj.CancelAuthority),
		Autopay:         obj.Autopay,

		State: uint(obj.State),

		Slot: obj.Slot,

		CreatedAt:     obj.CreatedAt,
		LastUpdatedAt: obj.LastUpdatedAt,
	}, nil
}

func fromModel(obj *model) *vault.Record {
	return &vault.Record{
		Id: uint64(obj.Id.Int64),

		Address: obj.Address,

		Identifier: obj.Identifier,
		Name:       obj.Name,
		Creator:    obj.Creator,
		Recipient:  obj.Recipient,
		Mint:       obj.Mint,

		TotalVestingDuration: obj.TotalVestingDuration,
		CreatedTimestamp:     obj.CreatedTimestamp,
		StartDate:            obj.StartDate,
		LastPaymentTimestamp: obj.LastPaymentTimestamp,
		InitialDepositAmount: obj.InitialDepositAmount,
		TotalNumberOfPayouts: obj.TotalNumberOfPayouts,
		PayoutInterval:       obj.PayoutInterval,
		NumberOfPaymentsMade: obj.NumberOfPaymentsMade,
		NextPayoutAt:         obj.NextPayoutAt,

		CancelAuthority: valhalla.Authority(obj.CancelAuthority),
		Autopay:         obj.Autopay,

		State: vault.State(obj.State),

		Slot: obj.Slot,

		CreatedAt:     obj.CreatedAt.UTC(),
		LastUpdatedAt: obj.LastUpdatedAt.UTC(),
	}
}

func (m *model) dbSave(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `INSERT INTO ` + tableName + `
			(address, identifier, name, creator, recipient, mint,
			total_vesting_duration, created_timestamp, start_date, last_payment_timestamp, initial_deposit_amount,
			total_number_of_payouts, payout_interval, number_of_payments_made, next_payout_at,
			cancel_authority, autopay, state, slot, created_at, last_updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $20)

			ON CONFLICT (address)
			DO UPDATE
				SET identifier = $2, name = $3, creator = $4, recipient = $5, mint = $6,
					total_vesting_duration = $7, created_timestamp = $8, start_date = $9, last_payment_timestamp = $10, initial_deposit_amount = $11,
					total_number_of_payouts = $12, payout_interval = $13, number_of_payments_made = $14, next_payout_at = $15,
					cancel_authority = $16, autopay = $17, state = $18, slot = $19, last_updated_at = $20
				WHERE ` + tableName + `.address = $1 AND ` + tableName + `.slot < $19

			RETURNING ` + allColumns

		now := time.Now().UTC()

		err := tx.QueryRowxContext(
			ctx,
			query,

			m.Address,

			m.Identifier,
			m.Name,
			m.Creator,
			m.Recipient,
			m.Mint,

			m.TotalVestingDuration,
			m.CreatedTimestamp,
			m.StartDate,
			m.LastPaymentTimestamp,
			m.InitialDepositAmount,
			m.TotalNumberOfPayouts,
			m.PayoutInterval,
			m.NumberOfPaymentsMade,
			m.NextPayoutAt,

			m.CancelAuthority,
			m.Autopay,

			m.State,

			m.Slot,

			now,
		).StructScan(m)

		return pgutil.CheckNoRows(err, vault.ErrStaleVaultState)
	})
}

func dbGetByAddress(ctx context.Context, db *sqlx.DB, address string) (*model, error) {
	res := &model{}

	query := `SELECT ` + allColumns + `
		FROM ` + tableName + `
		WHERE address = $1
		LIMIT 1`

	err := db.GetContext(ctx, res, query, address)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, vault.ErrVaultNotFound)
	}
	return res, nil
}

func dbGetAllByColumn(ctx context.Context, db *sqlx.DB, column string, value interface{}, cursor q.Cursor, limit uint64, direction q.Ordering) ([]*model, error) {
	res := []*model{}

	query := `SELECT ` + allColumns + `
		FROM ` + tableName + `
		WHERE (` + column + ` = $1)`

	opts := []interface{}{value}
	query, opts = q.PaginateQuery(query, opts, cursor, limit, direction)

	err := db.SelectContext(ctx, &res, query, opts...)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, vault.ErrVaultNotFound)
	}

	if len(res) == 0 {
		return nil, vault.ErrVaultNotFound
	}
	return res, nil
}

func dbGetAutopayDue(ctx context.Context, db *sqlx.DB, now uint64, limit uint64) ([]*model, error) {
	res := []*model{}

	if limit == 0 || limit > q.MaxPagingLimit {
		limit = q.MaxPagingLimit
	}

	query := `SELECT ` + allColumns + `
		FROM ` + tableName + `
		WHERE state = $1 AND autopay AND number_of_payments_made < total_number_of_payouts AND next_payout_at <= $2
		ORDER BY next_payout_at ASC, id ASC
		LIMIT $3`

	err := db.SelectContext(ctx, &res, query, vault.StateActive, now, limit)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, vault.ErrVaultNotFound)
	}

	if len(res) == 0 {
		return nil, vault.ErrVaultNotFound
	}
	return res, nil
}

func dbGetCountByState(ctx context.Context, db *sqlx.DB, state vault.State) (uint64, error) {
	var res uint64

	query := `SELECT COUNT(*) FROM ` + tableName + ` WHERE state = $1`
	err := db.GetContext(ctx, &res, query, state)
	if err != nil {
		return 0, err
	}

	return res, nil
}
