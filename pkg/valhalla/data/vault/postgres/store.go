package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	pgutil "github.com/valhalla-so/valhalla-server/pkg/database/postgres"
	"github.com/valhalla-so/valhalla-server/pkg/database/query"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/data/vault"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres-backed vault.Store
func New(db *sql.DB) vault.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Save implements vault.Store.Save
func (s *store) Save(ctx context.Context, record *vault.Record) error {
	model, err := toModel(record)
	if err != nil {
		return err
	}

	err = pgutil.ExecuteRetryable(func() error {
		return model.dbSave(ctx, s.db)
	})
	if err != nil {
		return err
	}

	res := fromModel(model)
	res.CopyTo(record)

	return nil
}

// GetByAddress implements vault.Store.GetByAddress
func (s *store) GetByAddress(ctx context.Context, address string) (*vault.Record, error) {
	model, err := dbGetByAddress(ctx, s.db, address)
	if err != nil {
		return nil, err
	}

	return fromModel(model), nil
}

// GetAllByCreator implements vault.Store.GetAllByCreator
func (s *store) GetAllByCreator(ctx context.Context, creator string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*vault.Record, error) {
	models, err := dbGetAllByColumn(ctx, s.db, "creator", creator, cursor, limit, direction)
	if err != nil {
		return nil, err
	}
	return fromModels(models), nil
}

// GetAllByRecipient implements vault.Store.GetAllByRecipient
func (s *store) GetAllByRecipient(ctx context.Context, recipient string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*vault.Record, error) {
	models, err := dbGetAllByColumn(ctx, s.db, "recipient", recipient, cursor, limit, direction)
	if err != nil {
		return nil, err
	}
	return fromModels(models), nil
}

// GetAllByMint implements vault.Store.GetAllByMint
func (s *store) GetAllByMint(ctx context.Context, mint string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*vault.Record, error) {
	models, err := dbGetAllByColumn(ctx, s.db, "mint", mint, cursor, limit, direction)
	if err != nil {
		return nil, err
	}
	return fromModels(models), nil
}

// GetAllByState implements vault.Store.GetAllByState
func (s *store) GetAllByState(ctx context.Context, state vault.State, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*vault.Record, error) {
	models, err := dbGetAllByColumn(ctx, s.db, "state", state, cursor, limit, direction)
	if err != nil {
		return nil, err
	}
	return fromModels(models), nil
}

// GetAutopayDue implements vault.Store.GetAutopayDue
func (s *store) GetAutopayDue(ctx context.Context, now uint64, limit uint64) ([]*vault.Record, error) {
	models, err := dbGetAutopayDue(ctx, s.db, now, limit)
	if err != nil {
		return nil, err
	}
	return fromModels(models), nil
}

// GetCountByState implements vault.Store.GetCountByState
func (s *store) GetCountByState(ctx context.Context, state vault.State) (uint64, error) {
	return dbGetCountByState(ctx, s.db, state)
}

func fromModels(models []*model) []*vault.Record {
	res := make([]*vault.Record, len(models))
	for i, model := range models {
		res[i] = fromModel(model)
	}
	return res
}
