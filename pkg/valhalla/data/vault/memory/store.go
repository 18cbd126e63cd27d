package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/valhalla-so/valhalla-server/pkg/database/query"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/data/vault"
)

type store struct {
	mu      sync.Mutex
	records []*vault.Record
	last    uint64
}

type ById []*vault.Record

func (a ById) Len() int           { return len(a) }
func (a ById) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a ById) Less(i, j int) bool { return a[i].Id < a[j].Id }

// New returns a new in memory vault.Store
func New() vault.Store {
	return &store{}
}

// Save implements vault.Store.Save
func (s *store) Save(_ context.Context, data *vault.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()

	if item := s.findByAddress(data.Address); item != nil {
		if data.Slot <= item.Slot {
			return vault.ErrStaleVaultState
		}

		id, createdAt := item.Id, item.CreatedAt
		data.CopyTo(item)
		item.Id = id
		item.CreatedAt = createdAt
		item.LastUpdatedAt = now

		item.CopyTo(data)
		return nil
	}

	s.last++
	data.Id = s.last
	data.CreatedAt = now
	data.LastUpdatedAt = now
	s.records = append(s.records, data.Clone())

	return nil
}

// GetByAddress implements vault.Store.GetByAddress
func (s *store) GetByAddress(_ context.Context, address string) (*vault.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.findByAddress(address); item != nil {
		return item.Clone(), nil
	}
	return nil, vault.ErrVaultNotFound
}

// GetAllByCreator implements vault.Store.GetAllByCreator
func (s *store) GetAllByCreator(_ context.Context, creator string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*vault.Record, error) {
	return s.getAll(func(item *vault.Record) bool {
		return item.Creator == creator
	}, cursor, limit, direction)
}

// GetAllByRecipient implements vault.Store.GetAllByRecipient
func (s *store) GetAllByRecipient(_ context.Context, recipient string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*vault.Record, error) {
	return s.getAll(func(item *vault.Record) bool {
		return item.Recipient == recipient
	}, cursor, limit, direction)
}

// GetAllByMint implements vault.Store.GetAllByMint
func (s *store) GetAllByMint(_ context.Context, mint string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*vault.Record, error) {
	return s.getAll(func(item *vault.Record) bool {
		return item.Mint == mint
	}, cursor, limit, direction)
}

// GetAllByState implements vault.Store.GetAllByState
func (s *store) GetAllByState(_ context.Context, state vault.State, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*vault.Record, error) {
	return s.getAll(func(item *vault.Record) bool {
		return item.State == state
	}, cursor, limit, direction)
}

// GetAutopayDue implements vault.Store.GetAutopayDue
func (s *store) GetAutopayDue(_ context.Context, now uint64, limit uint64) ([]*vault.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.findAll(func(item *vault.Record) bool {
		return item.IsAutopayDue(now)
	})
	if len(res) == 0 {
		return nil, vault.ErrVaultNotFound
	}

	sort.SliceStable(res, func(i, j int) bool {
		if res[i].NextPayoutAt != res[j].NextPayoutAt {
			return res[i].NextPayoutAt < res[j].NextPayoutAt
		}
		return res[i].Id < res[j].Id
	})

	if limit > 0 && len(res) > int(limit) {
		res = res[:limit]
	}
	return res, nil
}

// GetCountByState implements vault.Store.GetCountByState
func (s *store) GetCountByState(_ context.Context, state vault.State) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.findAll(func(item *vault.Record) bool {
		return item.State == state
	})
	return uint64(len(items)), nil
}

func (s *store) getAll(predicate func(*vault.Record) bool, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*vault.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.filter(s.findAll(predicate), cursor, limit, direction)
	if len(res) == 0 {
		return nil, vault.ErrVaultNotFound
	}
	return res, nil
}

func (s *store) findByAddress(address string) *vault.Record {
	for _, item := range s.records {
		if address == item.Address {
			return item
		}
	}
	return nil
}

func (s *store) findAll(predicate func(*vault.Record) bool) []*vault.Record {
	res := make([]*vault.Record, 0)
	for _, item := range s.records {
		if predicate(item) {
			res = append(res, item.Clone())
		}
	}
	return res
}

func (s *store) filter(items []*vault.Record, cursor query.Cursor, limit uint64, direction query.Ordering) []*vault.Record {
	var start uint64

	if direction == query.Descending {
		start = s.last + 1
	}
	if len(cursor) > 0 {
		start = cursor.ToUint64()
	}

	var res []*vault.Record
	for _, item := range items {
		if item.Id > start && direction == query.Ascending {
			res = append(res, item)
		}
		if item.Id < start && direction == query.Descending {
			res = append(res, item)
		}
	}

	if direction == query.Descending {
		sort.Sort(sort.Reverse(ById(res)))
	} else {
		sort.Sort(ById(res))
	}

	if limit = query.ClampLimit(limit); uint64(len(res)) > limit {
		return res[:limit]
	}
	return res
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.last = 0
}
