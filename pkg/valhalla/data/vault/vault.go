package vault

import (
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/valhalla-so/valhalla-server/pkg/solana/valhalla"
)

var (
	ErrVaultNotFound   = errors.New("no records could be found")
	ErrInvalidVault    = errors.New("invalid vault")
	ErrStaleVaultState = errors.New("vault state is stale")
)

type State uint8

const (
	StateUnknown State = iota
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Record is the indexed view of a vault account. Closed records keep the
// last observed account state.
type Record struct {
	Id uint64

	Address string

	Identifier uint64
	Name       string
	Creator    string
	Recipient  string
	Mint       string

	TotalVestingDuration uint64
	CreatedTimestamp     uint64
	StartDate            uint64
	LastPaymentTimestamp uint64
	InitialDepositAmount uint64
	TotalNumberOfPayouts uint64
	PayoutInterval       uint64
	NumberOfPaymentsMade uint64
	NextPayoutAt         uint64

	CancelAuthority valhalla.Authority
	Autopay         bool

	State State

	Slot uint64

	CreatedAt     time.Time
	LastUpdatedAt time.Time
}

// NewFromProgramAccount returns a new active record observed at slot
func NewFromProgramAccount(address []byte, data *valhalla.VaultAccount, slot uint64) (*Record, error) {
	r := &Record{
		Address: base58.Encode(address),
	}
	if err := r.UpdateFromProgramAccount(data, slot); err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateFromProgramAccount refreshes the record with the account state
// observed at slot.
func (r *Record) UpdateFromProgramAccount(data *valhalla.VaultAccount, slot uint64) error {
	// Avoid updates looking backwards in ledger history
	if slot <= r.Slot {
		return ErrStaleVaultState
	}

	r.Identifier = data.Identifier
	r.Name = valhalla.NameToString(data.Name)
	r.Creator = base58.Encode(data.Creator)
	r.Recipient = base58.Encode(data.Recipient)
	r.Mint = base58.Encode(data.Mint)

	r.TotalVestingDuration = data.TotalVestingDuration
	r.CreatedTimestamp = data.CreatedTimestamp
	r.StartDate = data.StartDate
	r.LastPaymentTimestamp = data.LastPaymentTimestamp
	r.InitialDepositAmount = data.InitialDepositAmount
	r.TotalNumberOfPayouts = data.TotalNumberOfPayouts
	r.PayoutInterval = data.PayoutInterval
	r.NumberOfPaymentsMade = data.NumberOfPaymentsMade
	r.NextPayoutAt = data.NextPayoutAt()

	r.CancelAuthority = data.CancelAuthority
	r.Autopay = data.Autopay

	r.State = StateActive
	r.Slot = slot

	return nil
}

// MarkClosed records the vault account was no longer present at slot
func (r *Record) MarkClosed(slot uint64) error {
	if slot <= r.Slot {
		return ErrStaleVaultState
	}

	r.State = StateClosed
	r.Slot = slot
	return nil
}

func (r *Record) IsActive() bool {
	return r.State == StateActive
}

func (r *Record) PaymentsComplete() bool {
	return r.NumberOfPaymentsMade >= r.TotalNumberOfPayouts
}

// IsAutopayDue reports whether the autopay worker should attempt a payout at now
func (r *Record) IsAutopayDue(now uint64) bool {
	return r.IsActive() && r.Autopay && !r.PaymentsComplete() && r.NextPayoutAt <= now
}

func (r *Record) Validate() error {
	if len(r.Address) == 0 {
		return errors.Wrap(ErrInvalidVault, "address is required")
	}

	if len(r.Creator) == 0 {
		return errors.Wrap(ErrInvalidVault, "creator is required")
	}

	if len(r.Recipient) == 0 {
		return errors.Wrap(ErrInvalidVault, "recipient is required")
	}

	if len(r.Mint) == 0 {
		return errors.Wrap(ErrInvalidVault, "mint is required")
	}

	if r.TotalNumberOfPayouts == 0 {
		return errors.Wrap(ErrInvalidVault, "total number of payouts must be positive")
	}

	if !r.CancelAuthority.IsValid() {
		return errors.Wrap(ErrInvalidVault, "invalid cancel authority")
	}

	if r.State == StateUnknown {
		return errors.Wrap(ErrInvalidVault, "state is required")
	}

	if r.Slot == 0 {
		return errors.Wrap(ErrInvalidVault, "slot is required")
	}

	return nil
}

func (r *Record) Clone() *Record {
	return &Record{
		Id: r.Id,

		Address: r.Address,

		Identifier: r.Identifier,
		Name:       r.Name,
		Creator:    r.Creator,
		Recipient:  r.Recipient,
		Mint:       r.Mint,

		TotalVestingDuration: r.TotalVestingDuration,
		CreatedTimestamp:     r.CreatedTimestamp,
		StartDate:            r.StartDate,
		LastPaymentTimestamp: r.LastPaymentTimestamp,
		InitialDepositAmount: r.InitialDepositAmount,
		TotalNumberOfPayouts: r.TotalNumberOfPayouts,
		PayoutInterval:       r.PayoutInterval,
		NumberOfPaymentsMade: r.NumberOfPaymentsMade,
		NextPayoutAt:         r.NextPayoutAt,

		CancelAuthority: r.CancelAuthority,
		Autopay:         r.Autopay,

		State: r.State,

		Slot: r.Slot,

		CreatedAt:     r.CreatedAt,
		LastUpdatedAt: r.LastUpdatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id

	dst.Address = r.Address

	dst.Identifier = r.Identifier
	dst.Name = r.Name
	dst.Creator = r.Creator
	dst.Recipient = r.Recipient
	dst.Mint = r.Mint

	dst.TotalVestingDuration = r.TotalVestingDuration
	dst.CreatedTimestamp = r.CreatedTimestamp
	dst.StartDate = r.StartDate
	dst.LastPaymentTimestamp = r.LastPaymentTimestamp
	dst.InitialDepositAmount = r.InitialDepositAmount
	dst.TotalNumberOfPayouts = r.TotalNumberOfPayouts
	dst.PayoutInterval = r.PayoutInterval
	dst.NumberOfPaymentsMade = r.NumberOfPaymentsMade
	dst.NextPayoutAt = r.NextPayoutAt

	dst.CancelAuthority = r.CancelAuthority
	dst.Autopay = r.Autopay

	dst.State = r.State

	dst.Slot = r.Slot

	dst.CreatedAt = r.CreatedAt
	dst.LastUpdatedAt = r.LastUpdatedAt
}
