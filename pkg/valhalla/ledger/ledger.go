package ledger

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
	"github.com/valhalla-so/valhalla-server/pkg/solana/system"
	"github.com/valhalla-so/valhalla-server/pkg/solana/token"
	sync_util "github.com/valhalla-so/valhalla-server/pkg/sync"
)

const (
	defaultLockStripes = 1024
)

// NativeLoader owns the accounts of builtin programs
var NativeLoader = mustBase58Decode("NativeLoader1111111111111111111111111111111")

// Receipt describes a committed transaction
type Receipt struct {
	ID        uuid.UUID
	Slot      uint64
	BlockTime time.Time
}

// Ledger is an in-process ledger of accounts. Every submitted transaction is
// executed atomically: its changes are committed together or not at all.
// Transactions that touch disjoint sets of writable accounts run
// concurrently, transactions that share a writable account are serialized.
type Ledger struct {
	log   *logrus.Entry
	clock clockwork.Clock
	locks *sync_util.StripedLock

	programsMu sync.RWMutex
	programs   map[string]Program

	stateMu  sync.RWMutex
	accounts map[string]*solana.AccountInfo
	slot     uint64
}

// New returns a ledger with the system, token, token-2022 and associated token
// account programs installed.
func New(clock clockwork.Clock) *Ledger {
	l := &Ledger{
		log:      logrus.StandardLogger().WithField("type", "valhalla/ledger"),
		clock:    clock,
		locks:    sync_util.NewStripedLock(defaultLockStripes),
		programs: make(map[string]Program),
		accounts: make(map[string]*solana.AccountInfo),
	}

	l.RegisterProgram(systemProgramID(), ProgramFunc(processSystemInstruction))
	l.RegisterProgram(token.ProgramKey, newTokenProgram(token.ProgramKey))
	l.RegisterProgram(token.Program2022Key, newTokenProgram(token.Program2022Key))
	l.RegisterProgram(token.AssociatedTokenAccountProgramKey, ProgramFunc(processAssociatedTokenInstruction))

	return l
}

// RegisterProgram installs a program under its id, replacing any previous
// program with the same id.
func (l *Ledger) RegisterProgram(id ed25519.PublicKey, program Program) {
	l.programsMu.Lock()
	l.programs[string(id)] = program
	l.programsMu.Unlock()

	l.stateMu.Lock()
	l.accounts[string(id)] = &solana.AccountInfo{
		Owner:      NativeLoader,
		Lamports:   1,
		Executable: true,
	}
	l.stateMu.Unlock()
}

// Submit executes the instructions as a single atomic transaction signed by
// signers.
func (l *Ledger) Submit(ctx context.Context, signers []ed25519.PrivateKey, instructions ...solana.Instruction) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(instructions) == 0 {
		return nil, ErrEmptyTransaction
	}

	signed := make(map[string]struct{})
	for _, signer := range signers {
		signed[string(signer.Public().(ed25519.PublicKey))] = struct{}{}
	}

	writable, readonly := lockSets(instructions)
	unlock := l.locks.LockAll(writable, readonly)
	defer unlock()

	id := uuid.New()
	now := l.clock.Now()

	log := l.log.WithFields(logrus.Fields{
		"method":       "Submit",
		"transaction":  id.String(),
		"instructions": len(instructions),
	})

	l.stateMu.RLock()
	slot := l.slot + 1
	l.stateMu.RUnlock()

	txn := newTransaction(l, instructions)
	for i, ix := range instructions {
		for _, account := range ix.Accounts {
			if !account.IsSigner {
				continue
			}
			if _, ok := signed[string(account.PublicKey)]; !ok {
				err := solana.InstructionError{Index: i, Err: ErrMissingRequiredSignature}
				log.WithError(err).Debug("transaction failed")
				return nil, err
			}
		}

		invokeCtx := &InvokeContext{
			ctx:           ctx,
			log:           log.WithField("instruction", i),
			ledger:        l,
			txn:           txn,
			program:       ix.Program,
			ix:            ix,
			unixTimestamp: now.Unix(),
			slot:          slot,
		}
		if err := l.process(invokeCtx, ix); err != nil {
			err = solana.InstructionError{Index: i, Err: err}
			log.WithError(err).Debug("transaction failed")
			return nil, err
		}
	}

	l.stateMu.Lock()
	for key, info := range txn.changes() {
		if info == nil {
			delete(l.accounts, key)
		} else {
			l.accounts[key] = info
		}
	}
	l.slot++
	slot = l.slot
	l.stateMu.Unlock()

	log.WithField("slot", slot).Trace("transaction committed")

	return &Receipt{
		ID:        id,
		Slot:      slot,
		BlockTime: now,
	}, nil
}

func (l *Ledger) process(ctx *InvokeContext, ix solana.Instruction) error {
	l.programsMu.RLock()
	program, ok := l.programs[string(ix.Program)]
	l.programsMu.RUnlock()
	if !ok {
		return errors.Wrapf(ErrUnknownProgram, "program %s", keyString(ix.Program))
	}

	return program.Process(ctx, ix)
}

// GetAccountInfo returns the committed state of an account
func (l *Ledger) GetAccountInfo(ctx context.Context, key ed25519.PublicKey) (*solana.AccountInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info := l.loadAccount(key)
	if info == nil {
		return nil, ErrAccountNotFound
	}
	return info, nil
}

// GetProgramAccounts returns every account owned by program that matches all
// filters, ordered by address.
func (l *Ledger) GetProgramAccounts(ctx context.Context, program ed25519.PublicKey, filters ...solana.AccountFilter) ([]solana.KeyedAccount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.stateMu.RLock()
	defer l.stateMu.RUnlock()

	var res []solana.KeyedAccount
	for key, info := range l.accounts {
		if !bytes.Equal(info.Owner, program) {
			continue
		}

		matches := true
		for _, filter := range filters {
			if !filter.Matches(info.Data) {
				matches = false
				break
			}
		}
		if !matches {
			continue
		}

		res = append(res, solana.KeyedAccount{
			PublicKey: ed25519.PublicKey(key),
			Account:   info.Clone(),
		})
	}

	sort.Slice(res, func(i, j int) bool {
		return bytes.Compare(res[i].PublicKey, res[j].PublicKey) < 0
	})
	return res, nil
}

// GetSlot returns the slot of the last committed transaction
func (l *Ledger) GetSlot(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	return l.slot, nil
}

// GetBlockTime returns the clock the next transaction will observe
func (l *Ledger) GetBlockTime(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	return l.clock.Now(), nil
}

// GetBalance returns the lamports held by an account. Missing accounts have
// no lamports.
func (l *Ledger) GetBalance(ctx context.Context, key ed25519.PublicKey) (uint64, error) {
	info, err := l.GetAccountInfo(ctx, key)
	if err == ErrAccountNotFound {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return info.Lamports, nil
}

// Airdrop credits lamports to a system account, creating it if needed.
func (l *Ledger) Airdrop(ctx context.Context, key ed25519.PublicKey, lamports uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock := l.locks.LockAll([][]byte{key}, nil)
	defer unlock()

	l.stateMu.Lock()
	defer l.stateMu.Unlock()

	info, ok := l.accounts[string(key)]
	if !ok {
		info = &solana.AccountInfo{Owner: systemProgramID()}
	} else {
		info = info.Clone()
	}

	if !bytes.Equal(info.Owner, systemProgramID()) {
		return ErrInvalidAccountOwner
	}
	if info.Lamports+lamports < info.Lamports {
		return ErrOverflow
	}
	info.Lamports += lamports

	l.accounts[string(key)] = info
	l.slot++
	return nil
}

// GetRentExemptMinimum returns the lamports an account of size bytes must hold
func (l *Ledger) GetRentExemptMinimum(_ context.Context, size int) uint64 {
	return system.RentExemptMinimum(size)
}

func (l *Ledger) loadAccount(key ed25519.PublicKey) *solana.AccountInfo {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()

	info, ok := l.accounts[string(key)]
	if !ok {
		return nil
	}
	return info.Clone()
}

func systemProgramID() ed25519.PublicKey {
	return system.ProgramKey[:]
}

func keyString(key ed25519.PublicKey) string {
	return base58.Encode(key)
}

func mustBase58Decode(value string) ed25519.PublicKey {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}
