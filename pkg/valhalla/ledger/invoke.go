package ledger

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
)

const maxInvokeDepth = 4

// Program processes instructions addressed to its program id
type Program interface {
	Process(ctx *InvokeContext, ix solana.Instruction) error
}

// ProgramFunc adapts a function to the Program interface
type ProgramFunc func(ctx *InvokeContext, ix solana.Instruction) error

func (f ProgramFunc) Process(ctx *InvokeContext, ix solana.Instruction) error {
	return f(ctx, ix)
}

// InvokeContext is the view a program has of the ledger while processing a
// single instruction.
type InvokeContext struct {
	ctx    context.Context
	log    *logrus.Entry
	ledger *Ledger
	txn    *transaction

	program ed25519.PublicKey
	ix      solana.Instruction
	depth   int

	unixTimestamp int64
	slot          uint64
}

func (c *InvokeContext) Context() context.Context {
	return c.ctx
}

func (c *InvokeContext) Logger() *logrus.Entry {
	return c.log
}

// ProgramID is the program currently executing
func (c *InvokeContext) ProgramID() ed25519.PublicKey {
	return c.program
}

// UnixTimestamp is the clock sysvar, fixed for the whole transaction
func (c *InvokeContext) UnixTimestamp() int64 {
	return c.unixTimestamp
}

// Slot is the slot the transaction will land in
func (c *InvokeContext) Slot() uint64 {
	return c.slot
}

// IsSigner reports whether key signed the current instruction
func (c *InvokeContext) IsSigner(key ed25519.PublicKey) bool {
	return c.ix.IsSigner(key)
}

// IsWritable reports whether key is writable in the current instruction
func (c *InvokeContext) IsWritable(key ed25519.PublicKey) bool {
	return c.ix.IsWritable(key)
}

// GetAccount returns a copy of an account, or ErrAccountNotFound
func (c *InvokeContext) GetAccount(key ed25519.PublicKey) (*solana.AccountInfo, error) {
	info, err := c.txn.get(key)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, ErrAccountNotFound
	}
	return info.Clone(), nil
}

func (c *InvokeContext) AccountExists(key ed25519.PublicKey) (bool, error) {
	info, err := c.txn.get(key)
	if err != nil {
		return false, err
	}
	return info != nil, nil
}

// SetAccountData replaces the data of an account owned by the executing
// program. The size of the account cannot change.
func (c *InvokeContext) SetAccountData(key ed25519.PublicKey, data []byte) error {
	info, err := c.writableOwnedAccount(key)
	if err != nil {
		return err
	}

	if len(data) != len(info.Data) {
		return ErrInvalidAccountData
	}

	updated := info.Clone()
	copy(updated.Data, data)
	return c.txn.put(key, updated)
}

// CloseAccount moves all lamports of an account owned by the executing program
// to destination and deletes it.
func (c *InvokeContext) CloseAccount(key, destination ed25519.PublicKey) error {
	info, err := c.writableOwnedAccount(key)
	if err != nil {
		return err
	}

	if err := c.credit(destination, info.Lamports); err != nil {
		return err
	}
	return c.txn.delete(key)
}

// Invoke processes an instruction on behalf of the current program. The
// current program's signer and writable privileges carry over.
func (c *InvokeContext) Invoke(ix solana.Instruction) error {
	return c.InvokeSigned(ix)
}

// InvokeSigned is Invoke with additional signatures for program derived
// addresses of the current program, one seed set per address.
func (c *InvokeContext) InvokeSigned(ix solana.Instruction, signerSeeds ...[][]byte) error {
	if c.depth+1 > maxInvokeDepth {
		return ErrCallDepth
	}

	signers := make(map[string]struct{})
	for _, account := range c.ix.Accounts {
		if account.IsSigner {
			signers[string(account.PublicKey)] = struct{}{}
		}
	}
	for _, seeds := range signerSeeds {
		pda, err := solana.CreateProgramAddress(c.program, seeds...)
		if err != nil {
			return ErrInvalidSeeds
		}
		signers[string(pda)] = struct{}{}
	}

	for _, account := range ix.Accounts {
		if account.IsSigner {
			if _, ok := signers[string(account.PublicKey)]; !ok {
				return errors.Wrapf(ErrPrivilegeEscalation, "%s is not a signer", keyString(account.PublicKey))
			}
		}
		if account.IsWritable && !c.ix.IsWritable(account.PublicKey) {
			return errors.Wrapf(ErrPrivilegeEscalation, "%s is not writable", keyString(account.PublicKey))
		}
	}

	callee := &InvokeContext{
		ctx:           c.ctx,
		log:           c.log,
		ledger:        c.ledger,
		txn:           c.txn,
		program:       ix.Program,
		ix:            ix,
		depth:         c.depth + 1,
		unixTimestamp: c.unixTimestamp,
		slot:          c.slot,
	}
	return c.ledger.process(callee, ix)
}

func (c *InvokeContext) writableOwnedAccount(key ed25519.PublicKey) (*solana.AccountInfo, error) {
	if !c.ix.IsWritable(key) {
		return nil, ErrReadonlyDataModified
	}

	info, err := c.txn.get(key)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, ErrAccountNotFound
	}
	if !bytes.Equal(info.Owner, c.program) {
		return nil, ErrExternalDataModified
	}
	return info, nil
}

// debit removes lamports from an account owned by the executing program
func (c *InvokeContext) debit(key ed25519.PublicKey, lamports uint64) error {
	info, err := c.writableOwnedAccount(key)
	if errors.Is(err, ErrExternalDataModified) {
		return ErrExternalLamportSpend
	} else if errors.Is(err, ErrAccountNotFound) {
		return ErrInsufficientLamports
	} else if err != nil {
		return err
	}

	if info.Lamports < lamports {
		return ErrInsufficientLamports
	}

	updated := info.Clone()
	updated.Lamports -= lamports
	return c.txn.put(key, updated)
}

// credit adds lamports to any writable account, creating a system account if
// none exists.
func (c *InvokeContext) credit(key ed25519.PublicKey, lamports uint64) error {
	if !c.ix.IsWritable(key) {
		return ErrReadonlyDataModified
	}

	info, err := c.txn.get(key)
	if err != nil {
		return err
	}

	var updated *solana.AccountInfo
	if info == nil {
		updated = &solana.AccountInfo{Owner: systemProgramID()}
	} else {
		updated = info.Clone()
	}

	if updated.Lamports+lamports < updated.Lamports {
		return ErrOverflow
	}
	updated.Lamports += lamports
	return c.txn.put(key, updated)
}

// create stores a new account. Only the builtin programs can create accounts.
func (c *InvokeContext) create(key ed25519.PublicKey, info *solana.AccountInfo) error {
	if !c.ix.IsWritable(key) {
		return ErrReadonlyDataModified
	}
	return c.txn.put(key, info)
}

// store overwrites an account owned by the executing program, including its
// lamports.
func (c *InvokeContext) store(key ed25519.PublicKey, info *solana.AccountInfo) error {
	if _, err := c.writableOwnedAccount(key); err != nil {
		return err
	}
	return c.txn.put(key, info)
}

func (c *InvokeContext) remove(key ed25519.PublicKey) error {
	if _, err := c.writableOwnedAccount(key); err != nil {
		return err
	}
	return c.txn.delete(key)
}
