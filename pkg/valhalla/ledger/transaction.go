package ledger

import (
	"crypto/ed25519"
	"sort"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
)

// transaction is a copy-on-write view over the ledger accounts. Nothing is
// visible to other transactions until commit.
type transaction struct {
	ledger *Ledger

	// keys referenced by the transaction's instructions. Nothing else can be
	// loaded or stored.
	keys map[string]struct{}

	// loaded holds private copies. A nil entry is an account that does not
	// exist.
	loaded map[string]*solana.AccountInfo
	dirty  map[string]struct{}
}

func newTransaction(l *Ledger, instructions []solana.Instruction) *transaction {
	keys := make(map[string]struct{})
	for _, ix := range instructions {
		keys[string(ix.Program)] = struct{}{}
		for _, account := range ix.Accounts {
			keys[string(account.PublicKey)] = struct{}{}
		}
	}

	return &transaction{
		ledger: l,
		keys:   keys,
		loaded: make(map[string]*solana.AccountInfo),
		dirty:  make(map[string]struct{}),
	}
}

// lockSets returns the writable and read-only keys of a set of instructions.
func lockSets(instructions []solana.Instruction) (writable, readonly [][]byte) {
	isWritable := make(map[string]bool)
	for _, ix := range instructions {
		if _, ok := isWritable[string(ix.Program)]; !ok {
			isWritable[string(ix.Program)] = false
		}
		for _, account := range ix.Accounts {
			isWritable[string(account.PublicKey)] = isWritable[string(account.PublicKey)] || account.IsWritable
		}
	}

	keys := make([]string, 0, len(isWritable))
	for key := range isWritable {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if isWritable[key] {
			writable = append(writable, []byte(key))
		} else {
			readonly = append(readonly, []byte(key))
		}
	}
	return writable, readonly
}

func (t *transaction) get(key ed25519.PublicKey) (*solana.AccountInfo, error) {
	if _, ok := t.keys[string(key)]; !ok {
		return nil, ErrMissingAccount
	}

	if info, ok := t.loaded[string(key)]; ok {
		return info, nil
	}

	info := t.ledger.loadAccount(key)
	t.loaded[string(key)] = info
	return info, nil
}

func (t *transaction) put(key ed25519.PublicKey, info *solana.AccountInfo) error {
	if _, ok := t.keys[string(key)]; !ok {
		return ErrMissingAccount
	}

	t.loaded[string(key)] = info
	t.dirty[string(key)] = struct{}{}
	return nil
}

func (t *transaction) delete(key ed25519.PublicKey) error {
	return t.put(key, nil)
}

// changes returns the modified accounts. A nil value is a deleted account.
func (t *transaction) changes() map[string]*solana.AccountInfo {
	changes := make(map[string]*solana.AccountInfo, len(t.dirty))
	for key := range t.dirty {
		changes[key] = t.loaded[key]
	}
	return changes
}
