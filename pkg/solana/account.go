package solana

import (
	"bytes"
	"crypto/ed25519"
)

// AccountInfo is the state of a single ledger account.
type AccountInfo struct {
	Data       []byte
	Owner      ed25519.PublicKey
	Lamports   uint64
	Executable bool
}

// Clone returns a deep copy of the account.
func (a *AccountInfo) Clone() *AccountInfo {
	cloned := &AccountInfo{
		Data:       make([]byte, len(a.Data)),
		Owner:      make(ed25519.PublicKey, len(a.Owner)),
		Lamports:   a.Lamports,
		Executable: a.Executable,
	}
	copy(cloned.Data, a.Data)
	copy(cloned.Owner, a.Owner)
	return cloned
}

// KeyedAccount is an AccountInfo along with its address, as returned by
// program account enumeration.
type KeyedAccount struct {
	PublicKey ed25519.PublicKey
	Account   *AccountInfo
}

// MemcmpFilter matches accounts whose data contains Bytes at Offset.
type MemcmpFilter struct {
	Offset int
	Bytes  []byte
}

// Matches returns whether the filter matches the account data.
func (f MemcmpFilter) Matches(data []byte) bool {
	if f.Offset < 0 || f.Offset+len(f.Bytes) > len(data) {
		return false
	}
	return bytes.Equal(data[f.Offset:f.Offset+len(f.Bytes)], f.Bytes)
}

// DataSizeFilter matches accounts whose data is exactly Size bytes long.
type DataSizeFilter struct {
	Size int
}

// Matches returns whether the filter matches the account data.
func (f DataSizeFilter) Matches(data []byte) bool {
	return len(data) == f.Size
}

// AccountFilter is a getProgramAccounts style filter over raw account data.
type AccountFilter interface {
	Matches(data []byte) bool
}
