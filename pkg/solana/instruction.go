package solana

import (
	"bytes"
	"crypto/ed25519"
	"errors"
)

var (
	ErrIncorrectProgram     = errors.New("incorrect program")
	ErrIncorrectInstruction = errors.New("incorrect instruction")
)

// AccountMeta is an account an instruction reads or writes, along with
// whether its key must sign the transaction
type AccountMeta struct {
	PublicKey  ed25519.PublicKey
	IsSigner   bool
	IsWritable bool
}

// NewAccountMeta returns a writable account meta
func NewAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{PublicKey: pub, IsSigner: isSigner, IsWritable: true}
}

// NewReadonlyAccountMeta returns a readonly account meta
func NewReadonlyAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{PublicKey: pub, IsSigner: isSigner}
}

type Instruction struct {
	Program  ed25519.PublicKey
	Accounts []AccountMeta
	Data     []byte
}

func NewInstruction(program ed25519.PublicKey, data []byte, accounts ...AccountMeta) Instruction {
	return Instruction{
		Program:  program,
		Data:     data,
		Accounts: accounts,
	}
}

// IsSigner reports whether any meta for key is a signer
func (i Instruction) IsSigner(key ed25519.PublicKey) bool {
	return i.anyMeta(key, func(meta AccountMeta) bool { return meta.IsSigner })
}

// IsWritable reports whether any meta for key is writable
func (i Instruction) IsWritable(key ed25519.PublicKey) bool {
	return i.anyMeta(key, func(meta AccountMeta) bool { return meta.IsWritable })
}

func (i Instruction) anyMeta(key ed25519.PublicKey, matches func(AccountMeta) bool) bool {
	for _, meta := range i.Accounts {
		if matches(meta) && bytes.Equal(meta.PublicKey, key) {
			return true
		}
	}
	return false
}
