package token

import (
	"crypto/ed25519"
	"math/bits"

	"github.com/valhalla-so/valhalla-server/pkg/solana/binary"
)

type AccountState byte

const (
	AccountStateUninitialized AccountState = iota
	AccountStateInitialized
	AccountStateFrozen
)

// Reference: https://github.com/solana-labs/solana-program-library/blob/11b1e3eefdd4e523768d63f7c70a7aa391ea0d02/token/program/src/state.rs#L125
const AccountSize = 165

// Reference: https://github.com/solana-labs/solana-program-library/blob/11b1e3eefdd4e523768d63f7c70a7aa391ea0d02/token/program/src/state.rs#L17
const MintSize = 82

const optionSize = 4

// Token-2022 extension layout. Extended accounts are padded to AccountSize,
// followed by an account type byte and a sequence of type-length-value
// entries.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/master/token/program-2022/src/extension/mod.rs
const (
	accountTypeMint    byte = 1
	accountTypeAccount byte = 2

	extensionTransferFeeConfig uint16 = 1
	extensionTransferFeeAmount uint16 = 2

	tlvHeaderSize              = 4
	transferFeeConfigSize      = 32 + 32 + 8 + 2*transferFeeSize
	transferFeeAmountSize      = 8
	transferFeeSize            = 8 + 8 + 2
	extendedBaseSize           = AccountSize + 1
	AccountWithTransferFeeSize = extendedBaseSize + tlvHeaderSize + transferFeeAmountSize
	MintWithTransferFeeSize    = extendedBaseSize + tlvHeaderSize + transferFeeConfigSize
)

// MaxBasisPoints is the denominator of basis point fees.
const MaxBasisPoints = 10_000

type Account struct {
	// The mint associated with this account
	Mint ed25519.PublicKey
	// The owner of this account.
	Owner ed25519.PublicKey
	// The amount of tokens this account holds.
	Amount uint64
	// If set, then the 'DelegatedAmount' represents the amount
	// authorized by the delegate.
	Delegate ed25519.PublicKey
	/// The account's state
	State AccountState
	// If set, this is a native token, and the value logs the rent-exempt reserve.
	IsNative *uint64
	// The amount delegated
	DelegatedAmount uint64
	// Optional authority to close the account.
	CloseAuthority ed25519.PublicKey
	// Transfer fees withheld in this account, present only for accounts of a
	// mint with the transfer fee extension.
	WithheldAmount *uint64
}

func (a *Account) Marshal() []byte {
	size := AccountSize
	if a.WithheldAmount != nil {
		size = AccountWithTransferFeeSize
	}
	b := make([]byte, size)

	var offset int
	binary.PutKey32(b, a.Mint, &offset)
	binary.PutKey32(b[offset:], a.Owner, &offset)
	binary.PutUint64(b[offset:], a.Amount, &offset)
	binary.PutOptionalKey32(b[offset:], a.Delegate, &offset, optionSize)
	b[offset] = byte(a.State)
	offset++
	binary.PutOptionalUint64(b[offset:], a.IsNative, &offset, optionSize)
	binary.PutUint64(b[offset:], a.DelegatedAmount, &offset)
	binary.PutOptionalKey32(b[offset:], a.CloseAuthority, &offset, optionSize)

	if a.WithheldAmount != nil {
		offset = AccountSize
		binary.PutUint8(b[offset:], accountTypeAccount, &offset)
		binary.PutUint16(b[offset:], extensionTransferFeeAmount, &offset)
		binary.PutUint16(b[offset:], transferFeeAmountSize, &offset)
		binary.PutUint64(b[offset:], *a.WithheldAmount, &offset)
	}

	return b
}

func (a *Account) Unmarshal(b []byte) bool {
	if len(b) != AccountSize && len(b) != AccountWithTransferFeeSize {
		return false
	}

	var offset int
	binary.GetKey32(b, &a.Mint, &offset)
	binary.GetKey32(b[offset:], &a.Owner, &offset)
	binary.GetUint64(b[offset:], &a.Amount, &offset)
	binary.GetOptionalKey32(b[offset:], &a.Delegate, &offset, optionSize)
	a.State = AccountState(b[offset])
	offset++
	binary.GetOptionalUint64(b[offset:], &a.IsNative, &offset, optionSize)
	binary.GetUint64(b[offset:], &a.DelegatedAmount, &offset)
	binary.GetOptionalKey32(b[offset:], &a.CloseAuthority, &offset, optionSize)

	a.WithheldAmount = nil
	if len(b) == AccountWithTransferFeeSize {
		var accountType uint8
		var extension, length uint16
		offset = AccountSize
		binary.GetUint8(b[offset:], &accountType, &offset)
		binary.GetUint16(b[offset:], &extension, &offset)
		binary.GetUint16(b[offset:], &length, &offset)
		if accountType != accountTypeAccount || extension != extensionTransferFeeAmount || length != transferFeeAmountSize {
			return false
		}

		var withheld uint64
		binary.GetUint64(b[offset:], &withheld, &offset)
		a.WithheldAmount = &withheld
	}

	return true
}

// TransferFee is a single epoch's fee schedule of the transfer fee extension.
type TransferFee struct {
	Epoch       uint64
	MaximumFee  uint64
	BasisPoints uint16
}

// CalculateFee returns the fee withheld on a transfer of amount, rounded up
// and bounded by MaximumFee.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/master/token/program-2022/src/extension/transfer_fee/mod.rs
func (f TransferFee) CalculateFee(amount uint64) uint64 {
	if f.BasisPoints == 0 || amount == 0 {
		return 0
	}

	hi, lo := bits.Mul64(amount, uint64(f.BasisPoints))
	hi, lo = add128(hi, lo, MaxBasisPoints-1)
	if hi >= MaxBasisPoints {
		return f.MaximumFee
	}
	fee, _ := bits.Div64(hi, lo, MaxBasisPoints)
	if fee > f.MaximumFee {
		return f.MaximumFee
	}
	return fee
}

func add128(hi, lo, v uint64) (uint64, uint64) {
	lo, carry := bits.Add64(lo, v, 0)
	return hi + carry, lo
}

// TransferFeeConfig is the mint-level state of the transfer fee extension.
type TransferFeeConfig struct {
	ConfigAuthority           ed25519.PublicKey
	WithdrawWithheldAuthority ed25519.PublicKey
	// Fees harvested from token accounts into the mint.
	WithheldAmount   uint64
	OlderTransferFee TransferFee
	NewerTransferFee TransferFee
}

// CalculateFee calculates the fee using the newest fee schedule.
func (c *TransferFeeConfig) CalculateFee(amount uint64) uint64 {
	return c.NewerTransferFee.CalculateFee(amount)
}

type Mint struct {
	// Optional authority used to mint new tokens.
	MintAuthority ed25519.PublicKey
	// Total supply of tokens.
	Supply uint64
	// Number of base 10 digits to the right of the decimal place.
	Decimals uint8
	// Is `true` if this structure has been initialized
	IsInitialized bool
	// Optional authority to freeze token accounts.
	FreezeAuthority ed25519.PublicKey
	// Set for Token-2022 mints with the transfer fee extension.
	TransferFeeConfig *TransferFeeConfig
}

func (m *Mint) Marshal() []byte {
	size := MintSize
	if m.TransferFeeConfig != nil {
		size = MintWithTransferFeeSize
	}
	b := make([]byte, size)

	var offset int
	binary.PutOptionalKey32(b[offset:], m.MintAuthority, &offset, optionSize)
	binary.PutUint64(b[offset:], m.Supply, &offset)
	binary.PutUint8(b[offset:], m.Decimals, &offset)
	binary.PutBool(b[offset:], m.IsInitialized, &offset)
	binary.PutOptionalKey32(b[offset:], m.FreezeAuthority, &offset, optionSize)

	if c := m.TransferFeeConfig; c != nil {
		offset = AccountSize
		binary.PutUint8(b[offset:], accountTypeMint, &offset)
		binary.PutUint16(b[offset:], extensionTransferFeeConfig, &offset)
		binary.PutUint16(b[offset:], transferFeeConfigSize, &offset)
		binary.PutKey32(b[offset:], c.ConfigAuthority, &offset)
		binary.PutKey32(b[offset:], c.WithdrawWithheldAuthority, &offset)
		binary.PutUint64(b[offset:], c.WithheldAmount, &offset)
		for _, fee := range []TransferFee{c.OlderTransferFee, c.NewerTransferFee} {
			binary.PutUint64(b[offset:], fee.Epoch, &offset)
			binary.PutUint64(b[offset:], fee.MaximumFee, &offset)
			binary.PutUint16(b[offset:], fee.BasisPoints, &offset)
		}
	}

	return b
}

func (m *Mint) Unmarshal(b []byte) bool {
	if len(b) != MintSize && len(b) != MintWithTransferFeeSize {
		return false
	}

	var offset int
	m.MintAuthority = nil
	m.FreezeAuthority = nil
	binary.GetOptionalKey32(b[offset:], &m.MintAuthority, &offset, optionSize)
	binary.GetUint64(b[offset:], &m.Supply, &offset)
	binary.GetUint8(b[offset:], &m.Decimals, &offset)
	binary.GetBool(b[offset:], &m.IsInitialized, &offset)
	binary.GetOptionalKey32(b[offset:], &m.FreezeAuthority, &offset, optionSize)

	m.TransferFeeConfig = nil
	if len(b) == MintWithTransferFeeSize {
		var accountType uint8
		var extension, length uint16
		offset = AccountSize
		binary.GetUint8(b[offset:], &accountType, &offset)
		binary.GetUint16(b[offset:], &extension, &offset)
		binary.GetUint16(b[offset:], &length, &offset)
		if accountType != accountTypeMint || extension != extensionTransferFeeConfig || length != transferFeeConfigSize {
			return false
		}

		c := &TransferFeeConfig{}
		binary.GetKey32(b[offset:], &c.ConfigAuthority, &offset)
		binary.GetKey32(b[offset:], &c.WithdrawWithheldAuthority, &offset)
		binary.GetUint64(b[offset:], &c.WithheldAmount, &offset)
		for _, fee := range []*TransferFee{&c.OlderTransferFee, &c.NewerTransferFee} {
			binary.GetUint64(b[offset:], &fee.Epoch, &offset)
			binary.GetUint64(b[offset:], &fee.MaximumFee, &offset)
			binary.GetUint16(b[offset:], &fee.BasisPoints, &offset)
		}
		m.TransferFeeConfig = c
	}

	return true
}
