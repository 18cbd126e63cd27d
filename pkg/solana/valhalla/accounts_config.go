package valhalla

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"math/bits"

	"github.com/mr-tron/base58"
)

const (
	ConfigAccountSize = (8 + // discriminator
		32 + // admin
		32 + // dev_treasury
		32 + // dao_treasury
		32 + // governance_token_mint
		8 + // dev_fee
		8 + // autopay_multiplier
		8 + // token_fee_basis_points
		8) // governance_token_amount
)

var ConfigAccountDiscriminator = []byte{155, 12, 170, 224, 30, 250, 204, 130}

type ConfigAccount struct {
	Admin                 ed25519.PublicKey
	DevTreasury           ed25519.PublicKey
	DaoTreasury           ed25519.PublicKey
	GovernanceTokenMint   ed25519.PublicKey
	DevFee                uint64
	AutopayMultiplier     uint64
	TokenFeeBasisPoints   uint64
	GovernanceTokenAmount uint64
}

// CreationFee is the native fee charged to the creator of a vault. It returns
// false when the autopay multiplier overflows the fee.
func (obj *ConfigAccount) CreationFee(autopay bool) (uint64, bool) {
	if !autopay {
		return obj.DevFee, true
	}

	hi, lo := bits.Mul64(obj.DevFee, obj.AutopayMultiplier)
	return lo, hi == 0
}

// TokenFee is the share of amount paid to the dao treasury, rounded down
func (obj *ConfigAccount) TokenFee(amount uint64) uint64 {
	return mulDiv(amount, obj.TokenFeeBasisPoints, MaxBasisPoints)
}

func (obj *ConfigAccount) Marshal() []byte {
	data := make([]byte, ConfigAccountSize)

	var offset int

	putDiscriminator(data, ConfigAccountDiscriminator, &offset)
	putKey(data, obj.Admin, &offset)
	putKey(data, obj.DevTreasury, &offset)
	putKey(data, obj.DaoTreasury, &offset)
	putKey(data, obj.GovernanceTokenMint, &offset)
	putUint64(data, obj.DevFee, &offset)
	putUint64(data, obj.AutopayMultiplier, &offset)
	putUint64(data, obj.TokenFeeBasisPoints, &offset)
	putUint64(data, obj.GovernanceTokenAmount, &offset)

	return data
}

func (obj *ConfigAccount) Unmarshal(data []byte) error {
	if len(data) < ConfigAccountSize {
		return ErrInvalidAccountData
	}

	var offset int

	var discriminator []byte
	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, ConfigAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	getKey(data, &obj.Admin, &offset)
	getKey(data, &obj.DevTreasury, &offset)
	getKey(data, &obj.DaoTreasury, &offset)
	getKey(data, &obj.GovernanceTokenMint, &offset)
	getUint64(data, &obj.DevFee, &offset)
	getUint64(data, &obj.AutopayMultiplier, &offset)
	getUint64(data, &obj.TokenFeeBasisPoints, &offset)
	getUint64(data, &obj.GovernanceTokenAmount, &offset)

	return nil
}

func (obj *ConfigAccount) String() string {
	return fmt.Sprintf(
		"ConfigAccount{admin=%s,dev_treasury=%s,dao_treasury=%s,governance_token_mint=%s,dev_fee=%d,autopay_multiplier=%d,token_fee_basis_points=%d,governance_token_amount=%d}",
		base58.Encode(obj.Admin),
		base58.Encode(obj.DevTreasury),
		base58.Encode(obj.DaoTreasury),
		base58.Encode(obj.GovernanceTokenMint),
		obj.DevFee,
		obj.AutopayMultiplier,
		obj.TokenFeeBasisPoints,
		obj.GovernanceTokenAmount,
	)
}
