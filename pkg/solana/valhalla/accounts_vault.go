package valhalla

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
)

const (
	VaultAccountSize = (8 + // discriminator
		8 + // identifier
		NameSize + // name
		32 + // creator
		32 + // recipient
		32 + // mint
		8 + // total_vesting_duration
		8 + // created_timestamp
		8 + // start_date
		8 + // last_payment_timestamp
		8 + // initial_deposit_amount
		8 + // total_number_of_payouts
		8 + // payout_interval
		8 + // number_of_payments_made
		1 + // cancel_authority
		1 + // token_account_bump
		1) // autopay
)

// Offsets of the fields used to filter vault accounts without decoding them
const (
	VaultIdentifierOffset = 8
	VaultNameOffset       = VaultIdentifierOffset + 8
	VaultCreatorOffset    = VaultNameOffset + NameSize
	VaultRecipientOffset  = VaultCreatorOffset + 32
	VaultMintOffset       = VaultRecipientOffset + 32
	VaultAutopayOffset    = VaultAccountSize - 1
)

var VaultAccountDiscriminator = []byte{211, 8, 232, 43, 2, 152, 117, 119}

type VaultAccount struct {
	Identifier           uint64
	Name                 [NameSize]byte
	Creator              ed25519.PublicKey
	Recipient            ed25519.PublicKey
	Mint                 ed25519.PublicKey
	TotalVestingDuration uint64
	CreatedTimestamp     uint64
	StartDate            uint64
	LastPaymentTimestamp uint64
	InitialDepositAmount uint64
	TotalNumberOfPayouts uint64
	PayoutInterval       uint64
	NumberOfPaymentsMade uint64
	CancelAuthority      Authority
	TokenAccountBump     uint8
	Autopay              bool
}

func (obj *VaultAccount) Marshal() []byte {
	data := make([]byte, VaultAccountSize)

	var offset int

	putDiscriminator(data, VaultAccountDiscriminator, &offset)
	putUint64(data, obj.Identifier, &offset)
	putName(data, obj.Name, &offset)
	putKey(data, obj.Creator, &offset)
	putKey(data, obj.Recipient, &offset)
	putKey(data, obj.Mint, &offset)
	putUint64(data, obj.TotalVestingDuration, &offset)
	putUint64(data, obj.CreatedTimestamp, &offset)
	putUint64(data, obj.StartDate, &offset)
	putUint64(data, obj.LastPaymentTimestamp, &offset)
	putUint64(data, obj.InitialDepositAmount, &offset)
	putUint64(data, obj.TotalNumberOfPayouts, &offset)
	putUint64(data, obj.PayoutInterval, &offset)
	putUint64(data, obj.NumberOfPaymentsMade, &offset)
	putUint8(data, uint8(obj.CancelAuthority), &offset)
	putUint8(data, obj.TokenAccountBump, &offset)
	putBool(data, obj.Autopay, &offset)

	return data
}

func (obj *VaultAccount) Unmarshal(data []byte) error {
	if len(data) < VaultAccountSize {
		return ErrInvalidAccountData
	}

	var offset int

	var discriminator []byte
	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, VaultAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	var cancelAuthority uint8

	getUint64(data, &obj.Identifier, &offset)
	getName(data, &obj.Name, &offset)
	getKey(data, &obj.Creator, &offset)
	getKey(data, &obj.Recipient, &offset)
	getKey(data, &obj.Mint, &offset)
	getUint64(data, &obj.TotalVestingDuration, &offset)
	getUint64(data, &obj.CreatedTimestamp, &offset)
	getUint64(data, &obj.StartDate, &offset)
	getUint64(data, &obj.LastPaymentTimestamp, &offset)
	getUint64(data, &obj.InitialDepositAmount, &offset)
	getUint64(data, &obj.TotalNumberOfPayouts, &offset)
	getUint64(data, &obj.PayoutInterval, &offset)
	getUint64(data, &obj.NumberOfPaymentsMade, &offset)
	getUint8(data, &cancelAuthority, &offset)
	getUint8(data, &obj.TokenAccountBump, &offset)
	getBool(data, &obj.Autopay, &offset)

	obj.CancelAuthority = Authority(cancelAuthority)
	if !obj.CancelAuthority.IsValid() {
		return ErrInvalidAccountData
	}

	return nil
}

// AmountPerPayout is the regular payout of the schedule, rounded down
func (obj *VaultAccount) AmountPerPayout() uint64 {
	if obj.TotalNumberOfPayouts == 0 {
		return obj.InitialDepositAmount
	}
	return obj.InitialDepositAmount / obj.TotalNumberOfPayouts
}

func (obj *VaultAccount) PaymentsComplete() bool {
	return obj.NumberOfPaymentsMade >= obj.TotalNumberOfPayouts
}

// NextPayoutAt is the earliest time the next payout becomes eligible
func (obj *VaultAccount) NextPayoutAt() uint64 {
	next := saturatingAdd(obj.LastPaymentTimestamp, obj.PayoutInterval)
	if next < obj.StartDate {
		return obj.StartDate
	}
	return next
}

func (obj *VaultAccount) EndDate() uint64 {
	return saturatingAdd(obj.StartDate, obj.TotalVestingDuration)
}

// CanDisburse is the eligibility predicate evaluated against the escrow
// balance at time now. It has no side effects.
func (obj *VaultAccount) CanDisburse(escrowBalance, now uint64) bool {
	if obj.PaymentsComplete() {
		return false
	}
	if now < obj.StartDate {
		return false
	}
	if now < saturatingAdd(obj.LastPaymentTimestamp, obj.PayoutInterval) {
		return false
	}
	if escrowBalance == 0 {
		return false
	}
	return true
}

// PayoutAmount returns the amount released by the next payout. The final
// payout releases everything left in escrow.
func (obj *VaultAccount) PayoutAmount(escrowBalance uint64) uint64 {
	if obj.TotalNumberOfPayouts <= 1 || obj.NumberOfPaymentsMade+1 >= obj.TotalNumberOfPayouts {
		return escrowBalance
	}

	amount := obj.AmountPerPayout()
	if amount > escrowBalance {
		return escrowBalance
	}
	return amount
}

// RecordPayout counts one payout made at time now
func (obj *VaultAccount) RecordPayout(now uint64) {
	if now > obj.LastPaymentTimestamp {
		obj.LastPaymentTimestamp = now
	}
	obj.NumberOfPaymentsMade++
}

// CanCancel reports whether caller satisfies the vault's cancel policy
func (obj *VaultAccount) CanCancel(caller ed25519.PublicKey) bool {
	return obj.CancelAuthority.Permits(caller, obj.Creator, obj.Recipient)
}

// CanClose reports whether the vault is complete and its escrow holds neither
// tokens nor withheld transfer fees.
func (obj *VaultAccount) CanClose(escrowBalance, escrowWithheldAmount uint64) bool {
	return obj.PaymentsComplete() && escrowBalance == 0 && escrowWithheldAmount == 0
}

func (obj *VaultAccount) Kind() Kind {
	switch {
	case obj.TotalNumberOfPayouts > 1:
		return KindVestingSchedule
	case obj.TotalNumberOfPayouts == 1 && obj.StartDate > obj.CreatedTimestamp:
		return KindOneTimePayment
	case obj.TotalNumberOfPayouts == 1:
		return KindTokenLock
	}
	return KindUnknown
}

func (obj *VaultAccount) String() string {
	return fmt.Sprintf(
		"VaultAccount{identifier=%d,name=%s,creator=%s,recipient=%s,mint=%s,total_vesting_duration=%d,created_timestamp=%d,start_date=%d,last_payment_timestamp=%d,initial_deposit_amount=%d,total_number_of_payouts=%d,payout_interval=%d,number_of_payments_made=%d,cancel_authority=%s,token_account_bump=%d,autopay=%v}",
		obj.Identifier,
		NameToString(obj.Name),
		base58.Encode(obj.Creator),
		base58.Encode(obj.Recipient),
		base58.Encode(obj.Mint),
		obj.TotalVestingDuration,
		obj.CreatedTimestamp,
		obj.StartDate,
		obj.LastPaymentTimestamp,
		obj.InitialDepositAmount,
		obj.TotalNumberOfPayouts,
		obj.PayoutInterval,
		obj.NumberOfPaymentsMade,
		obj.CancelAuthority,
		obj.TokenAccountBump,
		obj.Autopay,
	)
}

// VaultAccountFilter matches every vault account owned by the program
func VaultAccountFilter() solana.MemcmpFilter {
	return solana.MemcmpFilter{Offset: 0, Bytes: VaultAccountDiscriminator}
}

func VaultCreatorFilter(creator ed25519.PublicKey) solana.MemcmpFilter {
	return solana.MemcmpFilter{Offset: VaultCreatorOffset, Bytes: creator}
}

func VaultRecipientFilter(recipient ed25519.PublicKey) solana.MemcmpFilter {
	return solana.MemcmpFilter{Offset: VaultRecipientOffset, Bytes: recipient}
}

func VaultMintFilter(mint ed25519.PublicKey) solana.MemcmpFilter {
	return solana.MemcmpFilter{Offset: VaultMintOffset, Bytes: mint}
}

func VaultNameFilter(name [NameSize]byte) solana.MemcmpFilter {
	return solana.MemcmpFilter{Offset: VaultNameOffset, Bytes: name[:]}
}

func VaultIdentifierFilter(identifier uint64) solana.MemcmpFilter {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, identifier)
	return solana.MemcmpFilter{Offset: VaultIdentifierOffset, Bytes: b}
}

func VaultAutopayFilter(autopay bool) solana.MemcmpFilter {
	b := []byte{0}
	if autopay {
		b[0] = 1
	}
	return solana.MemcmpFilter{Offset: VaultAutopayOffset, Bytes: b}
}
