package valhalla

import (
	"bytes"
	"crypto/ed25519"
)

// Authority is the cancel policy of a vault
type Authority uint8

const (
	AuthorityNeither Authority = iota
	AuthorityCreator
	AuthorityRecipient
	AuthorityBoth
)

// Permits reports whether caller may act under the policy for a vault with
// the given creator and recipient.
func (a Authority) Permits(caller, creator, recipient ed25519.PublicKey) bool {
	isCreator := bytes.Equal(caller, creator)
	isRecipient := bytes.Equal(caller, recipient)

	switch a {
	case AuthorityCreator:
		return isCreator
	case AuthorityRecipient:
		return isRecipient
	case AuthorityBoth:
		return isCreator || isRecipient
	default:
		return false
	}
}

func (a Authority) IsValid() bool {
	return a <= AuthorityBoth
}

func (a Authority) String() string {
	switch a {
	case AuthorityNeither:
		return "neither"
	case AuthorityCreator:
		return "creator"
	case AuthorityRecipient:
		return "recipient"
	case AuthorityBoth:
		return "both"
	}
	return "unknown"
}

// Kind classifies a vault by the shape of its schedule
type Kind uint8

const (
	KindUnknown Kind = iota
	KindVestingSchedule
	KindOneTimePayment
	KindTokenLock
)

func (k Kind) String() string {
	switch k {
	case KindVestingSchedule:
		return "vesting_schedule"
	case KindOneTimePayment:
		return "one_time_payment"
	case KindTokenLock:
		return "token_lock"
	}
	return "unknown"
}
