package valhalla

import "math/bits"

// mulDiv computes a*b/c with a 128 bit intermediate. The result saturates when
// it does not fit in 64 bits.
func mulDiv(a, b, c uint64) uint64 {
	if c == 0 {
		return 0
	}

	hi, lo := bits.Mul64(a, b)
	if hi >= c {
		return ^uint64(0)
	}
	quo, _ := bits.Div64(hi, lo, c)
	return quo
}

func saturatingAdd(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return ^uint64(0)
	}
	return sum
}

// TotalNumberOfPayouts returns the number of payouts for a schedule. A zero
// interval or a zero duration is a single lump sum. It returns
// ErrInvalidPayoutSchedule when the duration is not a whole number of
// intervals.
func TotalNumberOfPayouts(totalVestingDuration, payoutInterval uint64) (uint64, error) {
	if payoutInterval == 0 || totalVestingDuration == 0 {
		return 1, nil
	}
	if totalVestingDuration%payoutInterval != 0 {
		return 0, ErrInvalidPayoutSchedule
	}
	return totalVestingDuration / payoutInterval, nil
}
