package nftstake

import "math/bits"

// SecondsPerDay is the accrual period the per-day rates are quoted against.
const SecondsPerDay uint64 = 24 * 60 * 60

func checkedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrArithmeticOverflow
	}
	return sum, nil
}

func checkedSub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, ErrArithmeticUnderflow
	}
	return diff, nil
}

// mulDiv computes floor(a*b/den) over the full 128-bit intermediate product.
// The quotient must fit in 64 bits; sub-unit remainders are discarded by the
// caller's settlement clock advancing instead.
func mulDiv(a, b, den uint64) (uint64, error) {
	if den == 0 {
		return 0, ErrArithmeticOverflow
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= den {
		return 0, ErrArithmeticOverflow
	}
	quo, _ := bits.Div64(hi, lo, den)
	return quo, nil
}
