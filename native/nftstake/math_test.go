package nftstake

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckedAddOverflow(t *testing.T) {
	sum, err := checkedAdd(math.MaxUint64-1, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), sum)

	_, err = checkedAdd(math.MaxUint64, 1)
	require.ErrorIs(t, err, ErrArithmeticOverflow)
}

func TestCheckedSubUnderflow(t *testing.T) {
	diff, err := checkedSub(5, 5)
	require.NoError(t, err)
	require.Equal(t, uint64(0), diff)

	_, err = checkedSub(4, 5)
	require.ErrorIs(t, err, ErrArithmeticUnderflow)
}

func TestMulDivFullPrecision(t *testing.T) {
	// The 128-bit intermediate keeps products above 64 bits exact.
	quo, err := mulDiv(math.MaxUint64, 86400, 86400)
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), quo)

	quo, err = mulDiv(864000, 100, 86400)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), quo)
}

func TestMulDivTruncates(t *testing.T) {
	// 10 units/day over one second is 10/86400, which floors to zero.
	quo, err := mulDiv(10, 1, 86400)
	require.NoError(t, err)
	require.Equal(t, uint64(0), quo)
}

func TestMulDivQuotientOverflow(t *testing.T) {
	_, err := mulDiv(math.MaxUint64, 86401, 86400)
	require.ErrorIs(t, err, ErrArithmeticOverflow)
}
