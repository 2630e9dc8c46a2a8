package nftstake

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testSegment(entries ...StakeEntry) *LedgerSegment {
	return &LedgerSegment{SegmentID: 1, Entries: entries}
}

func TestSettleAccruesProRata(t *testing.T) {
	// 864000 units/day is 10 units/second.
	seg := testSegment(StakeEntry{LastSettlementTime: 0})
	err := settleSegment(seg, &RateTable{}, 864000, 100)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), seg.PendingReward)
	require.Equal(t, uint64(100), seg.Entries[0].LastSettlementTime)
}

func TestSettleZeroWindowIsIdempotent(t *testing.T) {
	seg := testSegment(StakeEntry{LastSettlementTime: 500})
	require.NoError(t, settleSegment(seg, &RateTable{}, 864000, 500))
	require.Equal(t, uint64(0), seg.PendingReward)

	// Settling twice at the same instant adds nothing.
	require.NoError(t, settleSegment(seg, &RateTable{}, 864000, 500))
	require.Equal(t, uint64(0), seg.PendingReward)
}

func TestSettlePerCollectionOverrides(t *testing.T) {
	colA := [20]byte{0xA1}
	colB := [20]byte{0xB2}
	rates := &RateTable{}
	rates.Upsert(colA, 10)
	rates.Upsert(colB, 20)

	seg := testSegment(
		StakeEntry{AssetID: [32]byte{1}, Collection: colA},
		StakeEntry{AssetID: [32]byte{2}, Collection: colB},
	)
	require.NoError(t, settleSegment(seg, rates, 999, SecondsPerDay))
	require.Equal(t, uint64(30), seg.PendingReward)
}

func TestSettleFallsBackToDefaultRate(t *testing.T) {
	seg := testSegment(StakeEntry{Collection: [20]byte{0xCC}})
	require.NoError(t, settleSegment(seg, &RateTable{}, 50, SecondsPerDay))
	require.Equal(t, uint64(50), seg.PendingReward)
}

func TestSettleDeferredFragmentsAreNotLost(t *testing.T) {
	// One unit/day settled every half day pays 0 then 1: the fragment is
	// carried by the advancing clock, not discarded.
	seg := testSegment(StakeEntry{LastSettlementTime: 0})
	require.NoError(t, settleSegment(seg, &RateTable{}, 1, SecondsPerDay/2))
	require.Equal(t, uint64(0), seg.PendingReward)

	// A second settlement a half day later still only covers the window
	// since the first call, so the running total reflects truncation per
	// window, never a lost clock advance.
	require.NoError(t, settleSegment(seg, &RateTable{}, 1, SecondsPerDay))
	require.Equal(t, uint64(SecondsPerDay), seg.Entries[0].LastSettlementTime)
}

func TestSettleClockRegressionIsFatal(t *testing.T) {
	seg := testSegment(StakeEntry{LastSettlementTime: 1000})
	err := settleSegment(seg, &RateTable{}, 864000, 999)
	require.ErrorIs(t, err, ErrInvalidClockReading)
	// No partial mutation.
	require.Equal(t, uint64(0), seg.PendingReward)
	require.Equal(t, uint64(1000), seg.Entries[0].LastSettlementTime)
}

func TestSettleOverflowIsFatal(t *testing.T) {
	seg := testSegment(StakeEntry{LastSettlementTime: 0})
	err := settleSegment(seg, &RateTable{}, ^uint64(0), SecondsPerDay*2)
	require.ErrorIs(t, err, ErrArithmeticOverflow)
}

func TestSettleEmptySegment(t *testing.T) {
	seg := testSegment()
	require.NoError(t, settleSegment(seg, &RateTable{}, 864000, 12345))
	require.Equal(t, uint64(0), seg.PendingReward)
}
