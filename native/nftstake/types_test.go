package nftstake

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollectionTableUpsert(t *testing.T) {
	table := &CollectionTable{}
	colA := [20]byte{0x0A}
	colB := [20]byte{0x0B}

	table.Upsert(colA, 1)
	table.Upsert(colB, 2)
	table.Upsert(colA, 3) // reclassify in place

	require.Len(t, table.Entries, 2)
	class, ok := table.Classify(colA)
	require.True(t, ok)
	require.Equal(t, uint8(3), class)
	class, ok = table.Classify(colB)
	require.True(t, ok)
	require.Equal(t, uint8(2), class)
}

func TestCollectionTableRemove(t *testing.T) {
	table := &CollectionTable{}
	col := [20]byte{0x0A}
	table.Upsert(col, 1)

	table.Remove(col)
	_, ok := table.Classify(col)
	require.False(t, ok)

	// Removing an absent collection is a no-op.
	table.Remove(col)
	require.Empty(t, table.Entries)
}

func TestRateTableLookup(t *testing.T) {
	rates := &RateTable{}
	col := [20]byte{0x0A}

	require.Equal(t, uint64(77), rates.RateFor(col, 77))

	rates.Upsert(col, 10)
	require.Equal(t, uint64(10), rates.RateFor(col, 77))

	rates.Upsert(col, 20)
	require.Len(t, rates.Overrides, 1)
	require.Equal(t, uint64(20), rates.RateFor(col, 77))

	rates.Remove(col)
	require.Equal(t, uint64(77), rates.RateFor(col, 77))
}

func TestSegmentCloneIsDeep(t *testing.T) {
	seg := &LedgerSegment{
		SegmentID:     1,
		PendingReward: 5,
		Entries:       []StakeEntry{{AssetID: [32]byte{1}}},
	}
	clone := seg.Clone()
	clone.Entries[0].LastSettlementTime = 99
	clone.PendingReward = 0

	require.Equal(t, uint64(0), seg.Entries[0].LastSettlementTime)
	require.Equal(t, uint64(5), seg.PendingReward)
}
