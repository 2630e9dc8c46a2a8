package nftstake

// MaxSegmentEntries bounds the number of stake entries a single ledger
// segment record may hold. Participants open additional segments once a
// segment is full; together the segments form one logical ledger.
const MaxSegmentEntries = 128

// ShortfallPolicy selects what happens to the unpaid remainder when a claim
// finds the reward vault short of the pending balance.
type ShortfallPolicy uint8

const (
	// ShortfallForfeit zeroes the pending balance even when the vault could
	// not cover it. This mirrors the behaviour the pool launched with.
	ShortfallForfeit ShortfallPolicy = iota
	// ShortfallRetain keeps the unpaid remainder as the new pending balance.
	ShortfallRetain
)

// Pool is the top-level configuration and aggregate-counter record for one
// staking program instance.
type Pool struct {
	Authority         [20]byte
	Paused            bool
	DefaultRatePerDay uint64
	TotalStakedCount  uint64
	ParticipantCount  uint64
	Shortfall         ShortfallPolicy
	AssetVault        [20]byte
	RewardVault       [20]byte
}

// Clone returns a deep copy of the pool record.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// CollectionEntry tags a collection's creator identity with a reward class.
type CollectionEntry struct {
	Collection  [20]byte
	RewardClass uint8
}

// CollectionTable is the membership table: assets whose collection appears
// here may be staked, classified with the listed reward class. Admin-sized,
// so lookups are linear scans.
type CollectionTable struct {
	Entries []CollectionEntry
}

// Classify resolves a collection identity to its reward class.
func (t *CollectionTable) Classify(collection [20]byte) (uint8, bool) {
	if t == nil {
		return 0, false
	}
	for _, e := range t.Entries {
		if e.Collection == collection {
			return e.RewardClass, true
		}
	}
	return 0, false
}

// Upsert updates the reward class in place when the collection is already
// listed and appends otherwise.
func (t *CollectionTable) Upsert(collection [20]byte, rewardClass uint8) {
	for i := range t.Entries {
		if t.Entries[i].Collection == collection {
			t.Entries[i].RewardClass = rewardClass
			return
		}
	}
	t.Entries = append(t.Entries, CollectionEntry{Collection: collection, RewardClass: rewardClass})
}

// Remove drops the collection from the table. Removing an absent collection
// is a no-op; already-staked entries keep their stored classification.
func (t *CollectionTable) Remove(collection [20]byte) {
	for i := range t.Entries {
		if t.Entries[i].Collection == collection {
			t.Entries = append(t.Entries[:i], t.Entries[i+1:]...)
			return
		}
	}
}

// Clone returns a deep copy of the table.
func (t *CollectionTable) Clone() *CollectionTable {
	if t == nil {
		return nil
	}
	entries := make([]CollectionEntry, len(t.Entries))
	copy(entries, t.Entries)
	return &CollectionTable{Entries: entries}
}

// RateOverride binds a collection identity to a per-day rate that replaces
// the pool default for that collection's staked assets.
type RateOverride struct {
	Collection [20]byte
	RatePerDay uint64
}

// RateTable is the sparse override table of the rate registry.
type RateTable struct {
	Overrides []RateOverride
}

// RateFor returns the rate in force for the collection: the override when one
// is configured, the supplied pool default otherwise.
func (t *RateTable) RateFor(collection [20]byte, defaultRate uint64) uint64 {
	if t == nil {
		return defaultRate
	}
	for _, o := range t.Overrides {
		if o.Collection == collection {
			return o.RatePerDay
		}
	}
	return defaultRate
}

// Upsert updates the override in place when present and appends otherwise.
func (t *RateTable) Upsert(collection [20]byte, rate uint64) {
	for i := range t.Overrides {
		if t.Overrides[i].Collection == collection {
			t.Overrides[i].RatePerDay = rate
			return
		}
	}
	t.Overrides = append(t.Overrides, RateOverride{Collection: collection, RatePerDay: rate})
}

// Remove drops the override; lookups revert to the pool default.
func (t *RateTable) Remove(collection [20]byte) {
	for i := range t.Overrides {
		if t.Overrides[i].Collection == collection {
			t.Overrides = append(t.Overrides[:i], t.Overrides[i+1:]...)
			return
		}
	}
}

// Clone returns a deep copy of the table.
func (t *RateTable) Clone() *RateTable {
	if t == nil {
		return nil
	}
	overrides := make([]RateOverride, len(t.Overrides))
	copy(overrides, t.Overrides)
	return &RateTable{Overrides: overrides}
}

// Participant is the per-staker aggregate record.
type Participant struct {
	Owner [20]byte
	// TotalStakedCount mirrors the summed entry count across the
	// participant's segments.
	TotalStakedCount uint64
	// LastSettlementTime records the most recent settlement touching any of
	// the participant's segments. Informational; the authoritative clocks
	// live on the stake entries.
	LastSettlementTime uint64
	// LedgerSegmentCount is the number of currently open segments.
	LedgerSegmentCount uint64
	// SegmentSeq is the 1-based allocation counter for segment ids. Closed
	// segment ids are never reused.
	SegmentSeq uint64
}

// Clone returns a deep copy of the participant record.
func (p *Participant) Clone() *Participant {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// StakeEntry records one staked asset. The collection identity is persisted
// directly so settlement can resolve the live rate override without a
// class-to-collection indirection; the reward class is kept for record
// keeping and is fixed for the life of the stake.
type StakeEntry struct {
	AssetID            [32]byte
	Collection         [20]byte
	RewardClass        uint8
	LastSettlementTime uint64
}

// LedgerSegment is a bounded container of stake entries belonging to one
// participant, plus the pending reward accrued across its entries.
type LedgerSegment struct {
	Owner         [20]byte
	SegmentID     uint64
	PendingReward uint64
	Entries       []StakeEntry
}

// Clone returns a deep copy of the segment.
func (s *LedgerSegment) Clone() *LedgerSegment {
	if s == nil {
		return nil
	}
	entries := make([]StakeEntry, len(s.Entries))
	copy(entries, s.Entries)
	return &LedgerSegment{
		Owner:         s.Owner,
		SegmentID:     s.SegmentID,
		PendingReward: s.PendingReward,
		Entries:       entries,
	}
}

// entryIndex locates the entry holding the asset. Segments are bounded by
// MaxSegmentEntries so the scan is constant work.
func (s *LedgerSegment) entryIndex(assetID [32]byte) int {
	for i := range s.Entries {
		if s.Entries[i].AssetID == assetID {
			return i
		}
	}
	return -1
}
