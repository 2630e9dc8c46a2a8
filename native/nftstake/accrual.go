package nftstake

// settleSegment folds the reward accrued by every entry in the segment into
// its pending balance and advances each entry's settlement clock to now.
//
// The rate for an entry is resolved from the override table by the entry's
// stored collection identity at the moment of the call; no override or
// default change is ever applied to a window that was already settled. The
// accrued amount per entry is floor(rate * elapsedSeconds / 86400): sub-day
// remainders are not lost, only deferred, because the entry clock advances to
// now and the next settlement re-measures from there.
//
// A clock reading earlier than an entry's settlement time is a fatal
// precondition violation, never clamped.
func settleSegment(seg *LedgerSegment, rates *RateTable, defaultRate uint64, now uint64) error {
	if seg == nil {
		return nil
	}
	var accrued uint64
	for i := range seg.Entries {
		entry := &seg.Entries[i]
		if now < entry.LastSettlementTime {
			return ErrInvalidClockReading
		}
		elapsed := now - entry.LastSettlementTime
		rate := rates.RateFor(entry.Collection, defaultRate)
		amount, err := mulDiv(rate, elapsed, SecondsPerDay)
		if err != nil {
			return err
		}
		if accrued, err = checkedAdd(accrued, amount); err != nil {
			return err
		}
		entry.LastSettlementTime = now
	}
	pending, err := checkedAdd(seg.PendingReward, accrued)
	if err != nil {
		return err
	}
	seg.PendingReward = pending
	return nil
}
