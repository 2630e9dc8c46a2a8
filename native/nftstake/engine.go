package nftstake

import (
	"time"

	"nftstaking/core/events"
	"nftstaking/crypto"
)

// engineState is the persistence contract the staking engine needs from the
// surrounding state implementation. Every mutating operation runs against a
// fixed set of these records; the external locking layer serialises access
// per participant.
type engineState interface {
	PoolGet() (*Pool, bool, error)
	PoolPut(*Pool) error
	CollectionTableGet() (*CollectionTable, error)
	CollectionTablePut(*CollectionTable) error
	RateTableGet() (*RateTable, error)
	RateTablePut(*RateTable) error
	ParticipantGet(addr [20]byte) (*Participant, bool, error)
	ParticipantPut(addr [20]byte, p *Participant) error
	ParticipantDelete(addr [20]byte) error
	SegmentGet(addr [20]byte) (*LedgerSegment, bool, error)
	SegmentPut(addr [20]byte, seg *LedgerSegment) error
	SegmentDelete(addr [20]byte) error
	RewardBalance(addr [20]byte) (uint64, error)
	RewardTransfer(from, to [20]byte, amount uint64) error
	AssetOwner(assetID [32]byte) ([20]byte, bool, error)
	AssetTransfer(assetID [32]byte, from, to [20]byte) error
}

// CollectionResolver reports the declared collection creator identity of an
// asset. It models the externally verifiable membership proof; the engine
// never trusts caller-supplied collection identities.
type CollectionResolver interface {
	CollectionOf(assetID [32]byte) ([20]byte, bool, error)
}

// Engine orchestrates the stake, unstake and claim transitions for one pool
// and owns the settle-before-mutate rule: accrued reward is folded in at the
// rates in force before any structural or configuration change lands.
type Engine struct {
	state    engineState
	resolver CollectionResolver
	emitter  events.Emitter
	pool     [20]byte
	nowFn    func() int64
}

// NewEngine constructs an engine for the pool record at the given address.
func NewEngine(pool [20]byte) *Engine {
	return &Engine{
		pool:    pool,
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetResolver configures the collection membership proof source.
func (e *Engine) SetResolver(resolver CollectionResolver) { e.resolver = resolver }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source. Primarily intended for tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) now() uint64 {
	ts := e.nowFn()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

func (e *Engine) participantAddr(owner [20]byte) [20]byte {
	return crypto.DeriveSubAddress(owner, e.pool, crypto.RoleParticipant, 0)
}

func (e *Engine) segmentAddr(owner [20]byte, segmentID uint64) [20]byte {
	return crypto.DeriveSubAddress(owner, e.pool, crypto.RoleSegment, segmentID)
}

func (e *Engine) loadPool() (*Pool, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	pool, ok, err := e.state.PoolGet()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPoolNotFound
	}
	return pool, nil
}

func (e *Engine) loadParticipant(owner [20]byte) (*Participant, error) {
	participant, ok, err := e.state.ParticipantGet(e.participantAddr(owner))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrParticipantNotFound
	}
	return participant, nil
}

func (e *Engine) loadSegment(owner [20]byte, segmentID uint64) (*LedgerSegment, error) {
	seg, ok, err := e.state.SegmentGet(e.segmentAddr(owner, segmentID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSegmentNotFound
	}
	return seg, nil
}

// settle folds accrued reward for the segment up to now using the rate
// snapshot read at the start of this operation.
func (e *Engine) settle(pool *Pool, participant *Participant, seg *LedgerSegment, now uint64) error {
	rates, err := e.state.RateTableGet()
	if err != nil {
		return err
	}
	if err := settleSegment(seg, rates, pool.DefaultRatePerDay, now); err != nil {
		return err
	}
	participant.LastSettlementTime = now
	return nil
}

// --- Pool configuration ---

// InitializePool creates the pool record with its derived custodial vault
// addresses and empty membership and rate tables.
func (e *Engine) InitializePool(authority [20]byte, defaultRate uint64, policy ShortfallPolicy) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	_, ok, err := e.state.PoolGet()
	if err != nil {
		return err
	}
	if ok {
		return ErrPoolExists
	}
	pool := &Pool{
		Authority:         authority,
		DefaultRatePerDay: defaultRate,
		Shortfall:         policy,
		AssetVault:        crypto.DeriveVaultAddress(e.pool, crypto.RoleAssetVault),
		RewardVault:       crypto.DeriveVaultAddress(e.pool, crypto.RoleRewardVault),
	}
	if err := e.state.PoolPut(pool); err != nil {
		return err
	}
	if err := e.state.CollectionTablePut(&CollectionTable{}); err != nil {
		return err
	}
	if err := e.state.RateTablePut(&RateTable{}); err != nil {
		return err
	}
	e.emit(PoolInitialized{Authority: authority, DefaultRatePerDay: defaultRate})
	return nil
}

func (e *Engine) requireAuthority(pool *Pool, caller [20]byte) error {
	if pool.Authority != caller {
		return ErrUnauthorized
	}
	return nil
}

// SetDefaultRate replaces the pool default rate. Windows already settled are
// unaffected; the new rate applies to any settlement starting after this
// commits.
func (e *Engine) SetDefaultRate(caller [20]byte, rate uint64) error {
	pool, err := e.loadPool()
	if err != nil {
		return err
	}
	if err := e.requireAuthority(pool, caller); err != nil {
		return err
	}
	if pool.Paused {
		return ErrPoolPaused
	}
	pool.DefaultRatePerDay = rate
	if err := e.state.PoolPut(pool); err != nil {
		return err
	}
	e.emit(DefaultRateSet{RatePerDay: rate})
	return nil
}

// AddCollection registers (or re-classifies) a collection in the membership
// table. Already-staked entries keep the classification recorded at stake
// time.
func (e *Engine) AddCollection(caller, collection [20]byte, rewardClass uint8) error {
	pool, err := e.loadPool()
	if err != nil {
		return err
	}
	if err := e.requireAuthority(pool, caller); err != nil {
		return err
	}
	if pool.Paused {
		return ErrPoolPaused
	}
	table, err := e.state.CollectionTableGet()
	if err != nil {
		return err
	}
	table.Upsert(collection, rewardClass)
	if err := e.state.CollectionTablePut(table); err != nil {
		return err
	}
	e.emit(CollectionUpdated{Collection: collection, RewardClass: rewardClass})
	return nil
}

// RemoveCollection drops a collection from the membership table. New stakes
// of its assets are rejected; staked entries are not reclassified.
func (e *Engine) RemoveCollection(caller, collection [20]byte) error {
	pool, err := e.loadPool()
	if err != nil {
		return err
	}
	if err := e.requireAuthority(pool, caller); err != nil {
		return err
	}
	if pool.Paused {
		return ErrPoolPaused
	}
	table, err := e.state.CollectionTableGet()
	if err != nil {
		return err
	}
	table.Remove(collection)
	if err := e.state.CollectionTablePut(table); err != nil {
		return err
	}
	e.emit(CollectionRemoved{Collection: collection})
	return nil
}

// SetCollectionRate upserts a per-collection rate override.
func (e *Engine) SetCollectionRate(caller, collection [20]byte, rate uint64) error {
	pool, err := e.loadPool()
	if err != nil {
		return err
	}
	if err := e.requireAuthority(pool, caller); err != nil {
		return err
	}
	if pool.Paused {
		return ErrPoolPaused
	}
	rates, err := e.state.RateTableGet()
	if err != nil {
		return err
	}
	rates.Upsert(collection, rate)
	if err := e.state.RateTablePut(rates); err != nil {
		return err
	}
	e.emit(CollectionRateSet{Collection: collection, RatePerDay: rate})
	return nil
}

// RemoveCollectionRate removes an override; lookups revert to the default.
func (e *Engine) RemoveCollectionRate(caller, collection [20]byte) error {
	pool, err := e.loadPool()
	if err != nil {
		return err
	}
	if err := e.requireAuthority(pool, caller); err != nil {
		return err
	}
	if pool.Paused {
		return ErrPoolPaused
	}
	rates, err := e.state.RateTableGet()
	if err != nil {
		return err
	}
	rates.Remove(collection)
	if err := e.state.RateTablePut(rates); err != nil {
		return err
	}
	e.emit(CollectionRateRemoved{Collection: collection})
	return nil
}

// Pause rejects participant-state-mutating operations until Unpause. Pausing
// an already-paused pool is a precondition failure.
func (e *Engine) Pause(caller [20]byte) error {
	pool, err := e.loadPool()
	if err != nil {
		return err
	}
	if err := e.requireAuthority(pool, caller); err != nil {
		return err
	}
	if pool.Paused {
		return ErrPreconditionFailed
	}
	pool.Paused = true
	if err := e.state.PoolPut(pool); err != nil {
		return err
	}
	e.emit(PoolPaused{Authority: caller})
	return nil
}

// Unpause re-enables participant-state-mutating operations.
func (e *Engine) Unpause(caller [20]byte) error {
	pool, err := e.loadPool()
	if err != nil {
		return err
	}
	if err := e.requireAuthority(pool, caller); err != nil {
		return err
	}
	if !pool.Paused {
		return ErrPreconditionFailed
	}
	pool.Paused = false
	if err := e.state.PoolPut(pool); err != nil {
		return err
	}
	e.emit(PoolUnpaused{Authority: caller})
	return nil
}

// --- Participant lifecycle ---

// CreateParticipant registers the owner with the pool and opens their first
// ledger segment.
func (e *Engine) CreateParticipant(owner [20]byte) error {
	pool, err := e.loadPool()
	if err != nil {
		return err
	}
	if pool.Paused {
		return ErrPoolPaused
	}
	addr := e.participantAddr(owner)
	if _, ok, err := e.state.ParticipantGet(addr); err != nil {
		return err
	} else if ok {
		return ErrParticipantExists
	}
	count, err := checkedAdd(pool.ParticipantCount, 1)
	if err != nil {
		return err
	}
	pool.ParticipantCount = count
	now := e.now()
	participant := &Participant{
		Owner:              owner,
		LastSettlementTime: now,
		LedgerSegmentCount: 1,
		SegmentSeq:         1,
	}
	seg := &LedgerSegment{Owner: owner, SegmentID: 1}
	if err := e.state.PoolPut(pool); err != nil {
		return err
	}
	if err := e.state.ParticipantPut(addr, participant); err != nil {
		return err
	}
	if err := e.state.SegmentPut(e.segmentAddr(owner, 1), seg); err != nil {
		return err
	}
	e.emit(ParticipantCreated{Owner: owner})
	return nil
}

// CreateLedgerSegment opens an additional segment for the owner and returns
// its id. Segment ids are allocated sequentially and never reused.
func (e *Engine) CreateLedgerSegment(owner [20]byte) (uint64, error) {
	pool, err := e.loadPool()
	if err != nil {
		return 0, err
	}
	if pool.Paused {
		return 0, ErrPoolPaused
	}
	participant, err := e.loadParticipant(owner)
	if err != nil {
		return 0, err
	}
	seq, err := checkedAdd(participant.SegmentSeq, 1)
	if err != nil {
		return 0, err
	}
	open, err := checkedAdd(participant.LedgerSegmentCount, 1)
	if err != nil {
		return 0, err
	}
	participant.SegmentSeq = seq
	participant.LedgerSegmentCount = open
	seg := &LedgerSegment{Owner: owner, SegmentID: seq}
	if err := e.state.ParticipantPut(e.participantAddr(owner), participant); err != nil {
		return 0, err
	}
	if err := e.state.SegmentPut(e.segmentAddr(owner, seq), seg); err != nil {
		return 0, err
	}
	e.emit(SegmentCreated{Owner: owner, SegmentID: seq})
	return seq, nil
}

// CloseLedgerSegment destroys an empty, fully-claimed segment.
func (e *Engine) CloseLedgerSegment(owner [20]byte, segmentID uint64) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	participant, err := e.loadParticipant(owner)
	if err != nil {
		return err
	}
	seg, err := e.loadSegment(owner, segmentID)
	if err != nil {
		return err
	}
	if len(seg.Entries) > 0 || seg.PendingReward > 0 {
		return ErrPreconditionFailed
	}
	open, err := checkedSub(participant.LedgerSegmentCount, 1)
	if err != nil {
		return err
	}
	participant.LedgerSegmentCount = open
	if err := e.state.SegmentDelete(e.segmentAddr(owner, segmentID)); err != nil {
		return err
	}
	if err := e.state.ParticipantPut(e.participantAddr(owner), participant); err != nil {
		return err
	}
	e.emit(SegmentClosed{Owner: owner, SegmentID: segmentID})
	return nil
}

// CloseParticipant destroys the participant record once every segment has
// been closed and nothing is staked.
func (e *Engine) CloseParticipant(owner [20]byte) error {
	pool, err := e.loadPool()
	if err != nil {
		return err
	}
	participant, err := e.loadParticipant(owner)
	if err != nil {
		return err
	}
	if participant.TotalStakedCount != 0 || participant.LedgerSegmentCount != 0 {
		return ErrPreconditionFailed
	}
	count, err := checkedSub(pool.ParticipantCount, 1)
	if err != nil {
		return err
	}
	pool.ParticipantCount = count
	if err := e.state.ParticipantDelete(e.participantAddr(owner)); err != nil {
		return err
	}
	if err := e.state.PoolPut(pool); err != nil {
		return err
	}
	e.emit(ParticipantClosed{Owner: owner})
	return nil
}

// --- Stake lifecycle ---

// Stake settles the target segment at the pre-stake rate set, takes custody
// of the asset and appends a stake entry classified by the asset's collection
// membership. The new entry starts accruing from now.
func (e *Engine) Stake(owner [20]byte, segmentID uint64, assetID [32]byte) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if e.resolver == nil {
		return ErrNilResolver
	}
	pool, err := e.loadPool()
	if err != nil {
		return err
	}
	if pool.Paused {
		return ErrPoolPaused
	}
	collection, ok, err := e.resolver.CollectionOf(assetID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCollectionNotRecognized
	}
	table, err := e.state.CollectionTableGet()
	if err != nil {
		return err
	}
	rewardClass, ok := table.Classify(collection)
	if !ok {
		return ErrCollectionNotRecognized
	}
	participant, err := e.loadParticipant(owner)
	if err != nil {
		return err
	}
	seg, err := e.loadSegment(owner, segmentID)
	if err != nil {
		return err
	}
	if len(seg.Entries) >= MaxSegmentEntries {
		return ErrSegmentFull
	}
	holder, ok, err := e.state.AssetOwner(assetID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAssetUnknown
	}
	if holder == pool.AssetVault {
		return ErrAssetAlreadyStaked
	}
	if holder != owner {
		return ErrUnauthorized
	}

	now := e.now()
	if err := e.settle(pool, participant, seg, now); err != nil {
		return err
	}
	staked, err := checkedAdd(participant.TotalStakedCount, 1)
	if err != nil {
		return err
	}
	total, err := checkedAdd(pool.TotalStakedCount, 1)
	if err != nil {
		return err
	}
	participant.TotalStakedCount = staked
	pool.TotalStakedCount = total
	seg.Entries = append(seg.Entries, StakeEntry{
		AssetID:            assetID,
		Collection:         collection,
		RewardClass:        rewardClass,
		LastSettlementTime: now,
	})

	if err := e.state.AssetTransfer(assetID, owner, pool.AssetVault); err != nil {
		return err
	}
	if err := e.state.PoolPut(pool); err != nil {
		return err
	}
	if err := e.state.ParticipantPut(e.participantAddr(owner), participant); err != nil {
		return err
	}
	if err := e.state.SegmentPut(e.segmentAddr(owner, segmentID), seg); err != nil {
		return err
	}
	e.emit(AssetStaked{Owner: owner, AssetID: assetID, Collection: collection, RewardClass: rewardClass, SegmentID: segmentID})
	return nil
}

// Unstake settles the owning segment, removes the entry and returns custody
// of the asset. Membership is re-validated: a collection removed from the
// table after staking blocks unstaking until it is re-added.
func (e *Engine) Unstake(owner [20]byte, segmentID uint64, assetID [32]byte) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	pool, err := e.loadPool()
	if err != nil {
		return err
	}
	if pool.Paused {
		return ErrPoolPaused
	}
	participant, err := e.loadParticipant(owner)
	if err != nil {
		return err
	}
	seg, err := e.loadSegment(owner, segmentID)
	if err != nil {
		return err
	}
	idx := seg.entryIndex(assetID)
	if idx < 0 {
		return ErrAssetNotFound
	}
	table, err := e.state.CollectionTableGet()
	if err != nil {
		return err
	}
	if _, ok := table.Classify(seg.Entries[idx].Collection); !ok {
		return ErrCollectionNotRecognized
	}

	now := e.now()
	if err := e.settle(pool, participant, seg, now); err != nil {
		return err
	}
	staked, err := checkedSub(participant.TotalStakedCount, 1)
	if err != nil {
		return err
	}
	total, err := checkedSub(pool.TotalStakedCount, 1)
	if err != nil {
		return err
	}
	participant.TotalStakedCount = staked
	pool.TotalStakedCount = total
	seg.Entries = append(seg.Entries[:idx], seg.Entries[idx+1:]...)

	if err := e.state.AssetTransfer(assetID, pool.AssetVault, owner); err != nil {
		return err
	}
	if err := e.state.PoolPut(pool); err != nil {
		return err
	}
	if err := e.state.ParticipantPut(e.participantAddr(owner), participant); err != nil {
		return err
	}
	if err := e.state.SegmentPut(e.segmentAddr(owner, segmentID), seg); err != nil {
		return err
	}
	e.emit(AssetUnstaked{Owner: owner, AssetID: assetID, SegmentID: segmentID})
	return nil
}

// Claim settles the segment and pays out its pending reward, clamped to the
// vault balance. What happens to an unpaid shortfall is governed by the
// pool's shortfall policy. Claims are not pause-gated.
func (e *Engine) Claim(owner [20]byte, segmentID uint64) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	pool, err := e.loadPool()
	if err != nil {
		return 0, err
	}
	participant, err := e.loadParticipant(owner)
	if err != nil {
		return 0, err
	}
	seg, err := e.loadSegment(owner, segmentID)
	if err != nil {
		return 0, err
	}
	now := e.now()
	if err := e.settle(pool, participant, seg, now); err != nil {
		return 0, err
	}

	pending := seg.PendingReward
	paid := uint64(0)
	if pending > 0 {
		vaultBalance, err := e.state.RewardBalance(pool.RewardVault)
		if err != nil {
			return 0, err
		}
		paid = pending
		if vaultBalance < paid {
			paid = vaultBalance
		}
		switch pool.Shortfall {
		case ShortfallRetain:
			remainder, err := checkedSub(pending, paid)
			if err != nil {
				return 0, err
			}
			seg.PendingReward = remainder
		default:
			seg.PendingReward = 0
		}
		if paid > 0 {
			if err := e.state.RewardTransfer(pool.RewardVault, owner, paid); err != nil {
				return 0, err
			}
		}
	}
	if err := e.state.ParticipantPut(e.participantAddr(owner), participant); err != nil {
		return 0, err
	}
	if err := e.state.SegmentPut(e.segmentAddr(owner, segmentID), seg); err != nil {
		return 0, err
	}
	if pending > 0 {
		e.emit(RewardsClaimed{Owner: owner, SegmentID: segmentID, Pending: pending, Paid: paid})
	}
	return paid, nil
}

// --- Reward vault custody ---

// DepositReward tops up the reward vault from the caller's balance, clamped
// to what the caller holds. Deposits are permissionless.
func (e *Engine) DepositReward(caller [20]byte, amount uint64) (uint64, error) {
	pool, err := e.loadPool()
	if err != nil {
		return 0, err
	}
	balance, err := e.state.RewardBalance(caller)
	if err != nil {
		return 0, err
	}
	deposit := amount
	if balance < deposit {
		deposit = balance
	}
	if deposit == 0 {
		return 0, nil
	}
	if err := e.state.RewardTransfer(caller, pool.RewardVault, deposit); err != nil {
		return 0, err
	}
	e.emit(RewardDeposited{From: caller, Amount: deposit})
	return deposit, nil
}

// WithdrawReward drains up to amount from the reward vault to the authority.
func (e *Engine) WithdrawReward(caller [20]byte, amount uint64) (uint64, error) {
	pool, err := e.loadPool()
	if err != nil {
		return 0, err
	}
	if err := e.requireAuthority(pool, caller); err != nil {
		return 0, err
	}
	balance, err := e.state.RewardBalance(pool.RewardVault)
	if err != nil {
		return 0, err
	}
	withdraw := amount
	if balance < withdraw {
		withdraw = balance
	}
	if withdraw == 0 {
		return 0, nil
	}
	if err := e.state.RewardTransfer(pool.RewardVault, caller, withdraw); err != nil {
		return 0, err
	}
	e.emit(RewardWithdrawn{To: caller, Amount: withdraw})
	return withdraw, nil
}

// --- Read-only queries ---

// PoolInfo returns a copy of the pool record.
func (e *Engine) PoolInfo() (*Pool, error) {
	pool, err := e.loadPool()
	if err != nil {
		return nil, err
	}
	return pool.Clone(), nil
}

// Collections returns a copy of the membership table.
func (e *Engine) Collections() (*CollectionTable, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	table, err := e.state.CollectionTableGet()
	if err != nil {
		return nil, err
	}
	return table.Clone(), nil
}

// RateOverrides returns a copy of the rate override table.
func (e *Engine) RateOverrides() (*RateTable, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	rates, err := e.state.RateTableGet()
	if err != nil {
		return nil, err
	}
	return rates.Clone(), nil
}

// ParticipantInfo returns a copy of the owner's participant record.
func (e *Engine) ParticipantInfo(owner [20]byte) (*Participant, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	participant, err := e.loadParticipant(owner)
	if err != nil {
		return nil, err
	}
	return participant.Clone(), nil
}

// SegmentInfo returns a copy of the segment record.
func (e *Engine) SegmentInfo(owner [20]byte, segmentID uint64) (*LedgerSegment, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	seg, err := e.loadSegment(owner, segmentID)
	if err != nil {
		return nil, err
	}
	return seg.Clone(), nil
}

// PreviewPending reports what the segment's pending reward would be if it
// were settled now, without mutating any state.
func (e *Engine) PreviewPending(owner [20]byte, segmentID uint64) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	pool, err := e.loadPool()
	if err != nil {
		return 0, err
	}
	seg, err := e.loadSegment(owner, segmentID)
	if err != nil {
		return 0, err
	}
	rates, err := e.state.RateTableGet()
	if err != nil {
		return 0, err
	}
	preview := seg.Clone()
	if err := settleSegment(preview, rates, pool.DefaultRatePerDay, e.now()); err != nil {
		return 0, err
	}
	return preview.PendingReward, nil
}
