package nftstake

import (
	"encoding/hex"
	"strconv"

	"nftstaking/core/types"
	"nftstaking/crypto"
)

const (
	// TypePoolInitialized is emitted once when the pool record is created.
	TypePoolInitialized = "nftstake.pool.initialized"
	// TypePoolPaused and TypePoolUnpaused track the pause toggle.
	TypePoolPaused   = "nftstake.pool.paused"
	TypePoolUnpaused = "nftstake.pool.unpaused"
	// TypeDefaultRateSet records a change to the pool-wide default rate.
	TypeDefaultRateSet = "nftstake.rate.defaultSet"
	// TypeCollectionUpdated and TypeCollectionRemoved track membership edits.
	TypeCollectionUpdated = "nftstake.collection.updated"
	TypeCollectionRemoved = "nftstake.collection.removed"
	// TypeCollectionRateSet and TypeCollectionRateRemoved track overrides.
	TypeCollectionRateSet     = "nftstake.rate.collectionSet"
	TypeCollectionRateRemoved = "nftstake.rate.collectionRemoved"
	// TypeParticipantCreated and TypeParticipantClosed track registration.
	TypeParticipantCreated = "nftstake.participant.created"
	TypeParticipantClosed  = "nftstake.participant.closed"
	// TypeSegmentCreated and TypeSegmentClosed track ledger segments.
	TypeSegmentCreated = "nftstake.segment.created"
	TypeSegmentClosed  = "nftstake.segment.closed"
	// TypeAssetStaked and TypeAssetUnstaked track custody transitions.
	TypeAssetStaked   = "nftstake.asset.staked"
	TypeAssetUnstaked = "nftstake.asset.unstaked"
	// TypeRewardsClaimed is emitted when pending reward is paid out.
	TypeRewardsClaimed = "nftstake.rewards.claimed"
	// TypeRewardDeposited and TypeRewardWithdrawn track the reward vault.
	TypeRewardDeposited = "nftstake.rewards.deposited"
	TypeRewardWithdrawn = "nftstake.rewards.withdrawn"
)

func addrString(addr [20]byte) string {
	return crypto.MustNewAddress(crypto.StakePrefix, addr[:]).String()
}

func assetString(assetID [32]byte) string {
	return hex.EncodeToString(assetID[:])
}

// PoolInitialized is emitted when the pool record is created.
type PoolInitialized struct {
	Authority         [20]byte
	DefaultRatePerDay uint64
}

func (PoolInitialized) EventType() string { return TypePoolInitialized }

func (e PoolInitialized) Event() *types.Event {
	return &types.Event{Type: TypePoolInitialized, Attributes: map[string]string{
		"authority":  addrString(e.Authority),
		"ratePerDay": strconv.FormatUint(e.DefaultRatePerDay, 10),
	}}
}

// PoolPaused is emitted when the authority pauses the pool.
type PoolPaused struct {
	Authority [20]byte
}

func (PoolPaused) EventType() string { return TypePoolPaused }

func (e PoolPaused) Event() *types.Event {
	return &types.Event{Type: TypePoolPaused, Attributes: map[string]string{
		"authority": addrString(e.Authority),
	}}
}

// PoolUnpaused is emitted when the authority lifts a pause.
type PoolUnpaused struct {
	Authority [20]byte
}

func (PoolUnpaused) EventType() string { return TypePoolUnpaused }

func (e PoolUnpaused) Event() *types.Event {
	return &types.Event{Type: TypePoolUnpaused, Attributes: map[string]string{
		"authority": addrString(e.Authority),
	}}
}

// DefaultRateSet captures a default-rate change.
type DefaultRateSet struct {
	RatePerDay uint64
}

func (DefaultRateSet) EventType() string { return TypeDefaultRateSet }

func (e DefaultRateSet) Event() *types.Event {
	return &types.Event{Type: TypeDefaultRateSet, Attributes: map[string]string{
		"ratePerDay": strconv.FormatUint(e.RatePerDay, 10),
	}}
}

// CollectionUpdated captures a membership upsert.
type CollectionUpdated struct {
	Collection  [20]byte
	RewardClass uint8
}

func (CollectionUpdated) EventType() string { return TypeCollectionUpdated }

func (e CollectionUpdated) Event() *types.Event {
	return &types.Event{Type: TypeCollectionUpdated, Attributes: map[string]string{
		"collection":  addrString(e.Collection),
		"rewardClass": strconv.FormatUint(uint64(e.RewardClass), 10),
	}}
}

// CollectionRemoved captures a membership removal.
type CollectionRemoved struct {
	Collection [20]byte
}

func (CollectionRemoved) EventType() string { return TypeCollectionRemoved }

func (e CollectionRemoved) Event() *types.Event {
	return &types.Event{Type: TypeCollectionRemoved, Attributes: map[string]string{
		"collection": addrString(e.Collection),
	}}
}

// CollectionRateSet captures a rate override upsert.
type CollectionRateSet struct {
	Collection [20]byte
	RatePerDay uint64
}

func (CollectionRateSet) EventType() string { return TypeCollectionRateSet }

func (e CollectionRateSet) Event() *types.Event {
	return &types.Event{Type: TypeCollectionRateSet, Attributes: map[string]string{
		"collection": addrString(e.Collection),
		"ratePerDay": strconv.FormatUint(e.RatePerDay, 10),
	}}
}

// CollectionRateRemoved captures a rate override removal.
type CollectionRateRemoved struct {
	Collection [20]byte
}

func (CollectionRateRemoved) EventType() string { return TypeCollectionRateRemoved }

func (e CollectionRateRemoved) Event() *types.Event {
	return &types.Event{Type: TypeCollectionRateRemoved, Attributes: map[string]string{
		"collection": addrString(e.Collection),
	}}
}

// ParticipantCreated is emitted on first registration.
type ParticipantCreated struct {
	Owner [20]byte
}

func (ParticipantCreated) EventType() string { return TypeParticipantCreated }

func (e ParticipantCreated) Event() *types.Event {
	return &types.Event{Type: TypeParticipantCreated, Attributes: map[string]string{
		"owner": addrString(e.Owner),
	}}
}

// ParticipantClosed is emitted when an empty participant record is destroyed.
type ParticipantClosed struct {
	Owner [20]byte
}

func (ParticipantClosed) EventType() string { return TypeParticipantClosed }

func (e ParticipantClosed) Event() *types.Event {
	return &types.Event{Type: TypeParticipantClosed, Attributes: map[string]string{
		"owner": addrString(e.Owner),
	}}
}

// SegmentCreated is emitted when a new ledger segment opens.
type SegmentCreated struct {
	Owner     [20]byte
	SegmentID uint64
}

func (SegmentCreated) EventType() string { return TypeSegmentCreated }

func (e SegmentCreated) Event() *types.Event {
	return &types.Event{Type: TypeSegmentCreated, Attributes: map[string]string{
		"owner":     addrString(e.Owner),
		"segmentId": strconv.FormatUint(e.SegmentID, 10),
	}}
}

// SegmentClosed is emitted when an empty segment is destroyed.
type SegmentClosed struct {
	Owner     [20]byte
	SegmentID uint64
}

func (SegmentClosed) EventType() string { return TypeSegmentClosed }

func (e SegmentClosed) Event() *types.Event {
	return &types.Event{Type: TypeSegmentClosed, Attributes: map[string]string{
		"owner":     addrString(e.Owner),
		"segmentId": strconv.FormatUint(e.SegmentID, 10),
	}}
}

// AssetStaked captures a successful stake transition.
type AssetStaked struct {
	Owner       [20]byte
	AssetID     [32]byte
	Collection  [20]byte
	RewardClass uint8
	SegmentID   uint64
}

func (AssetStaked) EventType() string { return TypeAssetStaked }

func (e AssetStaked) Event() *types.Event {
	return &types.Event{Type: TypeAssetStaked, Attributes: map[string]string{
		"owner":       addrString(e.Owner),
		"asset":       assetString(e.AssetID),
		"collection":  addrString(e.Collection),
		"rewardClass": strconv.FormatUint(uint64(e.RewardClass), 10),
		"segmentId":   strconv.FormatUint(e.SegmentID, 10),
	}}
}

// AssetUnstaked captures a successful unstake transition.
type AssetUnstaked struct {
	Owner     [20]byte
	AssetID   [32]byte
	SegmentID uint64
}

func (AssetUnstaked) EventType() string { return TypeAssetUnstaked }

func (e AssetUnstaked) Event() *types.Event {
	return &types.Event{Type: TypeAssetUnstaked, Attributes: map[string]string{
		"owner":     addrString(e.Owner),
		"asset":     assetString(e.AssetID),
		"segmentId": strconv.FormatUint(e.SegmentID, 10),
	}}
}

// RewardsClaimed captures a claim payout. Paid may fall short of Pending when
// the vault balance cannot cover the settled amount.
type RewardsClaimed struct {
	Owner     [20]byte
	SegmentID uint64
	Pending   uint64
	Paid      uint64
}

func (RewardsClaimed) EventType() string { return TypeRewardsClaimed }

func (e RewardsClaimed) Event() *types.Event {
	attrs := map[string]string{
		"owner":     addrString(e.Owner),
		"segmentId": strconv.FormatUint(e.SegmentID, 10),
		"pending":   strconv.FormatUint(e.Pending, 10),
		"paid":      strconv.FormatUint(e.Paid, 10),
	}
	if e.Paid < e.Pending {
		attrs["shortfall"] = strconv.FormatUint(e.Pending-e.Paid, 10)
	}
	return &types.Event{Type: TypeRewardsClaimed, Attributes: attrs}
}

// RewardDeposited captures a reward vault top-up.
type RewardDeposited struct {
	From   [20]byte
	Amount uint64
}

func (RewardDeposited) EventType() string { return TypeRewardDeposited }

func (e RewardDeposited) Event() *types.Event {
	return &types.Event{Type: TypeRewardDeposited, Attributes: map[string]string{
		"from":   addrString(e.From),
		"amount": strconv.FormatUint(e.Amount, 10),
	}}
}

// RewardWithdrawn captures an authority drain of the reward vault.
type RewardWithdrawn struct {
	To     [20]byte
	Amount uint64
}

func (RewardWithdrawn) EventType() string { return TypeRewardWithdrawn }

func (e RewardWithdrawn) Event() *types.Event {
	return &types.Event{Type: TypeRewardWithdrawn, Attributes: map[string]string{
		"to":     addrString(e.To),
		"amount": strconv.FormatUint(e.Amount, 10),
	}}
}
