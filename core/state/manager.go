package state

import (
	"errors"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"nftstaking/native/nftstake"
	"nftstaking/storage"
)

// stagedWrite is one pending mutation held in the staging area until Commit.
type stagedWrite struct {
	value   []byte
	deleted bool
}

// Manager persists the staking ledger's records over a key-value database.
// Keys are Keccak hashes of prefixed record identifiers; values are RLP. It
// satisfies the staking engine's state interface and the collection resolver
// collaborator.
//
// Writes are staged in memory and only reach the database when Commit flushes
// them in a single atomic batch. Reads observe staged writes, so an operation
// sees its own mutations; Rollback discards the staging area. A multi-record
// operation therefore lands entirely or not at all.
type Manager struct {
	db      storage.Database
	overlay map[string]stagedWrite
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db, overlay: make(map[string]stagedWrite)}
}

// Commit flushes every staged write to the database as one atomic batch and
// clears the staging area.
func (m *Manager) Commit() error {
	if len(m.overlay) == 0 {
		return nil
	}
	ops := make([]storage.BatchOp, 0, len(m.overlay))
	for key, staged := range m.overlay {
		ops = append(ops, storage.BatchOp{Key: []byte(key), Value: staged.value, Delete: staged.deleted})
	}
	if err := m.db.WriteBatch(ops); err != nil {
		return err
	}
	m.overlay = make(map[string]stagedWrite)
	return nil
}

// Rollback discards every staged write, restoring the view of the last
// committed state.
func (m *Manager) Rollback() {
	m.overlay = make(map[string]stagedWrite)
}

func prefixedKey(prefix, id []byte) []byte {
	buf := make([]byte, len(prefix)+len(id))
	copy(buf, prefix)
	copy(buf[len(prefix):], id)
	return ethcrypto.Keccak256(buf)
}

func (m *Manager) getRecord(key []byte, out interface{}) (bool, error) {
	data, ok, err := m.rawGet(key)
	if err != nil || !ok {
		return false, err
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("state: decode record: %w", err)
	}
	return true, nil
}

func (m *Manager) rawGet(key []byte) ([]byte, bool, error) {
	if staged, ok := m.overlay[string(key)]; ok {
		if staged.deleted {
			return nil, false, nil
		}
		return staged.value, true, nil
	}
	data, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (m *Manager) putRecord(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode record: %w", err)
	}
	m.overlay[string(key)] = stagedWrite{value: encoded}
	return nil
}

func (m *Manager) deleteRecord(key []byte) error {
	m.overlay[string(key)] = stagedWrite{deleted: true}
	return nil
}

// --- Pool and tables ---

func (m *Manager) PoolGet() (*nftstake.Pool, bool, error) {
	pool := new(nftstake.Pool)
	ok, err := m.getRecord(ethcrypto.Keccak256(poolKeyBytes), pool)
	if err != nil || !ok {
		return nil, false, err
	}
	return pool, true, nil
}

func (m *Manager) PoolPut(pool *nftstake.Pool) error {
	if pool == nil {
		return fmt.Errorf("state: nil pool")
	}
	return m.putRecord(ethcrypto.Keccak256(poolKeyBytes), pool)
}

func (m *Manager) CollectionTableGet() (*nftstake.CollectionTable, error) {
	table := new(nftstake.CollectionTable)
	if _, err := m.getRecord(ethcrypto.Keccak256(collectionTableKeyBytes), table); err != nil {
		return nil, err
	}
	return table, nil
}

func (m *Manager) CollectionTablePut(table *nftstake.CollectionTable) error {
	if table == nil {
		return fmt.Errorf("state: nil collection table")
	}
	return m.putRecord(ethcrypto.Keccak256(collectionTableKeyBytes), table)
}

func (m *Manager) RateTableGet() (*nftstake.RateTable, error) {
	table := new(nftstake.RateTable)
	if _, err := m.getRecord(ethcrypto.Keccak256(rateTableKeyBytes), table); err != nil {
		return nil, err
	}
	return table, nil
}

func (m *Manager) RateTablePut(table *nftstake.RateTable) error {
	if table == nil {
		return fmt.Errorf("state: nil rate table")
	}
	return m.putRecord(ethcrypto.Keccak256(rateTableKeyBytes), table)
}

// --- Participant and segment records ---

func (m *Manager) ParticipantGet(addr [20]byte) (*nftstake.Participant, bool, error) {
	participant := new(nftstake.Participant)
	ok, err := m.getRecord(prefixedKey(participantPrefix, addr[:]), participant)
	if err != nil || !ok {
		return nil, false, err
	}
	return participant, true, nil
}

func (m *Manager) ParticipantPut(addr [20]byte, participant *nftstake.Participant) error {
	if participant == nil {
		return fmt.Errorf("state: nil participant")
	}
	return m.putRecord(prefixedKey(participantPrefix, addr[:]), participant)
}

func (m *Manager) ParticipantDelete(addr [20]byte) error {
	return m.deleteRecord(prefixedKey(participantPrefix, addr[:]))
}

func (m *Manager) SegmentGet(addr [20]byte) (*nftstake.LedgerSegment, bool, error) {
	seg := new(nftstake.LedgerSegment)
	ok, err := m.getRecord(prefixedKey(segmentPrefix, addr[:]), seg)
	if err != nil || !ok {
		return nil, false, err
	}
	return seg, true, nil
}

func (m *Manager) SegmentPut(addr [20]byte, seg *nftstake.LedgerSegment) error {
	if seg == nil {
		return fmt.Errorf("state: nil segment")
	}
	return m.putRecord(prefixedKey(segmentPrefix, addr[:]), seg)
}

func (m *Manager) SegmentDelete(addr [20]byte) error {
	return m.deleteRecord(prefixedKey(segmentPrefix, addr[:]))
}

// --- Reward token custody ---

func (m *Manager) RewardBalance(addr [20]byte) (uint64, error) {
	var balance uint64
	if _, err := m.getRecord(prefixedKey(rewardBalancePrefix, addr[:]), &balance); err != nil {
		return 0, err
	}
	return balance, nil
}

// SetRewardBalance overwrites an account's reward-unit balance. Used by
// genesis wiring and tests; ordinary flows move funds with RewardTransfer.
func (m *Manager) SetRewardBalance(addr [20]byte, balance uint64) error {
	return m.putRecord(prefixedKey(rewardBalancePrefix, addr[:]), balance)
}

// RewardTransfer moves reward units between accounts, failing the whole
// operation when the source balance is insufficient.
func (m *Manager) RewardTransfer(from, to [20]byte, amount uint64) error {
	if amount == 0 {
		return nil
	}
	fromBalance, err := m.RewardBalance(from)
	if err != nil {
		return err
	}
	if fromBalance < amount {
		return nftstake.ErrInsufficientFunds
	}
	toBalance, err := m.RewardBalance(to)
	if err != nil {
		return err
	}
	if toBalance+amount < toBalance {
		return nftstake.ErrArithmeticOverflow
	}
	if err := m.SetRewardBalance(from, fromBalance-amount); err != nil {
		return err
	}
	return m.SetRewardBalance(to, toBalance+amount)
}

// --- Asset custody and collection membership proof ---

// assetRecord stores the custody holder and the declared collection creator
// identity of a collectible asset.
type assetRecord struct {
	Owner      [20]byte
	Collection [20]byte
}

// RegisterAsset records an asset's holder and its collection creator
// identity. The creator identity is the externally verified provenance the
// staking engine classifies against.
func (m *Manager) RegisterAsset(assetID [32]byte, owner, collection [20]byte) error {
	return m.putRecord(prefixedKey(assetPrefix, assetID[:]), &assetRecord{Owner: owner, Collection: collection})
}

func (m *Manager) AssetOwner(assetID [32]byte) ([20]byte, bool, error) {
	record := new(assetRecord)
	ok, err := m.getRecord(prefixedKey(assetPrefix, assetID[:]), record)
	if err != nil || !ok {
		return [20]byte{}, false, err
	}
	return record.Owner, true, nil
}

// AssetTransfer moves custody of a single asset unit. The declared source
// must currently hold the asset.
func (m *Manager) AssetTransfer(assetID [32]byte, from, to [20]byte) error {
	record := new(assetRecord)
	key := prefixedKey(assetPrefix, assetID[:])
	ok, err := m.getRecord(key, record)
	if err != nil {
		return err
	}
	if !ok {
		return nftstake.ErrAssetUnknown
	}
	if record.Owner != from {
		return nftstake.ErrUnauthorized
	}
	record.Owner = to
	return m.putRecord(key, record)
}

// CollectionOf satisfies the engine's CollectionResolver collaborator.
func (m *Manager) CollectionOf(assetID [32]byte) ([20]byte, bool, error) {
	record := new(assetRecord)
	ok, err := m.getRecord(prefixedKey(assetPrefix, assetID[:]), record)
	if err != nil || !ok {
		return [20]byte{}, false, err
	}
	return record.Collection, true, nil
}
