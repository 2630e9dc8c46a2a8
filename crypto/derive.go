package crypto

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"
)

// Sub-account roles used when deriving custodial record addresses. The pool
// signs for anything derived with a vault role; participants own the records
// derived from their own address.
const (
	RoleAssetVault  = "asset-vault"
	RoleRewardVault = "reward-vault"
	RoleParticipant = "participant"
	RoleSegment     = "segment"
)

// DeriveSubAddress produces the deterministic 20-byte address of a record
// owned by (owner, pool) for the given role and index. The derivation is the
// program-derived-address analogue: the record itself has no key, the address
// only names a slot in state.
func DeriveSubAddress(owner, pool [20]byte, role string, index uint64) [20]byte {
	buf := make([]byte, 0, 20+20+len(role)+8)
	buf = append(buf, owner[:]...)
	buf = append(buf, pool[:]...)
	buf = append(buf, role...)
	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], index)
	buf = append(buf, idx[:]...)
	hash := crypto.Keccak256(buf)
	var out [20]byte
	copy(out[:], hash[12:])
	return out
}

// DeriveVaultAddress derives a pool-owned custodial address for the given
// role. Vault addresses are independent of any participant.
func DeriveVaultAddress(pool [20]byte, role string) [20]byte {
	return DeriveSubAddress([20]byte{}, pool, role, 0)
}
