package rpc

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"nftstaking/core/state"
	"nftstaking/crypto"
	"nftstaking/native/nftstake"
	"nftstaking/storage"
)

type serverHarness struct {
	srv    *httptest.Server
	st     *state.Manager
	engine *nftstake.Engine
	now    int64
}

func newHarness(t *testing.T) *serverHarness {
	t.Helper()
	st := state.NewManager(storage.NewMemDB())
	engine := nftstake.NewEngine([20]byte{0x90})
	engine.SetState(st)
	engine.SetResolver(st)

	h := &serverHarness{st: st, engine: engine}
	engine.SetNowFunc(func() int64 { return h.now })

	server := NewServer(engine, st, nil)
	h.srv = httptest.NewServer(server.Router())
	t.Cleanup(h.srv.Close)
	return h
}

func (h *serverHarness) post(t *testing.T, path string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(h.srv.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func (h *serverHarness) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(h.srv.URL + path)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, into interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
}

func bech(b byte) string {
	raw := [20]byte{b}
	return crypto.MustNewAddress(crypto.StakePrefix, raw[:]).String()
}

func TestServerStakeClaimFlow(t *testing.T) {
	h := newHarness(t)

	authority := bech(0x01)
	staker := bech(0x02)
	collection := bech(0xC1)
	asset := hex.EncodeToString(bytes.Repeat([]byte{0xA0}, 32))

	resp := h.post(t, "/v1/pool/initialize", map[string]interface{}{
		"authority": authority, "ratePerDay": uint64(864000),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = h.post(t, "/v1/collections/add", map[string]interface{}{
		"caller": authority, "collection": collection, "rewardClass": 1,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = h.post(t, "/v1/participants/create", map[string]string{"owner": staker})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = h.post(t, "/v1/admin/assets/register", map[string]string{
		"assetId": asset, "owner": staker, "collection": collection,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = h.post(t, "/v1/stake", map[string]interface{}{
		"owner": staker, "segmentId": 1, "assetId": asset,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	pool, err := h.engine.PoolInfo()
	require.NoError(t, err)
	vault := crypto.MustNewAddress(crypto.VaultPrefix, pool.RewardVault[:]).String()
	resp = h.post(t, "/v1/admin/rewards/credit", map[string]interface{}{
		"address": vault, "amount": 10_000,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	h.now = 100

	var preview map[string]uint64
	resp = h.get(t, fmt.Sprintf("/v1/participants/%s/segments/1/pending", staker))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &preview)
	require.Equal(t, uint64(1000), preview["pendingReward"])

	var claimed map[string]uint64
	resp = h.post(t, "/v1/claim", map[string]interface{}{"owner": staker, "segmentId": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &claimed)
	require.Equal(t, uint64(1000), claimed["paid"])

	resp = h.post(t, "/v1/unstake", map[string]interface{}{
		"owner": staker, "segmentId": 1, "assetId": asset,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	var info poolResponse
	resp = h.get(t, "/v1/pool")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &info)
	require.Equal(t, uint64(0), info.TotalStakedCount)
	require.Equal(t, "forfeit", info.ShortfallPolicy)
}

func TestServerErrorMapping(t *testing.T) {
	h := newHarness(t)

	authority := bech(0x01)
	intruder := bech(0x0F)

	// Pool missing entirely.
	resp := h.get(t, "/v1/pool")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = h.post(t, "/v1/pool/initialize", map[string]interface{}{
		"authority": authority, "ratePerDay": uint64(100),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Re-initialising an existing pool conflicts.
	resp = h.post(t, "/v1/pool/initialize", map[string]interface{}{
		"authority": authority, "ratePerDay": uint64(100),
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Non-authority caller is rejected.
	resp = h.post(t, "/v1/pool/pause", map[string]string{"caller": intruder})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Unknown participant.
	resp = h.get(t, "/v1/participants/"+intruder)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Malformed address.
	resp = h.post(t, "/v1/participants/create", map[string]string{"owner": "not-bech32"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Staking while paused conflicts.
	resp = h.post(t, "/v1/pool/pause", map[string]string{"caller": authority})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = h.post(t, "/v1/participants/create", map[string]string{"owner": intruder})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestServerCollectionListing(t *testing.T) {
	h := newHarness(t)

	authority := bech(0x01)
	collection := bech(0xC1)

	resp := h.post(t, "/v1/pool/initialize", map[string]interface{}{
		"authority": authority, "ratePerDay": uint64(100),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = h.post(t, "/v1/collections/add", map[string]interface{}{
		"caller": authority, "collection": collection, "rewardClass": 3,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = h.post(t, "/v1/collections/rate/set", map[string]interface{}{
		"caller": authority, "collection": collection, "ratePerDay": uint64(42),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	var listed []collectionEntryResponse
	resp = h.get(t, "/v1/collections")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &listed)
	require.Len(t, listed, 1)
	require.Equal(t, uint8(3), listed[0].RewardClass)
	require.NotNil(t, listed[0].RatePerDay)
	require.Equal(t, uint64(42), *listed[0].RatePerDay)
}

func TestServerRewardDepositWithdraw(t *testing.T) {
	h := newHarness(t)

	authority := bech(0x01)
	funder := bech(0x05)

	resp := h.post(t, "/v1/pool/initialize", map[string]interface{}{
		"authority": authority, "ratePerDay": uint64(100),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = h.post(t, "/v1/admin/rewards/credit", map[string]interface{}{
		"address": funder, "amount": 300,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Deposit clamps to the funder's balance.
	var moved map[string]uint64
	resp = h.post(t, "/v1/rewards/deposit", map[string]interface{}{
		"caller": funder, "amount": 500,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &moved)
	require.Equal(t, uint64(300), moved["amount"])

	// Only the authority may withdraw.
	resp = h.post(t, "/v1/rewards/withdraw", map[string]interface{}{
		"caller": funder, "amount": 100,
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = h.post(t, "/v1/rewards/withdraw", map[string]interface{}{
		"caller": authority, "amount": 1000,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &moved)
	require.Equal(t, uint64(300), moved["amount"])
}
