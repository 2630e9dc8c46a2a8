package rpc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nftstaking/core/state"
	"nftstaking/crypto"
	"nftstaking/native/nftstake"
)

// Server exposes the staking ledger operations over JSON/HTTP. It holds no
// business logic: requests are decoded, handed to the engine, and the result
// encoded back. A single mutex serialises mutating operations, standing in
// for the per-account locking layer of a full deployment.
type Server struct {
	engine *nftstake.Engine
	st     *state.Manager
	log    *slog.Logger
	mu     sync.Mutex
}

// NewServer wires the HTTP surface to the engine and its state manager.
func NewServer(engine *nftstake.Engine, st *state.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{engine: engine, st: st, log: logger}
}

// Router assembles the chi routing tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/pool/initialize", s.handleInitializePool)
		r.Post("/pool/pause", s.handlePause)
		r.Post("/pool/unpause", s.handleUnpause)
		r.Post("/pool/rate", s.handleSetDefaultRate)
		r.Get("/pool", s.handlePoolInfo)

		r.Post("/collections/add", s.handleAddCollection)
		r.Post("/collections/remove", s.handleRemoveCollection)
		r.Post("/collections/rate/set", s.handleSetCollectionRate)
		r.Post("/collections/rate/remove", s.handleRemoveCollectionRate)
		r.Get("/collections", s.handleCollections)

		r.Post("/participants/create", s.handleCreateParticipant)
		r.Post("/participants/close", s.handleCloseParticipant)
		r.Get("/participants/{owner}", s.handleParticipantInfo)

		r.Post("/segments/create", s.handleCreateSegment)
		r.Post("/segments/close", s.handleCloseSegment)
		r.Get("/participants/{owner}/segments/{id}", s.handleSegmentInfo)
		r.Get("/participants/{owner}/segments/{id}/pending", s.handlePendingPreview)

		r.Post("/stake", s.handleStake)
		r.Post("/unstake", s.handleUnstake)
		r.Post("/claim", s.handleClaim)

		r.Post("/rewards/deposit", s.handleDepositReward)
		r.Post("/rewards/withdraw", s.handleWithdrawReward)

		// Custody bootstrap endpoints: in a full deployment asset
		// provenance and reward issuance come from the surrounding
		// chain, not from HTTP.
		r.Post("/admin/assets/register", s.handleRegisterAsset)
		r.Post("/admin/rewards/credit", s.handleCreditReward)
	})

	return r
}

func parseAddr(value string) ([20]byte, error) {
	var out [20]byte
	decoded, err := crypto.DecodeAddress(value)
	if err != nil {
		return out, err
	}
	copy(out[:], decoded.Bytes())
	return out, nil
}

func parseAsset(value string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(value)
	if err != nil {
		return out, err
	}
	if len(raw) != 32 {
		return out, errors.New("asset id must be 32 bytes of hex")
	}
	copy(out[:], raw)
	return out, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.log.Error("encode response", "error", err)
		}
	}
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, nftstake.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, nftstake.ErrPoolNotFound),
		errors.Is(err, nftstake.ErrParticipantNotFound),
		errors.Is(err, nftstake.ErrSegmentNotFound),
		errors.Is(err, nftstake.ErrAssetNotFound),
		errors.Is(err, nftstake.ErrAssetUnknown):
		status = http.StatusNotFound
	case errors.Is(err, nftstake.ErrPoolExists),
		errors.Is(err, nftstake.ErrParticipantExists),
		errors.Is(err, nftstake.ErrAssetAlreadyStaked),
		errors.Is(err, nftstake.ErrPoolPaused),
		errors.Is(err, nftstake.ErrPreconditionFailed):
		status = http.StatusConflict
	case errors.Is(err, nftstake.ErrCollectionNotRecognized),
		errors.Is(err, nftstake.ErrSegmentFull),
		errors.Is(err, nftstake.ErrInsufficientFunds),
		errors.Is(err, nftstake.ErrInvalidAmount):
		status = http.StatusUnprocessableEntity
	}
	s.log.Warn("operation failed", "op", op, "error", err)
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// finish closes one mutating operation: staged state is committed on success
// and discarded on failure, so an aborted operation leaves no partial writes.
func (s *Server) finish(err error) error {
	if err != nil {
		s.st.Rollback()
		return err
	}
	return s.st.Commit()
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, into interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

// --- Pool configuration handlers ---

type initializePoolRequest struct {
	Authority  string `json:"authority"`
	RatePerDay uint64 `json:"ratePerDay"`
	Shortfall  string `json:"shortfallPolicy"`
}

func (s *Server) handleInitializePool(w http.ResponseWriter, r *http.Request) {
	var req initializePoolRequest
	if !s.decode(w, r, &req) {
		return
	}
	authority, err := parseAddr(req.Authority)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid authority address"})
		return
	}
	policy := nftstake.ShortfallForfeit
	if req.Shortfall == "retain" {
		policy = nftstake.ShortfallRetain
	}
	s.mu.Lock()
	err = s.finish(s.engine.InitializePool(authority, req.RatePerDay, policy))
	s.mu.Unlock()
	observeOp("initializePool", err)
	if err != nil {
		s.writeError(w, "initializePool", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

type callerRequest struct {
	Caller string `json:"caller"`
}

func (s *Server) toggle(w http.ResponseWriter, r *http.Request, op string, fn func([20]byte) error) {
	var req callerRequest
	if !s.decode(w, r, &req) {
		return
	}
	caller, err := parseAddr(req.Caller)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid caller address"})
		return
	}
	s.mu.Lock()
	err = s.finish(fn(caller))
	s.mu.Unlock()
	observeOp(op, err)
	if err != nil {
		s.writeError(w, op, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.toggle(w, r, "pause", s.engine.Pause)
}

func (s *Server) handleUnpause(w http.ResponseWriter, r *http.Request) {
	s.toggle(w, r, "unpause", s.engine.Unpause)
}

type setRateRequest struct {
	Caller     string `json:"caller"`
	RatePerDay uint64 `json:"ratePerDay"`
}

func (s *Server) handleSetDefaultRate(w http.ResponseWriter, r *http.Request) {
	var req setRateRequest
	if !s.decode(w, r, &req) {
		return
	}
	caller, err := parseAddr(req.Caller)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid caller address"})
		return
	}
	s.mu.Lock()
	err = s.finish(s.engine.SetDefaultRate(caller, req.RatePerDay))
	s.mu.Unlock()
	observeOp("setDefaultRate", err)
	if err != nil {
		s.writeError(w, "setDefaultRate", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type poolResponse struct {
	Authority         string `json:"authority"`
	Paused            bool   `json:"paused"`
	DefaultRatePerDay uint64 `json:"defaultRatePerDay"`
	TotalStakedCount  uint64 `json:"totalStakedCount"`
	ParticipantCount  uint64 `json:"participantCount"`
	ShortfallPolicy   string `json:"shortfallPolicy"`
	AssetVault        string `json:"assetVault"`
	RewardVault       string `json:"rewardVault"`
}

func (s *Server) handlePoolInfo(w http.ResponseWriter, r *http.Request) {
	pool, err := s.engine.PoolInfo()
	if err != nil {
		s.writeError(w, "poolInfo", err)
		return
	}
	policy := "forfeit"
	if pool.Shortfall == nftstake.ShortfallRetain {
		policy = "retain"
	}
	s.writeJSON(w, http.StatusOK, poolResponse{
		Authority:         crypto.MustNewAddress(crypto.StakePrefix, pool.Authority[:]).String(),
		Paused:            pool.Paused,
		DefaultRatePerDay: pool.DefaultRatePerDay,
		TotalStakedCount:  pool.TotalStakedCount,
		ParticipantCount:  pool.ParticipantCount,
		ShortfallPolicy:   policy,
		AssetVault:        crypto.MustNewAddress(crypto.VaultPrefix, pool.AssetVault[:]).String(),
		RewardVault:       crypto.MustNewAddress(crypto.VaultPrefix, pool.RewardVault[:]).String(),
	})
}

// --- Collection handlers ---

type collectionRequest struct {
	Caller      string `json:"caller"`
	Collection  string `json:"collection"`
	RewardClass uint8  `json:"rewardClass,omitempty"`
	RatePerDay  uint64 `json:"ratePerDay,omitempty"`
}

func (s *Server) collectionOp(w http.ResponseWriter, r *http.Request, op string, fn func(caller, collection [20]byte, req *collectionRequest) error) {
	var req collectionRequest
	if !s.decode(w, r, &req) {
		return
	}
	caller, err := parseAddr(req.Caller)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid caller address"})
		return
	}
	collection, err := parseAddr(req.Collection)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid collection address"})
		return
	}
	s.mu.Lock()
	err = s.finish(fn(caller, collection, &req))
	s.mu.Unlock()
	observeOp(op, err)
	if err != nil {
		s.writeError(w, op, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAddCollection(w http.ResponseWriter, r *http.Request) {
	s.collectionOp(w, r, "addCollection", func(caller, collection [20]byte, req *collectionRequest) error {
		return s.engine.AddCollection(caller, collection, req.RewardClass)
	})
}

func (s *Server) handleRemoveCollection(w http.ResponseWriter, r *http.Request) {
	s.collectionOp(w, r, "removeCollection", func(caller, collection [20]byte, _ *collectionRequest) error {
		return s.engine.RemoveCollection(caller, collection)
	})
}

func (s *Server) handleSetCollectionRate(w http.ResponseWriter, r *http.Request) {
	s.collectionOp(w, r, "setCollectionRate", func(caller, collection [20]byte, req *collectionRequest) error {
		return s.engine.SetCollectionRate(caller, collection, req.RatePerDay)
	})
}

func (s *Server) handleRemoveCollectionRate(w http.ResponseWriter, r *http.Request) {
	s.collectionOp(w, r, "removeCollectionRate", func(caller, collection [20]byte, _ *collectionRequest) error {
		return s.engine.RemoveCollectionRate(caller, collection)
	})
}

type collectionEntryResponse struct {
	Collection  string  `json:"collection"`
	RewardClass uint8   `json:"rewardClass"`
	RatePerDay  *uint64 `json:"ratePerDay,omitempty"`
}

func (s *Server) handleCollections(w http.ResponseWriter, r *http.Request) {
	table, err := s.engine.Collections()
	if err != nil {
		s.writeError(w, "collections", err)
		return
	}
	rates, err := s.engine.RateOverrides()
	if err != nil {
		s.writeError(w, "collections", err)
		return
	}
	out := make([]collectionEntryResponse, 0, len(table.Entries))
	for _, entry := range table.Entries {
		item := collectionEntryResponse{
			Collection:  crypto.MustNewAddress(crypto.StakePrefix, entry.Collection[:]).String(),
			RewardClass: entry.RewardClass,
		}
		for _, o := range rates.Overrides {
			if o.Collection == entry.Collection {
				rate := o.RatePerDay
				item.RatePerDay = &rate
				break
			}
		}
		out = append(out, item)
	}
	s.writeJSON(w, http.StatusOK, out)
}

// --- Participant and segment handlers ---

type ownerRequest struct {
	Owner string `json:"owner"`
}

func (s *Server) ownerOp(w http.ResponseWriter, r *http.Request, op string, fn func(owner [20]byte) error) {
	var req ownerRequest
	if !s.decode(w, r, &req) {
		return
	}
	owner, err := parseAddr(req.Owner)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid owner address"})
		return
	}
	s.mu.Lock()
	err = s.finish(fn(owner))
	s.mu.Unlock()
	observeOp(op, err)
	if err != nil {
		s.writeError(w, op, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateParticipant(w http.ResponseWriter, r *http.Request) {
	s.ownerOp(w, r, "createParticipant", s.engine.CreateParticipant)
}

func (s *Server) handleCloseParticipant(w http.ResponseWriter, r *http.Request) {
	s.ownerOp(w, r, "closeParticipant", s.engine.CloseParticipant)
}

func (s *Server) handleCreateSegment(w http.ResponseWriter, r *http.Request) {
	var req ownerRequest
	if !s.decode(w, r, &req) {
		return
	}
	owner, err := parseAddr(req.Owner)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid owner address"})
		return
	}
	s.mu.Lock()
	segID, err := s.engine.CreateLedgerSegment(owner)
	err = s.finish(err)
	s.mu.Unlock()
	observeOp("createLedgerSegment", err)
	if err != nil {
		s.writeError(w, "createLedgerSegment", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]uint64{"segmentId": segID})
}

type segmentRequest struct {
	Owner     string `json:"owner"`
	SegmentID uint64 `json:"segmentId"`
}

func (s *Server) handleCloseSegment(w http.ResponseWriter, r *http.Request) {
	var req segmentRequest
	if !s.decode(w, r, &req) {
		return
	}
	owner, err := parseAddr(req.Owner)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid owner address"})
		return
	}
	s.mu.Lock()
	err = s.finish(s.engine.CloseLedgerSegment(owner, req.SegmentID))
	s.mu.Unlock()
	observeOp("closeLedgerSegment", err)
	if err != nil {
		s.writeError(w, "closeLedgerSegment", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type participantResponse struct {
	Owner              string `json:"owner"`
	TotalStakedCount   uint64 `json:"totalStakedCount"`
	LastSettlementTime uint64 `json:"lastSettlementTime"`
	LedgerSegmentCount uint64 `json:"ledgerSegmentCount"`
}

func (s *Server) handleParticipantInfo(w http.ResponseWriter, r *http.Request) {
	owner, err := parseAddr(chi.URLParam(r, "owner"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid owner address"})
		return
	}
	participant, err := s.engine.ParticipantInfo(owner)
	if err != nil {
		s.writeError(w, "participantInfo", err)
		return
	}
	s.writeJSON(w, http.StatusOK, participantResponse{
		Owner:              crypto.MustNewAddress(crypto.StakePrefix, participant.Owner[:]).String(),
		TotalStakedCount:   participant.TotalStakedCount,
		LastSettlementTime: participant.LastSettlementTime,
		LedgerSegmentCount: participant.LedgerSegmentCount,
	})
}

type stakeEntryResponse struct {
	AssetID            string `json:"assetId"`
	Collection         string `json:"collection"`
	RewardClass        uint8  `json:"rewardClass"`
	LastSettlementTime uint64 `json:"lastSettlementTime"`
}

type segmentResponse struct {
	SegmentID     uint64               `json:"segmentId"`
	PendingReward uint64               `json:"pendingReward"`
	Entries       []stakeEntryResponse `json:"entries"`
}

func (s *Server) segmentParams(w http.ResponseWriter, r *http.Request) ([20]byte, uint64, bool) {
	owner, err := parseAddr(chi.URLParam(r, "owner"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid owner address"})
		return [20]byte{}, 0, false
	}
	segID, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid segment id"})
		return [20]byte{}, 0, false
	}
	return owner, segID, true
}

func (s *Server) handleSegmentInfo(w http.ResponseWriter, r *http.Request) {
	owner, segID, ok := s.segmentParams(w, r)
	if !ok {
		return
	}
	seg, err := s.engine.SegmentInfo(owner, segID)
	if err != nil {
		s.writeError(w, "segmentInfo", err)
		return
	}
	entries := make([]stakeEntryResponse, 0, len(seg.Entries))
	for _, entry := range seg.Entries {
		entries = append(entries, stakeEntryResponse{
			AssetID:            hex.EncodeToString(entry.AssetID[:]),
			Collection:         crypto.MustNewAddress(crypto.StakePrefix, entry.Collection[:]).String(),
			RewardClass:        entry.RewardClass,
			LastSettlementTime: entry.LastSettlementTime,
		})
	}
	s.writeJSON(w, http.StatusOK, segmentResponse{
		SegmentID:     seg.SegmentID,
		PendingReward: seg.PendingReward,
		Entries:       entries,
	})
}

func (s *Server) handlePendingPreview(w http.ResponseWriter, r *http.Request) {
	owner, segID, ok := s.segmentParams(w, r)
	if !ok {
		return
	}
	pending, err := s.engine.PreviewPending(owner, segID)
	if err != nil {
		s.writeError(w, "pendingPreview", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]uint64{"pendingReward": pending})
}

// --- Stake lifecycle handlers ---

type stakeRequest struct {
	Owner     string `json:"owner"`
	SegmentID uint64 `json:"segmentId"`
	AssetID   string `json:"assetId"`
}

func (s *Server) stakeOp(w http.ResponseWriter, r *http.Request, op string, fn func(owner [20]byte, segID uint64, asset [32]byte) error) {
	var req stakeRequest
	if !s.decode(w, r, &req) {
		return
	}
	owner, err := parseAddr(req.Owner)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid owner address"})
		return
	}
	asset, err := parseAsset(req.AssetID)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid asset id"})
		return
	}
	s.mu.Lock()
	err = s.finish(fn(owner, req.SegmentID, asset))
	s.mu.Unlock()
	observeOp(op, err)
	if err != nil {
		s.writeError(w, op, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStake(w http.ResponseWriter, r *http.Request) {
	s.stakeOp(w, r, "stake", s.engine.Stake)
}

func (s *Server) handleUnstake(w http.ResponseWriter, r *http.Request) {
	s.stakeOp(w, r, "unstake", s.engine.Unstake)
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	var req segmentRequest
	if !s.decode(w, r, &req) {
		return
	}
	owner, err := parseAddr(req.Owner)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid owner address"})
		return
	}
	s.mu.Lock()
	paid, err := s.engine.Claim(owner, req.SegmentID)
	err = s.finish(err)
	s.mu.Unlock()
	observeOp("claim", err)
	if err != nil {
		s.writeError(w, "claim", err)
		return
	}
	rewardPaidTotal.Add(float64(paid))
	s.writeJSON(w, http.StatusOK, map[string]uint64{"paid": paid})
}

// --- Reward vault handlers ---

type amountRequest struct {
	Caller string `json:"caller"`
	Amount uint64 `json:"amount"`
}

func (s *Server) amountOp(w http.ResponseWriter, r *http.Request, op string, fn func(caller [20]byte, amount uint64) (uint64, error)) {
	var req amountRequest
	if !s.decode(w, r, &req) {
		return
	}
	caller, err := parseAddr(req.Caller)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid caller address"})
		return
	}
	s.mu.Lock()
	moved, err := fn(caller, req.Amount)
	err = s.finish(err)
	s.mu.Unlock()
	observeOp(op, err)
	if err != nil {
		s.writeError(w, op, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]uint64{"amount": moved})
}

func (s *Server) handleDepositReward(w http.ResponseWriter, r *http.Request) {
	s.amountOp(w, r, "depositReward", s.engine.DepositReward)
}

func (s *Server) handleWithdrawReward(w http.ResponseWriter, r *http.Request) {
	s.amountOp(w, r, "withdrawReward", s.engine.WithdrawReward)
}

// --- Custody bootstrap handlers ---

type registerAssetRequest struct {
	AssetID    string `json:"assetId"`
	Owner      string `json:"owner"`
	Collection string `json:"collection"`
}

func (s *Server) handleRegisterAsset(w http.ResponseWriter, r *http.Request) {
	var req registerAssetRequest
	if !s.decode(w, r, &req) {
		return
	}
	asset, err := parseAsset(req.AssetID)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid asset id"})
		return
	}
	owner, err := parseAddr(req.Owner)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid owner address"})
		return
	}
	collection, err := parseAddr(req.Collection)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid collection address"})
		return
	}
	s.mu.Lock()
	err = s.finish(s.st.RegisterAsset(asset, owner, collection))
	s.mu.Unlock()
	observeOp("registerAsset", err)
	if err != nil {
		s.writeError(w, "registerAsset", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

type creditRewardRequest struct {
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
}

func (s *Server) handleCreditReward(w http.ResponseWriter, r *http.Request) {
	var req creditRewardRequest
	if !s.decode(w, r, &req) {
		return
	}
	addr, err := parseAddr(req.Address)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid address"})
		return
	}
	s.mu.Lock()
	balance, err := s.st.RewardBalance(addr)
	if err == nil {
		if balance+req.Amount < balance {
			err = nftstake.ErrArithmeticOverflow
		} else {
			err = s.st.SetRewardBalance(addr, balance+req.Amount)
		}
	}
	err = s.finish(err)
	s.mu.Unlock()
	observeOp("creditReward", err)
	if err != nil {
		s.writeError(w, "creditReward", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
