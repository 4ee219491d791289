package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/atomic"

	"github.com/dvlprsh/go-rln/registry"
)

// RegistryConfig configures the membership registry service.
type RegistryConfig struct {
	// Depth of the membership tree, in [16, 32].
	Depth int `yaml:"depth" json:"depth"`

	// ZeroValue is the decimal-encoded sentinel for unused slots.
	// Empty means 0.
	ZeroValue string `yaml:"zero_value" json:"zero_value"`
}

// RegistryService serializes access to a membership registry and exposes it
// over HTTP. The registry performs no locking of its own; the service's
// RWMutex is the single writer discipline.
type RegistryService struct {
	cfg RegistryConfig
	log *slog.Logger

	ready atomic.Bool

	mu  sync.RWMutex
	reg *registry.Registry
}

// NewRegistryService creates the service in a not-ready state. Requests are
// answered with 503 until Init completes.
func NewRegistryService(cfg RegistryConfig, log *slog.Logger) *RegistryService {
	if log == nil {
		log = slog.Default()
	}
	return &RegistryService{cfg: cfg, log: log}
}

// Init performs the one-time setup step: it builds the membership tree
// (hashing the zero-value spine) and marks the service ready. Must complete
// before the service answers anything but 503.
func (s *RegistryService) Init() error {
	zero := big.NewInt(0)
	if s.cfg.ZeroValue != "" {
		parsed, err := parseFieldElement(s.cfg.ZeroValue)
		if err != nil {
			return fmt.Errorf("registry zero value: %w", err)
		}
		zero = parsed
	}

	reg, err := registry.New(s.cfg.Depth, zero)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.reg = reg
	s.mu.Unlock()
	s.ready.Store(true)

	s.log.Info("membership registry initialized", "depth", s.cfg.Depth)
	return nil
}

// Ready reports whether Init has completed.
func (s *RegistryService) Ready() bool { return s.ready.Load() }

// RegisterRoutes registers the registry endpoints.
func (s *RegistryService) RegisterRoutes(r chi.Router) {
	r.Route("/registry", func(r chi.Router) {
		r.Use(s.requireReady)
		r.Post("/members", s.handleInsertMember)
		r.Post("/members/batch", s.handleInsertMembers)
		r.Delete("/members/{index}", s.handleRemoveMember)
		r.Get("/members", s.handleGetMembers)
		r.Get("/members/{index}/proof", s.handleMembershipProof)
		r.Get("/root", s.handleGetRoot)
		r.Get("/config", s.handleGetConfig)
	})
}

// requireReady rejects requests issued before initialization completes, so
// no caller can observe a partially built tree.
func (s *RegistryService) requireReady(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.ready.Load() {
			writeError(w, http.StatusServiceUnavailable, "registry not initialized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *RegistryService) handleInsertMember(w http.ResponseWriter, r *http.Request) {
	var req MemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	commitment, err := parseFieldElement(req.Commitment)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	index, err := s.reg.InsertMember(commitment)
	root := s.reg.Root()
	s.mu.Unlock()

	if err != nil {
		writeRegistryError(w, err)
		return
	}
	s.log.Info("member inserted", "index", index)
	writeJSON(w, http.StatusOK, &InsertResponse{Index: index, Root: root.String()})
}

func (s *RegistryService) handleInsertMembers(w http.ResponseWriter, r *http.Request) {
	var req MemberBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	commitments := make([]*big.Int, len(req.Commitments))
	for i, c := range req.Commitments {
		parsed, err := parseFieldElement(c)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("commitment %d: %v", i, err))
			return
		}
		commitments[i] = parsed
	}

	s.mu.Lock()
	indices := make([]int, 0, len(commitments))
	var insertErr error
	for _, c := range commitments {
		index, err := s.reg.InsertMember(c)
		if err != nil {
			insertErr = err
			break
		}
		indices = append(indices, index)
	}
	root := s.reg.Root()
	s.mu.Unlock()

	if insertErr != nil {
		// earlier members of the batch stay committed
		writeRegistryError(w, insertErr)
		return
	}
	s.log.Info("members inserted", "count", len(indices))
	writeJSON(w, http.StatusOK, &BatchInsertResponse{Indices: indices, Root: root.String()})
}

func (s *RegistryService) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid index")
		return
	}

	s.mu.Lock()
	err = s.reg.RemoveMember(index)
	root := s.reg.Root()
	s.mu.Unlock()

	if err != nil {
		writeRegistryError(w, err)
		return
	}
	s.log.Info("member removed", "index", index)
	writeJSON(w, http.StatusOK, &RootResponse{Root: root.String()})
}

func (s *RegistryService) handleGetMembers(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	members := s.reg.Members()
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, &MembersResponse{Members: formatFieldElements(members)})
}

func (s *RegistryService) handleMembershipProof(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid index")
		return
	}

	s.mu.RLock()
	proof, err := s.reg.MembershipProof(index)
	s.mu.RUnlock()

	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &ProofResponse{
		Index:        proof.Index,
		Member:       proof.Member.String(),
		Root:         proof.Root.String(),
		PathElements: formatFieldElements(proof.PathElements),
		PathIndexes:  proof.PathIndexes,
	})
}

func (s *RegistryService) handleGetRoot(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	root := s.reg.Root()
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, &RootResponse{Root: root.String()})
}

func (s *RegistryService) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := &ConfigResponse{
		Depth:       s.reg.Depth(),
		ZeroValue:   s.reg.ZeroValue().String(),
		Capacity:    uint64(1) << uint(s.reg.Depth()),
		MemberCount: len(s.reg.Members()),
	}
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, resp)
}

func writeRegistryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registry.ErrOutOfRange):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, registry.ErrCapacityExceeded):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, &ErrorResponse{Error: msg})
}
