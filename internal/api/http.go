package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"locktrack/internal/interval"
	"locktrack/internal/loader"
	"locktrack/internal/model"
	"locktrack/internal/obs"

	"github.com/google/uuid"
)

// Journal receives accepted locks so a restart can replay them.
type Journal interface {
	Append(ctx context.Context, resourceID string, start, end int64) error
}

// Server exposes the registry over HTTP. The registry is single-writer
// by contract, so the server serializes every call behind mu.
type Server struct {
	mu      sync.Mutex
	reg     *model.Registry
	journal Journal // optional
	logger  *obs.Logger
	mux     *http.ServeMux
}

type contextKey string

const requestIDKey contextKey = "req_id"

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func NewServer(reg *model.Registry, journal Journal, logger *obs.Logger) *Server {
	s := &Server{reg: reg, journal: journal, logger: logger, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return withRequestID(s.mux)
}

// Snapshot implements model.StatsSource under the server's mutex.
func (s *Server) Snapshot() model.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.Stats()
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Resource endpoints (simple path parsing to avoid extra router deps)
	s.mux.HandleFunc("/v1/resources/", s.handleResources)
	s.mux.HandleFunc("/v1/load", s.handleLoad)
}

func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	// Expected:
	// /v1/resources/{id}/locks
	// /v1/resources/{id}/status
	// /v1/resources/{id}/collision
	// /v1/resources/{id}/collisions
	path := strings.TrimPrefix(r.URL.Path, "/v1/resources/")
	path = strings.Trim(path, "/")
	if path == "" {
		writeErr(w, http.StatusBadRequest, "resource id required")
		return
	}

	parts := strings.Split(path, "/")
	resourceID := parts[0]
	action := ""
	if len(parts) > 1 {
		action = parts[1]
	}
	if len(parts) > 2 {
		writeErr(w, http.StatusNotFound, "invalid path")
		return
	}

	switch action {
	case "locks":
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleAddLock(w, r, resourceID)
	case "status":
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleStatus(w, r, resourceID)
	case "collision":
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleCollisionAt(w, r, resourceID)
	case "collisions":
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleCollisions(w, r, resourceID)
	default:
		writeErr(w, http.StatusNotFound, "unknown action")
	}
}

// --- Handlers ---

type addLockReq struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

type addLockResp struct {
	ResourceID string `json:"resource_id"`
	Start      int64  `json:"start"`
	End        int64  `json:"end"`
}

func (s *Server) handleAddLock(w http.ResponseWriter, r *http.Request, resourceID string) {
	var req addLockReq
	if err := readJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	iv, err := interval.New(req.Start, req.End)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	err = s.reg.AddLock(resourceID, iv)
	s.mu.Unlock()
	if err != nil {
		writeValidationErr(w, err)
		return
	}

	if s.journal != nil {
		if jerr := s.journal.Append(r.Context(), resourceID, iv.Start, iv.End); jerr != nil && s.logger != nil {
			s.logger.Error(map[string]interface{}{
				"op":       "journal_append",
				"resource": resourceID,
				"error":    jerr.Error(),
			})
		}
	}

	writeJSON(w, http.StatusCreated, addLockResp{
		ResourceID: resourceID,
		Start:      iv.Start,
		End:        iv.End,
	})
}

type statusResp struct {
	ResourceID string `json:"resource_id"`
	T          int64  `json:"t"`
	Status     string `json:"status"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request, resourceID string) {
	t, ok := queryTime(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	st, err := s.reg.StatusAt(resourceID, t)
	s.mu.Unlock()
	if err != nil {
		writeValidationErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResp{ResourceID: resourceID, T: t, Status: string(st)})
}

type collisionAtResp struct {
	ResourceID string `json:"resource_id"`
	T          int64  `json:"t"`
	Collision  bool   `json:"collision"`
}

func (s *Server) handleCollisionAt(w http.ResponseWriter, r *http.Request, resourceID string) {
	t, ok := queryTime(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	col, err := s.reg.HasCollisionAt(resourceID, t)
	s.mu.Unlock()
	if err != nil {
		writeValidationErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, collisionAtResp{ResourceID: resourceID, T: t, Collision: col})
}

type collisionsResp struct {
	ResourceID string          `json:"resource_id"`
	Pairs      []interval.Pair `json:"pairs"`
}

func (s *Server) handleCollisions(w http.ResponseWriter, r *http.Request, resourceID string) {
	first := r.URL.Query().Get("first") != ""

	s.mu.Lock()
	var pairs []interval.Pair
	var err error
	if first {
		pairs, err = s.reg.FirstCollision(resourceID)
	} else {
		pairs, err = s.reg.AllCollisions(resourceID)
	}
	s.mu.Unlock()
	if err != nil {
		writeValidationErr(w, err)
		return
	}
	if pairs == nil {
		pairs = []interval.Pair{}
	}
	writeJSON(w, http.StatusOK, collisionsResp{ResourceID: resourceID, Pairs: pairs})
}

type loadResp struct {
	Loaded  int `json:"loaded"`
	Skipped int `json:"skipped"`
}

// handleLoad accepts the raw bulk format. A structurally bad body is
// rejected with zero records applied; shape- and value-level failures
// skip individual records.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if r.Body == nil {
		writeErr(w, http.StatusBadRequest, "missing body")
		return
	}
	defer r.Body.Close()

	records, shapeSkipped, err := loader.ParseRecords(r.Body)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	rep := s.reg.LoadRecords(records)
	s.mu.Unlock()

	if s.journal != nil {
		for _, rec := range records {
			// Journal mirrors what the registry accepted; revalidate the
			// same way rather than tracking indices through the batch.
			if iv, verr := interval.New(rec.Start, rec.End); verr == nil && strings.TrimSpace(rec.ResourceID) != "" {
				if jerr := s.journal.Append(r.Context(), rec.ResourceID, iv.Start, iv.End); jerr != nil && s.logger != nil {
					s.logger.Error(map[string]interface{}{
						"op":       "journal_append",
						"resource": rec.ResourceID,
						"error":    jerr.Error(),
					})
				}
			}
		}
	}

	writeJSON(w, http.StatusOK, loadResp{
		Loaded:  rep.Loaded,
		Skipped: rep.Skipped + shapeSkipped,
	})
}

// --- helpers ---

func queryTime(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("t")
	if raw == "" {
		writeErr(w, http.StatusBadRequest, "query parameter t required")
		return 0, false
	}
	t, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "t must be an integer")
		return 0, false
	}
	return t, true
}

func writeValidationErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidResourceID),
		errors.Is(err, interval.ErrInvalidTime),
		errors.Is(err, interval.ErrInvalidInterval):
		writeErr(w, http.StatusBadRequest, err.Error())
	default:
		writeErr(w, http.StatusInternalServerError, err.Error())
	}
}

func readJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return errors.New("missing body")
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
