// Package remotefake is an in-memory implementation of the pocketsync item
// service HTTP API. It backs integration tests and the `pocketctl
// devserver` command; it is not a production server.
package remotefake

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/pocketsync/pocketsync/internal/model"
)

// Server holds the in-memory item collection and serves the REST routes
// the remote store adapter speaks.
type Server struct {
	mu     sync.Mutex
	items  map[string]model.Item // keyed by ID string
	apiKey string                // empty disables auth checks

	// FailNext makes the next mutating request return 503, for tests
	// that need a transient failure.
	FailNext bool
}

// New constructs an empty fake service. When apiKey is non-empty, every
// request must carry it as a bearer token.
func New(apiKey string) *Server {
	return &Server{items: make(map[string]model.Item), apiKey: apiKey}
}

// Router returns the HTTP handler for the service.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/v1/users/{userID}/items", s.handleInsert).Methods(http.MethodPost)
	r.HandleFunc("/v1/users/{userID}/items", s.handleQuery).Methods(http.MethodGet)
	r.HandleFunc("/v1/users/{userID}/items/{id}", s.handleUpsert).Methods(http.MethodPut)
	r.HandleFunc("/v1/items/{id}", s.handleDelete).Methods(http.MethodDelete)
	r.HandleFunc("/v1/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet, http.MethodHead)
	return r
}

// Len reports how many records the service holds.
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Has reports whether a record with the given ID string exists.
func (s *Server) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[id]
	return ok
}

// Seed stores a record directly, bypassing the HTTP surface.
func (s *Server) Seed(item model.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID.String()] = item
}

func (s *Server) authorized(r *http.Request) bool {
	if s.apiKey == "" {
		return true
	}
	return r.Header.Get("Authorization") == "Bearer "+s.apiKey
}

func (s *Server) gate(w http.ResponseWriter, r *http.Request) bool {
	if !s.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	s.mu.Lock()
	failed := s.FailNext
	s.FailNext = false
	s.mu.Unlock()
	if failed && r.Method != http.MethodGet {
		http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	if !s.gate(w, r) {
		return
	}
	userID := mux.Vars(r)["userID"]

	var req struct {
		Name      string    `json:"name"`
		Location  string    `json:"location"`
		Timestamp time.Time `json:"timestamp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}

	item := model.Item{
		ID:        model.RemoteID(uuid.New().String()),
		Name:      req.Name,
		Location:  req.Location,
		Timestamp: req.Timestamp,
		UserID:    userID,
	}
	s.mu.Lock()
	s.items[item.ID.String()] = item
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(&item)
}

func (s *Server) handleUpsert(w http.ResponseWriter, r *http.Request) {
	if !s.gate(w, r) {
		return
	}
	vars := mux.Vars(r)

	var item model.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	id, err := model.ParseItemID(vars["id"])
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}
	item.ID = id
	item.UserID = vars["userID"]

	s.mu.Lock()
	s.items[id.String()] = item
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if !s.gate(w, r) {
		return
	}
	userID := mux.Vars(r)["userID"]

	s.mu.Lock()
	var out []model.Item
	for _, it := range s.items {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Items []model.Item `json:"items"`
		Count int          `json:"count"`
	}{Items: out, Count: len(out)})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !s.gate(w, r) {
		return
	}
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	_, ok := s.items[id]
	delete(s.items, id)
	s.mu.Unlock()

	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
