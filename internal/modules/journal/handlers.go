package journal

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/spotledger/spotledger/internal/domain"
)

// Handlers contains HTTP handlers for journal entries.
type Handlers struct {
	repo *Repository
	log  zerolog.Logger
}

// NewHandlers creates journal handlers
func NewHandlers(repo *Repository, log zerolog.Logger) *Handlers {
	return &Handlers{
		repo: repo,
		log:  log.With().Str("handler", "journal").Logger(),
	}
}

// RegisterRoutes registers journal routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/journal", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Get("/{id}", h.HandleGet)
		r.Delete("/{id}", h.HandleDelete)
	})
}

// CreateEntryRequest is the POST /api/journal payload
type CreateEntryRequest struct {
	Symbol     string   `json:"symbol"`
	Side       string   `json:"side"`
	Status     string   `json:"status,omitempty"`
	EntryPrice *float64 `json:"entry_price,omitempty"`
	ExitPrice  *float64 `json:"exit_price,omitempty"`
	Amount     *float64 `json:"amount,omitempty"`
	Notes      string   `json:"notes,omitempty"`
}

// HandleCreate creates a journal entry
// POST /api/journal
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	accountID, ok := domain.AccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Missing account context", http.StatusUnauthorized)
		return
	}

	var req CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	status := StatusPlanned
	if req.Status != "" {
		parsed, err := EntryStatusFromString(req.Status)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		status = parsed
	}

	entry, err := h.repo.Create(Entry{
		AccountID:  accountID,
		Symbol:     req.Symbol,
		Side:       req.Side,
		Status:     status,
		EntryPrice: req.EntryPrice,
		ExitPrice:  req.ExitPrice,
		Amount:     req.Amount,
		Notes:      req.Notes,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error().Err(err).Msg("Failed to create journal entry")
		http.Error(w, "Failed to create journal entry", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

// HandleList returns all journal entries for the account
// GET /api/journal
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	accountID, ok := domain.AccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Missing account context", http.StatusUnauthorized)
		return
	}

	entries, err := h.repo.ListByAccount(accountID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list journal entries")
		http.Error(w, "Failed to list journal entries", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

// HandleGet returns one journal entry
// GET /api/journal/{id}
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	accountID, ok := domain.AccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Missing account context", http.StatusUnauthorized)
		return
	}

	entry, err := h.repo.GetByID(accountID, chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, "Journal entry not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get journal entry")
		http.Error(w, "Failed to get journal entry", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// HandleDelete removes a journal entry (idempotent)
// DELETE /api/journal/{id}
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	accountID, ok := domain.AccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Missing account context", http.StatusUnauthorized)
		return
	}

	deleted, err := h.repo.DeleteByID(accountID, chi.URLParam(r, "id"))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to delete journal entry")
		http.Error(w, "Failed to delete journal entry", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": deleted})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
