package portfolio

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/spotledger/spotledger/internal/domain"
)

// Handlers contains HTTP handlers for derived portfolio state.
// These endpoints are read-only: they never bypass aggregation.
type Handlers struct {
	service *Service
	log     zerolog.Logger
}

// NewHandlers creates portfolio handlers
func NewHandlers(service *Service, log zerolog.Logger) *Handlers {
	return &Handlers{
		service: service,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

// RegisterRoutes registers portfolio routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/portfolio", func(r chi.Router) {
		r.Get("/positions", h.HandleGetPositions)
		r.Get("/positions/{symbol}", h.HandleGetPosition)
		r.Get("/balance", h.HandleGetBalance)
	})
}

// HandleGetPositions returns all open positions for the account
// GET /api/portfolio/positions
func (h *Handlers) HandleGetPositions(w http.ResponseWriter, r *http.Request) {
	accountID, ok := domain.AccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Missing account context", http.StatusUnauthorized)
		return
	}

	positions, err := h.service.ComputePositions(accountID)
	if err != nil {
		h.log.Error().Err(err).Str("account_id", accountID).Msg("Failed to compute positions")
		http.Error(w, "Failed to compute positions", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"positions": positions,
		"count":     len(positions),
	})
}

// HandleGetPosition returns the position for one symbol, 404 when flat
// GET /api/portfolio/positions/{symbol}
func (h *Handlers) HandleGetPosition(w http.ResponseWriter, r *http.Request) {
	accountID, ok := domain.AccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Missing account context", http.StatusUnauthorized)
		return
	}

	symbol := chi.URLParam(r, "symbol")

	position, err := h.service.ComputePosition(accountID, symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to compute position")
		http.Error(w, "Failed to compute position", http.StatusInternalServerError)
		return
	}
	if position == nil {
		http.Error(w, "No open position for symbol", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, position)
}

// HandleGetBalance returns the derived cash balance
// GET /api/portfolio/balance
func (h *Handlers) HandleGetBalance(w http.ResponseWriter, r *http.Request) {
	accountID, ok := domain.AccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Missing account context", http.StatusUnauthorized)
		return
	}

	balance, err := h.service.ComputeCashBalance(accountID)
	if err != nil {
		h.log.Error().Err(err).Str("account_id", accountID).Msg("Failed to compute cash balance")
		http.Error(w, "Failed to compute cash balance", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, CashBalance{
		AccountID:  accountID,
		BalanceUSD: balance,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
