package trading

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/spotledger/spotledger/internal/domain"
	"github.com/spotledger/spotledger/internal/modules/ledger"
)

// LedgerReader provides the read-only trade/cash listings for the history endpoints.
type LedgerReader interface {
	ListByAccount(accountID string) ([]ledger.Trade, error)
}

// CashLedgerReader provides the cash adjustment listing.
type CashLedgerReader interface {
	ListByAccount(accountID string) ([]ledger.CashAdjustment, error)
}

// Handlers contains HTTP handlers for ledger mutations and history.
type Handlers struct {
	service     *Service
	tradeReader LedgerReader
	cashReader  CashLedgerReader
	log         zerolog.Logger
}

// NewHandlers creates trading handlers
func NewHandlers(service *Service, tradeReader LedgerReader, cashReader CashLedgerReader, log zerolog.Logger) *Handlers {
	return &Handlers{
		service:     service,
		tradeReader: tradeReader,
		cashReader:  cashReader,
		log:         log.With().Str("handler", "trading").Logger(),
	}
}

// RegisterRoutes registers trading routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/trades", func(r chi.Router) {
		r.Get("/", h.HandleListTrades)
		r.Post("/", h.HandleRecordTrade)
		r.Delete("/{id}", h.HandleDeleteTrade)
	})

	r.Route("/cash", func(r chi.Router) {
		r.Get("/", h.HandleListCash)
		r.Post("/deposit", h.HandleDeposit)
		r.Post("/withdraw", h.HandleWithdraw)
		r.Delete("/{id}", h.HandleDeleteCash)
	})
}

// RecordTradeRequest is the POST /api/trades payload. Price comes from the
// caller (the price feed is an upstream collaborator, never fetched here).
type RecordTradeRequest struct {
	Symbol   string     `json:"symbol"`
	Side     string     `json:"side"`
	Quantity float64    `json:"quantity"`
	Price    float64    `json:"price"`
	Fee      float64    `json:"fee"`
	Note     string     `json:"note,omitempty"`
	TradeAt  *time.Time `json:"trade_at,omitempty"`
}

// CashRequest is the deposit/withdraw payload
type CashRequest struct {
	Amount  float64    `json:"amount"`
	TradeAt *time.Time `json:"trade_at,omitempty"`
}

// HandleRecordTrade validates and appends a trade
// POST /api/trades
func (h *Handlers) HandleRecordTrade(w http.ResponseWriter, r *http.Request) {
	accountID, ok := domain.AccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Missing account context", http.StatusUnauthorized)
		return
	}

	var req RecordTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	side, err := ledger.TradeSideFromString(req.Side)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	input := TradeInput{
		Symbol:   req.Symbol,
		Side:     side,
		Quantity: req.Quantity,
		Price:    req.Price,
		Fee:      req.Fee,
		Note:     req.Note,
	}
	if req.TradeAt != nil {
		input.TradeAt = *req.TradeAt
	}

	trade, err := h.service.RecordTrade(accountID, input)
	if err != nil {
		h.writeError(w, err, "Failed to record trade")
		return
	}

	writeJSON(w, http.StatusCreated, trade)
}

// HandleListTrades returns the full trade history, oldest first
// GET /api/trades
func (h *Handlers) HandleListTrades(w http.ResponseWriter, r *http.Request) {
	accountID, ok := domain.AccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Missing account context", http.StatusUnauthorized)
		return
	}

	trades, err := h.tradeReader.ListByAccount(accountID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list trades")
		http.Error(w, "Failed to list trades", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"trades": trades,
		"count":  len(trades),
	})
}

// HandleDeleteTrade removes a trade, cascading into its linked journal entry
// DELETE /api/trades/{id}
func (h *Handlers) HandleDeleteTrade(w http.ResponseWriter, r *http.Request) {
	accountID, ok := domain.AccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Missing account context", http.StatusUnauthorized)
		return
	}

	if err := h.service.DeleteTrade(accountID, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err, "Failed to delete trade")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": true})
}

// HandleDeposit appends a cash deposit
// POST /api/cash/deposit
func (h *Handlers) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	h.handleCashMutation(w, r, func(accountID string, req CashRequest, at time.Time) (interface{}, error) {
		return h.service.Deposit(accountID, req.Amount, at)
	})
}

// HandleWithdraw validates and appends a cash withdrawal
// POST /api/cash/withdraw
func (h *Handlers) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	h.handleCashMutation(w, r, func(accountID string, req CashRequest, at time.Time) (interface{}, error) {
		return h.service.Withdraw(accountID, req.Amount, at)
	})
}

func (h *Handlers) handleCashMutation(
	w http.ResponseWriter,
	r *http.Request,
	mutate func(accountID string, req CashRequest, at time.Time) (interface{}, error),
) {
	accountID, ok := domain.AccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Missing account context", http.StatusUnauthorized)
		return
	}

	var req CashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var at time.Time
	if req.TradeAt != nil {
		at = *req.TradeAt
	}

	adj, err := mutate(accountID, req, at)
	if err != nil {
		h.writeError(w, err, "Failed to record cash adjustment")
		return
	}

	writeJSON(w, http.StatusCreated, adj)
}

// HandleListCash returns the cash adjustment history, oldest first
// GET /api/cash
func (h *Handlers) HandleListCash(w http.ResponseWriter, r *http.Request) {
	accountID, ok := domain.AccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Missing account context", http.StatusUnauthorized)
		return
	}

	adjustments, err := h.cashReader.ListByAccount(accountID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list cash adjustments")
		http.Error(w, "Failed to list cash adjustments", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"adjustments": adjustments,
		"count":       len(adjustments),
	})
}

// HandleDeleteCash removes a cash adjustment
// DELETE /api/cash/{id}
func (h *Handlers) HandleDeleteCash(w http.ResponseWriter, r *http.Request) {
	accountID, ok := domain.AccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Missing account context", http.StatusUnauthorized)
		return
	}

	if err := h.service.DeleteCashAdjustment(accountID, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err, "Failed to delete cash adjustment")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": true})
}

// writeError maps the business-rule error taxonomy onto HTTP statuses.
// Anything outside the taxonomy is a store-level failure and surfaces as 500.
func (h *Handlers) writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrInsufficientAsset),
		errors.Is(err, domain.ErrInsufficientCash):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	default:
		h.log.Error().Err(err).Msg(fallback)
		http.Error(w, fallback, http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
