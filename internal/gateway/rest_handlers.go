package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/yourorg/testnet-trader/internal/domain"
	"github.com/yourorg/testnet-trader/internal/eventlog"
	"github.com/yourorg/testnet-trader/internal/execution"
)

const (
	defaultLogLimit = 100
	maxLogLimit     = 1000
)

// QuoteStore is the writable side of the pricing context.
type QuoteStore interface {
	Set(ctx context.Context, symbol string, price decimal.Decimal) error
	LastPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// LogArchive serves log entries kept beyond the current process.
type LogArchive interface {
	List(ctx context.Context, minLevel domain.LogLevel, limit int) ([]domain.LogEntry, error)
}

type Handlers struct {
	orderSvc *execution.OrderService
	stream   *eventlog.Stream
	quotes   QuoteStore
	archive  LogArchive
	logger   *slog.Logger
}

// NewHandlers builds the REST handlers. archive may be nil.
func NewHandlers(
	orderSvc *execution.OrderService,
	stream *eventlog.Stream,
	quotes QuoteStore,
	archive LogArchive,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		orderSvc: orderSvc,
		stream:   stream,
		quotes:   quotes,
		archive:  archive,
		logger:   logger,
	}
}

type validationResponse struct {
	Errors execution.ValidationErrors `json:"errors"`
}

func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.RawOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.orderSvc.Submit(r.Context(), req)
	if err != nil {
		var verrs execution.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Errors: verrs})
		case errors.Is(err, execution.ErrNoReferencePrice):
			writeError(w, http.StatusConflict, "no reference price for "+req.Symbol)
		default:
			h.logger.Error("order execution failed", "symbol", req.Symbol, "err", err)
			writeError(w, http.StatusServiceUnavailable, "pricing context unavailable")
		}
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// parseLogQuery reads ?level= and ?limit=.
func parseLogQuery(r *http.Request) (domain.LogLevel, int, error) {
	level := domain.LogLevel(r.URL.Query().Get("level"))
	if level != "" && level.Rank() == 0 {
		return "", 0, errors.New("level must be INFO, WARN or ERROR")
	}
	limit := defaultLogLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return "", 0, errors.New("limit must be a positive integer")
		}
		limit = min(n, maxLogLimit)
	}
	return level, limit, nil
}

func (h *Handlers) GetLogs(w http.ResponseWriter, r *http.Request) {
	level, limit, err := parseLogQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.stream.Entries(level, limit))
}

func (h *Handlers) GetLogArchive(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		writeError(w, http.StatusNotFound, "log archive not configured")
		return
	}
	level, limit, err := parseLogQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := h.archive.List(r.Context(), level, limit)
	if err != nil {
		h.logger.Error("failed to read log archive", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch log archive")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type quoteResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

func (h *Handlers) GetQuote(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	px, err := h.quotes.LastPrice(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, execution.ErrNoReferencePrice) {
			writeError(w, http.StatusNotFound, "no quote for "+symbol)
			return
		}
		h.logger.Error("quote lookup failed", "symbol", symbol, "err", err)
		writeError(w, http.StatusServiceUnavailable, "pricing context unavailable")
		return
	}
	writeJSON(w, http.StatusOK, quoteResponse{Symbol: symbol, Price: px.String()})
}

type setQuoteRequest struct {
	Price domain.RawValue `json:"price"`
}

func (h *Handlers) SetQuote(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if msg := execution.CheckSymbol(symbol); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	var req setQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	px, err := decimal.NewFromString(string(req.Price))
	if err != nil || !px.IsPositive() {
		writeError(w, http.StatusBadRequest, "price must be a positive number")
		return
	}
	if err := h.quotes.Set(r.Context(), symbol, px); err != nil {
		h.logger.Error("failed to set quote", "symbol", symbol, "err", err)
		writeError(w, http.StatusServiceUnavailable, "pricing context unavailable")
		return
	}
	writeJSON(w, http.StatusOK, quoteResponse{Symbol: symbol, Price: px.String()})
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
