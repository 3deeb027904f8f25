package panel_http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"panel/internal/app/panel"
	"panel/internal/domain"
)

type PanelService interface {
	GetTransactions(ctx context.Context, accountID string, query url.Values) panel.Result[[]domain.Transaction]
	GetTransaction(ctx context.Context, accountID, transactionID string) panel.Result[*domain.Transaction]
	GetTransactionByOrderID(ctx context.Context, accountID, orderID string) panel.Result[*domain.Transaction]
	GetBalances(ctx context.Context, accountID string, currency *string) panel.Result[[]domain.Balance]
	GetAccount(ctx context.Context, accountID string) panel.Result[*domain.Account]
	PatchAccount(ctx context.Context, accountID string, raw map[string]any) panel.Result[*domain.Account]
	GetSettings(ctx context.Context, accountID string) panel.Result[domain.Settings]
	PatchSettings(ctx context.Context, accountID string, patch map[string]any) panel.Result[domain.Settings]
	Register(ctx context.Context, raw map[string]any) panel.Result[*panel.Registration]
	Overview(ctx context.Context, accountID string) panel.Result[*panel.Overview]
}

type PanelHandler struct {
	service PanelService
	logger  *zap.Logger
}

func NewPanelHandler(s PanelService, l *zap.Logger) *PanelHandler {
	return &PanelHandler{service: s, logger: l}
}

func (h *PanelHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	raw, ok := h.decodeObject(w, r)
	if !ok {
		return
	}
	res := h.service.Register(r.Context(), raw)
	writeResult(w, h.logger, http.StatusCreated, res)
}

func (h *PanelHandler) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	res := h.service.GetAccount(r.Context(), AccountIDFromContext(r.Context()))
	writeResult(w, h.logger, http.StatusOK, res)
}

func (h *PanelHandler) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	res := h.service.GetSettings(r.Context(), AccountIDFromContext(r.Context()))
	writeResult(w, h.logger, http.StatusOK, res)
}

func (h *PanelHandler) PatchAccountHandler(w http.ResponseWriter, r *http.Request) {
	raw, ok := h.decodeObject(w, r)
	if !ok {
		return
	}
	res := h.service.PatchAccount(r.Context(), AccountIDFromContext(r.Context()), raw)
	writeResult(w, h.logger, http.StatusOK, res)
}

func (h *PanelHandler) PatchSettingsHandler(w http.ResponseWriter, r *http.Request) {
	patch, ok := h.decodeObject(w, r)
	if !ok {
		return
	}
	res := h.service.PatchSettings(r.Context(), AccountIDFromContext(r.Context()), patch)
	writeResult(w, h.logger, http.StatusOK, res)
}

func (h *PanelHandler) GetBalancesHandler(w http.ResponseWriter, r *http.Request) {
	var currency *string
	if c := strings.TrimSpace(r.URL.Query().Get("currency")); c != "" {
		c = strings.ToUpper(c)
		currency = &c
	}
	res := h.service.GetBalances(r.Context(), AccountIDFromContext(r.Context()), currency)
	writeResult(w, h.logger, http.StatusOK, res)
}

func (h *PanelHandler) GetOverviewHandler(w http.ResponseWriter, r *http.Request) {
	res := h.service.Overview(r.Context(), AccountIDFromContext(r.Context()))
	writeResult(w, h.logger, http.StatusOK, res)
}

func (h *PanelHandler) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	res := h.service.GetTransactions(r.Context(), AccountIDFromContext(r.Context()), r.URL.Query())
	writeResult(w, h.logger, http.StatusOK, res)
}

func (h *PanelHandler) GetTransactionHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res := h.service.GetTransaction(r.Context(), AccountIDFromContext(r.Context()), id)
	writeResult(w, h.logger, http.StatusOK, res)
}

func (h *PanelHandler) GetTransactionByOrderHandler(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	res := h.service.GetTransactionByOrderID(r.Context(), AccountIDFromContext(r.Context()), orderID)
	writeResult(w, h.logger, http.StatusOK, res)
}

// decodeObject reads a JSON object body. Anything else is answered with a
// failed result.
func (h *PanelHandler) decodeObject(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body == nil {
		h.logger.Warn("Invalid request body", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, h.logger, http.StatusBadRequest, panel.Result[any]{
			Success:  false,
			Messages: []panel.Message{{Severity: panel.SeverityError, Message: "request body must be a JSON object"}},
		})
		return nil, false
	}
	return body, true
}

func writeResult[T any](w http.ResponseWriter, logger *zap.Logger, okStatus int, res panel.Result[T]) {
	status := okStatus
	if !res.Success {
		status = statusFor(res.Err)
	}
	writeJSON(w, logger, status, res)
}

func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}
