package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/napatw/gamestore/internal/infra/metrics"
	"github.com/napatw/gamestore/internal/repos/discounts"
	"github.com/napatw/gamestore/internal/repos/orders"
	"github.com/napatw/gamestore/internal/repos/wallets"
	"github.com/napatw/gamestore/internal/services/checkout"
	"github.com/napatw/gamestore/internal/services/wallet"
)

// CheckoutService is the slice of the checkout orchestrator the handlers use.
type CheckoutService interface {
	Checkout(ctx context.Context, userID int64, items []checkout.CartItem, discountCode string) (checkout.Settlement, error)
	ApplyDiscount(ctx context.Context, orderID int64, code string, userID int64) (checkout.ApplyResult, error)
}

// WalletService is the slice of the wallet service the handlers use.
type WalletService interface {
	Topup(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error)
	WalletData(ctx context.Context, userID int64) (wallet.Data, error)
}

// HandlerProvider wraps the services and exposes HTTP handlers.
type HandlerProvider struct {
	checkout CheckoutService
	wallet   WalletService
	metrics  *metrics.StoreMetrics
}

func NewHandler(checkoutSvc CheckoutService, walletSvc WalletService, m *metrics.StoreMetrics) *HandlerProvider {
	return &HandlerProvider{checkout: checkoutSvc, wallet: walletSvc, metrics: m}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB cap
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty body")
		}

		return fmt.Errorf("invalid JSON")
	}

	return nil
}

// statusAndOutcome maps service failures to an HTTP status and a metrics
// outcome label. Distinct failure kinds stay distinguishable to callers.
func statusAndOutcome(err error) (int, string, string) {
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		return http.StatusBadRequest, "empty_cart", "cart is empty"
	case errors.Is(err, checkout.ErrInvalidPrice):
		return http.StatusBadRequest, "invalid_price", "invalid item price"
	case errors.Is(err, wallet.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid_amount", "amount must be positive"
	case errors.Is(err, discounts.ErrInvalidCode):
		return http.StatusBadRequest, "invalid_code", "invalid discount code"
	case errors.Is(err, discounts.ErrExhausted):
		return http.StatusBadRequest, "code_exhausted", "discount code has reached its maximum usage"
	case errors.Is(err, discounts.ErrAlreadyUsed):
		return http.StatusBadRequest, "code_already_used", "discount code already used"
	case errors.Is(err, wallets.ErrInsufficientFunds):
		return http.StatusPaymentRequired, "insufficient_funds", "insufficient funds"
	case errors.Is(err, wallets.ErrUserNotFound):
		return http.StatusNotFound, "user_not_found", "user not found"
	case errors.Is(err, orders.ErrOrderNotFound):
		return http.StatusNotFound, "order_not_found", "order not found"
	case errors.Is(err, orders.ErrAlreadyDiscounted):
		return http.StatusConflict, "already_discounted", "order already has a discount applied"
	case errors.Is(err, checkout.ErrForbidden):
		return http.StatusForbidden, "forbidden", "forbidden"
	default:
		return http.StatusInternalServerError, "error", "internal error"
	}
}

// --- Checkout ---

type cartItemRequest struct {
	GameID   int64           `json:"gameId"`
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity,omitempty"`
}

type checkoutRequest struct {
	Items        []cartItemRequest `json:"items"`
	DiscountCode string            `json:"discountCode,omitempty"`
}

type checkoutResponse struct {
	OrderID         int64           `json:"orderId"`
	NewBalance      decimal.Decimal `json:"newBalance"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountApplied bool            `json:"discountApplied"`
	DiscountCode    string          `json:"discountCode,omitempty"`
	DiscountPercent int64           `json:"discountPercent,omitempty"`
	DiscountAmount  decimal.Decimal `json:"discountAmount"`
	TotalCharged    decimal.Decimal `json:"totalCharged"`
}

// CheckoutHandler handles POST /api/orders/checkout.
func (h *HandlerProvider) CheckoutHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req checkoutRequest

	err := decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items := make([]checkout.CartItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, checkout.CartItem{
			GameID:    it.GameID,
			UnitPrice: it.Price,
			Quantity:  it.Quantity,
		})
	}

	settlement, err := h.checkout.Checkout(r.Context(), userID, items, req.DiscountCode)
	if err != nil {
		status, outcome, msg := statusAndOutcome(err)
		h.metrics.Checkouts.WithLabelValues(outcome).Inc()

		if status == http.StatusInternalServerError {
			slog.Error("checkout failed", "request_id", GetRequestID(r.Context()), "error", err)
		}

		writeError(w, status, msg)
		return
	}

	h.metrics.Checkouts.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, checkoutResponse{
		OrderID:         settlement.OrderID,
		NewBalance:      settlement.NewBalance,
		Subtotal:        settlement.Subtotal,
		DiscountApplied: settlement.DiscountApplied,
		DiscountCode:    settlement.DiscountCode,
		DiscountPercent: settlement.DiscountPercent,
		DiscountAmount:  settlement.DiscountAmount,
		TotalCharged:    settlement.TotalCharged,
	})
}

// --- Post-hoc discount ---

type applyDiscountRequest struct {
	DiscountCode string `json:"discountCode"`
}

type applyDiscountResponse struct {
	OrderID         int64           `json:"orderId"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountPercent int64           `json:"discountPercent"`
	DiscountAmount  decimal.Decimal `json:"discountAmount"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
}

// ApplyDiscountHandler handles PATCH /api/orders/{orderId}/discount.
func (h *HandlerProvider) ApplyDiscountHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderId"), 10, 64)
	if err != nil || orderID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req applyDiscountRequest

	err = decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.DiscountCode == "" {
		writeError(w, http.StatusBadRequest, "discountCode is required")
		return
	}

	result, err := h.checkout.ApplyDiscount(r.Context(), orderID, req.DiscountCode, userID)
	if err != nil {
		status, outcome, msg := statusAndOutcome(err)
		h.metrics.DiscountHooks.WithLabelValues(outcome).Inc()

		if status == http.StatusInternalServerError {
			slog.Error("apply discount failed", "request_id", GetRequestID(r.Context()), "error", err)
		}

		writeError(w, status, msg)
		return
	}

	h.metrics.DiscountHooks.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, applyDiscountResponse{
		OrderID:         result.OrderID,
		Subtotal:        result.Subtotal,
		DiscountPercent: result.DiscountPercent,
		DiscountAmount:  result.DiscountAmount,
		TotalPrice:      result.TotalPrice,
	})
}

// --- Wallet ---

type topupRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// TopupHandler handles POST /api/wallet/topup.
func (h *HandlerProvider) TopupHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req topupRequest

	err := decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	newBalance, err := h.wallet.Topup(r.Context(), userID, req.Amount)
	if err != nil {
		status, outcome, msg := statusAndOutcome(err)
		h.metrics.Topups.WithLabelValues(outcome).Inc()

		if status == http.StatusInternalServerError {
			slog.Error("topup failed", "request_id", GetRequestID(r.Context()), "error", err)
		}

		writeError(w, status, msg)
		return
	}

	h.metrics.Topups.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, map[string]any{"newBalance": newBalance})
}

type transactionResponse struct {
	ID          int64           `json:"id"`
	Kind        string          `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	CreatedAt   string          `json:"createdAt"`
}

// WalletDataHandler handles GET /api/wallet.
func (h *HandlerProvider) WalletDataHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	data, err := h.wallet.WalletData(r.Context(), userID)
	if err != nil {
		status, _, msg := statusAndOutcome(err)

		if status == http.StatusInternalServerError {
			slog.Error("wallet read failed", "request_id", GetRequestID(r.Context()), "error", err)
		}

		writeError(w, status, msg)
		return
	}

	history := make([]transactionResponse, 0, len(data.History))
	for _, rec := range data.History {
		history = append(history, transactionResponse{
			ID:          rec.ID,
			Kind:        string(rec.Kind),
			Amount:      rec.Amount,
			Description: rec.Description,
			CreatedAt:   rec.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"balance":            data.Balance,
		"transactionHistory": history,
	})
}
