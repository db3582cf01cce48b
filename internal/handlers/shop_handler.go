package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tonermart/backend/internal/access"
	"github.com/tonermart/backend/internal/ledger"
	"github.com/tonermart/backend/internal/middleware"
	"github.com/tonermart/backend/internal/services"
	"github.com/tonermart/backend/internal/shop"
)

// ShopHandler serves the customer-facing purchase operations. Every call
// is bound to the authenticated principal; the capability gate inside the
// facade decides what it may do.
type ShopHandler struct {
	gate      *access.Gate
	ledger    ledger.Ledger
	validator *validator.Validate
	log       *zap.Logger
}

// PurchaseRequest is the purchase payload.
type PurchaseRequest struct {
	Article  string `json:"article" validate:"required" example:"Toner_216"`
	Quantity int64  `json:"quantity" validate:"required,gt=0" example:"10"`
}

// PurchaseResponse reports the purchase outcome. Purchased false means
// the balance did not cover the cost; nothing changed.
type PurchaseResponse struct {
	Purchased bool `json:"purchased"`
}

// NewShopHandler builds the customer handler.
func NewShopHandler(gate *access.Gate, l ledger.Ledger, log *zap.Logger) *ShopHandler {
	return &ShopHandler{gate: gate, ledger: l, validator: validator.New(), log: log}
}

func (h *ShopHandler) customerOps(r *http.Request) (*shop.CustomerOps, bool) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		return nil, false
	}
	return shop.NewCustomerOps(h.gate, h.ledger, principal), true
}

// Purchase buys an article
// @Summary Purchase an article
// @Description Atomically debit the caller's balance and append a purchase row; purchased=false when funds are insufficient
// @Tags shop
// @Accept json
// @Produce json
// @Param request body PurchaseRequest true "Purchase request"
// @Success 200 {object} PurchaseResponse
// @Failure 400 {object} services.ErrorResponse "Invalid request"
// @Failure 403 {object} services.ErrorResponse "Permission denied"
// @Failure 404 {object} services.ErrorResponse "Unknown article or customer"
// @Security BearerAuth
// @Router /shop/purchases [post]
func (h *ShopHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	ops, ok := h.customerOps(r)
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req PurchaseRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	purchased, err := ops.Purchase(r.Context(), req.Article, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}

	principal, _ := middleware.PrincipalFrom(r.Context())
	h.log.Info("purchase",
		zap.String("customer", principal.Name),
		zap.String("article", req.Article),
		zap.Int64("quantity", req.Quantity),
		zap.Bool("purchased", purchased),
	)
	writeJSON(w, http.StatusOK, PurchaseResponse{Purchased: purchased})
}

// Cancel reverses the most recent purchase of an article
// @Summary Cancel a purchase
// @Description Mark the caller's most recent non-cancelled purchase of the article as cancelled and refund the captured price
// @Tags shop
// @Produce json
// @Param article path string true "Article name"
// @Success 200 {object} map[string]string
// @Failure 403 {object} services.ErrorResponse "Permission denied"
// @Failure 404 {object} services.ErrorResponse "Unknown article or customer"
// @Failure 409 {object} services.ErrorResponse "Nothing to cancel"
// @Security BearerAuth
// @Router /shop/purchases/{article} [delete]
func (h *ShopHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ops, ok := h.customerOps(r)
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	article := chi.URLParam(r, "article")
	if err := ops.Cancel(r.Context(), article); err != nil {
		writeError(w, err)
		return
	}

	principal, _ := middleware.PrincipalFrom(r.Context())
	h.log.Info("purchase cancelled",
		zap.String("customer", principal.Name),
		zap.String("article", article),
	)
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// History lists the caller's purchases
// @Summary Purchase history
// @Description Non-cancelled purchases of the caller, oldest first
// @Tags shop
// @Produce json
// @Success 200 {array} models.HistoryRow
// @Failure 403 {object} services.ErrorResponse "Permission denied"
// @Security BearerAuth
// @Router /shop/history [get]
func (h *ShopHandler) History(w http.ResponseWriter, r *http.Request) {
	ops, ok := h.customerOps(r)
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	rows, err := ops.History(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HistoryToday lists today's purchases, newest first
// @Summary Today's purchase history
// @Description Today's non-cancelled purchases of the caller, newest first
// @Tags shop
// @Produce json
// @Success 200 {array} models.HistoryRow
// @Failure 403 {object} services.ErrorResponse "Permission denied"
// @Security BearerAuth
// @Router /shop/history/today [get]
func (h *ShopHandler) HistoryToday(w http.ResponseWriter, r *http.Request) {
	ops, ok := h.customerOps(r)
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	rows, err := ops.HistoryToday(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
