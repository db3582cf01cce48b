package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/tonermart/backend/internal/access"
	"github.com/tonermart/backend/internal/ledger"
	"github.com/tonermart/backend/internal/middleware"
	"github.com/tonermart/backend/internal/services"
	"github.com/tonermart/backend/internal/shop"
)

// AdminHandler serves the admin raw reads: balance lookup and the
// customer/article/purchase identity listings. Non-admin principals get a
// 403 naming the denied resource.
type AdminHandler struct {
	gate   *access.Gate
	ledger ledger.Ledger
	log    *zap.Logger
}

// BalanceResponse carries one customer's balance.
type BalanceResponse struct {
	Name    string `json:"name"`
	Balance int64  `json:"balance"`
}

// NewAdminHandler builds the admin handler.
func NewAdminHandler(gate *access.Gate, l ledger.Ledger, log *zap.Logger) *AdminHandler {
	return &AdminHandler{gate: gate, ledger: l, log: log}
}

func (h *AdminHandler) adminOps(r *http.Request) (*shop.AdminOps, bool) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		return nil, false
	}
	return shop.NewAdminOps(h.gate, h.ledger, principal), true
}

// Balance returns a customer's balance
// @Summary Customer balance
// @Tags admin
// @Produce json
// @Param name path string true "Customer name"
// @Success 200 {object} BalanceResponse
// @Failure 403 {object} services.ErrorResponse "Permission denied"
// @Failure 404 {object} services.ErrorResponse "Unknown customer"
// @Security BearerAuth
// @Router /admin/customers/{name}/balance [get]
func (h *AdminHandler) Balance(w http.ResponseWriter, r *http.Request) {
	ops, ok := h.adminOps(r)
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	name := chi.URLParam(r, "name")
	balance, err := ops.GetBalance(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{Name: name, Balance: balance})
}

// Customers lists customer names
// @Summary Customer identities
// @Tags admin
// @Produce json
// @Success 200 {array} string
// @Failure 403 {object} services.ErrorResponse "Permission denied"
// @Security BearerAuth
// @Router /admin/customers [get]
func (h *AdminHandler) Customers(w http.ResponseWriter, r *http.Request) {
	ops, ok := h.adminOps(r)
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	names, err := ops.CustomerNames(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

// Articles lists article names
// @Summary Article identities
// @Tags admin
// @Produce json
// @Success 200 {array} string
// @Failure 403 {object} services.ErrorResponse "Permission denied"
// @Security BearerAuth
// @Router /admin/articles [get]
func (h *AdminHandler) Articles(w http.ResponseWriter, r *http.Request) {
	ops, ok := h.adminOps(r)
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	names, err := ops.ArticleNames(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

// Purchases lists purchase ids
// @Summary Purchase identities, cancelled rows included
// @Tags admin
// @Produce json
// @Success 200 {array} integer
// @Failure 403 {object} services.ErrorResponse "Permission denied"
// @Security BearerAuth
// @Router /admin/purchases [get]
func (h *AdminHandler) Purchases(w http.ResponseWriter, r *http.Request) {
	ops, ok := h.adminOps(r)
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	ids, err := ops.PurchaseIDs(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ids)
}
