package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tonermart/backend/internal/access"
	"github.com/tonermart/backend/internal/bootstrap"
	"github.com/tonermart/backend/internal/ledger"
	"github.com/tonermart/backend/internal/middleware"
	"github.com/tonermart/backend/internal/models"
	"github.com/tonermart/backend/internal/services"
)

const testSecret = "handler-test-secret"

func newTestRouter(t *testing.T) (*chi.Mux, *services.AuthService) {
	t.Helper()

	mem := ledger.NewMemory()
	auth := services.NewAuthService(nil, zap.NewNop(), testSecret, time.Hour)
	loader := bootstrap.NewLoader(mem, auth, zap.NewNop())
	require.NoError(t, loader.Load(context.Background()))

	middleware.InitAuthMiddleware(testSecret, auth)

	gate := access.NewGate()
	shopHandler := NewShopHandler(gate, mem, zap.NewNop())
	adminHandler := NewAdminHandler(gate, mem, zap.NewNop())

	r := chi.NewRouter()
	r.Post("/auth/login", auth.Login)
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)
		r.Post("/shop/purchases", shopHandler.Purchase)
		r.Delete("/shop/purchases/{article}", shopHandler.Cancel)
		r.Get("/shop/history", shopHandler.History)
		r.Get("/shop/history/today", shopHandler.HistoryToday)
		r.Get("/admin/customers", adminHandler.Customers)
		r.Get("/admin/customers/{name}/balance", adminHandler.Balance)
		r.Get("/admin/articles", adminHandler.Articles)
		r.Get("/admin/purchases", adminHandler.Purchases)
	})
	return r, auth
}

func login(t *testing.T, r http.Handler, name, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"name": name, "password": password})
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, "login for %s: %s", name, w.Body.String())

	var resp services.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func do(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func adminBalance(t *testing.T, r http.Handler, token, name string) int64 {
	t.Helper()
	w := do(r, "GET", fmt.Sprintf("/admin/customers/%s/balance", name), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp BalanceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Balance
}

func TestPurchaseCancelScenario(t *testing.T) {
	router, _ := newTestRouter(t)
	emilie := login(t, router, "emilie", "emilie")
	admin := login(t, router, "admin", "admin")

	before := adminBalance(t, router, admin, "emilie")
	require.Equal(t, int64(500), before)

	// Purchase succeeds and shows up first in today's history.
	w := do(router, "POST", "/shop/purchases", emilie, PurchaseRequest{Article: "Toner_216", Quantity: 10})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var purchase PurchaseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &purchase))
	assert.True(t, purchase.Purchased)

	w = do(router, "GET", "/shop/history/today", emilie, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var today []models.HistoryRow
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &today))
	require.NotEmpty(t, today)
	assert.Equal(t, "Toner_216", today[0].Article)
	assert.Equal(t, int64(10), today[0].Quantity)

	assert.Equal(t, before-410, adminBalance(t, router, admin, "emilie"))

	// Insufficient funds: ordinary false outcome, history unchanged.
	w = do(router, "POST", "/shop/purchases", emilie, PurchaseRequest{Article: "Toner_159", Quantity: 2})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &purchase))
	assert.False(t, purchase.Purchased)

	w = do(router, "GET", "/shop/history/today", emilie, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &today))
	require.NotEmpty(t, today)
	assert.Equal(t, "Toner_216", today[0].Article)

	// Cancel refunds exactly the captured price and hides the row.
	w = do(router, "DELETE", "/shop/purchases/Toner_216", emilie, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(router, "GET", "/shop/history/today", emilie, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &today))
	for _, row := range today {
		assert.NotEqual(t, "Toner_216", row.Article)
	}

	assert.Equal(t, before, adminBalance(t, router, admin, "emilie"))

	// Second cancel has nothing left to reverse.
	w = do(router, "DELETE", "/shop/purchases/Toner_216", emilie, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, before, adminBalance(t, router, admin, "emilie"))
}

func TestPaulDeniedRawReads(t *testing.T) {
	router, _ := newTestRouter(t)
	paul := login(t, router, "paul", "paul")

	cases := []struct {
		path     string
		resource string
	}{
		{"/admin/articles", "article"},
		{"/admin/customers", "customer"},
		{"/admin/purchases", "purchase"},
	}
	for _, tc := range cases {
		w := do(router, "GET", tc.path, paul, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, tc.path)

		var resp services.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "permission denied for table "+tc.resource, resp.Error)
	}
}

func TestCustomerDeniedAdminReads(t *testing.T) {
	router, _ := newTestRouter(t)
	emilie := login(t, router, "emilie", "emilie")

	w := do(router, "GET", "/admin/customers", emilie, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(router, "GET", "/admin/customers/emilie/balance", emilie, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminHasNoPurchaseRights(t *testing.T) {
	router, _ := newTestRouter(t)
	admin := login(t, router, "admin", "admin")

	w := do(router, "POST", "/shop/purchases", admin, PurchaseRequest{Article: "Toner_216", Quantity: 1})
	assert.Equal(t, http.StatusForbidden, w.Code)

	var resp services.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "permission denied for table purchase", resp.Error)
}

func TestAdminReads(t *testing.T) {
	router, _ := newTestRouter(t)
	admin := login(t, router, "admin", "admin")

	w := do(router, "GET", "/admin/customers", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var names []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &names))
	assert.Contains(t, names, "emilie")
	assert.NotContains(t, names, "paul")

	w = do(router, "GET", "/admin/articles", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &names))
	assert.Contains(t, names, "Toner_216")

	w = do(router, "GET", "/admin/purchases", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ids []int64
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ids))
	assert.Contains(t, ids, int64(54))
	// Cancelled seed rows stay visible in the raw purchase listing.
	assert.Contains(t, ids, int64(233))
}

func TestRequestValidation(t *testing.T) {
	router, _ := newTestRouter(t)
	emilie := login(t, router, "emilie", "emilie")

	w := do(router, "POST", "/shop/purchases", emilie, map[string]any{"article": "Toner_216"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, "POST", "/shop/purchases", emilie, map[string]any{"article": "Toner_216", "quantity": -2})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, "POST", "/shop/purchases", emilie, PurchaseRequest{Article: "Toner_999", Quantity: 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthRequired(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, "GET", "/shop/history", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(router, "GET", "/shop/history", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
