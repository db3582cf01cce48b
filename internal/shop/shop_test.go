package shop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonermart/backend/internal/access"
	"github.com/tonermart/backend/internal/ledger"
	"github.com/tonermart/backend/internal/models"
)

func testLedger(t *testing.T) ledger.Ledger {
	t.Helper()
	m := ledger.NewMemory()
	ctx := context.Background()
	require.NoError(t, m.LoadCustomers(ctx, []models.Customer{
		{Name: "emilie", Balance: 500},
		{Name: "lars", Balance: 300},
	}))
	require.NoError(t, m.LoadArticles(ctx, []models.Article{
		{Name: "Toner_216", Price: 41},
		{Name: "Toner_159", Price: 47},
	}))
	return m
}

func TestCustomerOps_PurchaseCancelRoundTrip(t *testing.T) {
	l := testLedger(t)
	gate := access.NewGate()
	ctx := context.Background()

	emilie := NewCustomerOps(gate, l, access.Principal{Name: "emilie", Role: access.RoleCustomer})
	admin := NewAdminOps(gate, l, access.Principal{Name: "admin", Role: access.RoleAdmin})

	before, err := admin.GetBalance(ctx, "emilie")
	require.NoError(t, err)

	ok, err := emilie.Purchase(ctx, "Toner_216", 10)
	require.NoError(t, err)
	assert.True(t, ok)

	today, err := emilie.HistoryToday(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, today)
	assert.Equal(t, "Toner_216", today[0].Article)
	assert.Equal(t, int64(10), today[0].Quantity)

	ok, err = emilie.Purchase(ctx, "Toner_159", 2)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, emilie.Cancel(ctx, "Toner_216"))

	after, err := admin.GetBalance(ctx, "emilie")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCustomerOps_BoundToOwnIdentity(t *testing.T) {
	l := testLedger(t)
	gate := access.NewGate()
	ctx := context.Background()

	emilie := NewCustomerOps(gate, l, access.Principal{Name: "emilie", Role: access.RoleCustomer})
	lars := NewCustomerOps(gate, l, access.Principal{Name: "lars", Role: access.RoleCustomer})

	ok, err := emilie.Purchase(ctx, "Toner_216", 1)
	require.NoError(t, err)
	require.True(t, ok)

	rows, err := lars.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAdminOps_NoPurchaseCapability(t *testing.T) {
	l := testLedger(t)
	gate := access.NewGate()
	ctx := context.Background()

	// An admin principal bound to the customer surface still gets denied:
	// admin capability carries reads only.
	asCustomer := NewCustomerOps(gate, l, access.Principal{Name: "admin", Role: access.RoleAdmin})
	_, err := asCustomer.Purchase(ctx, "Toner_216", 1)
	assert.True(t, models.IsPermissionDenied(err))
}

func TestAdminOps_RawReadsDeniedWithoutRole(t *testing.T) {
	l := testLedger(t)
	gate := access.NewGate()
	ctx := context.Background()

	paul := NewAdminOps(gate, l, access.Principal{Name: "paul", Role: access.RoleNone})

	_, err := paul.ArticleNames(ctx)
	assert.EqualError(t, err, "permission denied for table article")

	_, err = paul.CustomerNames(ctx)
	assert.EqualError(t, err, "permission denied for table customer")

	_, err = paul.PurchaseIDs(ctx)
	assert.EqualError(t, err, "permission denied for table purchase")
}

func TestAdminOps_Reads(t *testing.T) {
	l := testLedger(t)
	gate := access.NewGate()
	ctx := context.Background()

	admin := NewAdminOps(gate, l, access.Principal{Name: "admin", Role: access.RoleAdmin})

	customers, err := admin.CustomerNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"emilie", "lars"}, customers)

	articles, err := admin.ArticleNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Toner_159", "Toner_216"}, articles)

	_, err = admin.PurchaseIDs(ctx)
	assert.NoError(t, err)
}
