// Package shop exposes the two operation surfaces of the webshop: the
// admin's raw reads and the customer's purchase/cancel/history calls.
// Every operation is bound to a principal and checked against the
// capability gate before touching the ledger.
package shop

import (
	"context"

	"github.com/tonermart/backend/internal/access"
	"github.com/tonermart/backend/internal/ledger"
	"github.com/tonermart/backend/internal/models"
)

// AdminOps is the admin-facing surface: balance lookup by name and raw
// identity reads over the customer, article and purchase resources.
type AdminOps struct {
	gate      *access.Gate
	ledger    ledger.Ledger
	principal access.Principal
}

// NewAdminOps binds a principal to the admin surface. The gate, not the
// binding, decides whether the principal may actually use it.
func NewAdminOps(gate *access.Gate, l ledger.Ledger, principal access.Principal) *AdminOps {
	return &AdminOps{gate: gate, ledger: l, principal: principal}
}

// GetBalance returns the named customer's balance.
func (a *AdminOps) GetBalance(ctx context.Context, name string) (int64, error) {
	if err := a.gate.Authorize(a.principal, access.ResourceBalance, access.ActionRead); err != nil {
		return 0, err
	}
	return a.ledger.Balance(ctx, name)
}

// CustomerNames lists all provisioned customer identities.
func (a *AdminOps) CustomerNames(ctx context.Context) ([]string, error) {
	if err := a.gate.Authorize(a.principal, access.ResourceCustomer, access.ActionRead); err != nil {
		return nil, err
	}
	return a.ledger.CustomerNames(ctx)
}

// ArticleNames lists all catalog identities.
func (a *AdminOps) ArticleNames(ctx context.Context) ([]string, error) {
	if err := a.gate.Authorize(a.principal, access.ResourceArticle, access.ActionRead); err != nil {
		return nil, err
	}
	return a.ledger.ArticleNames(ctx)
}

// PurchaseIDs lists every purchase id in the log, cancelled rows included.
func (a *AdminOps) PurchaseIDs(ctx context.Context) ([]int64, error) {
	if err := a.gate.Authorize(a.principal, access.ResourcePurchase, access.ActionRead); err != nil {
		return nil, err
	}
	return a.ledger.PurchaseIDs(ctx)
}

// CreateAccounts bulk-loads the customer seed. Bootstrap-only; not safe
// to call once purchase traffic has started.
func (a *AdminOps) CreateAccounts(ctx context.Context, customers []models.Customer) error {
	if err := a.gate.Authorize(a.principal, access.ResourceCustomer, access.ActionRead); err != nil {
		return err
	}
	return a.ledger.LoadCustomers(ctx, customers)
}
