package shop

import (
	"context"

	"github.com/tonermart/backend/internal/access"
	"github.com/tonermart/backend/internal/ledger"
	"github.com/tonermart/backend/internal/models"
)

// CustomerOps is the customer-facing surface. Every call is scoped to the
// bound principal's own identity, so cross-customer access is impossible
// by construction and the raw tables stay out of reach.
type CustomerOps struct {
	gate      *access.Gate
	ledger    ledger.Ledger
	principal access.Principal
}

// NewCustomerOps binds a principal to the customer surface.
func NewCustomerOps(gate *access.Gate, l ledger.Ledger, principal access.Principal) *CustomerOps {
	return &CustomerOps{gate: gate, ledger: l, principal: principal}
}

// Purchase buys quantity units of the article for the bound customer.
// False means the balance did not cover the cost and nothing changed.
func (c *CustomerOps) Purchase(ctx context.Context, article string, quantity int64) (bool, error) {
	if err := c.gate.Authorize(c.principal, access.ResourcePurchase, access.ActionWrite); err != nil {
		return false, err
	}
	return c.ledger.Purchase(ctx, c.principal.Name, article, quantity)
}

// Cancel reverses the bound customer's most recent purchase of the article.
func (c *CustomerOps) Cancel(ctx context.Context, article string) error {
	if err := c.gate.Authorize(c.principal, access.ResourcePurchase, access.ActionWrite); err != nil {
		return err
	}
	return c.ledger.Cancel(ctx, c.principal.Name, article)
}

// History returns the bound customer's non-cancelled purchases, oldest
// first.
func (c *CustomerOps) History(ctx context.Context) ([]models.HistoryRow, error) {
	if err := c.gate.Authorize(c.principal, access.ResourceHistory, access.ActionRead); err != nil {
		return nil, err
	}
	return c.ledger.History(ctx, c.principal.Name)
}

// HistoryToday returns today's purchases, newest first, so the first row
// reflects the outcome of an immediately preceding purchase.
func (c *CustomerOps) HistoryToday(ctx context.Context) ([]models.HistoryRow, error) {
	if err := c.gate.Authorize(c.principal, access.ResourceHistory, access.ActionRead); err != nil {
		return nil, err
	}
	return c.ledger.HistoryToday(ctx, c.principal.Name)
}
