// Package ledger implements the shop's transactional purchase ledger: the
// system of record for purchase history and the only writer of customer
// balances. Two backends share one contract, an in-memory one used for
// tests and single-process deployments and a Postgres one for everything
// else.
package ledger

import (
	"context"
	"errors"

	"github.com/tonermart/backend/internal/models"
)

// ErrQuantityIncorrect is returned when a purchase is attempted with a
// non-positive quantity.
var ErrQuantityIncorrect = errors.New("quantity must be positive")

// Ledger is the purchase ledger contract.
//
// Purchase and Cancel are atomic per customer: any interleaving of one
// customer's calls is equivalent to some serial order of those calls, and
// no read observes a half-applied write. Operations on different customers
// do not block each other.
type Ledger interface {
	// Purchase debits quantity*price from the customer and appends a
	// purchase row, all-or-nothing. It returns false without any state
	// change when the balance does not cover the cost; insufficient funds
	// is an expected outcome, not an error. Unknown identities fail with
	// NotFoundError.
	Purchase(ctx context.Context, customer, article string, quantity int64) (bool, error)

	// Cancel marks the customer's most recent non-cancelled purchase of
	// the article as cancelled and credits back quantity times the price
	// captured on that row. ErrNothingToCancel when no such purchase
	// exists.
	Cancel(ctx context.Context, customer, article string) error

	// Balance returns a consistent snapshot of the customer's balance.
	Balance(ctx context.Context, customer string) (int64, error)

	// History returns the customer's non-cancelled purchases, ascending
	// by purchase id.
	History(ctx context.Context, customer string) ([]models.HistoryRow, error)

	// HistoryToday is History restricted to the current date, descending
	// by purchase id so the first row is the latest purchase.
	HistoryToday(ctx context.Context, customer string) ([]models.HistoryRow, error)

	// Raw identity reads, admin capability only. The gate in front of the
	// ledger enforces that; the ledger itself does not inspect principals.
	CustomerNames(ctx context.Context) ([]string, error)
	ArticleNames(ctx context.Context) ([]string, error)
	PurchaseIDs(ctx context.Context) ([]int64, error)

	// Bulk ingestion, called once at bootstrap before any purchase
	// traffic. Not safe to call concurrently with Purchase or Cancel.
	LoadCustomers(ctx context.Context, customers []models.Customer) error
	LoadArticles(ctx context.Context, articles []models.Article) error
	LoadPurchases(ctx context.Context, purchases []models.Purchase) error
}

func toHistoryRow(p models.Purchase) models.HistoryRow {
	return models.HistoryRow{
		PurchaseID:  p.ID,
		PurchasedAt: p.PurchasedAt,
		Article:     p.Article,
		Quantity:    p.Quantity,
		Price:       p.Price,
	}
}
