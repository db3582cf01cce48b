package models

import (
	"time"
)

// Customer is an account holder. Balance is kept in the smallest currency
// unit and is only ever changed by the purchase ledger.
type Customer struct {
	Name    string `json:"name" db:"name"`
	Balance int64  `json:"balance" db:"balance"`
}

// Article is a catalog entry with a fixed unit price. The catalog is loaded
// once at bootstrap and never mutated afterwards.
type Article struct {
	Name  string `json:"name" db:"name"`
	Price int64  `json:"price" db:"price"` // unit price, smallest currency unit
}

// Purchase is one row of the purchase log. Price is the unit price captured
// at purchase time, so a later catalog change cannot rewrite history.
// Cancelled purchases stay in the log for audit purposes and are excluded
// from the customer-visible history projection.
type Purchase struct {
	ID          int64     `json:"id" db:"id"`
	Customer    string    `json:"customer" db:"customer"`
	Article     string    `json:"article" db:"article"`
	Quantity    int64     `json:"quantity" db:"quantity"`
	Price       int64     `json:"price" db:"price"`
	PurchasedAt time.Time `json:"purchased_at" db:"purchased_at"`
	Cancelled   bool      `json:"cancelled" db:"cancelled"`
}

// Cost is the total amount debited for the purchase.
func (p Purchase) Cost() int64 {
	return p.Quantity * p.Price
}

// HistoryRow is what a customer sees of its own purchases.
type HistoryRow struct {
	PurchaseID  int64     `json:"purchase_id"`
	PurchasedAt time.Time `json:"purchased_at"`
	Article     string    `json:"article"`
	Quantity    int64     `json:"quantity"`
	Price       int64     `json:"price"` // unit price captured at purchase time
}
