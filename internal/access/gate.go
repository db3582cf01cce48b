// Package access maps principals to the capabilities they hold and filters
// every store access through that mapping. The gate is a pure predicate: it
// performs no I/O and never mutates state.
package access

import (
	"github.com/tonermart/backend/internal/models"
)

// Role is the capability class a principal was resolved to at login.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
	// RoleNone is a principal that authenticated but holds no grants.
	RoleNone Role = "none"
)

// Resource names the table-equivalent an operation touches. Denials carry
// the exact resource name.
const (
	ResourceCustomer = "customer"
	ResourceArticle  = "article"
	ResourcePurchase = "purchase"
	ResourceHistory  = "history"
	ResourceBalance  = "balance"
)

// Action is what the principal wants to do with a resource.
type Action string

const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
)

// Principal is an authenticated caller. Name is only meaningful for
// customers, where it scopes every ledger operation.
type Principal struct {
	Name string
	Role Role
}

// Gate decides whether a principal may perform an action on a resource.
type Gate struct{}

// NewGate returns the shop's capability gate.
func NewGate() *Gate {
	return &Gate{}
}

// Authorize returns nil when the principal holds the capability, and a
// PermissionDeniedError naming the resource otherwise.
//
// Admins hold read rights on the raw customer/article/purchase resources
// and on balances, but no purchase/cancel rights of their own. Customers
// hold read rights on their own history and write rights on the purchase
// log scoped to themselves; raw table reads are denied. Everyone else is
// denied outright.
func (g *Gate) Authorize(p Principal, resource string, action Action) error {
	switch p.Role {
	case RoleAdmin:
		if action == ActionRead {
			switch resource {
			case ResourceCustomer, ResourceArticle, ResourcePurchase, ResourceBalance:
				return nil
			}
		}
	case RoleCustomer:
		if resource == ResourceHistory && action == ActionRead {
			return nil
		}
		if resource == ResourcePurchase && action == ActionWrite {
			return nil
		}
	}
	return &models.PermissionDeniedError{Resource: resource}
}
