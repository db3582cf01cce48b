package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tonermart/backend/internal/models"
)

func TestGate_AdminReads(t *testing.T) {
	gate := NewGate()
	admin := Principal{Name: "admin", Role: RoleAdmin}

	for _, resource := range []string{ResourceCustomer, ResourceArticle, ResourcePurchase, ResourceBalance} {
		assert.NoError(t, gate.Authorize(admin, resource, ActionRead), resource)
	}

	// Admin holds no purchase rights of its own.
	err := gate.Authorize(admin, ResourcePurchase, ActionWrite)
	assert.Error(t, err)
}

func TestGate_CustomerScope(t *testing.T) {
	gate := NewGate()
	emilie := Principal{Name: "emilie", Role: RoleCustomer}

	assert.NoError(t, gate.Authorize(emilie, ResourceHistory, ActionRead))
	assert.NoError(t, gate.Authorize(emilie, ResourcePurchase, ActionWrite))

	t.Run("raw table reads are denied with the exact resource", func(t *testing.T) {
		for _, resource := range []string{ResourceCustomer, ResourceArticle, ResourcePurchase, ResourceBalance} {
			err := gate.Authorize(emilie, resource, ActionRead)
			var pd *models.PermissionDeniedError
			assert.ErrorAs(t, err, &pd)
			assert.Equal(t, resource, pd.Resource)
			assert.EqualError(t, err, "permission denied for table "+resource)
		}
	})
}

func TestGate_NoRoleDeniedEverywhere(t *testing.T) {
	gate := NewGate()
	paul := Principal{Name: "paul", Role: RoleNone}

	for _, resource := range []string{ResourceArticle, ResourceCustomer, ResourcePurchase} {
		err := gate.Authorize(paul, resource, ActionRead)
		var pd *models.PermissionDeniedError
		assert.ErrorAs(t, err, &pd)
		assert.Equal(t, resource, pd.Resource)
	}
	assert.Error(t, gate.Authorize(paul, ResourcePurchase, ActionWrite))
	assert.Error(t, gate.Authorize(paul, ResourceHistory, ActionRead))
}
