package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yeremiapane/hostel-meals/models"
)

func TestAuthorizeByRole(t *testing.T) {
	active := func(role models.Role) *Actor {
		return &Actor{ID: 1, Role: role, IsApproved: true, IsActive: true}
	}

	tests := []struct {
		role    models.Role
		allowed []Capability
	}{
		{models.RoleResident, []Capability{CapOrderPlace, CapOrderTrack, CapSubscriptionPurchase}},
		{models.RoleVendor, []Capability{CapMenuManage, CapPlanOptIn, CapOrderPrepare}},
		{models.RoleDeliveryAgent, []Capability{CapDeliveryUpdate}},
		{models.RoleWarden, []Capability{CapOrderDispatch, CapOrderOverview, CapResidentApprove, CapBulkOrder}},
		{models.RoleAdmin, []Capability{CapOrderDispatch, CapOrderOverview, CapUserManage, CapWardenApprove, CapDashboardView}},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			allowed := map[Capability]bool{}
			for _, c := range tt.allowed {
				allowed[c] = true
			}
			for _, c := range allCapabilities {
				err := Authorize(active(tt.role), c)
				if allowed[c] {
					assert.NoError(t, err, c)
				} else {
					assert.ErrorIs(t, err, ErrForbidden, c)
				}
			}
			assert.Equal(t, tt.allowed, Capabilities(tt.role))
		})
	}
}

func TestAuthorizeRejectsUnusableAccounts(t *testing.T) {
	assert.ErrorIs(t, Authorize(nil, CapOrderPlace), ErrForbidden)

	inactive := &Actor{ID: 1, Role: models.RoleVendor, IsApproved: true, IsActive: false}
	assert.ErrorIs(t, Authorize(inactive, CapMenuManage), ErrForbidden)

	pending := &Actor{ID: 2, Role: models.RoleResident, IsApproved: false, IsActive: true}
	assert.ErrorIs(t, Authorize(pending, CapOrderPlace), ErrForbidden)

	pendingWarden := &Actor{ID: 3, Role: models.RoleWarden, IsApproved: false, IsActive: true}
	assert.ErrorIs(t, Authorize(pendingWarden, CapOrderDispatch), ErrForbidden)

	// vendors never need approval
	vendor := &Actor{ID: 4, Role: models.RoleVendor, IsApproved: false, IsActive: true}
	assert.NoError(t, Authorize(vendor, CapMenuManage))

	unknown := &Actor{ID: 5, Role: models.Role("chef"), IsApproved: true, IsActive: true}
	assert.ErrorIs(t, Authorize(unknown, CapMenuManage), ErrForbidden)
}

func TestServiceErrorsMatchByKind(t *testing.T) {
	err := Errorf(ErrUnauthorized, "order has no items from this vendor")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, ErrForbidden)
	assert.Equal(t, "order has no items from this vendor", err.Error())

	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindUnauthorized, kind)

	_, ok = KindOf(assert.AnError)
	assert.False(t, ok)
}
