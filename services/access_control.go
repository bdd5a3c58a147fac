package services

import "github.com/yeremiapane/hostel-meals/models"

type Capability string

const (
	CapOrderPlace           Capability = "order.place"
	CapOrderTrack           Capability = "order.track"
	CapSubscriptionPurchase Capability = "subscription.purchase"
	CapMenuManage           Capability = "menu.manage"
	CapPlanOptIn            Capability = "plan.optin"
	CapOrderPrepare         Capability = "order.prepare"
	CapDeliveryUpdate       Capability = "delivery.update"
	CapOrderDispatch        Capability = "order.dispatch"
	CapOrderOverview        Capability = "order.overview"
	CapResidentApprove      Capability = "resident.approve"
	CapBulkOrder            Capability = "bulk.order"
	CapUserManage           Capability = "user.manage"
	CapWardenApprove        Capability = "warden.approve"
	CapDashboardView        Capability = "dashboard.view"
)

// capabilities is the complete grant table. Roles do not inherit from each
// other; a capability missing here is denied.
var capabilities = map[models.Role]map[Capability]bool{
	models.RoleResident: {
		CapOrderPlace:           true,
		CapOrderTrack:           true,
		CapSubscriptionPurchase: true,
	},
	models.RoleVendor: {
		CapMenuManage:   true,
		CapPlanOptIn:    true,
		CapOrderPrepare: true,
	},
	models.RoleDeliveryAgent: {
		CapDeliveryUpdate: true,
	},
	models.RoleWarden: {
		CapOrderDispatch:   true,
		CapOrderOverview:   true,
		CapResidentApprove: true,
		CapBulkOrder:       true,
	},
	models.RoleAdmin: {
		CapOrderDispatch: true,
		CapOrderOverview: true,
		CapUserManage:    true,
		CapWardenApprove: true,
		CapDashboardView: true,
	},
}

// Actor is the authenticated caller as seen by the services.
type Actor struct {
	ID         uint
	Role       models.Role
	IsApproved bool
	IsActive   bool
}

func ActorFromUser(u *models.User) *Actor {
	if u == nil {
		return nil
	}
	return &Actor{ID: u.ID, Role: u.Role, IsApproved: u.IsApproved, IsActive: u.IsActive}
}

// Authorize is a pure check over the caller's role, approval and active
// flags. A nil actor is an unauthenticated caller.
func Authorize(actor *Actor, capability Capability) error {
	if actor == nil {
		return Errorf(ErrForbidden, "authentication required")
	}
	if !actor.IsActive {
		return Errorf(ErrForbidden, "account is deactivated")
	}
	if actor.Role.NeedsApproval() && !actor.IsApproved {
		return Errorf(ErrForbidden, "account is pending approval")
	}
	if !capabilities[actor.Role][capability] {
		return ErrForbidden
	}
	return nil
}

// Capabilities lists what a role is granted, for the profile endpoint.
func Capabilities(role models.Role) []Capability {
	var caps []Capability
	for _, c := range allCapabilities {
		if capabilities[role][c] {
			caps = append(caps, c)
		}
	}
	return caps
}

var allCapabilities = []Capability{
	CapOrderPlace, CapOrderTrack, CapSubscriptionPurchase,
	CapMenuManage, CapPlanOptIn, CapOrderPrepare,
	CapDeliveryUpdate,
	CapOrderDispatch, CapOrderOverview, CapResidentApprove, CapBulkOrder,
	CapUserManage, CapWardenApprove, CapDashboardView,
}
