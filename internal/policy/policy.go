package policy

import (
	"github.com/google/uuid"

	"github.com/joaquinvega/mercado-backend/pkg/db/models"
	"github.com/joaquinvega/mercado-backend/pkg/enums"
)

// Scope describes how far a status update is allowed to reach.
type Scope string

const (
	// ScopeNone means the actor may not touch the order at all.
	ScopeNone Scope = "none"
	// ScopeAggregate allows updating the order itself, cascading to items.
	ScopeAggregate Scope = "aggregate"
	// ScopeSellerItems restricts the update to the actor's own line items.
	ScopeSellerItems Scope = "seller_items"
)

// Actor is the resolved identity performing an operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// transitions is the single source of truth for status legality. Any edge
// not listed here is rejected regardless of who asks.
var transitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:           {enums.OrderStatusConfirmed, enums.OrderStatusProcessing, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed:         {enums.OrderStatusProcessing, enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusProcessing:        {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:           {enums.OrderStatusDelivered, enums.OrderStatusCancelled},
	enums.OrderStatusDelivered:         {enums.OrderStatusRefunded, enums.OrderStatusPartiallyRefunded, enums.OrderStatusDisputed},
	enums.OrderStatusPartiallyRefunded: {enums.OrderStatusRefunded, enums.OrderStatusDisputed},
	enums.OrderStatusDisputed:          {enums.OrderStatusRefunded, enums.OrderStatusCancelled},
	enums.OrderStatusCancelled:         {},
	enums.OrderStatusRefunded:          {},
}

// CanTransition reports whether the edge from -> to exists in the state machine.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanCancel reports whether an order in the given status may still be cancelled
// through the cancellation entry point.
func CanCancel(status enums.OrderStatus) bool {
	return status == enums.OrderStatusPending || status == enums.OrderStatusConfirmed
}

// CanViewOrder allows the owner, any admin, and sellers holding at least one
// line item on the order.
func CanViewOrder(actor Actor, order *models.Order, ownsItem bool) bool {
	if order == nil {
		return false
	}
	if actor.Role == enums.UserRoleAdmin {
		return true
	}
	if order.UserID == actor.UserID {
		return true
	}
	return actor.Role == enums.UserRoleSeller && ownsItem
}

// SellerOwnsItem reports whether the actor sells at least one item on the order.
func SellerOwnsItem(items []models.OrderItem, sellerID uuid.UUID) bool {
	for _, item := range items {
		if item.SellerID == sellerID {
			return true
		}
	}
	return false
}

// ResolveTransition decides how far a status update may reach for the given
// actor. Admins update the aggregate; a customer who owns the order may only
// take it from pending to cancelled; a seller with items on the order patches
// their own items. Everyone else gets ScopeNone.
func ResolveTransition(actor Actor, order *models.Order, target enums.OrderStatus, ownsItem bool) Scope {
	if order == nil {
		return ScopeNone
	}
	if actor.Role == enums.UserRoleAdmin {
		return ScopeAggregate
	}
	if actor.Role == enums.UserRoleSeller && ownsItem {
		return ScopeSellerItems
	}
	if order.UserID == actor.UserID && target == enums.OrderStatusCancelled && order.Status == enums.OrderStatusPending {
		return ScopeAggregate
	}
	return ScopeNone
}
