package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/joaquinvega/mercado-backend/internal/cart"
	"github.com/joaquinvega/mercado-backend/internal/catalog"
	"github.com/joaquinvega/mercado-backend/internal/policy"
	"github.com/joaquinvega/mercado-backend/pkg/db"
	"github.com/joaquinvega/mercado-backend/pkg/db/models"
	"github.com/joaquinvega/mercado-backend/pkg/enums"
	pkgerrors "github.com/joaquinvega/mercado-backend/pkg/errors"
	"github.com/joaquinvega/mercado-backend/pkg/outbox"
	"github.com/joaquinvega/mercado-backend/pkg/pagination"
)

const orderNumberConstraint = "orders_order_number_key"

// Service orchestrates the order lifecycle: checkout, views, status
// transitions and cancellation.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*OrderDetail, error)
	Get(ctx context.Context, actor policy.Actor, orderID uuid.UUID) (*OrderDetail, error)
	ListForUser(ctx context.Context, actor policy.Actor, tenantID *uuid.UUID, filters ListFilters, params pagination.Params) (*OrderList, error)
	ListForSeller(ctx context.Context, actor policy.Actor, filters ListFilters, params pagination.Params) (*OrderList, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDetail, error)
	Cancel(ctx context.Context, input CancelOrderInput) (*OrderDetail, error)
}

type service struct {
	repo         Repository
	carts        cart.Repository
	products     catalog.Repository
	ledger       inventoryLedger
	tx           txRunner
	outbox       outboxPublisher
	numberPrefix string
}

// NewService builds the order service.
func NewService(
	repo Repository,
	carts cart.Repository,
	products catalog.Repository,
	ledger inventoryLedger,
	tx txRunner,
	publisher outboxPublisher,
	numberPrefix string,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:         repo,
		carts:        carts,
		products:     products,
		ledger:       ledger,
		tx:           tx,
		outbox:       publisher,
		numberPrefix: numberPrefix,
	}, nil
}

// Create converts the caller's active cart into an order. Validation,
// deduction and cart clearing all commit or roll back together.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (*OrderDetail, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if missing := input.ShippingAddress.Validate(); missing != "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("shipping address is missing %s", missing))
	}
	if input.BillingAddress != nil {
		if missing := input.BillingAddress.Validate(); missing != "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("billing address is missing %s", missing))
		}
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		carts := s.carts.WithTx(tx)
		products := s.products.WithTx(tx)

		record, err := carts.FindActive(ctx, input.TenantID, input.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "no active cart")
			}
			return err
		}
		if len(record.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
		}

		lineItems, productCache, err := ValidateCart(ctx, record.Items, products)
		if err != nil {
			return err
		}
		totals := CalculateTotals(lineItems)

		order, err := s.insertOrder(ctx, repo, record, input, totals)
		if err != nil {
			return err
		}

		for i := range lineItems {
			lineItems[i].OrderID = order.ID
		}
		if err := repo.CreateOrderItems(ctx, lineItems); err != nil {
			return err
		}

		for _, item := range lineItems {
			if err := s.ledger.Deduct(ctx, tx, productCache[item.ProductID], order.ID, item.Quantity); err != nil {
				return err
			}
		}

		converted, err := carts.Clear(ctx, record.ID)
		if err != nil {
			return err
		}
		if !converted {
			return pkgerrors.New(pkgerrors.CodeConflict, "cart was already converted")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.UserID, TenantID: input.TenantID},
			Data: map[string]any{
				"order_id":     order.ID,
				"order_number": order.OrderNumber,
				"total_cents":  totals.TotalCents,
			},
			Version: 1,
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}

		result, err = repo.FindByID(ctx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ToDetail(result), nil
}

// insertOrder creates the order row, regenerating the order number once if
// the unique index rejects it.
func (s *service) insertOrder(ctx context.Context, repo Repository, record *models.Cart, input CreateOrderInput, totals Totals) (*models.Order, error) {
	for attempt := 0; attempt < 2; attempt++ {
		number, err := GenerateOrderNumber(s.numberPrefix)
		if err != nil {
			return nil, err
		}
		order := &models.Order{
			OrderNumber:     number,
			TenantID:        input.TenantID,
			UserID:          input.UserID,
			Status:          enums.OrderStatusPending,
			SubtotalCents:   totals.SubtotalCents,
			TaxCents:        totals.TaxCents,
			ShippingCents:   totals.ShippingCents,
			DiscountCents:   totals.DiscountCents,
			TotalCents:      totals.TotalCents,
			Currency:        record.Currency,
			ShippingAddress: input.ShippingAddress,
			BillingAddress:  input.BillingAddress,
			Notes:           input.Notes,
		}
		created, err := repo.CreateOrder(ctx, order)
		if err == nil {
			return created, nil
		}
		if !db.IsUniqueViolation(err, orderNumberConstraint) {
			return nil, err
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "order number collision")
}

// Get returns the full order view, enforcing the visibility policy.
func (s *service) Get(ctx context.Context, actor policy.Actor, orderID uuid.UUID) (*OrderDetail, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	ownsItem := policy.SellerOwnsItem(order.Items, actor.UserID)
	if !policy.CanViewOrder(actor, order, ownsItem) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to view this order")
	}
	return ToDetail(order), nil
}

// ListForUser pages through the caller's own orders.
func (s *service) ListForUser(ctx context.Context, actor policy.Actor, tenantID *uuid.UUID, filters ListFilters, params pagination.Params) (*OrderList, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	rows, next, err := s.repo.ListForUser(ctx, tenantID, actor.UserID, filters, params)
	if err != nil {
		return nil, err
	}
	return buildList(rows, next), nil
}

// ListForSeller pages through orders containing the seller's items.
func (s *service) ListForSeller(ctx context.Context, actor policy.Actor, filters ListFilters, params pagination.Params) (*OrderList, error) {
	if actor.Role != enums.UserRoleSeller && actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "seller role required")
	}
	rows, next, err := s.repo.ListForSeller(ctx, actor.UserID, filters, params)
	if err != nil {
		return nil, err
	}
	return buildList(rows, next), nil
}

// UpdateStatus applies a transition at the scope the policy layer grants.
// Scope, legality and the write itself all work from the row state read
// inside the transaction; the order update is additionally guarded on that
// status so a concurrent transition cannot apply twice.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDetail, error) {
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("invalid order status %q", input.Target))
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := findOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}

		ownsItem := policy.SellerOwnsItem(order.Items, input.Actor.UserID)
		switch policy.ResolveTransition(input.Actor, order, input.Target, ownsItem) {
		case policy.ScopeAggregate:
			return s.applyAggregateTransition(ctx, repo, tx, order, input)
		case policy.ScopeSellerItems:
			return s.applySellerTransition(ctx, repo, tx, order, input)
		default:
			if order.UserID == input.Actor.UserID {
				return transitionNotAllowed(order.Status, input.Target)
			}
			return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to update this order")
		}
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.loadOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	return ToDetail(updated), nil
}

func (s *service) applyAggregateTransition(ctx context.Context, repo Repository, tx *gorm.DB, order *models.Order, input UpdateStatusInput) error {
	if !policy.CanTransition(order.Status, input.Target) {
		return transitionNotAllowed(order.Status, input.Target)
	}

	updates := map[string]any{"status": input.Target}
	stampLifecycle(order, input.Target, updates)
	if input.TrackingNumber != nil {
		updates["tracking_number"] = *input.TrackingNumber
	}
	if input.ShippingCarrier != nil {
		updates["shipping_carrier"] = *input.ShippingCarrier
	}

	applied, err := repo.UpdateOrderIfStatus(ctx, order.ID, order.Status, updates)
	if err != nil {
		return err
	}
	if !applied {
		return pkgerrors.New(pkgerrors.CodeOrderNotModifiable, "order was updated concurrently")
	}
	if err := repo.UpdateItemsStatus(ctx, order.ID, input.Target); err != nil {
		return err
	}
	if input.Target == enums.OrderStatusCancelled {
		if err := s.restoreItems(ctx, tx, order); err != nil {
			return err
		}
	}
	return s.emitStatusChanged(ctx, tx, order, input.Actor, input.Target, string(policy.ScopeAggregate))
}

func (s *service) applySellerTransition(ctx context.Context, repo Repository, tx *gorm.DB, order *models.Order, input UpdateStatusInput) error {
	for _, item := range order.Items {
		if item.SellerID != input.Actor.UserID {
			continue
		}
		if !policy.CanTransition(item.Status, input.Target) {
			return transitionNotAllowed(item.Status, input.Target)
		}
	}
	if err := repo.UpdateSellerItemsStatus(ctx, order.ID, input.Actor.UserID, input.Target); err != nil {
		return err
	}
	return s.emitStatusChanged(ctx, tx, order, input.Actor, input.Target, string(policy.ScopeSellerItems))
}

// Cancel cancels a pending or confirmed order and restores its inventory.
// State is checked on the row read inside the transaction and the update is
// guarded on that status, so a racing cancel fires the restoration at most
// once; the loser gets ORDER_NOT_MODIFIABLE.
func (s *service) Cancel(ctx context.Context, input CancelOrderInput) (*OrderDetail, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := findOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if input.Actor.Role != enums.UserRoleAdmin && order.UserID != input.Actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to cancel this order")
		}
		if !policy.CanCancel(order.Status) {
			return pkgerrors.New(pkgerrors.CodeOrderNotModifiable,
				fmt.Sprintf("order in status %s can no longer be cancelled", order.Status))
		}

		updates := map[string]any{"status": enums.OrderStatusCancelled}
		stampLifecycle(order, enums.OrderStatusCancelled, updates)
		if input.Reason != nil && strings.TrimSpace(*input.Reason) != "" {
			updates["notes"] = appendNote(order.Notes, "cancelled: "+strings.TrimSpace(*input.Reason))
		}

		applied, err := repo.UpdateOrderIfStatus(ctx, order.ID, order.Status, updates)
		if err != nil {
			return err
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeOrderNotModifiable, "order was updated concurrently")
		}
		if err := repo.UpdateItemsStatus(ctx, order.ID, enums.OrderStatusCancelled); err != nil {
			return err
		}
		if err := s.restoreItems(ctx, tx, order); err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.Actor.UserID, Role: string(input.Actor.Role)},
			Data: map[string]any{
				"order_id":     order.ID,
				"order_number": order.OrderNumber,
				"reason":       input.Reason,
			},
			Version: 1,
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.loadOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	return ToDetail(updated), nil
}

func (s *service) restoreItems(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	for _, item := range order.Items {
		if err := s.ledger.Restore(ctx, tx, item.ProductID, order.ID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) emitStatusChanged(ctx context.Context, tx *gorm.DB, order *models.Order, actor policy.Actor, target enums.OrderStatus, scope string) error {
	event := outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: string(actor.Role)},
		Data: map[string]any{
			"order_id": order.ID,
			"from":     order.Status,
			"to":       target,
			"scope":    scope,
		},
		Version: 1,
	}
	return s.outbox.Emit(ctx, tx, event)
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return findOrder(ctx, s.repo, orderID)
}

func findOrder(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return order, nil
}

// stampLifecycle records the timestamp matching a transition, but only the
// first time the order reaches that state.
func stampLifecycle(order *models.Order, target enums.OrderStatus, updates map[string]any) {
	now := time.Now().UTC()
	switch target {
	case enums.OrderStatusShipped:
		if order.ShippedAt == nil {
			updates["shipped_at"] = now
		}
	case enums.OrderStatusDelivered:
		if order.DeliveredAt == nil {
			updates["delivered_at"] = now
		}
	case enums.OrderStatusCancelled:
		if order.CancelledAt == nil {
			updates["cancelled_at"] = now
		}
	case enums.OrderStatusRefunded:
		if order.RefundedAt == nil {
			updates["refunded_at"] = now
		}
	}
}

func transitionNotAllowed(from, to enums.OrderStatus) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeOrderNotModifiable,
		fmt.Sprintf("cannot move order from %s to %s", from, to)).
		WithDetails(map[string]any{"from": from, "to": to})
}

func appendNote(existing *string, note string) string {
	if existing == nil || strings.TrimSpace(*existing) == "" {
		return note
	}
	return *existing + "\n" + note
}

func buildList(rows []models.Order, next string) *OrderList {
	list := &OrderList{
		Orders:     make([]OrderSummary, 0, len(rows)),
		NextCursor: next,
	}
	for i := range rows {
		list.Orders = append(list.Orders, ToSummary(&rows[i]))
	}
	return list
}
