package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/joaquinvega/mercado-backend/internal/cart"
	"github.com/joaquinvega/mercado-backend/internal/catalog"
	"github.com/joaquinvega/mercado-backend/internal/inventory"
	"github.com/joaquinvega/mercado-backend/internal/policy"
	"github.com/joaquinvega/mercado-backend/pkg/db"
	"github.com/joaquinvega/mercado-backend/pkg/db/models"
	"github.com/joaquinvega/mercado-backend/pkg/enums"
	pkgerrors "github.com/joaquinvega/mercado-backend/pkg/errors"
	"github.com/joaquinvega/mercado-backend/pkg/outbox"
	"github.com/joaquinvega/mercado-backend/pkg/pagination"
)

func newOrderService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(
		NewRepository(conn),
		cart.NewRepository(conn),
		catalog.NewRepository(conn),
		inventory.NewLedger(),
		db.NewWithConn(conn),
		outbox.NewService(outbox.NewRepository(conn), nil),
		"MD",
	)
	require.NoError(t, err)
	return svc
}

func seedTrackedProduct(t *testing.T, conn *gorm.DB, priceCents, stock int) *models.Product {
	t.Helper()
	inv := stock
	product := &models.Product{
		ID:             uuid.New(),
		SellerID:       uuid.New(),
		Name:           "Tracked Widget",
		SKU:            "SKU-" + uuid.NewString()[:8],
		Slug:           "widget-" + uuid.NewString()[:8],
		Status:         enums.ProductStatusActive,
		PriceCents:     priceCents,
		Currency:       enums.CurrencyUSD,
		TrackInventory: true,
		Inventory:      &inv,
	}
	require.NoError(t, conn.Create(product).Error)
	return product
}

func seedCartWith(t *testing.T, conn *gorm.DB, userID uuid.UUID, lines ...models.CartItem) *models.Cart {
	t.Helper()
	subtotal, count := 0, 0
	for _, line := range lines {
		subtotal += line.UnitPriceCents * line.Quantity
		count += line.Quantity
	}
	record := &models.Cart{
		ID:            uuid.New(),
		UserID:        userID,
		Status:        enums.CartStatusActive,
		Currency:      enums.CurrencyUSD,
		SubtotalCents: subtotal,
		ItemCount:     count,
	}
	require.NoError(t, conn.Create(record).Error)
	for i := range lines {
		lines[i].ID = uuid.New()
		lines[i].CartID = record.ID
		require.NoError(t, conn.Create(&lines[i]).Error)
	}
	return record
}

func productInventory(t *testing.T, conn *gorm.DB, productID uuid.UUID) (int, int) {
	t.Helper()
	var product models.Product
	require.NoError(t, conn.First(&product, "id = ?", productID).Error)
	stock := 0
	if product.Inventory != nil {
		stock = *product.Inventory
	}
	return stock, product.SalesCount
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr, "expected typed error, got %v", err)
	require.Equal(t, code, appErr.Code())
}

func TestCreateOrderConvertsCartAtomically(t *testing.T) {
	t.Parallel()

	conn := setupOrdersTestDB(t)
	svc := newOrderService(t, conn)
	ctx := context.Background()
	userID := uuid.New()

	product := seedTrackedProduct(t, conn, 2500, 10)
	seedCartWith(t, conn, userID, models.CartItem{
		ProductID:      product.ID,
		SellerID:       product.SellerID,
		Quantity:       3,
		UnitPriceCents: product.PriceCents,
	})

	detail, err := svc.Create(ctx, CreateOrderInput{
		UserID:          userID,
		ShippingAddress: testAddress(),
	})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusPending, detail.Status)
	require.Len(t, detail.Items, 1)
	require.Equal(t, 7500, detail.SubtotalCents)
	require.Equal(t, detail.TotalCents, detail.SubtotalCents+detail.TaxCents+detail.ShippingCents-detail.DiscountCents)

	itemSum := 0
	for _, item := range detail.Items {
		require.Equal(t, enums.OrderStatusPending, item.Status)
		itemSum += item.SubtotalCents
	}
	require.Equal(t, detail.SubtotalCents, itemSum)

	stock, sales := productInventory(t, conn, product.ID)
	require.Equal(t, 7, stock)
	require.Equal(t, 3, sales)

	var items []models.CartItem
	require.NoError(t, conn.Where("product_id = ?", product.ID).Find(&items).Error)
	require.Empty(t, items)

	var converted models.Cart
	require.NoError(t, conn.First(&converted, "user_id = ?", userID).Error)
	require.Equal(t, enums.CartStatusConverted, converted.Status)
	require.Zero(t, converted.SubtotalCents)
	require.Zero(t, converted.ItemCount)

	var events []models.OutboxEvent
	require.NoError(t, conn.Where("event_type = ?", enums.EventOrderCreated).Find(&events).Error)
	require.Len(t, events, 1)
	require.Equal(t, detail.ID, events[0].AggregateID)

	// The cart converted with the order, so a second checkout has nothing
	// to work from.
	_, err = svc.Create(ctx, CreateOrderInput{UserID: userID, ShippingAddress: testAddress()})
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestCreateOrderRollsBackWhenStockShort(t *testing.T) {
	t.Parallel()

	conn := setupOrdersTestDB(t)
	svc := newOrderService(t, conn)
	ctx := context.Background()
	userID := uuid.New()

	plenty := seedTrackedProduct(t, conn, 1000, 50)
	scarce := seedTrackedProduct(t, conn, 4000, 1)
	seedCartWith(t, conn, userID,
		models.CartItem{ProductID: plenty.ID, SellerID: plenty.SellerID, Quantity: 2, UnitPriceCents: plenty.PriceCents},
		models.CartItem{ProductID: scarce.ID, SellerID: scarce.SellerID, Quantity: 3, UnitPriceCents: scarce.PriceCents},
	)

	_, err := svc.Create(ctx, CreateOrderInput{UserID: userID, ShippingAddress: testAddress()})
	requireCode(t, err, pkgerrors.CodeInsufficientInventory)

	// Nothing committed: both products, the cart and the order tables are
	// exactly as seeded.
	stock, sales := productInventory(t, conn, plenty.ID)
	require.Equal(t, 50, stock)
	require.Zero(t, sales)

	var orderCount int64
	require.NoError(t, conn.Model(&models.Order{}).Count(&orderCount).Error)
	require.Zero(t, orderCount)

	var active models.Cart
	require.NoError(t, conn.First(&active, "user_id = ?", userID).Error)
	require.Equal(t, enums.CartStatusActive, active.Status)

	var items []models.CartItem
	require.NoError(t, conn.Where("cart_id = ?", active.ID).Find(&items).Error)
	require.Len(t, items, 2)
}

func TestCreateOrderValidatesInput(t *testing.T) {
	t.Parallel()

	conn := setupOrdersTestDB(t)
	svc := newOrderService(t, conn)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateOrderInput{UserID: uuid.New(), ShippingAddress: testAddress()})
	requireCode(t, err, pkgerrors.CodeNotFound)

	incomplete := testAddress()
	incomplete.Country = ""
	_, err = svc.Create(ctx, CreateOrderInput{UserID: uuid.New(), ShippingAddress: incomplete})
	requireCode(t, err, pkgerrors.CodeValidation)

	emptyCartUser := uuid.New()
	seedCartWith(t, conn, emptyCartUser)
	_, err = svc.Create(ctx, CreateOrderInput{UserID: emptyCartUser, ShippingAddress: testAddress()})
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestCreateOrderSharedStockTwoBuyers(t *testing.T) {
	t.Parallel()

	conn := setupOrdersTestDB(t)
	svc := newOrderService(t, conn)
	ctx := context.Background()

	product := seedTrackedProduct(t, conn, 1500, 500)

	first := uuid.New()
	seedCartWith(t, conn, first, models.CartItem{ProductID: product.ID, SellerID: product.SellerID, Quantity: 300, UnitPriceCents: product.PriceCents})
	second := uuid.New()
	seedCartWith(t, conn, second, models.CartItem{ProductID: product.ID, SellerID: product.SellerID, Quantity: 300, UnitPriceCents: product.PriceCents})

	_, err := svc.Create(ctx, CreateOrderInput{UserID: first, ShippingAddress: testAddress()})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateOrderInput{UserID: second, ShippingAddress: testAddress()})
	requireCode(t, err, pkgerrors.CodeInsufficientInventory)

	stock, sales := productInventory(t, conn, product.ID)
	require.Equal(t, 200, stock)
	require.Equal(t, 300, sales)
}

func TestCancelPendingOrderRestoresInventory(t *testing.T) {
	t.Parallel()

	conn := setupOrdersTestDB(t)
	svc := newOrderService(t, conn)
	ctx := context.Background()
	userID := uuid.New()

	product := seedTrackedProduct(t, conn, 2000, 20)
	seedCartWith(t, conn, userID, models.CartItem{ProductID: product.ID, SellerID: product.SellerID, Quantity: 5, UnitPriceCents: product.PriceCents})

	created, err := svc.Create(ctx, CreateOrderInput{UserID: userID, ShippingAddress: testAddress()})
	require.NoError(t, err)

	reason := "changed my mind"
	cancelled, err := svc.Cancel(ctx, CancelOrderInput{
		OrderID: created.ID,
		Actor:   policy.Actor{UserID: userID, Role: enums.UserRoleCustomer},
		Reason:  &reason,
	})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	require.NotNil(t, cancelled.Notes)
	require.Contains(t, *cancelled.Notes, "cancelled: changed my mind")
	for _, item := range cancelled.Items {
		require.Equal(t, enums.OrderStatusCancelled, item.Status)
	}

	stock, sales := productInventory(t, conn, product.ID)
	require.Equal(t, 20, stock)
	require.Zero(t, sales)

	var adjustments []models.InventoryAdjustment
	require.NoError(t, conn.Where("product_id = ?", product.ID).Order("created_at ASC").Find(&adjustments).Error)
	require.Len(t, adjustments, 2)
	require.Equal(t, enums.InventoryReasonOrderCreated, adjustments[0].Reason)
	require.Equal(t, enums.InventoryReasonOrderCancelled, adjustments[1].Reason)
	require.Zero(t, adjustments[0].Delta+adjustments[1].Delta)

	var events int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).
		Where("event_type = ?", enums.EventOrderCancelled).Count(&events).Error)
	require.EqualValues(t, 1, events)
}

func TestCancelEnforcesOwnershipAndState(t *testing.T) {
	t.Parallel()

	conn := setupOrdersTestDB(t)
	svc := newOrderService(t, conn)
	ctx := context.Background()
	ownerID := uuid.New()

	product := seedTrackedProduct(t, conn, 1000, 10)
	seedCartWith(t, conn, ownerID, models.CartItem{ProductID: product.ID, SellerID: product.SellerID, Quantity: 1, UnitPriceCents: product.PriceCents})
	created, err := svc.Create(ctx, CreateOrderInput{UserID: ownerID, ShippingAddress: testAddress()})
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, CancelOrderInput{
		OrderID: created.ID,
		Actor:   policy.Actor{UserID: uuid.New(), Role: enums.UserRoleCustomer},
	})
	requireCode(t, err, pkgerrors.CodeForbidden)

	// Admins may cancel on the customer's behalf.
	_, err = svc.Cancel(ctx, CancelOrderInput{
		OrderID: created.ID,
		Actor:   policy.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin},
	})
	require.NoError(t, err)

	shipped := seedOrder(t, conn, ownerID, enums.OrderStatusShipped, created.CreatedAt)
	_, err = svc.Cancel(ctx, CancelOrderInput{
		OrderID: shipped.ID,
		Actor:   policy.Actor{UserID: ownerID, Role: enums.UserRoleCustomer},
	})
	requireCode(t, err, pkgerrors.CodeOrderNotModifiable)
}

func TestUpdateStatusAggregateTransitions(t *testing.T) {
	t.Parallel()

	conn := setupOrdersTestDB(t)
	svc := newOrderService(t, conn)
	ctx := context.Background()
	admin := policy.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}

	order := seedOrder(t, conn, uuid.New(), enums.OrderStatusPending, time.Now().UTC())
	seedOrderItem(t, conn, order.ID, uuid.New(), enums.OrderStatusPending)

	// pending cannot jump straight to shipped.
	_, err := svc.UpdateStatus(ctx, UpdateStatusInput{OrderID: order.ID, Target: enums.OrderStatusShipped, Actor: admin})
	requireCode(t, err, pkgerrors.CodeOrderNotModifiable)

	detail, err := svc.UpdateStatus(ctx, UpdateStatusInput{OrderID: order.ID, Target: enums.OrderStatusConfirmed, Actor: admin})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusConfirmed, detail.Status)
	for _, item := range detail.Items {
		require.Equal(t, enums.OrderStatusConfirmed, item.Status)
	}

	detail, err = svc.UpdateStatus(ctx, UpdateStatusInput{OrderID: order.ID, Target: enums.OrderStatusProcessing, Actor: admin})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusProcessing, detail.Status)

	tracking := "1Z999AA10123456784"
	carrier := "UPS"
	detail, err = svc.UpdateStatus(ctx, UpdateStatusInput{
		OrderID:         order.ID,
		Target:          enums.OrderStatusShipped,
		Actor:           admin,
		TrackingNumber:  &tracking,
		ShippingCarrier: &carrier,
	})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusShipped, detail.Status)
	require.NotNil(t, detail.ShippedAt)
	require.NotNil(t, detail.TrackingNumber)
	require.Equal(t, tracking, *detail.TrackingNumber)

	// delivered is terminal.
	detail, err = svc.UpdateStatus(ctx, UpdateStatusInput{OrderID: order.ID, Target: enums.OrderStatusDelivered, Actor: admin})
	require.NoError(t, err)
	require.NotNil(t, detail.DeliveredAt)
	_, err = svc.UpdateStatus(ctx, UpdateStatusInput{OrderID: order.ID, Target: enums.OrderStatusPending, Actor: admin})
	requireCode(t, err, pkgerrors.CodeOrderNotModifiable)

	_, err = svc.UpdateStatus(ctx, UpdateStatusInput{OrderID: order.ID, Target: enums.OrderStatus("teleported"), Actor: admin})
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestUpdateStatusCustomerScope(t *testing.T) {
	t.Parallel()

	conn := setupOrdersTestDB(t)
	svc := newOrderService(t, conn)
	ctx := context.Background()
	ownerID := uuid.New()

	order := seedOrder(t, conn, ownerID, enums.OrderStatusPending, time.Now().UTC())
	seedOrderItem(t, conn, order.ID, uuid.New(), enums.OrderStatusPending)

	owner := policy.Actor{UserID: ownerID, Role: enums.UserRoleCustomer}

	// Owners can cancel a pending order through the status endpoint but
	// cannot push it forward.
	_, err := svc.UpdateStatus(ctx, UpdateStatusInput{OrderID: order.ID, Target: enums.OrderStatusConfirmed, Actor: owner})
	requireCode(t, err, pkgerrors.CodeOrderNotModifiable)

	stranger := policy.Actor{UserID: uuid.New(), Role: enums.UserRoleCustomer}
	_, err = svc.UpdateStatus(ctx, UpdateStatusInput{OrderID: order.ID, Target: enums.OrderStatusCancelled, Actor: stranger})
	requireCode(t, err, pkgerrors.CodeForbidden)

	detail, err := svc.UpdateStatus(ctx, UpdateStatusInput{OrderID: order.ID, Target: enums.OrderStatusCancelled, Actor: owner})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCancelled, detail.Status)
	require.NotNil(t, detail.CancelledAt)
}

func TestUpdateStatusSellerScopeTouchesOnlyTheirItems(t *testing.T) {
	t.Parallel()

	conn := setupOrdersTestDB(t)
	svc := newOrderService(t, conn)
	ctx := context.Background()
	sellerID := uuid.New()

	order := seedOrder(t, conn, uuid.New(), enums.OrderStatusShipped, time.Now().UTC())
	mine := seedOrderItem(t, conn, order.ID, sellerID, enums.OrderStatusShipped)
	theirs := seedOrderItem(t, conn, order.ID, uuid.New(), enums.OrderStatusShipped)

	seller := policy.Actor{UserID: sellerID, Role: enums.UserRoleSeller}
	detail, err := svc.UpdateStatus(ctx, UpdateStatusInput{OrderID: order.ID, Target: enums.OrderStatusDelivered, Actor: seller})
	require.NoError(t, err)

	// Aggregate status is untouched; only the seller's own line moved.
	require.Equal(t, enums.OrderStatusShipped, detail.Status)
	for _, item := range detail.Items {
		switch item.ID {
		case mine.ID:
			require.Equal(t, enums.OrderStatusDelivered, item.Status)
		case theirs.ID:
			require.Equal(t, enums.OrderStatusShipped, item.Status)
		}
	}

	// A seller with no line on the order gets nothing.
	outsider := policy.Actor{UserID: uuid.New(), Role: enums.UserRoleSeller}
	_, err = svc.UpdateStatus(ctx, UpdateStatusInput{OrderID: order.ID, Target: enums.OrderStatusDelivered, Actor: outsider})
	requireCode(t, err, pkgerrors.CodeForbidden)
}

func TestGetEnforcesVisibility(t *testing.T) {
	t.Parallel()

	conn := setupOrdersTestDB(t)
	svc := newOrderService(t, conn)
	ctx := context.Background()
	ownerID := uuid.New()
	sellerID := uuid.New()

	order := seedOrder(t, conn, ownerID, enums.OrderStatusPending, time.Now().UTC())
	seedOrderItem(t, conn, order.ID, sellerID, enums.OrderStatusPending)

	for _, actor := range []policy.Actor{
		{UserID: ownerID, Role: enums.UserRoleCustomer},
		{UserID: sellerID, Role: enums.UserRoleSeller},
		{UserID: uuid.New(), Role: enums.UserRoleAdmin},
	} {
		detail, err := svc.Get(ctx, actor, order.ID)
		require.NoError(t, err)
		require.Equal(t, order.ID, detail.ID)
	}

	_, err := svc.Get(ctx, policy.Actor{UserID: uuid.New(), Role: enums.UserRoleCustomer}, order.ID)
	requireCode(t, err, pkgerrors.CodeForbidden)

	_, err = svc.Get(ctx, policy.Actor{UserID: ownerID, Role: enums.UserRoleCustomer}, uuid.New())
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestListForSellerRequiresSellerRole(t *testing.T) {
	t.Parallel()

	conn := setupOrdersTestDB(t)
	svc := newOrderService(t, conn)
	ctx := context.Background()

	_, err := svc.ListForSeller(ctx, policy.Actor{UserID: uuid.New(), Role: enums.UserRoleCustomer}, ListFilters{}, pagination.Params{})
	requireCode(t, err, pkgerrors.CodeForbidden)

	list, err := svc.ListForSeller(ctx, policy.Actor{UserID: uuid.New(), Role: enums.UserRoleSeller}, ListFilters{}, pagination.Params{})
	require.NoError(t, err)
	require.Empty(t, list.Orders)
}

// gatedRunner lets a competing operation commit between a caller invoking
// the service and the caller's own transaction opening.
type gatedRunner struct {
	inner  txRunner
	before func()
	fired  bool
}

func (g *gatedRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if !g.fired {
		g.fired = true
		g.before()
	}
	return g.inner.WithTx(ctx, fn)
}

func newOrderServiceWithRunner(t *testing.T, conn *gorm.DB, runner txRunner) Service {
	t.Helper()
	svc, err := NewService(
		NewRepository(conn),
		cart.NewRepository(conn),
		catalog.NewRepository(conn),
		inventory.NewLedger(),
		runner,
		outbox.NewService(outbox.NewRepository(conn), nil),
		"MD",
	)
	require.NoError(t, err)
	return svc
}

func TestConcurrentCancelRestoresInventoryOnce(t *testing.T) {
	t.Parallel()

	conn := setupOrdersTestDB(t)
	svc := newOrderService(t, conn)
	ctx := context.Background()
	userID := uuid.New()

	product := seedTrackedProduct(t, conn, 2000, 20)
	seedCartWith(t, conn, userID, models.CartItem{ProductID: product.ID, SellerID: product.SellerID, Quantity: 5, UnitPriceCents: product.PriceCents})
	created, err := svc.Create(ctx, CreateOrderInput{UserID: userID, ShippingAddress: testAddress()})
	require.NoError(t, err)

	owner := policy.Actor{UserID: userID, Role: enums.UserRoleCustomer}
	runner := &gatedRunner{
		inner: db.NewWithConn(conn),
		before: func() {
			_, err := svc.Cancel(ctx, CancelOrderInput{OrderID: created.ID, Actor: owner})
			require.NoError(t, err)
		},
	}
	racing := newOrderServiceWithRunner(t, conn, runner)

	// The competing cancel commits first; this caller must lose, not
	// restore the stock a second time.
	_, err = racing.Cancel(ctx, CancelOrderInput{OrderID: created.ID, Actor: owner})
	requireCode(t, err, pkgerrors.CodeOrderNotModifiable)

	stock, sales := productInventory(t, conn, product.ID)
	require.Equal(t, 20, stock)
	require.Zero(t, sales)

	var adjustments []models.InventoryAdjustment
	require.NoError(t, conn.Where("product_id = ?", product.ID).Find(&adjustments).Error)
	require.Len(t, adjustments, 2)

	var events int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).
		Where("event_type = ?", enums.EventOrderCancelled).Count(&events).Error)
	require.EqualValues(t, 1, events)
}

func TestConcurrentStatusUpdateAppliesOnce(t *testing.T) {
	t.Parallel()

	conn := setupOrdersTestDB(t)
	svc := newOrderService(t, conn)
	ctx := context.Background()
	admin := policy.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}

	order := seedOrder(t, conn, uuid.New(), enums.OrderStatusPending, time.Now().UTC())
	seedOrderItem(t, conn, order.ID, uuid.New(), enums.OrderStatusPending)

	runner := &gatedRunner{
		inner: db.NewWithConn(conn),
		before: func() {
			_, err := svc.UpdateStatus(ctx, UpdateStatusInput{OrderID: order.ID, Target: enums.OrderStatusConfirmed, Actor: admin})
			require.NoError(t, err)
		},
	}
	racing := newOrderServiceWithRunner(t, conn, runner)

	_, err := racing.UpdateStatus(ctx, UpdateStatusInput{OrderID: order.ID, Target: enums.OrderStatusConfirmed, Actor: admin})
	requireCode(t, err, pkgerrors.CodeOrderNotModifiable)

	var current models.Order
	require.NoError(t, conn.First(&current, "id = ?", order.ID).Error)
	require.Equal(t, enums.OrderStatusConfirmed, current.Status)

	var events int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).
		Where("event_type = ?", enums.EventOrderStatusChanged).Count(&events).Error)
	require.EqualValues(t, 1, events)
}

// convertedCartRepo simulates the cart losing its active status to a
// concurrent checkout before this transaction's guarded conversion runs.
type convertedCartRepo struct {
	cart.Repository
}

func (r convertedCartRepo) WithTx(tx *gorm.DB) cart.Repository {
	return convertedCartRepo{Repository: r.Repository.WithTx(tx)}
}

func (r convertedCartRepo) Clear(ctx context.Context, cartID uuid.UUID) (bool, error) {
	return false, nil
}

func TestCreateOrderAbortsWhenCartAlreadyConverted(t *testing.T) {
	t.Parallel()

	conn := setupOrdersTestDB(t)
	svc, err := NewService(
		NewRepository(conn),
		convertedCartRepo{Repository: cart.NewRepository(conn)},
		catalog.NewRepository(conn),
		inventory.NewLedger(),
		db.NewWithConn(conn),
		outbox.NewService(outbox.NewRepository(conn), nil),
		"MD",
	)
	require.NoError(t, err)
	ctx := context.Background()
	userID := uuid.New()

	product := seedTrackedProduct(t, conn, 1000, 10)
	seedCartWith(t, conn, userID, models.CartItem{ProductID: product.ID, SellerID: product.SellerID, Quantity: 2, UnitPriceCents: product.PriceCents})

	_, err = svc.Create(ctx, CreateOrderInput{UserID: userID, ShippingAddress: testAddress()})
	requireCode(t, err, pkgerrors.CodeConflict)

	// The whole conversion rolled back with the failed claim.
	var orderCount int64
	require.NoError(t, conn.Model(&models.Order{}).Count(&orderCount).Error)
	require.Zero(t, orderCount)

	stock, sales := productInventory(t, conn, product.ID)
	require.Equal(t, 10, stock)
	require.Zero(t, sales)
}

type collidingRepo struct {
	Repository
}

func (r collidingRepo) WithTx(tx *gorm.DB) Repository {
	return collidingRepo{Repository: r.Repository.WithTx(tx)}
}

func (r collidingRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	return nil, fmt.Errorf(`duplicate key value violates unique constraint "orders_order_number_key"`)
}

func TestCreateOrderNumberCollisionGivesUpAfterRetry(t *testing.T) {
	t.Parallel()

	conn := setupOrdersTestDB(t)
	svc, err := NewService(
		collidingRepo{Repository: NewRepository(conn)},
		cart.NewRepository(conn),
		catalog.NewRepository(conn),
		inventory.NewLedger(),
		db.NewWithConn(conn),
		outbox.NewService(outbox.NewRepository(conn), nil),
		"MD",
	)
	require.NoError(t, err)
	ctx := context.Background()
	userID := uuid.New()

	product := seedTrackedProduct(t, conn, 1000, 5)
	seedCartWith(t, conn, userID, models.CartItem{ProductID: product.ID, SellerID: product.SellerID, Quantity: 1, UnitPriceCents: product.PriceCents})

	_, err = svc.Create(ctx, CreateOrderInput{UserID: userID, ShippingAddress: testAddress()})
	requireCode(t, err, pkgerrors.CodeConflict)

	// The aborted transaction leaves inventory untouched.
	stock, _ := productInventory(t, conn, product.ID)
	require.Equal(t, 5, stock)
}
