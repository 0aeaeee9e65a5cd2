package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/joaquinvega/mercado-backend/internal/policy"
	"github.com/joaquinvega/mercado-backend/pkg/enums"
	"github.com/joaquinvega/mercado-backend/pkg/types"
)

// CreateOrderInput captures everything checkout needs beyond the cart itself.
type CreateOrderInput struct {
	TenantID        *uuid.UUID
	UserID          uuid.UUID
	ShippingAddress types.Address
	BillingAddress  *types.Address
	Notes           *string
}

// UpdateStatusInput carries a requested status transition.
type UpdateStatusInput struct {
	OrderID         uuid.UUID
	Target          enums.OrderStatus
	Actor           policy.Actor
	TrackingNumber  *string
	ShippingCarrier *string
}

// CancelOrderInput carries a cancellation request.
type CancelOrderInput struct {
	OrderID uuid.UUID
	Actor   policy.Actor
	Reason  *string
}

// ListFilters narrows list queries.
type ListFilters struct {
	Status *enums.OrderStatus
}

// Totals is the monetary breakdown computed from validated line items.
type Totals struct {
	SubtotalCents int
	TaxCents      int
	ShippingCents int
	DiscountCents int
	TotalCents    int
}

// OrderItemView is the client-facing projection of a line item.
type OrderItemView struct {
	ID             uuid.UUID         `json:"id"`
	ProductID      uuid.UUID         `json:"product_id"`
	SellerID       uuid.UUID         `json:"seller_id"`
	Name           string            `json:"name"`
	SKU            string            `json:"sku"`
	UnitPriceCents int               `json:"unit_price_cents"`
	Quantity       int               `json:"quantity"`
	SubtotalCents  int               `json:"subtotal_cents"`
	Status         enums.OrderStatus `json:"status"`
}

// OrderSummary is the list projection.
type OrderSummary struct {
	ID          uuid.UUID         `json:"id"`
	OrderNumber string            `json:"order_number"`
	Status      enums.OrderStatus `json:"status"`
	TotalCents  int               `json:"total_cents"`
	Currency    enums.Currency    `json:"currency"`
	ItemCount   int               `json:"item_count"`
	CreatedAt   time.Time         `json:"created_at"`
}

// OrderDetail is the full projection returned by create/get.
type OrderDetail struct {
	ID              uuid.UUID            `json:"id"`
	OrderNumber     string               `json:"order_number"`
	Status          enums.OrderStatus    `json:"status"`
	SubtotalCents   int                  `json:"subtotal_cents"`
	TaxCents        int                  `json:"tax_cents"`
	ShippingCents   int                  `json:"shipping_cents"`
	DiscountCents   int                  `json:"discount_cents"`
	TotalCents      int                  `json:"total_cents"`
	Currency        enums.Currency       `json:"currency"`
	ShippingAddress types.Address        `json:"shipping_address"`
	BillingAddress  *types.Address       `json:"billing_address,omitempty"`
	Notes           *string              `json:"notes,omitempty"`
	TrackingNumber  *string              `json:"tracking_number,omitempty"`
	ShippingCarrier *string              `json:"shipping_carrier,omitempty"`
	PaymentStatus   *enums.PaymentStatus `json:"payment_status,omitempty"`
	Items           []OrderItemView      `json:"items"`
	PaidAt          *time.Time           `json:"paid_at,omitempty"`
	ShippedAt       *time.Time           `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time           `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time           `json:"cancelled_at,omitempty"`
	RefundedAt      *time.Time           `json:"refunded_at,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}

// OrderList is a page of summaries plus the cursor for the next page.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
