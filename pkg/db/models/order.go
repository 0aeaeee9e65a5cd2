package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/joaquinvega/mercado-backend/pkg/enums"
	"github.com/joaquinvega/mercado-backend/pkg/types"
)

// Order is the durable record of a completed checkout. Created once from a
// non-empty cart; afterwards only status, lifecycle timestamps, tracking info
// and notes change. Orders are never deleted.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber string            `gorm:"column:order_number;not null;uniqueIndex:orders_order_number_key"`
	TenantID    *uuid.UUID        `gorm:"column:tenant_id;type:uuid;index"`
	UserID      uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	Status      enums.OrderStatus `gorm:"column:status;not null;default:'pending'"`

	SubtotalCents int            `gorm:"column:subtotal_cents;not null"`
	TaxCents      int            `gorm:"column:tax_cents;not null;default:0"`
	ShippingCents int            `gorm:"column:shipping_cents;not null;default:0"`
	DiscountCents int            `gorm:"column:discount_cents;not null;default:0"`
	TotalCents    int            `gorm:"column:total_cents;not null"`
	Currency      enums.Currency `gorm:"column:currency;not null;default:'USD'"`

	ShippingAddress types.Address  `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	BillingAddress  *types.Address `gorm:"column:billing_address;type:jsonb;serializer:json"`
	Notes           *string        `gorm:"column:notes"`
	TrackingNumber  *string        `gorm:"column:tracking_number"`
	ShippingCarrier *string        `gorm:"column:shipping_carrier"`

	PaidAt      *time.Time `gorm:"column:paid_at"`
	ShippedAt   *time.Time `gorm:"column:shipped_at"`
	DeliveredAt *time.Time `gorm:"column:delivered_at"`
	CancelledAt *time.Time `gorm:"column:cancelled_at"`
	RefundedAt  *time.Time `gorm:"column:refunded_at"`

	Items     []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment   *Payment    `gorm:"foreignKey:OrderID"`
	CreatedAt time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}
