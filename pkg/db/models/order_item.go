package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/joaquinvega/mercado-backend/pkg/enums"
)

// OrderItem is the immutable line-item snapshot taken from a validated cart
// item at order creation. Name, SKU and unit price are frozen at purchase
// time. Status mirrors the parent order except when a seller patches only
// their own items on a multi-seller order.
type OrderItem struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID         `gorm:"column:product_id;type:uuid;not null"`
	SellerID       uuid.UUID         `gorm:"column:seller_id;type:uuid;not null;index"`
	Name           string            `gorm:"column:name;not null"`
	SKU            string            `gorm:"column:sku;not null"`
	UnitPriceCents int               `gorm:"column:unit_price_cents;not null"`
	Quantity       int               `gorm:"column:quantity;not null"`
	SubtotalCents  int               `gorm:"column:subtotal_cents;not null"`
	Status         enums.OrderStatus `gorm:"column:status;not null;default:'pending'"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
