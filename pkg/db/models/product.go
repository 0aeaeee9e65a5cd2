package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/joaquinvega/mercado-backend/pkg/enums"
)

// Product is the catalog listing. Catalog CRUD lives elsewhere; the order
// engine reads products for validation and patches inventory/sales_count
// through the inventory ledger only.
type Product struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID       uuid.UUID           `gorm:"column:seller_id;type:uuid;not null;index"`
	Name           string              `gorm:"column:name;not null"`
	SKU            string              `gorm:"column:sku;not null"`
	Slug           string              `gorm:"column:slug;not null;uniqueIndex"`
	Status         enums.ProductStatus `gorm:"column:status;not null;default:'draft'"`
	IsDeleted      bool                `gorm:"column:is_deleted;not null;default:false"`
	PriceCents     int                 `gorm:"column:price_cents;not null"`
	Currency       enums.Currency      `gorm:"column:currency;not null;default:'USD'"`
	TrackInventory bool                `gorm:"column:track_inventory;not null;default:false"`
	Inventory      *int                `gorm:"column:inventory"`
	SalesCount     int                 `gorm:"column:sales_count;not null;default:0"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// Purchasable reports whether the product can appear on a new order.
func (p *Product) Purchasable() bool {
	return p != nil && !p.IsDeleted && p.Status == enums.ProductStatusActive
}
