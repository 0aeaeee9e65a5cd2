package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/joaquinvega/mercado-backend/pkg/enums"
)

// Cart is the single active cart a user owns per tenant. It is mutable until
// checkout converts it; conversion empties the items and zeroes the totals in
// the same transaction that creates the order.
type Cart struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID      *uuid.UUID       `gorm:"column:tenant_id;type:uuid;index:idx_carts_tenant_user"`
	UserID        uuid.UUID        `gorm:"column:user_id;type:uuid;not null;index:idx_carts_tenant_user"`
	Status        enums.CartStatus `gorm:"column:status;not null;default:'active'"`
	Currency      enums.Currency   `gorm:"column:currency;not null;default:'USD'"`
	SubtotalCents int              `gorm:"column:subtotal_cents;not null;default:0"`
	ItemCount     int              `gorm:"column:item_count;not null;default:0"`
	ExpiresAt     *time.Time       `gorm:"column:expires_at"`
	Items         []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
