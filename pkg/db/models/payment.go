package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/joaquinvega/mercado-backend/pkg/enums"
)

// Payment is owned by the payment provider integration; the order engine
// reads it to surface payment state on order views and never writes it.
type Payment struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	Status      enums.PaymentStatus `gorm:"column:status;not null;default:'unpaid'"`
	AmountCents int                 `gorm:"column:amount_cents;not null"`
	Currency    enums.Currency      `gorm:"column:currency;not null;default:'USD'"`
	Provider    string              `gorm:"column:provider"`
	PaidAt      *time.Time          `gorm:"column:paid_at"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
