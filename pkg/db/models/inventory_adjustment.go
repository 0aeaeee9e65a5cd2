package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/joaquinvega/mercado-backend/pkg/enums"
)

// InventoryAdjustment is one row per inventory mutation, written by the
// ledger's single entry point so every stock movement is traceable back to
// the order that caused it.
type InventoryAdjustment struct {
	ID         uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID  uuid.UUID             `gorm:"column:product_id;type:uuid;not null;index"`
	OrderID    *uuid.UUID            `gorm:"column:order_id;type:uuid;index"`
	Delta      int                   `gorm:"column:delta;not null"`
	SalesDelta int                   `gorm:"column:sales_delta;not null"`
	Reason     enums.InventoryReason `gorm:"column:reason;not null"`
	CreatedAt  time.Time             `gorm:"column:created_at;autoCreateTime"`
}
