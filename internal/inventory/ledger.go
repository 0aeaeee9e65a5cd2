package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/joaquinvega/mercado-backend/pkg/db/models"
	"github.com/joaquinvega/mercado-backend/pkg/enums"
	pkgerrors "github.com/joaquinvega/mercado-backend/pkg/errors"
)

// Ledger is the single entry point for stock mutations. Every deduction and
// restoration writes an inventory_adjustments row inside the caller's
// transaction, so stock movement stays traceable to the order that caused it.
type Ledger struct{}

// NewLedger builds the inventory ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Deduct decrements tracked stock for one order item. The caller passes the
// product snapshot it already validated; the guarded UPDATE re-checks the
// level so a concurrent order cannot drive inventory negative between
// validation and commit.
func (l *Ledger) Deduct(ctx context.Context, tx *gorm.DB, snapshot *models.Product, orderID uuid.UUID, qty int) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if snapshot == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "product snapshot required")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	delta := 0
	if snapshot.TrackInventory {
		if snapshot.Inventory == nil || *snapshot.Inventory < qty {
			return insufficient(snapshot, qty)
		}
		result := tx.WithContext(ctx).Model(&models.Product{}).
			Where("id = ? AND track_inventory = ? AND inventory >= ?", snapshot.ID, true, qty).
			Updates(map[string]any{
				"inventory":   gorm.Expr("inventory - ?", qty),
				"sales_count": gorm.Expr("sales_count + ?", qty),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return insufficient(snapshot, qty)
		}
		delta = -qty
	} else {
		if err := tx.WithContext(ctx).Model(&models.Product{}).
			Where("id = ?", snapshot.ID).
			Update("sales_count", gorm.Expr("sales_count + ?", qty)).Error; err != nil {
			return err
		}
	}

	adjustment := models.InventoryAdjustment{
		ID:         uuid.New(),
		ProductID:  snapshot.ID,
		OrderID:    &orderID,
		Delta:      delta,
		SalesDelta: qty,
		Reason:     enums.InventoryReasonOrderCreated,
	}
	return tx.WithContext(ctx).Create(&adjustment).Error
}

// Restore puts stock back for a cancelled order item. This is a compensating
// action, so it reads the current product state instead of a snapshot;
// sales_count is clamped at zero.
func (l *Ledger) Restore(ctx context.Context, tx *gorm.DB, productID, orderID uuid.UUID, qty int) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var product models.Product
	if err := tx.WithContext(ctx).Where("id = ?", productID).First(&product).Error; err != nil {
		return err
	}

	salesDelta := qty
	if product.SalesCount < qty {
		salesDelta = product.SalesCount
	}

	updates := map[string]any{
		"sales_count": product.SalesCount - salesDelta,
	}
	delta := 0
	if product.TrackInventory && product.Inventory != nil {
		updates["inventory"] = *product.Inventory + qty
		delta = qty
	}
	if err := tx.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(updates).Error; err != nil {
		return err
	}

	adjustment := models.InventoryAdjustment{
		ID:         uuid.New(),
		ProductID:  productID,
		OrderID:    &orderID,
		Delta:      delta,
		SalesDelta: -salesDelta,
		Reason:     enums.InventoryReasonOrderCancelled,
	}
	return tx.WithContext(ctx).Create(&adjustment).Error
}

func insufficient(product *models.Product, qty int) *pkgerrors.Error {
	available := 0
	if product.Inventory != nil {
		available = *product.Inventory
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientInventory,
		fmt.Sprintf("insufficient inventory for %s", product.Name)).
		WithDetails(map[string]any{
			"product_id": product.ID.String(),
			"requested":  qty,
			"available":  available,
		})
}
