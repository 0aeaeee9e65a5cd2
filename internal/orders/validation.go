package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/joaquinvega/mercado-backend/pkg/db/models"
	"github.com/joaquinvega/mercado-backend/pkg/enums"
	pkgerrors "github.com/joaquinvega/mercado-backend/pkg/errors"
)

// ValidateCart turns cart items into priced order items. Products are read
// in one batch; the returned cache is handed to the write phase so the
// deduction works from the same snapshot the validation saw.
func ValidateCart(ctx context.Context, items []models.CartItem, loader productLoader) ([]models.OrderItem, map[uuid.UUID]*models.Product, error) {
	if len(items) == 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
	}

	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	loaded, err := loader.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	cache := make(map[uuid.UUID]*models.Product, len(loaded))
	for i := range loaded {
		cache[loaded[i].ID] = &loaded[i]
	}

	lineItems := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		product, ok := cache[item.ProductID]
		if !ok {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound,
				fmt.Sprintf("product %s not found", item.ProductID))
		}

		if !product.Purchasable() {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound,
				fmt.Sprintf("product %s is no longer available", product.Name))
		}
		if product.TrackInventory {
			available := 0
			if product.Inventory != nil {
				available = *product.Inventory
			}
			if available < item.Quantity {
				return nil, nil, pkgerrors.New(pkgerrors.CodeInsufficientInventory,
					fmt.Sprintf("insufficient inventory for %s", product.Name)).
					WithDetails(map[string]any{
						"product_id": product.ID.String(),
						"requested":  item.Quantity,
						"available":  available,
					})
			}
		}

		lineItems = append(lineItems, models.OrderItem{
			ProductID:      product.ID,
			SellerID:       item.SellerID,
			Name:           product.Name,
			SKU:            product.SKU,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
			SubtotalCents:  item.UnitPriceCents * item.Quantity,
			Status:         enums.OrderStatusPending,
		})
	}

	return lineItems, cache, nil
}

// CalculateTotals sums validated line items. Tax, shipping and discount are
// fixed at zero for now; the breakdown columns exist so the math stays
// explicit when they arrive.
func CalculateTotals(lineItems []models.OrderItem) Totals {
	subtotal := 0
	for _, item := range lineItems {
		subtotal += item.SubtotalCents
	}
	return Totals{
		SubtotalCents: subtotal,
		TotalCents:    subtotal,
	}
}
