package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/joaquinvega/mercado-backend/pkg/db/models"
	"github.com/joaquinvega/mercado-backend/pkg/enums"
	pkgerrors "github.com/joaquinvega/mercado-backend/pkg/errors"
)

type stubProductLoader struct {
	products map[uuid.UUID]*models.Product
	batches  [][]uuid.UUID
}

func newStubProductLoader(products ...*models.Product) *stubProductLoader {
	loader := &stubProductLoader{
		products: make(map[uuid.UUID]*models.Product),
	}
	for _, p := range products {
		loader.products[p.ID] = p
	}
	return loader
}

func (s *stubProductLoader) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	s.batches = append(s.batches, ids)
	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if product, ok := s.products[id]; ok {
			out = append(out, *product)
		}
	}
	return out, nil
}

func activeProduct(priceCents int, inventory *int) *models.Product {
	return &models.Product{
		ID:             uuid.New(),
		SellerID:       uuid.New(),
		Name:           "Widget",
		SKU:            "SKU-1",
		Status:         enums.ProductStatusActive,
		PriceCents:     priceCents,
		TrackInventory: inventory != nil,
		Inventory:      inventory,
	}
}

func TestValidateCartEmpty(t *testing.T) {
	_, _, err := ValidateCart(context.Background(), nil, newStubProductLoader())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestValidateCartMissingProduct(t *testing.T) {
	items := []models.CartItem{{ProductID: uuid.New(), Quantity: 1, UnitPriceCents: 100}}
	_, _, err := ValidateCart(context.Background(), items, newStubProductLoader())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestValidateCartInactiveProduct(t *testing.T) {
	product := activeProduct(100, nil)
	product.Status = enums.ProductStatusInactive
	items := []models.CartItem{{ProductID: product.ID, Quantity: 1, UnitPriceCents: 100}}

	_, _, err := ValidateCart(context.Background(), items, newStubProductLoader(product))
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestValidateCartDeletedProduct(t *testing.T) {
	product := activeProduct(100, nil)
	product.IsDeleted = true
	items := []models.CartItem{{ProductID: product.ID, Quantity: 1, UnitPriceCents: 100}}

	_, _, err := ValidateCart(context.Background(), items, newStubProductLoader(product))
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestValidateCartInsufficientInventory(t *testing.T) {
	stock := 2
	product := activeProduct(100, &stock)
	items := []models.CartItem{{ProductID: product.ID, Quantity: 3, UnitPriceCents: 100}}

	_, _, err := ValidateCart(context.Background(), items, newStubProductLoader(product))
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeInsufficientInventory, typed.Code())
}

func TestValidateCartLoadsProductsInOneBatch(t *testing.T) {
	stock := 10
	product := activeProduct(250, &stock)
	other := activeProduct(100, nil)
	loader := newStubProductLoader(product, other)
	items := []models.CartItem{
		{ProductID: product.ID, SellerID: product.SellerID, Quantity: 2, UnitPriceCents: 250},
		{ProductID: product.ID, SellerID: product.SellerID, Quantity: 3, UnitPriceCents: 250},
		{ProductID: other.ID, SellerID: other.SellerID, Quantity: 1, UnitPriceCents: 100},
	}

	lineItems, cache, err := ValidateCart(context.Background(), items, loader)
	require.NoError(t, err)
	require.Len(t, lineItems, 3)

	// One query, deduplicated product ids.
	require.Len(t, loader.batches, 1)
	require.Len(t, loader.batches[0], 2)

	snapshot := cache[product.ID]
	require.NotNil(t, snapshot)
	require.Equal(t, product.ID, snapshot.ID)
	require.Equal(t, stock, *snapshot.Inventory)

	require.Equal(t, 500, lineItems[0].SubtotalCents)
	require.Equal(t, 750, lineItems[1].SubtotalCents)
	require.Equal(t, enums.OrderStatusPending, lineItems[0].Status)
	require.Equal(t, product.Name, lineItems[0].Name)
}

func TestCalculateTotalsReconciles(t *testing.T) {
	lineItems := []models.OrderItem{
		{SubtotalCents: 500},
		{SubtotalCents: 750},
		{SubtotalCents: 125},
	}
	totals := CalculateTotals(lineItems)
	require.Equal(t, 1375, totals.SubtotalCents)
	require.Zero(t, totals.TaxCents)
	require.Zero(t, totals.ShippingCents)
	require.Zero(t, totals.DiscountCents)
	require.Equal(t, totals.SubtotalCents+totals.TaxCents+totals.ShippingCents-totals.DiscountCents, totals.TotalCents)
}
