package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/joaquinvega/mercado-backend/internal/catalog"
	"github.com/joaquinvega/mercado-backend/pkg/db/models"
	pkgerrors "github.com/joaquinvega/mercado-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AddItemInput carries the payload for adding a product to the cart.
type AddItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// Service exposes cart operations for the authenticated shopper.
type Service interface {
	GetActive(ctx context.Context, tenantID *uuid.UUID, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, tenantID *uuid.UUID, userID uuid.UUID, input AddItemInput) (*models.Cart, error)
	RemoveItem(ctx context.Context, tenantID *uuid.UUID, userID, itemID uuid.UUID) (*models.Cart, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	products catalog.Repository
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo Repository, tx txRunner, products catalog.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo, tx: tx, products: products}, nil
}

// GetActive returns the caller's active cart, creating an empty one on first use.
func (s *service) GetActive(ctx context.Context, tenantID *uuid.UUID, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	record, err := s.repo.FindActive(ctx, tenantID, userID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return s.repo.Create(ctx, &models.Cart{TenantID: tenantID, UserID: userID})
}

// AddItem puts a product in the cart, snapshotting its current price. Adding
// the same product again increases the quantity but keeps the original
// snapshot.
func (s *service) AddItem(ctx context.Context, tenantID *uuid.UUID, userID uuid.UUID, input AddItemInput) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var result *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		products := s.products.WithTx(tx)

		product, err := products.FindByID(ctx, input.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return err
		}
		if !product.Purchasable() {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not available")
		}

		record, err := repo.FindActive(ctx, tenantID, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			record, err = repo.Create(ctx, &models.Cart{
				TenantID: tenantID,
				UserID:   userID,
				Currency: product.Currency,
			})
		}
		if err != nil {
			return err
		}

		item, err := repo.FindItemByProduct(ctx, record.ID, product.ID)
		switch {
		case err == nil:
			item.Quantity += input.Quantity
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = &models.CartItem{
				CartID:         record.ID,
				ProductID:      product.ID,
				SellerID:       product.SellerID,
				Quantity:       input.Quantity,
				UnitPriceCents: product.PriceCents,
			}
		default:
			return err
		}
		if err := repo.SaveItem(ctx, item); err != nil {
			return err
		}
		if err := s.refreshTotals(ctx, repo, record.ID); err != nil {
			return err
		}

		result, err = repo.FindActive(ctx, tenantID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveItem drops a line from the cart and refreshes the running totals.
func (s *service) RemoveItem(ctx context.Context, tenantID *uuid.UUID, userID, itemID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}

	var result *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		record, err := repo.FindActive(ctx, tenantID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "no active cart")
			}
			return err
		}

		found := false
		for _, item := range record.Items {
			if item.ID == itemID {
				found = true
				break
			}
		}
		if !found {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}

		if err := repo.DeleteItem(ctx, record.ID, itemID); err != nil {
			return err
		}
		if err := s.refreshTotals(ctx, repo, record.ID); err != nil {
			return err
		}

		result, err = repo.FindActive(ctx, tenantID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) refreshTotals(ctx context.Context, repo Repository, cartID uuid.UUID) error {
	items, err := repo.FindItems(ctx, cartID)
	if err != nil {
		return err
	}
	subtotal := 0
	count := 0
	for _, item := range items {
		subtotal += item.UnitPriceCents * item.Quantity
		count += item.Quantity
	}
	return repo.UpdateTotals(ctx, cartID, subtotal, count)
}
