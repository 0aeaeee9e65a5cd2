package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/joaquinvega/mercado-backend/pkg/db/models"
	"github.com/joaquinvega/mercado-backend/pkg/enums"
	"github.com/joaquinvega/mercado-backend/pkg/outbox"
	"github.com/joaquinvega/mercado-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// inventoryLedger is the single mutation path for stock counters.
type inventoryLedger interface {
	Deduct(ctx context.Context, tx *gorm.DB, snapshot *models.Product, orderID uuid.UUID, qty int) error
	Restore(ctx context.Context, tx *gorm.DB, productID, orderID uuid.UUID, qty int) error
}

// productLoader is the slice of the catalog the validation pass needs.
type productLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// Repository defines persistence operations for order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListForUser(ctx context.Context, tenantID *uuid.UUID, userID uuid.UUID, filters ListFilters, params pagination.Params) ([]models.Order, string, error)
	ListForSeller(ctx context.Context, sellerID uuid.UUID, filters ListFilters, params pagination.Params) ([]models.Order, string, error)
	UpdateOrderIfStatus(ctx context.Context, id uuid.UUID, current enums.OrderStatus, updates map[string]any) (bool, error)
	UpdateItemsStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
	UpdateSellerItemsStatus(ctx context.Context, orderID, sellerID uuid.UUID, status enums.OrderStatus) error
}
