package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/joaquinvega/mercado-backend/api/responses"
	"github.com/joaquinvega/mercado-backend/api/validators"
	"github.com/joaquinvega/mercado-backend/internal/cart"
	"github.com/joaquinvega/mercado-backend/pkg/db/models"
	"github.com/joaquinvega/mercado-backend/pkg/enums"
	pkgerrors "github.com/joaquinvega/mercado-backend/pkg/errors"
	"github.com/joaquinvega/mercado-backend/pkg/logger"
)

type cartItemView struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	SellerID       uuid.UUID `json:"seller_id"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int       `json:"unit_price_cents"`
}

type cartView struct {
	ID            uuid.UUID      `json:"id"`
	Status        string         `json:"status"`
	Currency      enums.Currency `json:"currency"`
	SubtotalCents int            `json:"subtotal_cents"`
	ItemCount     int            `json:"item_count"`
	Items         []cartItemView `json:"items"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func toCartView(record *models.Cart) cartView {
	view := cartView{
		ID:            record.ID,
		Status:        string(record.Status),
		Currency:      record.Currency,
		SubtotalCents: record.SubtotalCents,
		ItemCount:     record.ItemCount,
		Items:         make([]cartItemView, 0, len(record.Items)),
		UpdatedAt:     record.UpdatedAt,
	}
	for _, item := range record.Items {
		view.Items = append(view.Items, cartItemView{
			ID:             item.ID,
			ProductID:      item.ProductID,
			SellerID:       item.SellerID,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		})
	}
	return view
}

// CartFetch returns the caller's active cart, creating one on first use.
func CartFetch(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.GetActive(r.Context(), tenantID, actor.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartView(record))
	}
}

type cartAddItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=1000"`
}

// CartAddItem adds a product to the cart or bumps the existing line quantity.
func CartAddItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req cartAddItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := uuid.Parse(req.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		record, err := svc.AddItem(r.Context(), tenantID, actor.UserID, cart.AddItemInput{
			ProductID: productID,
			Quantity:  req.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toCartView(record))
	}
}

// CartRemoveItem drops a line from the cart.
func CartRemoveItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rawItemID := strings.TrimSpace(chi.URLParam(r, "itemID"))
		itemID, err := uuid.Parse(rawItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart item id"))
			return
		}

		record, err := svc.RemoveItem(r.Context(), tenantID, actor.UserID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartView(record))
	}
}
