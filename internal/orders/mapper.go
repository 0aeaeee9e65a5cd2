package orders

import (
	"github.com/joaquinvega/mercado-backend/pkg/db/models"
)

// ToSummary projects an order into its list representation.
func ToSummary(order *models.Order) OrderSummary {
	count := 0
	for _, item := range order.Items {
		count += item.Quantity
	}
	return OrderSummary{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		TotalCents:  order.TotalCents,
		Currency:    order.Currency,
		ItemCount:   count,
		CreatedAt:   order.CreatedAt,
	}
}

// ToDetail projects an order plus its items and payment state into the full
// client-facing view. Payment status is surfaced read-only.
func ToDetail(order *models.Order) *OrderDetail {
	detail := &OrderDetail{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		Status:          order.Status,
		SubtotalCents:   order.SubtotalCents,
		TaxCents:        order.TaxCents,
		ShippingCents:   order.ShippingCents,
		DiscountCents:   order.DiscountCents,
		TotalCents:      order.TotalCents,
		Currency:        order.Currency,
		ShippingAddress: order.ShippingAddress,
		BillingAddress:  order.BillingAddress,
		Notes:           order.Notes,
		TrackingNumber:  order.TrackingNumber,
		ShippingCarrier: order.ShippingCarrier,
		PaidAt:          order.PaidAt,
		ShippedAt:       order.ShippedAt,
		DeliveredAt:     order.DeliveredAt,
		CancelledAt:     order.CancelledAt,
		RefundedAt:      order.RefundedAt,
		CreatedAt:       order.CreatedAt,
	}
	if order.Payment != nil {
		status := order.Payment.Status
		detail.PaymentStatus = &status
	}
	detail.Items = make([]OrderItemView, 0, len(order.Items))
	for _, item := range order.Items {
		detail.Items = append(detail.Items, OrderItemView{
			ID:             item.ID,
			ProductID:      item.ProductID,
			SellerID:       item.SellerID,
			Name:           item.Name,
			SKU:            item.SKU,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
			SubtotalCents:  item.SubtotalCents,
			Status:         item.Status,
		})
	}
	return detail
}
