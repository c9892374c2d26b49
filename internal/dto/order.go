package dto

import (
	"time"

	"github.com/Additional-Code/checkout/internal/entity"
)

// OrderItemResponse is one snapshotted line of an order.
type OrderItemResponse struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

// OrderResponse represents an order as exposed via transport layers. The
// internal id stays internal; Number is the client-facing reference.
type OrderResponse struct {
	Number          string                  `json:"number"`
	Status          string                  `json:"status"`
	Subtotal        float64                 `json:"subtotal"`
	Shipping        float64                 `json:"shipping"`
	Tax             float64                 `json:"tax"`
	Total           float64                 `json:"total"`
	ShippingAddress *entity.ShippingAddress `json:"shippingAddress,omitempty"`
	Items           []OrderItemResponse     `json:"items,omitempty"`
	CreatedAt       time.Time               `json:"createdAt"`
}

// FromOrder maps the persisted aggregate onto the transport shape.
func FromOrder(order *entity.Order) OrderResponse {
	resp := OrderResponse{
		Number:          order.Number,
		Status:          order.Status,
		Subtotal:        order.Subtotal,
		Shipping:        order.Shipping,
		Tax:             order.Tax,
		Total:           order.Total,
		ShippingAddress: order.ShippingAddress,
		CreatedAt:       order.CreatedAt,
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return resp
}
