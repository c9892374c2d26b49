package checkout

import "time"

// OrderPaidItem is one snapshotted line carried on the event.
type OrderPaidItem struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

// OrderPaidEvent is emitted after a captured payment is persisted. The
// notification worker consumes it to send the confirmation mail, keeping
// the mail channel off the payment-critical path.
type OrderPaidEvent struct {
	OrderNumber   string          `json:"orderNumber"`
	CustomerEmail string          `json:"customerEmail"`
	CustomerName  string          `json:"customerName,omitempty"`
	Items         []OrderPaidItem `json:"items"`
	Subtotal      float64         `json:"subtotal"`
	Shipping      float64         `json:"shipping"`
	Tax           float64         `json:"tax"`
	Total         float64         `json:"total"`
	CreatedAt     time.Time       `json:"createdAt"`
}
