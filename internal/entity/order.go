package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Order statuses. Capture creates orders directly in StatusPaid; the
// remaining values belong to fulfilment flows outside this service.
const (
	StatusPending    = "pending"
	StatusPaid       = "paid"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

// Address source tags recording which collaborator supplied the record.
const (
	AddressSourceCheckoutForm = "checkout_form"
	AddressSourceProcessor    = "processor"
	AddressSourceReturn       = "processor_return"
)

// ShippingAddress is the reconciled destination for an order. Source records
// where the data came from; empty fields may later be filled by the return
// callback but populated fields are never overwritten.
type ShippingAddress struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
	Phone     string `json:"phone,omitempty"`
	Source    string `json:"source"`
}

// BillingRecord holds processor-side payment metadata kept for support and
// audit. Nothing in the service reads it back.
type BillingRecord struct {
	ProcessorOrderID string `json:"processorOrderId,omitempty"`
	TransactionID    string `json:"transactionId,omitempty"`
	PayerID          string `json:"payerId,omitempty"`
	PayerEmail       string `json:"payerEmail,omitempty"`
	PaymentStatus    string `json:"paymentStatus,omitempty"`
}

// Order is the persisted aggregate produced by a successful capture.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID              int64            `bun:",pk,autoincrement" json:"id"`
	Number          string           `bun:"number,notnull" json:"number"`
	Status          string           `bun:"status,notnull" json:"status"`
	Subtotal        float64          `bun:"subtotal,notnull" json:"subtotal"`
	Shipping        float64          `bun:"shipping,notnull" json:"shipping"`
	Tax             float64          `bun:"tax,notnull" json:"tax"`
	Total           float64          `bun:"total,notnull" json:"total"`
	UserID          *int64           `bun:"user_id" json:"userId,omitempty"`
	ShippingAddress *ShippingAddress `bun:"shipping_address,type:jsonb" json:"shippingAddress,omitempty"`
	Billing         *BillingRecord   `bun:"billing_address,type:jsonb" json:"billingAddress,omitempty"`
	Items           []*OrderItem     `bun:"rel:has-many,join:id=order_id" json:"items,omitempty"`
	CreatedAt       time.Time        `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt       time.Time        `bun:"updated_at,nullzero" json:"updatedAt"`
}

// OrderItem snapshots one purchased line. UnitPrice is the price paid at
// purchase time and is never re-read from the catalog.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items"`

	ID        int64   `bun:",pk,autoincrement" json:"id"`
	OrderID   int64   `bun:"order_id,notnull" json:"orderId"`
	ProductID string  `bun:"product_id,notnull" json:"productId"`
	Quantity  int     `bun:"quantity,notnull" json:"quantity"`
	UnitPrice float64 `bun:"unit_price,notnull" json:"unitPrice"`
}
