package dto

// CartLine is one cart entry as submitted by the storefront.
type CartLine struct {
	ProductID            string  `json:"productId"`
	Name                 string  `json:"name"`
	Price                float64 `json:"price"`
	Quantity             int     `json:"quantity"`
	SKU                  string  `json:"sku,omitempty"`
	ShippingCostOverride float64 `json:"shippingCostOverride,omitempty"`
}

// ShippingForm is the checkout address form. A form with a first name is
// treated as complete and wins over the processor-supplied address.
type ShippingForm struct {
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
}

// Complete reports whether the form can seed the shipping record on its own.
func (f *ShippingForm) Complete() bool {
	return f != nil && f.FirstName != ""
}

// SessionRequest asks the processor to open a payment session.
type SessionRequest struct {
	Items        []CartLine    `json:"items"`
	ShippingInfo *ShippingForm `json:"shippingInfo,omitempty"`
}

// SessionResponse returns the processor's opaque session identifier.
type SessionResponse struct {
	SessionID string `json:"sessionId"`
}

// CaptureRequest finalises an approved session into an order.
type CaptureRequest struct {
	SessionID    string        `json:"sessionId"`
	Items        []CartLine    `json:"items"`
	ShippingInfo *ShippingForm `json:"shippingInfo,omitempty"`
	UserID       *int64        `json:"userId,omitempty"`
}

// CaptureResponse reports the order number, the only identifier the client
// ever sees.
type CaptureResponse struct {
	OrderNumber string  `json:"orderNumber"`
	Status      string  `json:"status"`
	Total       float64 `json:"total"`
}

// EstimateRequest previews shipping cost for a destination.
type EstimateRequest struct {
	CountryCode string     `json:"countryCode"`
	Items       []CartLine `json:"items"`
}

// EstimateResponse is the zone engine result for display at checkout.
type EstimateResponse struct {
	ShippingCost float64 `json:"shippingCost"`
	ZoneName     string  `json:"zoneName"`
	Breakdown    string  `json:"breakdown"`
	BaseZoneCost float64 `json:"baseZoneCost"`
}
