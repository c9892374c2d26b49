package payment

// Money is an amount in the configured currency, serialized the way the
// processor expects it (string value, two decimals).
type Money struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

// AmountBreakdown itemizes the charge.
type AmountBreakdown struct {
	ItemTotal Money `json:"item_total"`
	Shipping  Money `json:"shipping"`
	TaxTotal  Money `json:"tax_total"`
}

// Amount is the total with its breakdown.
type Amount struct {
	CurrencyCode string           `json:"currency_code"`
	Value        string           `json:"value"`
	Breakdown    *AmountBreakdown `json:"breakdown,omitempty"`
}

// Item is one priced line forwarded to the processor.
type Item struct {
	Name       string `json:"name"`
	Quantity   string `json:"quantity"`
	UnitAmount Money  `json:"unit_amount"`
}

// Name wraps the processor's structured name forms.
type Name struct {
	FullName  string `json:"full_name,omitempty"`
	GivenName string `json:"given_name,omitempty"`
	Surname   string `json:"surname,omitempty"`
}

// Address is the processor's structured postal address.
type Address struct {
	AddressLine1 string `json:"address_line_1,omitempty"`
	AddressLine2 string `json:"address_line_2,omitempty"`
	AdminArea2   string `json:"admin_area_2,omitempty"`
	AdminArea1   string `json:"admin_area_1,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	CountryCode  string `json:"country_code,omitempty"`
}

// ShippingDetail pairs a recipient name with a destination address.
type ShippingDetail struct {
	Name    *Name    `json:"name,omitempty"`
	Address *Address `json:"address,omitempty"`
}

// PurchaseUnit is the processor's order line container.
type PurchaseUnit struct {
	InvoiceID string          `json:"invoice_id,omitempty"`
	Amount    Amount          `json:"amount"`
	Items     []Item          `json:"items,omitempty"`
	Shipping  *ShippingDetail `json:"shipping,omitempty"`
	Payments  *payments       `json:"payments,omitempty"`
}

type payments struct {
	Captures []captureDetail `json:"captures,omitempty"`
}

type captureDetail struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount Money  `json:"amount"`
}

// Payer identifies who approved the payment.
type Payer struct {
	Name         *Name  `json:"name,omitempty"`
	EmailAddress string `json:"email_address,omitempty"`
	PayerID      string `json:"payer_id,omitempty"`
}

// ApplicationContext customizes the processor's approval page.
type ApplicationContext struct {
	BrandName          string `json:"brand_name,omitempty"`
	ReturnURL          string `json:"return_url,omitempty"`
	CancelURL          string `json:"cancel_url,omitempty"`
	ShippingPreference string `json:"shipping_preference,omitempty"`
}

// CreateOrderRequest opens a payment session with an itemized charge.
type CreateOrderRequest struct {
	Intent             string              `json:"intent"`
	PurchaseUnits      []PurchaseUnit      `json:"purchase_units"`
	ApplicationContext *ApplicationContext `json:"application_context,omitempty"`
}

// CaptureResult is what the service reads out of a successful capture:
// everything else in the processor response stays opaque.
type CaptureResult struct {
	SessionID      string
	Status         string
	TransactionID  string
	CapturedAmount string
	Payer          Payer
	Shipping       *ShippingDetail
}

type orderResponse struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	Payer         *Payer         `json:"payer,omitempty"`
	PurchaseUnits []PurchaseUnit `json:"purchase_units,omitempty"`
	Message       string         `json:"message,omitempty"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}
