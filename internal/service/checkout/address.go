package checkout

import (
	"net/url"
	"strings"

	"github.com/Additional-Code/checkout/internal/dto"
	"github.com/Additional-Code/checkout/internal/entity"
	"github.com/Additional-Code/checkout/internal/payment"
)

// destinationCountry picks the country the order ships to: the form when the
// customer filled it in, otherwise whatever the processor reported.
func destinationCountry(form *dto.ShippingForm, result *payment.CaptureResult) string {
	if form.Complete() && form.Country != "" {
		return form.Country
	}
	if result != nil && result.Shipping != nil && result.Shipping.Address != nil {
		return result.Shipping.Address.CountryCode
	}
	if form != nil {
		return form.Country
	}
	return ""
}

// paymentShipping forwards a completed form to the processor so the approval
// page shows the address the customer already typed.
func paymentShipping(form *dto.ShippingForm) *payment.ShippingDetail {
	if !form.Complete() {
		return nil
	}
	return &payment.ShippingDetail{
		Name: &payment.Name{
			FullName: strings.TrimSpace(form.FirstName + " " + form.LastName),
		},
		Address: &payment.Address{
			AddressLine1: form.Address1,
			AddressLine2: form.Address2,
			AdminArea2:   form.City,
			AdminArea1:   form.State,
			PostalCode:   form.Zip,
			CountryCode:  form.Country,
		},
	}
}

// reconcileShippingAddress resolves the order's destination. A completed
// checkout form wins outright; otherwise the record is synthesized from the
// processor's capture response. The source tag records which one happened.
func reconcileShippingAddress(form *dto.ShippingForm, result *payment.CaptureResult) *entity.ShippingAddress {
	if form.Complete() {
		return &entity.ShippingAddress{
			Email:     form.Email,
			FirstName: form.FirstName,
			LastName:  form.LastName,
			Address1:  form.Address1,
			Address2:  form.Address2,
			City:      form.City,
			State:     form.State,
			Zip:       form.Zip,
			Country:   form.Country,
			Phone:     form.Phone,
			Source:    entity.AddressSourceCheckoutForm,
		}
	}

	addr := &entity.ShippingAddress{Source: entity.AddressSourceProcessor}
	if form != nil {
		addr.Email = form.Email
		addr.Phone = form.Phone
	}
	if addr.Email == "" && result != nil {
		addr.Email = result.Payer.EmailAddress
	}

	if result == nil || result.Shipping == nil {
		if result != nil && result.Payer.Name != nil {
			addr.FirstName = result.Payer.Name.GivenName
			addr.LastName = result.Payer.Name.Surname
		}
		return addr
	}

	if name := result.Shipping.Name; name != nil {
		addr.FirstName, addr.LastName = splitFullName(name.FullName)
		if addr.FirstName == "" {
			addr.FirstName = name.GivenName
			addr.LastName = name.Surname
		}
	}
	if addr.FirstName == "" && result.Payer.Name != nil {
		addr.FirstName = result.Payer.Name.GivenName
		addr.LastName = result.Payer.Name.Surname
	}
	if a := result.Shipping.Address; a != nil {
		addr.Address1 = a.AddressLine1
		addr.Address2 = a.AddressLine2
		addr.City = a.AdminArea2
		addr.State = a.AdminArea1
		addr.Zip = a.PostalCode
		addr.Country = a.CountryCode
	}
	return addr
}

// splitFullName separates a processor full name into given name and surname.
// Everything after the first space counts as surname.
func splitFullName(full string) (string, string) {
	full = strings.TrimSpace(full)
	if full == "" {
		return "", ""
	}
	parts := strings.SplitN(full, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}

// orderItems snapshots cart lines into order items at the prices charged.
func orderItems(lines []dto.CartLine) []*entity.OrderItem {
	items := make([]*entity.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, &entity.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.Price,
		})
	}
	return items
}

// correlationKey extracts the order number from a return callback. The
// processor echoes it under different names depending on flow and legacy
// settings, so several keys are tried in order.
func correlationKey(params url.Values) string {
	for _, key := range []string{"invoice", "orderNumber", "order_number", "custom", "item_number"} {
		if v := strings.TrimSpace(params.Get(key)); v != "" {
			return v
		}
	}
	return ""
}

// mergeReturnFields fills empty order fields from return callback parameters
// and reports whether anything changed. Populated fields are left alone, so
// replaying the callback is harmless.
func mergeReturnFields(order *entity.Order, params url.Values) bool {
	changed := false

	if order.ShippingAddress == nil {
		order.ShippingAddress = &entity.ShippingAddress{Source: entity.AddressSourceReturn}
		changed = true
	}
	addr := order.ShippingAddress

	fill := func(dst *string, key string) {
		if *dst != "" {
			return
		}
		if v := strings.TrimSpace(params.Get(key)); v != "" {
			*dst = v
			changed = true
		}
	}

	fill(&addr.Email, "payer_email")
	fill(&addr.FirstName, "first_name")
	fill(&addr.LastName, "last_name")
	fill(&addr.Address1, "address_street")
	fill(&addr.City, "address_city")
	fill(&addr.State, "address_state")
	fill(&addr.Zip, "address_zip")
	fill(&addr.Country, "address_country_code")
	fill(&addr.Phone, "contact_phone")

	if order.Billing == nil {
		order.Billing = &entity.BillingRecord{}
	}
	fill(&order.Billing.TransactionID, "txn_id")
	fill(&order.Billing.PaymentStatus, "payment_status")
	fill(&order.Billing.PayerID, "payer_id")
	fill(&order.Billing.PayerEmail, "payer_email")

	return changed
}
