package checkout

import (
	"strconv"
	"strings"

	"github.com/Additional-Code/checkout/internal/dto"
)

// validateLines checks the submitted cart and returns the offending field
// names, empty when the cart is acceptable.
func validateLines(lines []dto.CartLine) []string {
	if len(lines) == 0 {
		return []string{"items"}
	}

	var fields []string
	for i, line := range lines {
		if strings.TrimSpace(line.ProductID) == "" {
			fields = append(fields, indexed(i, "productId"))
		}
		if strings.TrimSpace(line.Name) == "" {
			fields = append(fields, indexed(i, "name"))
		}
		if line.Quantity <= 0 {
			fields = append(fields, indexed(i, "quantity"))
		}
		if line.Price < 0 {
			fields = append(fields, indexed(i, "price"))
		}
		if line.ShippingCostOverride < 0 {
			fields = append(fields, indexed(i, "shippingCostOverride"))
		}
	}
	return fields
}

// validateForm checks the shipping form when one was submitted. A nil or
// unstarted form is fine: the processor collects the address in that case. A
// form the customer started has to carry enough to ship to.
func validateForm(form *dto.ShippingForm) []string {
	if !form.Complete() {
		return nil
	}

	var fields []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"email", form.Email},
		{"address1", form.Address1},
		{"city", form.City},
		{"zip", form.Zip},
		{"country", form.Country},
	} {
		if strings.TrimSpace(f.value) == "" {
			fields = append(fields, f.name)
		}
	}
	return fields
}

func indexed(i int, field string) string {
	return "items[" + strconv.Itoa(i) + "]." + field
}
