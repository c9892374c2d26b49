package notification

import (
	"html/template"
	"strconv"
	"strings"
)

var confirmationTmpl = template.Must(template.New("order_confirmation").Funcs(template.FuncMap{
	"money": formatMoney,
}).Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Order Confirmation</title>
</head>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #1a365d;">Thank you for your order{{if .CustomerName}}, {{.CustomerName}}{{end}}!</h1>
  <p>Your order <strong>#{{.OrderNumber}}</strong> has been received and paid.</p>
  <table style="width: 100%; border-collapse: collapse;">
    <tr>
      <th style="text-align: left; border-bottom: 1px solid #e0e0e0; padding: 8px;">Item</th>
      <th style="text-align: right; border-bottom: 1px solid #e0e0e0; padding: 8px;">Qty</th>
      <th style="text-align: right; border-bottom: 1px solid #e0e0e0; padding: 8px;">Price</th>
    </tr>
    {{range .Lines}}
    <tr>
      <td style="padding: 8px;">{{.Name}}{{if .SKU}} <span style="color: #999;">({{.SKU}})</span>{{end}}</td>
      <td style="text-align: right; padding: 8px;">{{.Quantity}}</td>
      <td style="text-align: right; padding: 8px;">${{money .UnitPrice}}</td>
    </tr>
    {{end}}
  </table>
  <table style="width: 100%; margin-top: 16px;">
    <tr><td>Subtotal</td><td style="text-align: right;">${{money .Subtotal}}</td></tr>
    <tr><td>Shipping</td><td style="text-align: right;">${{money .Shipping}}</td></tr>
    <tr><td>Tax</td><td style="text-align: right;">${{money .Tax}}</td></tr>
    <tr><td><strong>Total</strong></td><td style="text-align: right;"><strong>${{money .Total}}</strong></td></tr>
  </table>
  <p style="color: #666; font-size: 14px; margin-top: 30px;">
    Keep your order number for any support request.
  </p>
</body>
</html>`))

func renderOrderConfirmation(summary OrderSummary) (string, error) {
	var out strings.Builder
	if err := confirmationTmpl.Execute(&out, summary); err != nil {
		return "", err
	}
	return out.String(), nil
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
