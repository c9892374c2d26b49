package notification

import (
	"context"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/checkout/internal/config"
)

func sampleSummary() OrderSummary {
	return OrderSummary{
		OrderNumber:   "250111021530",
		CustomerName:  "Dana Smith",
		CustomerEmail: "buyer@example.com",
		Lines: []OrderLine{
			{Name: "Widget", SKU: "WID-1", Quantity: 2, UnitPrice: 400},
			{Name: "Gadget", Quantity: 1, UnitPrice: 200},
		},
		Subtotal: 1000,
		Shipping: 25,
		Tax:      80,
		Total:    1105,
	}
}

func TestSendOrderConfirmationBuildsMessage(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	m := &smtpMailer{
		cfg: config.Mail{Host: "smtp.example.com", Port: 587, From: "shop@example.com"},
		send: func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
			return nil
		},
	}

	require.NoError(t, m.SendOrderConfirmation(context.Background(), sampleSummary()))

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "shop@example.com", gotFrom)
	assert.Equal(t, []string{"buyer@example.com"}, gotTo)

	body := string(gotMsg)
	assert.Contains(t, body, "Subject: Order Confirmation #250111021530")
	assert.Contains(t, body, "Content-Type: text/html")
	assert.Contains(t, body, "Dana Smith")
	assert.Contains(t, body, "Widget")
	assert.Contains(t, body, "$1105.00")
}

func TestSendOrderConfirmationRequiresRecipient(t *testing.T) {
	m := &smtpMailer{
		cfg: config.Mail{From: "shop@example.com"},
		send: func(string, smtp.Auth, string, []string, []byte) error {
			t.Fatal("send must not be called without a recipient")
			return nil
		},
	}

	summary := sampleSummary()
	summary.CustomerEmail = ""
	require.Error(t, m.SendOrderConfirmation(context.Background(), summary))
}

func TestNewMailerDisabledIsNoop(t *testing.T) {
	cfg := config.Config{}
	cfg.Mail.Enabled = false

	mailer := NewMailer(cfg, zap.NewNop())
	require.NoError(t, mailer.SendOrderConfirmation(context.Background(), sampleSummary()))
}
