package notification

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/checkout/internal/config"
)

// OrderLine is one purchased item as rendered in the confirmation mail.
type OrderLine struct {
	Name      string
	SKU       string
	ImageURL  string
	Quantity  int
	UnitPrice float64
}

// OrderSummary carries everything the confirmation template needs.
type OrderSummary struct {
	OrderNumber   string
	CustomerName  string
	CustomerEmail string
	Lines         []OrderLine
	Subtotal      float64
	Shipping      float64
	Tax           float64
	Total         float64
}

// Mailer sends transactional mail. Failures are the caller's to log; no
// mailer error may fail a payment flow.
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, summary OrderSummary) error
}

// Module provides the configured mailer to Fx.
var Module = fx.Provide(NewMailer)

// NewMailer returns an SMTP-backed mailer, or a noop one when mail is
// disabled.
func NewMailer(cfg config.Config, logger *zap.Logger) Mailer {
	if !cfg.Mail.Enabled {
		logger.Info("mail disabled; using noop mailer")
		return noopMailer{}
	}
	return &smtpMailer{cfg: cfg.Mail, send: smtp.SendMail}
}

type noopMailer struct{}

func (noopMailer) SendOrderConfirmation(context.Context, OrderSummary) error { return nil }

// sendFunc matches smtp.SendMail, injectable for tests.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type smtpMailer struct {
	cfg  config.Mail
	send sendFunc
}

func (m *smtpMailer) SendOrderConfirmation(ctx context.Context, summary OrderSummary) error {
	if summary.CustomerEmail == "" {
		return fmt.Errorf("order %s has no customer email", summary.OrderNumber)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	html, err := renderOrderConfirmation(summary)
	if err != nil {
		return fmt.Errorf("render confirmation for order %s: %w", summary.OrderNumber, err)
	}

	var msg strings.Builder
	msg.WriteString("From: " + m.cfg.From + "\r\n")
	msg.WriteString("To: " + summary.CustomerEmail + "\r\n")
	msg.WriteString("Subject: Order Confirmation #" + summary.OrderNumber + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(html)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	return m.send(addr, auth, m.cfg.From, []string{summary.CustomerEmail}, []byte(msg.String()))
}
