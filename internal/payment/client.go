package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/checkout/internal/config"
	"github.com/Additional-Code/checkout/pkg/errorbank"
)

var clientTracer = otel.Tracer("github.com/Additional-Code/checkout/payment")

// Processor is the slice of the external payment API this service consumes.
type Processor interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest, requestID string) (string, error)
	CaptureOrder(ctx context.Context, sessionID string, requestID string) (*CaptureResult, error)
}

// Client talks to the processor's REST API. Access tokens from the
// client-credentials grant are cached until shortly before expiry behind a
// mutex, so concurrent requests share one token instead of hammering the
// token endpoint per call.
type Client struct {
	cfg    config.Payment
	http   *http.Client
	logger *zap.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// Module provides the processor client to Fx.
var Module = fx.Provide(
	fx.Annotate(NewClient, fx.As(new(Processor))),
)

// NewClient builds a Client from payment configuration.
func NewClient(cfg config.Config, logger *zap.Logger) *Client {
	return &Client{
		cfg:    cfg.Payment,
		http:   &http.Client{Timeout: cfg.Payment.RequestTimeout},
		logger: logger,
	}
}

// CreateOrder submits a priced order and returns the processor's session id.
// No local state is created; failures are safe to retry from the caller.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest, requestID string) (string, error) {
	ctx, span := clientTracer.Start(ctx, "PaymentClient.CreateOrder")
	defer span.End()

	if req.Intent == "" {
		req.Intent = "CAPTURE"
	}

	var resp orderResponse
	if err := c.call(ctx, http.MethodPost, "/v2/checkout/orders", requestID, req, &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create order failed")
		return "", err
	}

	span.SetAttributes(attribute.String("payment.session_id", resp.ID))
	return resp.ID, nil
}

// CaptureOrder finalises an approved session into a charge and extracts the
// payer identity, transaction id, and any structured shipping address.
func (c *Client) CaptureOrder(ctx context.Context, sessionID string, requestID string) (*CaptureResult, error) {
	ctx, span := clientTracer.Start(ctx, "PaymentClient.CaptureOrder", trace.WithAttributes(
		attribute.String("payment.session_id", sessionID),
	))
	defer span.End()

	if sessionID == "" {
		return nil, errorbank.BadRequest("session id is required")
	}

	path := fmt.Sprintf("/v2/checkout/orders/%s/capture", url.PathEscape(sessionID))

	var resp orderResponse
	if err := c.call(ctx, http.MethodPost, path, requestID, struct{}{}, &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "capture failed")
		return nil, err
	}

	result := &CaptureResult{
		SessionID: resp.ID,
		Status:    resp.Status,
	}
	if resp.Payer != nil {
		result.Payer = *resp.Payer
	}
	if len(resp.PurchaseUnits) > 0 {
		unit := resp.PurchaseUnits[0]
		result.Shipping = unit.Shipping
		result.CapturedAmount = unit.Amount.Value
		if unit.Payments != nil && len(unit.Payments.Captures) > 0 {
			capture := unit.Payments.Captures[0]
			result.TransactionID = capture.ID
			if result.CapturedAmount == "" {
				result.CapturedAmount = capture.Amount.Value
			}
		}
	}

	return result, nil
}

// call performs an authenticated JSON request. Transport-level failures are
// retried with backoff; processor-level rejections are returned immediately
// because retrying a declined business operation must not happen.
func (c *Client) call(ctx context.Context, method, path, requestID string, payload, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errorbank.Internal("encode processor request", errorbank.WithCause(err))
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return errorbank.Unavailable("payment system unavailable", errorbank.WithCause(ctx.Err()))
			case <-time.After(c.cfg.RetryBackoff * time.Duration(attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			return errorbank.Internal("build processor request", errorbank.WithCause(err))
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		if requestID != "" {
			req.Header.Set("PayPal-Request-Id", requestID)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			c.logger.Warn("processor request failed", zap.String("path", path), zap.Int("attempt", attempt), zap.Error(err))
			continue
		}

		err = c.decode(resp, out)
		if err == nil {
			return nil
		}
		// Business rejections come back as AppErrors and are final.
		if appErr := errorbank.From(err); appErr.Kind() == errorbank.KindPaymentRejected {
			return err
		}
		lastErr = err
		if resp.StatusCode < http.StatusInternalServerError {
			return err
		}
		c.logger.Warn("processor returned server error", zap.String("path", path), zap.Int("status", resp.StatusCode), zap.Int("attempt", attempt))
	}

	return errorbank.Unavailable("payment system unavailable", errorbank.WithCause(lastErr))
}

func (c *Client) decode(resp *http.Response, out any) error {
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errorbank.Unavailable("read processor response", errorbank.WithCause(err))
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var failure orderResponse
		_ = json.Unmarshal(raw, &failure)
		message := failure.Message
		if message == "" {
			message = strings.TrimSpace(string(raw))
		}
		if message == "" {
			message = resp.Status
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return errorbank.Unavailable(message, errorbank.WithDetail("status", resp.StatusCode))
		}
		return errorbank.PaymentRejected(message, errorbank.WithDetail("status", resp.StatusCode))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errorbank.Internal("decode processor response", errorbank.WithCause(err))
	}
	return nil
}

// accessToken returns a cached token, refreshing it when missing or within
// the configured slack of expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Until(c.tokenExpiry) > c.cfg.TokenSlack {
		return c.token, nil
	}

	form := strings.NewReader("grant_type=client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/oauth2/token", form)
	if err != nil {
		return "", errorbank.Internal("build token request", errorbank.WithCause(err))
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.cfg.ClientID + ":" + c.cfg.ClientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errorbank.Unavailable("payment system unavailable", errorbank.WithCause(err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		c.logger.Error("token exchange failed", zap.Int("status", resp.StatusCode), zap.ByteString("body", raw))
		return "", errorbank.Unavailable("payment system unavailable", errorbank.WithDetail("status", resp.StatusCode))
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", errorbank.Unavailable("decode token response", errorbank.WithCause(err))
	}
	if tok.AccessToken == "" {
		return "", errorbank.Unavailable("payment system unavailable")
	}

	c.token = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return c.token, nil
}
