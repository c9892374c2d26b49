package notification

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/checkout/internal/entity"
	"github.com/Additional-Code/checkout/internal/messaging"
	"github.com/Additional-Code/checkout/internal/notification"
	checkoutsvc "github.com/Additional-Code/checkout/internal/service/checkout"
)

type fakeCatalog struct {
	products []*entity.Product
	err      error
	gotIDs   []string
}

func (f *fakeCatalog) FindByIDs(_ context.Context, ids []string) ([]*entity.Product, error) {
	f.gotIDs = ids
	return f.products, f.err
}

type fakeMailer struct {
	sent []notification.OrderSummary
	err  error
}

func (f *fakeMailer) SendOrderConfirmation(_ context.Context, summary notification.OrderSummary) error {
	f.sent = append(f.sent, summary)
	return f.err
}

func paidEventMessage(t *testing.T) messaging.Message {
	t.Helper()
	event := checkoutsvc.OrderPaidEvent{
		OrderNumber:   "250111021530",
		CustomerEmail: "buyer@example.com",
		CustomerName:  "Dana Smith",
		Items: []checkoutsvc.OrderPaidItem{
			{ProductID: "sku-1", Quantity: 2, UnitPrice: 400},
			{ProductID: "sku-unknown", Quantity: 1, UnitPrice: 200},
		},
		Subtotal: 1000,
		Shipping: 25,
		Tax:      80,
		Total:    1105,
	}
	value, err := json.Marshal(event)
	require.NoError(t, err)
	return messaging.Message{Topic: "orders.paid", Value: value}
}

func TestOrderPaidHandlerSendsEnrichedMail(t *testing.T) {
	catalog := &fakeCatalog{products: []*entity.Product{
		{ID: "sku-1", Name: "Widget", SKU: "WID-1", ImageURL: "https://img/widget.png"},
	}}
	mailer := &fakeMailer{}
	handler := orderPaidHandler(catalog, mailer, zap.NewNop())

	require.NoError(t, handler(context.Background(), paidEventMessage(t)))

	assert.Equal(t, []string{"sku-1", "sku-unknown"}, catalog.gotIDs)
	require.Len(t, mailer.sent, 1)
	summary := mailer.sent[0]
	assert.Equal(t, "250111021530", summary.OrderNumber)
	assert.Equal(t, "buyer@example.com", summary.CustomerEmail)
	assert.Equal(t, 1105.0, summary.Total)

	require.Len(t, summary.Lines, 2)
	assert.Equal(t, "Widget", summary.Lines[0].Name)
	assert.Equal(t, "WID-1", summary.Lines[0].SKU)
	// Catalog misses keep the product id so the line still renders.
	assert.Equal(t, "sku-unknown", summary.Lines[1].Name)
}

func TestOrderPaidHandlerSwallowsMailFailure(t *testing.T) {
	mailer := &fakeMailer{err: assert.AnError}
	handler := orderPaidHandler(&fakeCatalog{}, mailer, zap.NewNop())

	require.NoError(t, handler(context.Background(), paidEventMessage(t)))
	assert.Len(t, mailer.sent, 1)
}

func TestOrderPaidHandlerRejectsMalformedPayload(t *testing.T) {
	mailer := &fakeMailer{}
	handler := orderPaidHandler(&fakeCatalog{}, mailer, zap.NewNop())

	err := handler(context.Background(), messaging.Message{Topic: "orders.paid", Value: []byte("{not json")})
	require.Error(t, err)
	assert.Empty(t, mailer.sent)
}
