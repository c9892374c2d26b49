package checkout

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/checkout/internal/config"
	"github.com/Additional-Code/checkout/internal/dto"
	"github.com/Additional-Code/checkout/internal/entity"
	"github.com/Additional-Code/checkout/internal/messaging"
	"github.com/Additional-Code/checkout/internal/ordernumber"
	orderrepo "github.com/Additional-Code/checkout/internal/repository/order"
	"github.com/Additional-Code/checkout/internal/payment"
	"github.com/Additional-Code/checkout/internal/shipping"
	"github.com/Additional-Code/checkout/pkg/errorbank"
)

type fakeOrders struct {
	created       []*entity.Order
	createErr     error
	existing      map[string]*entity.Order
	byTransaction map[string]*entity.Order
	updated       []*entity.Order
	updateErr     error
	getErr        error
}

func (f *fakeOrders) Create(_ context.Context, order *entity.Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, order)
	return nil
}

func (f *fakeOrders) ExistsByNumber(_ context.Context, number string) (bool, error) {
	_, ok := f.existing[number]
	return ok, nil
}

func (f *fakeOrders) GetByNumber(_ context.Context, number string) (*entity.Order, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if order, ok := f.existing[number]; ok {
		return order, nil
	}
	return nil, orderrepo.ErrNotFound
}

func (f *fakeOrders) FindByTransactionID(_ context.Context, txnID string) (*entity.Order, error) {
	if order, ok := f.byTransaction[txnID]; ok {
		return order, nil
	}
	return nil, orderrepo.ErrNotFound
}

func (f *fakeOrders) UpdateAddresses(_ context.Context, order *entity.Order) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, order)
	return nil
}

type fakeZones struct {
	zones []*entity.ShippingZone
	err   error
}

func (f *fakeZones) ListActive(context.Context) ([]*entity.ShippingZone, error) {
	return f.zones, f.err
}

type fakeProcessor struct {
	sessionID      string
	createErr      error
	createRequests []payment.CreateOrderRequest
	createKeys     []string

	captureResult *payment.CaptureResult
	captureErr    error
	captureKeys   []string
}

func (f *fakeProcessor) CreateOrder(_ context.Context, req payment.CreateOrderRequest, requestID string) (string, error) {
	f.createRequests = append(f.createRequests, req)
	f.createKeys = append(f.createKeys, requestID)
	if f.createErr != nil {
		return "", f.createErr
	}
	return f.sessionID, nil
}

func (f *fakeProcessor) CaptureOrder(_ context.Context, sessionID string, requestID string) (*payment.CaptureResult, error) {
	f.captureKeys = append(f.captureKeys, requestID)
	if f.captureErr != nil {
		return nil, f.captureErr
	}
	return f.captureResult, nil
}

type capturingPublisher struct {
	keys   [][]byte
	values [][]byte
}

func (p *capturingPublisher) Publish(_ context.Context, key []byte, value []byte) error {
	p.keys = append(p.keys, key)
	p.values = append(p.values, value)
	return nil
}

func (p *capturingPublisher) Consume(context.Context, messaging.Handler) error { return nil }
func (p *capturingPublisher) Topic() string                                    { return "order.paid" }

func testConfig() config.Config {
	cfg := config.Config{}
	cfg.Payment.Currency = "USD"
	cfg.Payment.BrandName = "Test Store"
	cfg.Pricing.TaxRate = 0.08
	cfg.Messaging.Enabled = false
	return cfg
}

func newTestService(t *testing.T, orders *fakeOrders, zones *fakeZones, processor *fakeProcessor, publisher messaging.Client, cfg config.Config) *Service {
	t.Helper()
	generator, err := ordernumber.New("UTC", 5)
	require.NoError(t, err)
	engine := shipping.NewEngine(shipping.Config{HomeCountry: "VN", FallbackCost: 25})
	return newService(orders, zones, processor, engine, generator, publisher, nil, zap.NewNop(), cfg)
}

func completedForm() *dto.ShippingForm {
	return &dto.ShippingForm{
		Email:     "buyer@example.com",
		FirstName: "Dana",
		LastName:  "Smith",
		Address1:  "1 Main St",
		City:      "Springfield",
		State:     "IL",
		Zip:       "62701",
		Country:   "US",
	}
}

func cartLines() []dto.CartLine {
	return []dto.CartLine{
		{ProductID: "sku-1", Name: "Widget", Price: 400, Quantity: 2},
		{ProductID: "sku-2", Name: "Gadget", Price: 200, Quantity: 1},
	}
}

func TestCreateSessionPricesCartForProcessor(t *testing.T) {
	orders := &fakeOrders{}
	processor := &fakeProcessor{sessionID: "SESSION-1"}
	svc := newTestService(t, orders, &fakeZones{}, processor, nil, testConfig())

	resp, err := svc.CreateSession(context.Background(), dto.SessionRequest{
		Items:        cartLines(),
		ShippingInfo: completedForm(),
	})
	require.NoError(t, err)
	assert.Equal(t, "SESSION-1", resp.SessionID)

	require.Len(t, processor.createRequests, 1)
	unit := processor.createRequests[0].PurchaseUnits[0]
	assert.Equal(t, "1105.00", unit.Amount.Value)
	assert.Equal(t, "1000.00", unit.Amount.Breakdown.ItemTotal.Value)
	assert.Equal(t, "25.00", unit.Amount.Breakdown.Shipping.Value)
	assert.Equal(t, "80.00", unit.Amount.Breakdown.TaxTotal.Value)
	require.Len(t, unit.Items, 2)
	assert.Equal(t, "400.00", unit.Items[0].UnitAmount.Value)
	require.NotNil(t, unit.Shipping)
	assert.Equal(t, "US", unit.Shipping.Address.CountryCode)
	assert.NotEmpty(t, processor.createKeys[0])

	require.NotNil(t, processor.createRequests[0].ApplicationContext)
	assert.Equal(t, "Test Store", processor.createRequests[0].ApplicationContext.BrandName)
	assert.Equal(t, "SET_PROVIDED_ADDRESS", processor.createRequests[0].ApplicationContext.ShippingPreference)
}

func TestCreateSessionRejectsEmptyCart(t *testing.T) {
	svc := newTestService(t, &fakeOrders{}, &fakeZones{}, &fakeProcessor{}, nil, testConfig())

	_, err := svc.CreateSession(context.Background(), dto.SessionRequest{})
	require.Error(t, err)
	assert.Equal(t, errorbank.KindBadRequest, errorbank.From(err).Kind())
}

func TestCreateSessionRejectsStartedButIncompleteForm(t *testing.T) {
	svc := newTestService(t, &fakeOrders{}, &fakeZones{}, &fakeProcessor{}, nil, testConfig())

	form := completedForm()
	form.Address1 = ""
	form.Zip = ""
	_, err := svc.CreateSession(context.Background(), dto.SessionRequest{Items: cartLines(), ShippingInfo: form})
	require.Error(t, err)

	appErr := errorbank.From(err)
	assert.Equal(t, errorbank.KindBadRequest, appErr.Kind())
	assert.ElementsMatch(t, []string{"address1", "zip"}, appErr.Details()["fields"])
}

func TestCapturePersistsPaidOrder(t *testing.T) {
	orders := &fakeOrders{}
	processor := &fakeProcessor{
		captureResult: &payment.CaptureResult{
			SessionID:      "SESSION-1",
			Status:         "COMPLETED",
			TransactionID:  "TXN-1",
			CapturedAmount: "1105.00",
			Payer:          payment.Payer{PayerID: "PAYER-1", EmailAddress: "buyer@example.com"},
		},
	}
	publisher := &capturingPublisher{}
	cfg := testConfig()
	cfg.Messaging.Enabled = true
	cfg.Messaging.Kafka.Topic = "order.paid"
	svc := newTestService(t, orders, &fakeZones{}, processor, publisher, cfg)

	resp, err := svc.Capture(context.Background(), dto.CaptureRequest{
		SessionID:    "SESSION-1",
		Items:        cartLines(),
		ShippingInfo: completedForm(),
	})
	require.NoError(t, err)

	require.Len(t, orders.created, 1)
	order := orders.created[0]
	assert.Equal(t, entity.StatusPaid, order.Status)
	assert.Equal(t, 1000.0, order.Subtotal)
	assert.Equal(t, 25.0, order.Shipping)
	assert.Equal(t, 80.0, order.Tax)
	assert.Equal(t, 1105.0, order.Total)
	assert.Equal(t, resp.OrderNumber, order.Number)
	assert.Len(t, order.Number, 12)

	require.NotNil(t, order.ShippingAddress)
	assert.Equal(t, entity.AddressSourceCheckoutForm, order.ShippingAddress.Source)
	assert.Equal(t, "Dana", order.ShippingAddress.FirstName)

	require.NotNil(t, order.Billing)
	assert.Equal(t, "TXN-1", order.Billing.TransactionID)
	assert.Equal(t, "SESSION-1", order.Billing.ProcessorOrderID)
	assert.Equal(t, "COMPLETED", order.Billing.PaymentStatus)

	require.Len(t, order.Items, 2)
	assert.Equal(t, "sku-1", order.Items[0].ProductID)
	assert.Equal(t, 400.0, order.Items[0].UnitPrice)

	require.Equal(t, []string{"capture-SESSION-1"}, processor.captureKeys)

	require.Len(t, publisher.values, 1)
	var event OrderPaidEvent
	require.NoError(t, json.Unmarshal(publisher.values[0], &event))
	assert.Equal(t, order.Number, event.OrderNumber)
	assert.Equal(t, "buyer@example.com", event.CustomerEmail)
	assert.Equal(t, 1105.0, event.Total)
}

func TestCaptureSynthesizesAddressFromProcessor(t *testing.T) {
	orders := &fakeOrders{}
	processor := &fakeProcessor{
		captureResult: &payment.CaptureResult{
			SessionID:     "SESSION-2",
			Status:        "COMPLETED",
			TransactionID: "TXN-2",
			Payer:         payment.Payer{EmailAddress: "payer@example.com"},
			Shipping: &payment.ShippingDetail{
				Name: &payment.Name{FullName: "Alex van Dam"},
				Address: &payment.Address{
					AddressLine1: "9 Canal Rd",
					AdminArea2:   "Amsterdam",
					PostalCode:   "1011",
					CountryCode:  "NL",
				},
			},
		},
	}
	svc := newTestService(t, orders, &fakeZones{}, processor, nil, testConfig())

	_, err := svc.Capture(context.Background(), dto.CaptureRequest{
		SessionID: "SESSION-2",
		Items:     cartLines(),
	})
	require.NoError(t, err)

	require.Len(t, orders.created, 1)
	addr := orders.created[0].ShippingAddress
	require.NotNil(t, addr)
	assert.Equal(t, entity.AddressSourceProcessor, addr.Source)
	assert.Equal(t, "Alex", addr.FirstName)
	assert.Equal(t, "van Dam", addr.LastName)
	assert.Equal(t, "9 Canal Rd", addr.Address1)
	assert.Equal(t, "NL", addr.Country)
	assert.Equal(t, "payer@example.com", addr.Email)
}

func TestCaptureDuplicateTransactionReturnsExistingOrder(t *testing.T) {
	existing := &entity.Order{Number: "250101120000", Status: entity.StatusPaid, Total: 1105}
	orders := &fakeOrders{byTransaction: map[string]*entity.Order{"TXN-1": existing}}
	processor := &fakeProcessor{
		captureResult: &payment.CaptureResult{SessionID: "SESSION-1", Status: "COMPLETED", TransactionID: "TXN-1"},
	}
	svc := newTestService(t, orders, &fakeZones{}, processor, nil, testConfig())

	resp, err := svc.Capture(context.Background(), dto.CaptureRequest{
		SessionID: "SESSION-1",
		Items:     cartLines(),
	})
	require.NoError(t, err)
	assert.Equal(t, "250101120000", resp.OrderNumber)
	assert.Empty(t, orders.created)
}

func TestCaptureProcessorRejectionCreatesNothing(t *testing.T) {
	orders := &fakeOrders{}
	processor := &fakeProcessor{captureErr: errorbank.PaymentRejected("INSTRUMENT_DECLINED")}
	svc := newTestService(t, orders, &fakeZones{}, processor, nil, testConfig())

	_, err := svc.Capture(context.Background(), dto.CaptureRequest{
		SessionID: "SESSION-1",
		Items:     cartLines(),
	})
	require.Error(t, err)
	assert.Equal(t, errorbank.KindPaymentRejected, errorbank.From(err).Kind())
	assert.Empty(t, orders.created)
}

func TestCaptureStorageFailureReturnsSupportError(t *testing.T) {
	orders := &fakeOrders{createErr: assert.AnError}
	processor := &fakeProcessor{
		captureResult: &payment.CaptureResult{SessionID: "SESSION-1", Status: "COMPLETED", TransactionID: "TXN-1"},
	}
	svc := newTestService(t, orders, &fakeZones{}, processor, nil, testConfig())

	resp, err := svc.Capture(context.Background(), dto.CaptureRequest{
		SessionID:    "SESSION-1",
		Items:        cartLines(),
		ShippingInfo: completedForm(),
	})
	require.Error(t, err)
	assert.Empty(t, resp.OrderNumber)

	appErr := errorbank.From(err)
	assert.Equal(t, errorbank.KindInternal, appErr.Kind())
	assert.Contains(t, appErr.Message(), "contact support")
	assert.Equal(t, "TXN-1", appErr.Details()["transactionId"])
	assert.Empty(t, orders.created)
}

func TestEstimateUsesZoneEngine(t *testing.T) {
	zones := &fakeZones{zones: []*entity.ShippingZone{
		{Name: "Europe", Countries: []string{"DE", "FR"}, ShippingCost: 35, IsActive: true},
	}}
	svc := newTestService(t, &fakeOrders{}, zones, &fakeProcessor{}, nil, testConfig())

	resp, err := svc.Estimate(context.Background(), dto.EstimateRequest{
		CountryCode: "DE",
		Items:       cartLines(),
	})
	require.NoError(t, err)
	assert.Equal(t, 35.0, resp.ShippingCost)
	assert.Equal(t, "Europe", resp.ZoneName)
}

func TestEstimateRequiresCountry(t *testing.T) {
	svc := newTestService(t, &fakeOrders{}, &fakeZones{}, &fakeProcessor{}, nil, testConfig())

	_, err := svc.Estimate(context.Background(), dto.EstimateRequest{})
	require.Error(t, err)
	assert.Equal(t, errorbank.KindBadRequest, errorbank.From(err).Kind())
}

func TestReconcileFillsOnlyEmptyFields(t *testing.T) {
	order := &entity.Order{
		Number: "250101120000",
		Status: entity.StatusPaid,
		ShippingAddress: &entity.ShippingAddress{
			Address1: "1 Main St",
			Source:   entity.AddressSourceCheckoutForm,
		},
		Billing: &entity.BillingRecord{TransactionID: "TXN-1"},
	}
	orders := &fakeOrders{existing: map[string]*entity.Order{"250101120000": order}}
	svc := newTestService(t, orders, &fakeZones{}, &fakeProcessor{}, nil, testConfig())

	params := url.Values{}
	params.Set("invoice", "250101120000")
	params.Set("payer_email", "buyer@example.com")
	params.Set("address_street", "999 Other St")
	params.Set("payment_status", "Completed")

	require.NoError(t, svc.Reconcile(context.Background(), params))
	require.Len(t, orders.updated, 1)

	assert.Equal(t, "1 Main St", order.ShippingAddress.Address1)
	assert.Equal(t, "buyer@example.com", order.ShippingAddress.Email)
	assert.Equal(t, "Completed", order.Billing.PaymentStatus)
	assert.Equal(t, "TXN-1", order.Billing.TransactionID)

	// Replaying the same callback finds nothing left to fill.
	require.NoError(t, svc.Reconcile(context.Background(), params))
	assert.Len(t, orders.updated, 1)
}

func TestReconcileUnknownOrderIsNoOp(t *testing.T) {
	orders := &fakeOrders{}
	svc := newTestService(t, orders, &fakeZones{}, &fakeProcessor{}, nil, testConfig())

	params := url.Values{}
	params.Set("invoice", "999999999999")
	params.Set("payer_email", "buyer@example.com")

	require.NoError(t, svc.Reconcile(context.Background(), params))
	assert.Empty(t, orders.updated)
}

func TestReconcileWithoutCorrelationKeyIsNoOp(t *testing.T) {
	orders := &fakeOrders{}
	svc := newTestService(t, orders, &fakeZones{}, &fakeProcessor{}, nil, testConfig())

	require.NoError(t, svc.Reconcile(context.Background(), url.Values{"payer_email": {"x@example.com"}}))
	assert.Empty(t, orders.updated)
}
