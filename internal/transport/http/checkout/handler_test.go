package checkout

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/checkout/internal/dto"
	"github.com/Additional-Code/checkout/pkg/errorbank"
)

type fakeService struct {
	sessionResp  dto.SessionResponse
	sessionErr   error
	captureResp  dto.CaptureResponse
	captureErr   error
	estimateResp dto.EstimateResponse
	reconcileErr error
	reconciled   []url.Values
}

func (f *fakeService) CreateSession(_ context.Context, _ dto.SessionRequest) (dto.SessionResponse, error) {
	return f.sessionResp, f.sessionErr
}

func (f *fakeService) Capture(_ context.Context, _ dto.CaptureRequest) (dto.CaptureResponse, error) {
	return f.captureResp, f.captureErr
}

func (f *fakeService) Estimate(_ context.Context, _ dto.EstimateRequest) (dto.EstimateResponse, error) {
	return f.estimateResp, nil
}

func (f *fakeService) Reconcile(_ context.Context, params url.Values) error {
	f.reconciled = append(f.reconciled, params)
	return f.reconcileErr
}

func newTestHandler(svc *fakeService) (*echo.Echo, *Handler) {
	e := echo.New()
	h := &Handler{svc: svc, logger: zap.NewNop(), successPath: "/checkout/success"}
	Register(e, h)
	return e, h
}

func TestReturnRedirectsWithParamsPreserved(t *testing.T) {
	svc := &fakeService{}
	e, _ := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/checkout/return?invoice=250101120000&payer_email=buyer%40example.com", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/checkout/success", location.Path)
	assert.Equal(t, "250101120000", location.Query().Get("invoice"))
	assert.Equal(t, "buyer@example.com", location.Query().Get("payer_email"))

	require.Len(t, svc.reconciled, 1)
	assert.Equal(t, "250101120000", svc.reconciled[0].Get("invoice"))
}

func TestReturnRedirectsEvenWhenReconcileFails(t *testing.T) {
	svc := &fakeService{reconcileErr: assert.AnError}
	e, _ := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/checkout/return?invoice=250101120000", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestReturnMergesPostedFormFields(t *testing.T) {
	svc := &fakeService{}
	e, _ := newTestHandler(svc)

	form := url.Values{}
	form.Set("invoice", "250101120000")
	form.Set("payment_status", "Completed")
	req := httptest.NewRequest(http.MethodPost, "/checkout/return", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Len(t, svc.reconciled, 1)
	assert.Equal(t, "Completed", svc.reconciled[0].Get("payment_status"))
}

func TestCaptureRelaysPaymentRejection(t *testing.T) {
	svc := &fakeService{captureErr: errorbank.PaymentRejected("INSTRUMENT_DECLINED")}
	e, _ := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/checkout/capture", strings.NewReader(`{"sessionId":"SESSION-1"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Contains(t, rec.Body.String(), "INSTRUMENT_DECLINED")
}

func TestCreateSessionReturnsSessionID(t *testing.T) {
	svc := &fakeService{sessionResp: dto.SessionResponse{SessionID: "SESSION-9"}}
	e, _ := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/checkout/session", strings.NewReader(`{"items":[{"productId":"sku-1","name":"Widget","price":10,"quantity":1}]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "SESSION-9")
}
