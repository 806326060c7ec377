package webhooks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jkemboi/maziwa-backend/internal/subscriptions"
	"github.com/jkemboi/maziwa-backend/pkg/config"
	"github.com/jkemboi/maziwa-backend/pkg/db/models"
)

type stubActivator struct {
	notices []subscriptions.PaymentNotice
	err     error
}

func (s *stubActivator) ActivateFromPayment(ctx context.Context, notice subscriptions.PaymentNotice) (*models.Subscription, error) {
	s.notices = append(s.notices, notice)
	if s.err != nil {
		return nil, s.err
	}
	return &models.Subscription{BusinessID: notice.BusinessID}, nil
}

type stubDeduper struct {
	seen map[string]bool
}

func (s *stubDeduper) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	return true, nil
}

func testBillingConfig() config.BillingConfig {
	return config.BillingConfig{CallbackDedupeTTL: time.Hour}
}

const successCallback = `{
	"Body": {
		"stkCallback": {
			"MerchantRequestID": "mr-1",
			"CheckoutRequestID": "cr-1",
			"ResultCode": 0,
			"ResultDesc": "The service request is processed successfully.",
			"CallbackMetadata": {
				"Item": [
					{"Name": "Amount", "Value": 1000},
					{"Name": "MpesaReceiptNumber", "Value": "RKT123ABC"},
					{"Name": "PhoneNumber", "Value": 254712345678},
					{"Name": "AccountReference", "Value": "biz-1"}
				]
			}
		}
	}
}`

func postCallback(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/mpesa", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestMpesaCallback_ActivatesSubscription(t *testing.T) {
	activator := &stubActivator{}
	handler := MpesaCallback(activator, &stubDeduper{}, testBillingConfig(), nil)

	rec := postCallback(t, handler, successCallback)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var ackBody struct {
		ResultCode int `json:"ResultCode"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &ackBody); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ackBody.ResultCode != 0 {
		t.Fatalf("expected ResultCode 0, got %d", ackBody.ResultCode)
	}

	if len(activator.notices) != 1 {
		t.Fatalf("expected one activation, got %d", len(activator.notices))
	}
	notice := activator.notices[0]
	if !notice.Amount.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("unexpected amount: %s", notice.Amount)
	}
	if notice.Receipt != "RKT123ABC" {
		t.Fatalf("unexpected receipt: %s", notice.Receipt)
	}
	if notice.Phone != "254712345678" {
		t.Fatalf("unexpected phone: %s", notice.Phone)
	}
	if notice.BusinessID != "biz-1" {
		t.Fatalf("unexpected business id: %s", notice.BusinessID)
	}
}

func TestMpesaCallback_AcksFailedPaymentWithoutActivating(t *testing.T) {
	activator := &stubActivator{}
	handler := MpesaCallback(activator, &stubDeduper{}, testBillingConfig(), nil)

	body := `{"Body":{"stkCallback":{"MerchantRequestID":"mr-1","CheckoutRequestID":"cr-1","ResultCode":1032,"ResultDesc":"Request cancelled by user"}}}`
	rec := postCallback(t, handler, body)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 ack, got %d", rec.Code)
	}
	if len(activator.notices) != 0 {
		t.Fatalf("expected no activation, got %d", len(activator.notices))
	}
}

func TestMpesaCallback_DuplicateReceiptActivatesOnce(t *testing.T) {
	activator := &stubActivator{}
	deduper := &stubDeduper{}
	handler := MpesaCallback(activator, deduper, testBillingConfig(), nil)

	first := postCallback(t, handler, successCallback)
	second := postCallback(t, handler, successCallback)

	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("expected both deliveries acked, got %d and %d", first.Code, second.Code)
	}
	if len(activator.notices) != 1 {
		t.Fatalf("expected one activation, got %d", len(activator.notices))
	}
}

func TestMpesaCallback_StaticAccountRefFallsBackToAmountMatch(t *testing.T) {
	cfg := testBillingConfig()
	cfg.MpesaAccountRef = "Maziwa Subscription"
	activator := &stubActivator{}
	handler := MpesaCallback(activator, &stubDeduper{}, cfg, nil)

	body := `{"Body":{"stkCallback":{"ResultCode":0,"CallbackMetadata":{"Item":[
		{"Name": "Amount", "Value": 2500},
		{"Name": "MpesaReceiptNumber", "Value": "RKT555XYZ"},
		{"Name": "AccountReference", "Value": "Maziwa Subscription"}
	]}}}}`
	rec := postCallback(t, handler, body)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(activator.notices) != 1 {
		t.Fatalf("expected one activation, got %d", len(activator.notices))
	}
	if got := activator.notices[0].BusinessID; got != "" {
		t.Fatalf("static account ref must not resolve a tenant, got %q", got)
	}
}

func TestMpesaCallback_RejectsBadToken(t *testing.T) {
	cfg := testBillingConfig()
	cfg.MpesaCallbackToken = "expected-token"
	activator := &stubActivator{}
	handler := MpesaCallback(activator, &stubDeduper{}, cfg, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/mpesa?token=wrong", strings.NewReader(successCallback))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if len(activator.notices) != 0 {
		t.Fatalf("expected no activation, got %d", len(activator.notices))
	}
}

func TestMpesaCallback_RejectsMissingAmount(t *testing.T) {
	activator := &stubActivator{}
	handler := MpesaCallback(activator, &stubDeduper{}, testBillingConfig(), nil)

	body := `{"Body":{"stkCallback":{"ResultCode":0,"CallbackMetadata":{"Item":[{"Name":"MpesaReceiptNumber","Value":"RKT999"}]}}}}`
	rec := postCallback(t, handler, body)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestMpesaMockPay_ActivatesWithGeneratedReceipt(t *testing.T) {
	activator := &stubActivator{}
	handler := MpesaMockPay(activator, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/mpesa/mock", strings.NewReader(`{"amount":"2500","businessId":"biz-9"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(activator.notices) != 1 {
		t.Fatalf("expected one activation, got %d", len(activator.notices))
	}
	notice := activator.notices[0]
	if notice.BusinessID != "biz-9" {
		t.Fatalf("unexpected business id: %s", notice.BusinessID)
	}
	if !strings.HasPrefix(notice.Receipt, "MOCK") {
		t.Fatalf("expected generated receipt, got %s", notice.Receipt)
	}
}
