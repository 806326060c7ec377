package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jkemboi/maziwa-backend/api/responses"
	"github.com/jkemboi/maziwa-backend/api/validators"
	"github.com/jkemboi/maziwa-backend/internal/subscriptions"
	"github.com/jkemboi/maziwa-backend/pkg/config"
	"github.com/jkemboi/maziwa-backend/pkg/db/models"
	pkgerrors "github.com/jkemboi/maziwa-backend/pkg/errors"
	"github.com/jkemboi/maziwa-backend/pkg/logger"
)

// stkCallbackBody mirrors the Safaricom STK push callback envelope.
type stkCallbackBody struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []metadataItem `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

type metadataItem struct {
	Name  string          `json:"Name"`
	Value json.RawMessage `json:"Value"`
}

type callbackFields struct {
	Amount    decimal.Decimal
	Receipt   string
	Phone     string
	Reference string
}

// Deduper remembers processed receipts so gateway retries are idempotent.
type Deduper interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
}

// Activator confirms a payment against a pending subscription.
type Activator interface {
	ActivateFromPayment(ctx context.Context, notice subscriptions.PaymentNotice) (*models.Subscription, error)
}

// MpesaCallback ingests the STK push result. The gateway expects a 200 ack for
// every delivery; processing failures are logged, never bounced back.
func MpesaCallback(svc Activator, deduper Deduper, cfg config.BillingConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if cfg.MpesaCallbackToken != "" && r.URL.Query().Get("token") != cfg.MpesaCallbackToken {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid callback token"))
			return
		}

		var body stkCallbackBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid callback payload"))
			return
		}

		callback := body.Body.StkCallback
		if callback.ResultCode != 0 {
			if logg != nil {
				failCtx := logg.WithFields(ctx, map[string]any{
					"result_code": callback.ResultCode,
					"result_desc": callback.ResultDesc,
				})
				logg.Warn(failCtx, "mpesa.payment.failed")
			}
			ack(w)
			return
		}

		fields, err := extractFields(callback.CallbackMetadata.Item)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "incomplete callback metadata"))
			return
		}
		// The static paybill reference names no tenant; amount matching
		// resolves the pending subscription instead.
		if fields.Reference == cfg.MpesaAccountRef {
			fields.Reference = ""
		}

		if fields.Receipt != "" && deduper != nil {
			won, err := deduper.SetNX(ctx, "mpesa:receipt:"+fields.Receipt, 1, cfg.CallbackDedupeTTL)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deduplicate callback"))
				return
			}
			if !won {
				if logg != nil {
					logg.Info(logg.WithField(ctx, "receipt", fields.Receipt), "mpesa.callback.duplicate")
				}
				ack(w)
				return
			}
		}

		if _, err := svc.ActivateFromPayment(ctx, subscriptions.PaymentNotice{
			BusinessID: fields.Reference,
			Amount:     fields.Amount,
			Receipt:    fields.Receipt,
			Phone:      fields.Phone,
		}); err != nil {
			if logg != nil {
				logg.Error(logg.WithField(ctx, "receipt", fields.Receipt), "mpesa.activation.failed", err)
			}
		}

		ack(w)
	}
}

type mockPaymentRequest struct {
	Amount     decimal.Decimal `json:"amount" validate:"required"`
	BusinessID string          `json:"businessId" validate:"omitempty,max=64"`
}

// MpesaMockPay simulates a confirmed payment. Wired only outside production
// so plan activation can be exercised without the gateway.
func MpesaMockPay(svc Activator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body mockPaymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sub, err := svc.ActivateFromPayment(r.Context(), subscriptions.PaymentNotice{
			BusinessID: body.BusinessID,
			Amount:     body.Amount,
			Receipt:    fmt.Sprintf("MOCK%d", time.Now().Unix()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sub)
	}
}

func ack(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{"ResultCode": 0, "ResultDesc": "Accepted"})
}

func extractFields(items []metadataItem) (callbackFields, error) {
	var fields callbackFields
	for _, item := range items {
		switch item.Name {
		case "Amount":
			var amount decimal.Decimal
			if err := json.Unmarshal(item.Value, &amount); err != nil {
				return fields, fmt.Errorf("parse amount: %w", err)
			}
			fields.Amount = amount
		case "MpesaReceiptNumber":
			fields.Receipt = rawString(item.Value)
		case "PhoneNumber":
			fields.Phone = rawString(item.Value)
		case "AccountReference":
			fields.Reference = rawString(item.Value)
		}
	}
	if fields.Amount.IsZero() {
		return fields, fmt.Errorf("missing amount")
	}
	return fields, nil
}

// rawString renders a metadata value that may arrive as a JSON string or
// number.
func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.Trim(string(raw), `"`)
}
