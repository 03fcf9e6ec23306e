package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/playabars/playabars-backend/internal/payments"
	pkgerrors "github.com/playabars/playabars-backend/pkg/errors"
)

type stubPaymentService struct {
	intent *payments.PaymentIntent
	err    error
	input  payments.CreateIntentInput
	calls  int
}

func (s *stubPaymentService) CreateIntent(_ context.Context, input payments.CreateIntentInput) (*payments.PaymentIntent, error) {
	s.calls++
	s.input = input
	return s.intent, s.err
}

func TestCreatePaymentIntentSuccess(t *testing.T) {
	userID := uuid.New()
	svc := &stubPaymentService{intent: &payments.PaymentIntent{
		ID:           "pi_123",
		ClientSecret: "pi_123_secret",
		Amount:       10050,
		Currency:     "usd",
		PlatformFee:  302,
		NetAmount:    9748,
		Status:       "requires_payment_method",
	}}
	handler := CreatePaymentIntent(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/payment-intent",
		bytes.NewBufferString(`{"amount":10050,"currency":"usd","destinationAccountId":"acct_123","bookingId":"bk_42"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", "retry-safe-1")
	req = authedRequest(req, userID.String(), "customer")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.input.UserID != userID.String() {
		t.Fatalf("expected user %s got %s", userID, svc.input.UserID)
	}
	if svc.input.IdempotencyKey != "retry-safe-1" {
		t.Fatalf("expected idempotency key forwarded, got %q", svc.input.IdempotencyKey)
	}
	if svc.input.BookingID != "bk_42" {
		t.Fatalf("expected booking bk_42 got %q", svc.input.BookingID)
	}

	var envelope struct {
		Data payments.PaymentIntent `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ClientSecret != "pi_123_secret" {
		t.Fatalf("expected client secret got %q", envelope.Data.ClientSecret)
	}
	if envelope.Data.PlatformFee != 302 {
		t.Fatalf("expected fee 302 got %d", envelope.Data.PlatformFee)
	}
}

func TestCreatePaymentIntentDirectPayment(t *testing.T) {
	userID := uuid.New()
	svc := &stubPaymentService{intent: &payments.PaymentIntent{
		ID:           "pi_direct",
		ClientSecret: "pi_direct_secret",
		Amount:       2500,
		Currency:     "usd",
		NetAmount:    2500,
		Status:       "requires_payment_method",
	}}
	handler := CreatePaymentIntent(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/payment-intent",
		bytes.NewBufferString(`{"amount":2500,"currency":"usd"}`))
	req.Header.Set("Content-Type", "application/json")
	req = authedRequest(req, userID.String(), "customer")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.input.DestinationAccountID != "" {
		t.Fatalf("expected empty destination got %q", svc.input.DestinationAccountID)
	}

	var envelope struct {
		Data payments.PaymentIntent `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.PlatformFee != 0 {
		t.Fatalf("expected zero fee got %d", envelope.Data.PlatformFee)
	}
	if envelope.Data.NetAmount != 2500 {
		t.Fatalf("expected full net amount got %d", envelope.Data.NetAmount)
	}
}

func TestCreatePaymentIntentInvalidBody(t *testing.T) {
	svc := &stubPaymentService{}
	handler := CreatePaymentIntent(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/payment-intent",
		bytes.NewBufferString(`{"amount":-5,"currency":"usd","destinationAccountId":"acct_123"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if svc.calls != 0 {
		t.Fatalf("expected no service call got %d", svc.calls)
	}
}

func TestCreatePaymentIntentDestinationNotReady(t *testing.T) {
	svc := &stubPaymentService{err: pkgerrors.New(pkgerrors.CodeAccountNotReady, "destination cannot accept charges").
		WithDetails(map[string]any{"account_id": "acct_123", "status": "pending"})}
	handler := CreatePaymentIntent(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/payment-intent",
		bytes.NewBufferString(`{"amount":5000,"currency":"usd","destinationAccountId":"acct_123"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rec.Code)
	}

	var envelope struct {
		Error struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeAccountNotReady) {
		t.Fatalf("expected ACCOUNT_NOT_READY got %s", envelope.Error.Code)
	}
	if envelope.Error.Details["account_id"] != "acct_123" {
		t.Fatalf("expected account detail got %v", envelope.Error.Details)
	}
}

func TestCreatePaymentIntentProviderTimeout(t *testing.T) {
	svc := &stubPaymentService{err: pkgerrors.New(pkgerrors.CodeProviderTimeout, "provider timed out")}
	handler := CreatePaymentIntent(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/payment-intent",
		bytes.NewBufferString(`{"amount":5000,"currency":"usd","destinationAccountId":"acct_123"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504 got %d", rec.Code)
	}
}
