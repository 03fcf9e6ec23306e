package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/playabars/playabars-backend/pkg/errors"
)

type stubWebhookService struct {
	err       error
	payload   []byte
	signature string
	calls     int
}

func (s *stubWebhookService) Process(_ context.Context, payload []byte, signatureHeader string) error {
	s.calls++
	s.payload = payload
	s.signature = signatureHeader
	return s.err
}

func TestStripeWebhookSuccess(t *testing.T) {
	svc := &stubWebhookService{}
	handler := StripeWebhook(svc, nil)

	body := []byte(`{"id":"evt_1","type":"customer.subscription.updated"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewReader(body))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.calls != 1 {
		t.Fatalf("expected one call got %d", svc.calls)
	}
	if !bytes.Equal(svc.payload, body) {
		t.Fatal("expected raw body forwarded unmodified")
	}
	if svc.signature != "t=1,v1=abc" {
		t.Fatalf("expected signature header forwarded got %q", svc.signature)
	}

	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data["received"] != true {
		t.Fatalf("expected received ack got %v", envelope.Data)
	}
}

func TestStripeWebhookBadSignature(t *testing.T) {
	svc := &stubWebhookService{err: pkgerrors.New(pkgerrors.CodeSignature, "signature verification failed")}
	handler := StripeWebhook(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewBufferString(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=forged")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestStripeWebhookHandlerFailure(t *testing.T) {
	svc := &stubWebhookService{err: pkgerrors.New(pkgerrors.CodeDependency, "database unavailable")}
	handler := StripeWebhook(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewBufferString(`{"id":"evt_1"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
}
