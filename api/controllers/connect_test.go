package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/playabars/playabars-backend/api/middleware"
	"github.com/playabars/playabars-backend/internal/connect"
	"github.com/playabars/playabars-backend/pkg/enums"
	pkgerrors "github.com/playabars/playabars-backend/pkg/errors"
)

type stubConnectService struct {
	createResult *connect.CreateAccountResult
	createErr    error
	createInput  connect.CreateAccountInput
	linkURL      string
	linkErr      error
	status       *connect.AccountStatus
	statusErr    error
	report       *connect.DebugReport
	reportErr    error
}

func (s *stubConnectService) CreateAccount(_ context.Context, input connect.CreateAccountInput) (*connect.CreateAccountResult, error) {
	s.createInput = input
	return s.createResult, s.createErr
}

func (s *stubConnectService) CreateOnboardingLink(context.Context, string) (string, error) {
	return s.linkURL, s.linkErr
}

func (s *stubConnectService) GetAccountStatus(context.Context, string) (*connect.AccountStatus, error) {
	return s.status, s.statusErr
}

func (s *stubConnectService) DebugAccount(context.Context, string) (*connect.DebugReport, error) {
	return s.report, s.reportErr
}

func authedRequest(req *http.Request, userID, role string) *http.Request {
	ctx := middleware.WithUserID(req.Context(), userID)
	ctx = middleware.WithRole(ctx, role)
	return req.WithContext(ctx)
}

func TestStripeConnectCreateAccount(t *testing.T) {
	ownerID := uuid.New()
	barID := uuid.New()
	svc := &stubConnectService{
		createResult: &connect.CreateAccountResult{
			AccountID:     "acct_123",
			OnboardingURL: "https://connect.stripe.com/setup/s/abc",
		},
	}
	handler := StripeConnect(svc, nil)

	body := fmt.Sprintf(`{"email":"owner@playabars.com","businessName":"Bar Azul","barId":%q}`, barID)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/stripe-connect?action=create-account", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = authedRequest(req, ownerID.String(), "owner")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.createInput.OwnerID != ownerID {
		t.Fatalf("expected owner %s got %s", ownerID, svc.createInput.OwnerID)
	}
	if svc.createInput.BarID != barID {
		t.Fatalf("expected bar %s got %s", barID, svc.createInput.BarID)
	}

	var envelope struct {
		Data connect.CreateAccountResult `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.AccountID != "acct_123" {
		t.Fatalf("expected acct_123 got %s", envelope.Data.AccountID)
	}
}

func TestStripeConnectCreateAccountWithoutBar(t *testing.T) {
	ownerID := uuid.New()
	svc := &stubConnectService{
		createResult: &connect.CreateAccountResult{
			AccountID:     "acct_solo",
			OnboardingURL: "https://connect.stripe.com/setup/s/xyz",
		},
	}
	handler := StripeConnect(svc, nil)

	body := `{"email":"owner@playabars.com","businessName":"Bar Azul"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/stripe-connect?action=create-account", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = authedRequest(req, ownerID.String(), "owner")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.createInput.BarID != uuid.Nil {
		t.Fatalf("expected zero bar id got %s", svc.createInput.BarID)
	}
	if svc.createInput.OwnerID != ownerID {
		t.Fatalf("expected owner %s got %s", ownerID, svc.createInput.OwnerID)
	}
}

func TestStripeConnectCreateAccountImpersonationForbidden(t *testing.T) {
	svc := &stubConnectService{}
	handler := StripeConnect(svc, nil)

	body := fmt.Sprintf(`{"email":"owner@playabars.com","businessName":"Bar Azul","ownerId":%q,"barId":%q}`, uuid.New(), uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/stripe-connect?action=create-account", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = authedRequest(req, uuid.New().String(), "owner")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
}

func TestStripeConnectCreateAccountAdminImpersonation(t *testing.T) {
	target := uuid.New()
	svc := &stubConnectService{createResult: &connect.CreateAccountResult{AccountID: "acct_1"}}
	handler := StripeConnect(svc, nil)

	body := fmt.Sprintf(`{"email":"owner@playabars.com","businessName":"Bar Azul","ownerId":%q,"barId":%q}`, target, uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/stripe-connect?action=create-account", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = authedRequest(req, uuid.New().String(), "admin")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.createInput.OwnerID != target {
		t.Fatalf("expected target owner %s got %s", target, svc.createInput.OwnerID)
	}
}

func TestStripeConnectCreateAccountInvalidBody(t *testing.T) {
	handler := StripeConnect(&stubConnectService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stripe-connect?action=create-account", bytes.NewBufferString(`{"email":"not-an-email"}`))
	req.Header.Set("Content-Type", "application/json")
	req = authedRequest(req, uuid.New().String(), "owner")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestStripeConnectWrongMethod(t *testing.T) {
	handler := StripeConnect(&stubConnectService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stripe-connect?action=create-account", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != http.MethodPost {
		t.Fatalf("expected Allow: POST got %q", allow)
	}
}

func TestStripeConnectUnknownAction(t *testing.T) {
	handler := StripeConnect(&stubConnectService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stripe-connect?action=nuke-account", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestStripeConnectGetAccount(t *testing.T) {
	svc := &stubConnectService{
		status: &connect.AccountStatus{
			AccountID:        "acct_123",
			Status:           enums.AccountStatusActive,
			IsOnboarded:      true,
			ChargesEnabled:   true,
			PayoutsEnabled:   true,
			DetailsSubmitted: true,
			AvailableBalance: 1200,
		},
	}
	handler := StripeConnect(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stripe-connect?action=get-account&accountId=acct_123", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var envelope struct {
		Data connect.AccountStatus `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != enums.AccountStatusActive {
		t.Fatalf("expected active got %s", envelope.Data.Status)
	}
	if envelope.Data.AvailableBalance != 1200 {
		t.Fatalf("expected balance 1200 got %d", envelope.Data.AvailableBalance)
	}
}

func TestStripeConnectGetAccountMissingID(t *testing.T) {
	handler := StripeConnect(&stubConnectService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stripe-connect?action=get-account", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestStripeConnectGetAccountNotFound(t *testing.T) {
	handler := StripeConnect(&stubConnectService{
		statusErr: pkgerrors.New(pkgerrors.CodeNotFound, "account not found"),
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stripe-connect?action=get-account&accountId=acct_gone", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestStripeConnectDebugAccount(t *testing.T) {
	svc := &stubConnectService{
		report: &connect.DebugReport{
			Account: connect.AccountStatus{AccountID: "acct_123", Status: enums.AccountStatusRestricted},
			Recommendations: []connect.Recommendation{
				{Priority: connect.PriorityUrgent, Message: "resolve past due requirements"},
			},
		},
	}
	handler := StripeConnect(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stripe-connect?action=debug-account&accountId=acct_123", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var envelope struct {
		Data connect.DebugReport `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Recommendations) != 1 {
		t.Fatalf("expected one recommendation got %d", len(envelope.Data.Recommendations))
	}
	if envelope.Data.Recommendations[0].Priority != connect.PriorityUrgent {
		t.Fatalf("expected URGENT got %s", envelope.Data.Recommendations[0].Priority)
	}
}
