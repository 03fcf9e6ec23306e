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
	"github.com/playabars/playabars-backend/internal/connect"
	"github.com/playabars/playabars-backend/internal/teardown"
	"github.com/playabars/playabars-backend/pkg/enums"
	pkgerrors "github.com/playabars/playabars-backend/pkg/errors"
)

type stubAccountDeleter struct {
	result connect.DeleteResult
	calls  []string
}

func (s *stubAccountDeleter) DeleteAccount(_ context.Context, accountID string) connect.DeleteResult {
	s.calls = append(s.calls, accountID)
	return s.result
}

type stubTeardownService struct {
	report *teardown.Report
	err    error
	userID uuid.UUID
}

func (s *stubTeardownService) TeardownAccountsForUser(_ context.Context, userID uuid.UUID) (*teardown.Report, error) {
	s.userID = userID
	return s.report, s.err
}

func TestAccountManagementDisconnectSingle(t *testing.T) {
	deleter := &stubAccountDeleter{result: connect.DeleteResult{AccountID: "acct_123", Deleted: true}}
	handler := AccountManagement(deleter, &stubTeardownService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/account-management",
		bytes.NewBufferString(`{"action":"disconnect-single","accountId":"acct_123"}`))
	req.Header.Set("Content-Type", "application/json")
	req = authedRequest(req, uuid.New().String(), "owner")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if len(deleter.calls) != 1 || deleter.calls[0] != "acct_123" {
		t.Fatalf("expected one delete of acct_123 got %v", deleter.calls)
	}

	var envelope struct {
		Data connect.DeleteResult `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Data.Deleted {
		t.Fatal("expected deleted result")
	}
}

func TestAccountManagementDisconnectRefusalStillOK(t *testing.T) {
	deleter := &stubAccountDeleter{result: connect.DeleteResult{
		AccountID: "acct_live",
		Deleted:   false,
		Reason:    enums.DeletionReasonNonZeroBalance,
		Message:   "account holds funds",
	}}
	handler := AccountManagement(deleter, &stubTeardownService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/account-management",
		bytes.NewBufferString(`{"action":"disconnect-single","accountId":"acct_live"}`))
	req.Header.Set("Content-Type", "application/json")
	req = authedRequest(req, uuid.New().String(), "owner")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var envelope struct {
		Data connect.DeleteResult `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Deleted {
		t.Fatal("expected refusal result")
	}
	if envelope.Data.Reason != enums.DeletionReasonNonZeroBalance {
		t.Fatalf("expected non_zero_balance got %s", envelope.Data.Reason)
	}
}

func TestAccountManagementDisconnectMissingAccountID(t *testing.T) {
	handler := AccountManagement(&stubAccountDeleter{}, &stubTeardownService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/account-management",
		bytes.NewBufferString(`{"action":"disconnect-single"}`))
	req.Header.Set("Content-Type", "application/json")
	req = authedRequest(req, uuid.New().String(), "owner")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestAccountManagementTeardownDefaultsToCaller(t *testing.T) {
	callerID := uuid.New()
	bulk := &stubTeardownService{report: &teardown.Report{
		Success:      true,
		DeletedCount: 2,
		Reasons:      map[enums.DeletionReason]int{enums.DeletionReasonAlreadyDeleted: 1},
	}}
	handler := AccountManagement(&stubAccountDeleter{}, bulk, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/account-management",
		bytes.NewBufferString(`{"action":"delete-user-accounts"}`))
	req.Header.Set("Content-Type", "application/json")
	req = authedRequest(req, callerID.String(), "owner")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if bulk.userID != callerID {
		t.Fatalf("expected teardown of caller %s got %s", callerID, bulk.userID)
	}

	var envelope struct {
		Data teardown.Report `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Data.Success || envelope.Data.DeletedCount != 2 {
		t.Fatalf("unexpected report %+v", envelope.Data)
	}
}

func TestAccountManagementTeardownOtherUserForbidden(t *testing.T) {
	handler := AccountManagement(&stubAccountDeleter{}, &stubTeardownService{}, nil)

	body := fmt.Sprintf(`{"action":"delete-user-accounts","userId":%q}`, uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/account-management", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = authedRequest(req, uuid.New().String(), "owner")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
}

func TestAccountManagementTeardownAdminOverride(t *testing.T) {
	target := uuid.New()
	bulk := &stubTeardownService{report: &teardown.Report{Success: true}}
	handler := AccountManagement(&stubAccountDeleter{}, bulk, nil)

	body := fmt.Sprintf(`{"action":"delete-user-accounts","userId":%q}`, target)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/account-management", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = authedRequest(req, uuid.New().String(), "admin")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if bulk.userID != target {
		t.Fatalf("expected teardown of %s got %s", target, bulk.userID)
	}
}

func TestAccountManagementTeardownValidationError(t *testing.T) {
	bulk := &stubTeardownService{err: pkgerrors.New(pkgerrors.CodeValidation, "user id is required")}
	handler := AccountManagement(&stubAccountDeleter{}, bulk, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/account-management",
		bytes.NewBufferString(`{"action":"delete-user-accounts"}`))
	req.Header.Set("Content-Type", "application/json")
	req = authedRequest(req, uuid.New().String(), "owner")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestAccountManagementUnknownAction(t *testing.T) {
	handler := AccountManagement(&stubAccountDeleter{}, &stubTeardownService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/account-management",
		bytes.NewBufferString(`{"action":"purge-everything"}`))
	req.Header.Set("Content-Type", "application/json")
	req = authedRequest(req, uuid.New().String(), "owner")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
