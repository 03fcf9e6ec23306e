package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/playabars/playabars-backend/api/middleware"
	"github.com/playabars/playabars-backend/api/responses"
	"github.com/playabars/playabars-backend/api/validators"
	"github.com/playabars/playabars-backend/internal/connect"
	pkgerrors "github.com/playabars/playabars-backend/pkg/errors"
	"github.com/playabars/playabars-backend/pkg/logger"
)

// ConnectService is the slice of the account lifecycle manager the HTTP
// layer depends on.
type ConnectService interface {
	CreateAccount(ctx context.Context, input connect.CreateAccountInput) (*connect.CreateAccountResult, error)
	CreateOnboardingLink(ctx context.Context, accountID string) (string, error)
	GetAccountStatus(ctx context.Context, accountID string) (*connect.AccountStatus, error)
	DebugAccount(ctx context.Context, accountID string) (*connect.DebugReport, error)
}

type createAccountRequest struct {
	Email        string `json:"email" validate:"required,email"`
	BusinessName string `json:"businessName" validate:"required,min=2,max=120"`
	OwnerID      string `json:"ownerId" validate:"omitempty,uuid"`
	BarID        string `json:"barId" validate:"omitempty,uuid"`
}

type createAccountLinkRequest struct {
	AccountID string `json:"accountId" validate:"required"`
}

// StripeConnect dispatches the action-style connect endpoint. Each action is
// bound to one method; the wrong method gets a 405, an unknown action a 400.
func StripeConnect(svc ConnectService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		switch r.URL.Query().Get("action") {
		case "create-account":
			if r.Method != http.MethodPost {
				responses.WriteMethodNotAllowed(w, http.MethodPost)
				return
			}
			createAccount(ctx, svc, logg, w, r)
		case "create-account-link":
			if r.Method != http.MethodPost {
				responses.WriteMethodNotAllowed(w, http.MethodPost)
				return
			}
			createAccountLink(ctx, svc, logg, w, r)
		case "get-account":
			if r.Method != http.MethodGet {
				responses.WriteMethodNotAllowed(w, http.MethodGet)
				return
			}
			getAccount(ctx, svc, logg, w, r)
		case "debug-account":
			if r.Method != http.MethodGet {
				responses.WriteMethodNotAllowed(w, http.MethodGet)
				return
			}
			debugAccount(ctx, svc, logg, w, r)
		default:
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown action").
				WithDetails(map[string]any{"field": "action"}))
		}
	}
}

func createAccount(ctx context.Context, svc ConnectService, logg *logger.Logger, w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}

	ownerID, err := resolveOwnerID(ctx, req.OwnerID)
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}
	barID := uuid.Nil
	if req.BarID != "" {
		barID, err = uuid.Parse(req.BarID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "barId must be a valid uuid"))
			return
		}
	}

	result, err := svc.CreateAccount(ctx, connect.CreateAccountInput{
		OwnerID:      ownerID,
		BarID:        barID,
		Email:        validators.SanitizeString(req.Email, 254),
		BusinessName: validators.SanitizeString(req.BusinessName, 120),
	})
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, http.StatusCreated, result)
}

func createAccountLink(ctx context.Context, svc ConnectService, logg *logger.Logger, w http.ResponseWriter, r *http.Request) {
	var req createAccountLinkRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}

	link, err := svc.CreateOnboardingLink(ctx, req.AccountID)
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}
	responses.WriteSuccess(w, map[string]string{
		"account_id":     req.AccountID,
		"onboarding_url": link,
	})
}

func getAccount(ctx context.Context, svc ConnectService, logg *logger.Logger, w http.ResponseWriter, r *http.Request) {
	accountID, err := validators.RequireQueryString(r, "accountId")
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}

	status, err := svc.GetAccountStatus(ctx, accountID)
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}
	responses.WriteSuccess(w, status)
}

func debugAccount(ctx context.Context, svc ConnectService, logg *logger.Logger, w http.ResponseWriter, r *http.Request) {
	accountID, err := validators.RequireQueryString(r, "accountId")
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}

	report, err := svc.DebugAccount(ctx, accountID)
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}
	responses.WriteSuccess(w, report)
}

// resolveOwnerID prefers the authenticated user; an explicit ownerId in the
// body must parse but may not impersonate someone else.
func resolveOwnerID(ctx context.Context, bodyOwnerID string) (uuid.UUID, error) {
	ctxUser := middleware.UserIDFromContext(ctx)
	if bodyOwnerID == "" {
		if ctxUser == "" {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "ownerId is required")
		}
		return uuid.Parse(ctxUser)
	}
	ownerID, err := uuid.Parse(bodyOwnerID)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "ownerId must be a valid uuid")
	}
	if ctxUser != "" && ctxUser != ownerID.String() && middleware.RoleFromContext(ctx) != "admin" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot act on behalf of another owner")
	}
	return ownerID, nil
}
