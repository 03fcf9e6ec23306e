package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/playabars/playabars-backend/api/middleware"
	"github.com/playabars/playabars-backend/api/responses"
	"github.com/playabars/playabars-backend/api/validators"
	"github.com/playabars/playabars-backend/internal/connect"
	"github.com/playabars/playabars-backend/internal/teardown"
	pkgerrors "github.com/playabars/playabars-backend/pkg/errors"
	"github.com/playabars/playabars-backend/pkg/logger"
)

// AccountDeleter deletes one connected account.
type AccountDeleter interface {
	DeleteAccount(ctx context.Context, accountID string) connect.DeleteResult
}

// TeardownService tears down every account a user owns.
type TeardownService interface {
	TeardownAccountsForUser(ctx context.Context, userID uuid.UUID) (*teardown.Report, error)
}

type accountManagementRequest struct {
	Action    string `json:"action" validate:"required,oneof=disconnect-single delete-user-accounts"`
	AccountID string `json:"accountId" validate:"omitempty"`
	UserID    string `json:"userId" validate:"omitempty,uuid"`
}

// AccountManagement handles destructive account operations: single
// disconnects and full per-user teardowns.
func AccountManagement(deleter AccountDeleter, bulk TeardownService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req accountManagementRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		switch req.Action {
		case "disconnect-single":
			if req.AccountID == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "accountId is required").
					WithDetails(map[string]any{"field": "accountId"}))
				return
			}
			result := deleter.DeleteAccount(ctx, req.AccountID)
			responses.WriteSuccess(w, result)

		case "delete-user-accounts":
			userID, err := resolveTargetUser(ctx, req.UserID)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			report, err := bulk.TeardownAccountsForUser(ctx, userID)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			responses.WriteSuccess(w, report)
		}
	}
}

// resolveTargetUser defaults to the caller; only admins may target others.
func resolveTargetUser(ctx context.Context, bodyUserID string) (uuid.UUID, error) {
	ctxUser := middleware.UserIDFromContext(ctx)
	if bodyUserID == "" {
		if ctxUser == "" {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "userId is required")
		}
		return uuid.Parse(ctxUser)
	}
	userID, err := uuid.Parse(bodyUserID)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "userId must be a valid uuid")
	}
	if ctxUser != "" && ctxUser != userID.String() && middleware.RoleFromContext(ctx) != "admin" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot tear down another user's accounts")
	}
	return userID, nil
}
