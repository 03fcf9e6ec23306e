package connect

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/playabars/playabars-backend/internal/bars"
	"github.com/playabars/playabars-backend/pkg/enums"
	pkgerrors "github.com/playabars/playabars-backend/pkg/errors"
	"github.com/playabars/playabars-backend/pkg/logger"
)

// ServiceParams wires the lifecycle manager's dependencies.
type ServiceParams struct {
	Client        StripeAccountClient
	Bars          bars.Repository
	Logger        *logger.Logger
	PublicBaseURL string
}

// Service manages the lifecycle of connected payout accounts: creation,
// onboarding links, status reads, and deletion.
type Service struct {
	client  StripeAccountClient
	bars    bars.Repository
	logger  *logger.Logger
	baseURL string
}

// NewService validates dependencies and returns a lifecycle service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "connect service requires a provider client")
	}
	if params.Bars == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "connect service requires a bar repository")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "connect service requires a logger")
	}
	if strings.TrimSpace(params.PublicBaseURL) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "connect service requires a public base URL")
	}
	return &Service{
		client:  params.Client,
		bars:    params.Bars,
		logger:  params.Logger,
		baseURL: strings.TrimRight(params.PublicBaseURL, "/"),
	}, nil
}

// CreateAccountInput describes the owner a payout account is opened for.
// BarID is optional. When set the account is linked to the bar on creation.
type CreateAccountInput struct {
	OwnerID      uuid.UUID
	BarID        uuid.UUID
	Email        string
	BusinessName string
}

// CreateAccountResult is returned to the caller so they can start onboarding.
type CreateAccountResult struct {
	AccountID     string `json:"account_id"`
	OnboardingURL string `json:"onboarding_url"`
	Existing      bool   `json:"existing"`
}

// AccountStatus is the read model for a connected account.
type AccountStatus struct {
	AccountID        string               `json:"account_id"`
	Status           enums.AccountStatus  `json:"status"`
	IsOnboarded      bool                 `json:"is_onboarded"`
	ChargesEnabled   bool                 `json:"charges_enabled"`
	PayoutsEnabled   bool                 `json:"payouts_enabled"`
	DetailsSubmitted bool                 `json:"details_submitted"`
	Livemode         bool                 `json:"livemode"`
	Requirements     ProviderRequirements `json:"requirements"`
	AvailableBalance int64                `json:"available_balance"`
	PendingBalance   int64                `json:"pending_balance"`
}

// DeleteResult reports the outcome of one deletion attempt. Failures are
// values, not errors, so bulk callers can aggregate them.
type DeleteResult struct {
	AccountID string               `json:"account_id"`
	Deleted   bool                 `json:"deleted"`
	Reason    enums.DeletionReason `json:"reason,omitempty"`
	Message   string               `json:"message,omitempty"`
}

// Succeeded reports whether the attempt should count as success: the account
// is gone, or the failure is benign and actionable by the owner.
func (r DeleteResult) Succeeded() bool {
	return r.Deleted || r.Reason.IsBenign()
}

// CreateAccount opens an Express account and returns an onboarding link.
// When a bar is given the account is linked to it, and calling again for a
// bar that already has an account reuses the existing account and only mints
// a fresh link. Without a bar the account is created standalone and can be
// attached later.
func (s *Service) CreateAccount(ctx context.Context, input CreateAccountInput) (*CreateAccountResult, error) {
	if strings.TrimSpace(input.Email) == "" || !strings.Contains(input.Email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}
	if strings.TrimSpace(input.BusinessName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business name is required")
	}
	if input.OwnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner identifier is required")
	}

	metadata := map[string]string{
		"owner_id": input.OwnerID.String(),
	}

	if input.BarID != uuid.Nil {
		bar, err := s.bars.FindByID(ctx, input.BarID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load bar")
		}
		if bar == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bar not found")
		}
		if bar.OwnerID != input.OwnerID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "bar does not belong to the caller")
		}

		ctx = s.logger.WithBarID(ctx, input.BarID.String())

		if bar.ConnectAccountID != nil && *bar.ConnectAccountID != "" {
			link, linkErr := s.onboardingLink(ctx, *bar.ConnectAccountID)
			if linkErr != nil {
				return nil, linkErr
			}
			s.logger.Info(ctx, "reusing existing connect account")
			return &CreateAccountResult{
				AccountID:     *bar.ConnectAccountID,
				OnboardingURL: link,
				Existing:      true,
			}, nil
		}

		metadata["bar_id"] = input.BarID.String()
	}

	acct, err := s.client.CreateAccount(ctx, CreateProviderAccountParams{
		Email:        input.Email,
		BusinessName: input.BusinessName,
		Metadata:     metadata,
	})
	if err != nil {
		return nil, err
	}

	if input.BarID != uuid.Nil {
		if err := s.bars.SetConnectAccount(ctx, input.BarID, acct.ID); err != nil {
			// The provider account exists but the linkage write failed. Surface
			// the account id so the caller can retry the attach.
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to link connect account to bar").
				WithDetails(map[string]string{"account_id": acct.ID})
		}
	}

	link, err := s.onboardingLink(ctx, acct.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info(s.logger.WithAccountID(ctx, acct.ID), "created connect account")
	return &CreateAccountResult{AccountID: acct.ID, OnboardingURL: link}, nil
}

// CreateOnboardingLink mints a fresh onboarding link for an existing account.
// Links expire quickly so clients request one right before redirecting.
func (s *Service) CreateOnboardingLink(ctx context.Context, accountID string) (string, error) {
	if strings.TrimSpace(accountID) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	return s.onboardingLink(ctx, accountID)
}

func (s *Service) onboardingLink(ctx context.Context, accountID string) (string, error) {
	refresh := fmt.Sprintf("%s/connect/onboarding/refresh?account=%s", s.baseURL, url.QueryEscape(accountID))
	ret := fmt.Sprintf("%s/connect/onboarding/complete?account=%s", s.baseURL, url.QueryEscape(accountID))
	return s.client.CreateAccountLink(ctx, accountID, refresh, ret)
}

// GetAccountStatus reads the account from the provider and derives its
// onboarding status and balances.
func (s *Service) GetAccountStatus(ctx context.Context, accountID string) (*AccountStatus, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}

	acct, err := s.client.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	status := &AccountStatus{
		AccountID:        acct.ID,
		Status:           DeriveStatus(acct.ChargesEnabled, acct.PayoutsEnabled, acct.DetailsSubmitted),
		IsOnboarded:      acct.ChargesEnabled && acct.PayoutsEnabled,
		ChargesEnabled:   acct.ChargesEnabled,
		PayoutsEnabled:   acct.PayoutsEnabled,
		DetailsSubmitted: acct.DetailsSubmitted,
		Livemode:         acct.Livemode,
		Requirements:     acct.Requirements,
	}

	bal, err := s.client.GetBalance(ctx, accountID)
	if err != nil {
		// Balance is informational on the status read; do not fail it.
		s.logger.Warn(s.logger.WithAccountID(ctx, accountID), "failed to fetch account balance")
	} else {
		status.AvailableBalance = bal.Available
		status.PendingBalance = bal.Pending
	}
	return status, nil
}

// DeleteAccount removes a connected account, treating an already-missing
// account as success. Live accounts holding funds are refused so money is
// never stranded; the owner must pay out first.
func (s *Service) DeleteAccount(ctx context.Context, accountID string) DeleteResult {
	ctx = s.logger.WithAccountID(ctx, accountID)
	result := DeleteResult{AccountID: accountID}

	acct, err := s.client.GetAccount(ctx, accountID)
	if err != nil {
		if isNotFound(err) {
			result.Deleted = true
			result.Reason = enums.DeletionReasonAlreadyDeleted
			return result
		}
		result.Reason = enums.DeletionReasonUnknown
		result.Message = err.Error()
		return result
	}

	if acct.Livemode {
		bal, balErr := s.client.GetBalance(ctx, accountID)
		if balErr != nil {
			result.Reason = enums.DeletionReasonUnknown
			result.Message = balErr.Error()
			return result
		}
		if total := bal.Available + bal.Pending; total > 0 {
			result.Reason = enums.DeletionReasonNonZeroBalance
			result.Message = fmt.Sprintf("account holds %d in balance; pay out before deleting", total)
			s.logger.Warn(ctx, "refused to delete account with non-zero balance")
			return result
		}
	}

	if err := s.client.DeleteAccount(ctx, accountID); err != nil {
		if isNotFound(err) {
			result.Deleted = true
			result.Reason = enums.DeletionReasonAlreadyDeleted
		} else {
			result.Reason = enums.DeletionReasonUnknown
			result.Message = err.Error()
			return result
		}
	} else {
		result.Deleted = true
	}

	if err := s.bars.ClearConnectAccount(ctx, accountID); err != nil {
		// The provider side is gone; keep the deletion a success and let
		// the linkage be cleaned up on the next teardown pass.
		s.logger.Warn(ctx, "failed to clear bar linkage after account deletion")
	}

	s.logger.Info(ctx, "deleted connect account")
	return result
}
