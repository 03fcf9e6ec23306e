package connect

import (
	"context"
	"fmt"
	"strings"

	pkgerrors "github.com/playabars/playabars-backend/pkg/errors"
)

// RecommendationPriority orders advisory findings for display.
type RecommendationPriority string

const (
	PriorityUrgent RecommendationPriority = "URGENT"
	PriorityHigh   RecommendationPriority = "HIGH"
	PriorityInfo   RecommendationPriority = "INFO"
)

// Recommendation is one actionable finding about an account's onboarding state.
type Recommendation struct {
	Priority RecommendationPriority `json:"priority"`
	Message  string                 `json:"message"`
}

// DebugReport is the support-facing diagnosis of a connected account.
type DebugReport struct {
	Account         AccountStatus    `json:"account"`
	Recommendations []Recommendation `json:"recommendations"`
	Healthy         bool             `json:"healthy"`
}

// DebugAccount produces a prioritized diagnosis for support tooling. It never
// mutates the account.
func (s *Service) DebugAccount(ctx context.Context, accountID string) (*DebugReport, error) {
	status, err := s.GetAccountStatus(ctx, accountID)
	if err != nil {
		return nil, err
	}

	report := &DebugReport{Account: *status}
	req := status.Requirements

	if len(req.PastDue) > 0 {
		report.Recommendations = append(report.Recommendations, Recommendation{
			Priority: PriorityUrgent,
			Message:  fmt.Sprintf("past due requirements must be resolved now: %s", strings.Join(req.PastDue, ", ")),
		})
	}
	if len(req.CurrentlyDue) > 0 {
		report.Recommendations = append(report.Recommendations, Recommendation{
			Priority: PriorityHigh,
			Message:  fmt.Sprintf("complete the outstanding onboarding items: %s", strings.Join(req.CurrentlyDue, ", ")),
		})
	}
	if !status.ChargesEnabled && !status.PayoutsEnabled {
		msg := "charges and payouts are disabled"
		if req.DisabledReason != "" {
			msg = fmt.Sprintf("%s (%s)", msg, req.DisabledReason)
		}
		report.Recommendations = append(report.Recommendations, Recommendation{
			Priority: PriorityHigh,
			Message:  msg,
		})
	}
	if len(req.PendingVerification) > 0 {
		report.Recommendations = append(report.Recommendations, Recommendation{
			Priority: PriorityInfo,
			Message:  fmt.Sprintf("verification in progress, no action needed: %s", strings.Join(req.PendingVerification, ", ")),
		})
	}

	report.Healthy = len(report.Recommendations) == 0 && status.IsOnboarded
	return report, nil
}

// RequireChargesEnabled is the precondition gate used before routing money to
// an account. It returns an account-not-ready error naming what is missing.
func (s *Service) RequireChargesEnabled(ctx context.Context, accountID string) (*AccountStatus, error) {
	status, err := s.GetAccountStatus(ctx, accountID)
	if err != nil {
		// A destination that does not exist is just as unready as one that
		// has not finished onboarding.
		if isNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeAccountNotReady, err, "destination account does not exist").
				WithDetails(map[string]any{"account_id": accountID})
		}
		return nil, err
	}
	if !status.ChargesEnabled {
		return nil, pkgerrors.New(pkgerrors.CodeAccountNotReady, "destination account cannot accept charges yet").
			WithDetails(map[string]any{
				"account_id":    status.AccountID,
				"status":        status.Status,
				"currently_due": status.Requirements.CurrentlyDue,
				"past_due":      status.Requirements.PastDue,
			})
	}
	return status, nil
}
