package subscriptions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/playabars/playabars-backend/pkg/db/models"
	"github.com/playabars/playabars-backend/pkg/enums"
	pkgerrors "github.com/playabars/playabars-backend/pkg/errors"
	"github.com/playabars/playabars-backend/pkg/logger"
)

// updateAttempts bounds the re-read-and-retry loop on version conflicts.
const updateAttempts = 2

// ServiceParams wires the reconciler's dependencies.
type ServiceParams struct {
	Repo   Repository
	Logger *logger.Logger
}

// Service keeps local subscription rows in sync with provider events. Every
// handler is an idempotent upsert keyed by the provider's subscription id;
// replaying an event converges on the same final state.
type Service struct {
	repo   Repository
	logger *logger.Logger
}

// NewService validates dependencies and returns a subscription reconciler.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "subscriptions service requires a repository")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "subscriptions service requires a logger")
	}
	return &Service{repo: params.Repo, logger: params.Logger}, nil
}

// HandleEvent dispatches one decoded event to its handler. Data-quality
// discards return nil so the provider does not retry them; only
// infrastructure failures surface as errors.
func (s *Service) HandleEvent(ctx context.Context, event Event) error {
	switch ev := event.(type) {
	case SubscriptionCreated:
		return s.onCreated(ctx, ev)
	case SubscriptionUpdated:
		return s.onUpdated(ctx, ev)
	case SubscriptionDeleted:
		return s.onDeleted(ctx, ev)
	case PaymentSucceeded:
		return s.onPaymentSucceeded(ctx, ev)
	case PaymentFailed:
		return s.onPaymentFailed(ctx, ev)
	case Ignored:
		s.logger.Info(s.logger.WithField(ctx, "event_type", ev.Type), "skipping untracked event type")
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unhandled event variant %T", event))
	}
}

func (s *Service) onCreated(ctx context.Context, ev SubscriptionCreated) error {
	ctx = s.logger.WithField(ctx, "subscription_id", ev.ProviderID)

	if ev.UserID == "" || ev.Tier == "" {
		s.logger.Warn(ctx, "subscription created without user_id or tier metadata, discarding")
		return nil
	}
	userID, err := uuid.Parse(ev.UserID)
	if err != nil {
		s.logger.Warn(ctx, "subscription created with malformed user_id metadata, discarding")
		return nil
	}

	sub := &models.Subscription{
		ID:                   uuid.New(),
		UserID:               userID,
		StripeSubscriptionID: ev.ProviderID,
		Tier:                 ev.Tier,
		Status:               enums.SubscriptionStatusActive,
		CurrentPeriodEnd:     ev.PeriodEnd,
		BookingsUsed:         0,
	}
	if !ev.PeriodStart.IsZero() {
		start := ev.PeriodStart
		sub.CurrentPeriodStart = &start
	}

	if err := s.repo.Upsert(ctx, sub); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to upsert subscription")
	}
	s.logger.Info(ctx, "subscription created")
	return nil
}

func (s *Service) onUpdated(ctx context.Context, ev SubscriptionUpdated) error {
	ctx = s.logger.WithField(ctx, "subscription_id", ev.ProviderID)

	return s.applyUpdate(ctx, ev.ProviderID, func(sub *models.Subscription) {
		sub.Status = MapProviderStatus(ev.ProviderStatus)
		if ev.Tier != "" {
			sub.Tier = ev.Tier
		}
		if !ev.PeriodStart.IsZero() {
			start := ev.PeriodStart
			sub.CurrentPeriodStart = &start
		}
		if !ev.PeriodEnd.IsZero() {
			sub.CurrentPeriodEnd = ev.PeriodEnd
		}
	}, "subscription updated")
}

func (s *Service) onDeleted(ctx context.Context, ev SubscriptionDeleted) error {
	ctx = s.logger.WithField(ctx, "subscription_id", ev.ProviderID)

	if err := s.repo.DeleteByProviderID(ctx, ev.ProviderID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to delete subscription")
	}
	s.logger.Info(ctx, "subscription deleted")
	return nil
}

func (s *Service) onPaymentSucceeded(ctx context.Context, ev PaymentSucceeded) error {
	if ev.ProviderID == "" {
		s.logger.Info(ctx, "invoice payment without subscription reference, skipping")
		return nil
	}
	ctx = s.logger.WithField(ctx, "subscription_id", ev.ProviderID)

	return s.applyUpdate(ctx, ev.ProviderID, func(sub *models.Subscription) {
		sub.Status = enums.SubscriptionStatusActive
		sub.BookingsUsed = 0
	}, "billing period renewed")
}

func (s *Service) onPaymentFailed(ctx context.Context, ev PaymentFailed) error {
	if ev.ProviderID == "" {
		return nil
	}
	ctx = s.logger.WithField(ctx, "subscription_id", ev.ProviderID)

	return s.applyUpdate(ctx, ev.ProviderID, func(sub *models.Subscription) {
		sub.Status = enums.SubscriptionStatusPastDue
	}, "subscription payment failed")
}

// applyUpdate reads the row, applies the mutation, and writes it back under
// the version guard. A concurrent writer triggers one re-read and retry.
func (s *Service) applyUpdate(ctx context.Context, providerID string, mutate func(*models.Subscription), doneMsg string) error {
	for attempt := 0; attempt < updateAttempts; attempt++ {
		sub, err := s.repo.FindByProviderID(ctx, providerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load subscription")
		}
		if sub == nil {
			s.logger.Warn(ctx, "event references unknown subscription, discarding")
			return nil
		}

		mutate(sub)

		err = s.repo.Update(ctx, sub)
		if err == nil {
			s.logger.Info(ctx, doneMsg)
			return nil
		}
		if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeConflict && attempt+1 < updateAttempts {
			continue
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update subscription")
	}
	return nil
}

// Stale lists rows last touched before now minus lookback so the reconcile
// job can re-check them against the provider.
func (s *Service) Stale(ctx context.Context, lookback time.Duration, limit int) ([]models.Subscription, error) {
	cutoff := time.Now().UTC().Add(-lookback)
	subs, err := s.repo.ListStale(ctx, cutoff, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list stale subscriptions")
	}
	return subs, nil
}
