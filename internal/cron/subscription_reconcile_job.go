package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/playabars/playabars-backend/internal/subscriptions"
	pkgerrors "github.com/playabars/playabars-backend/pkg/errors"
	"github.com/playabars/playabars-backend/pkg/logger"
	"github.com/sethvargo/go-retry"
	"go.uber.org/multierr"
)

const (
	defaultReconcileLimit    = 250
	defaultReconcileLookback = 7 * 24 * time.Hour
	reconcileRetryBase       = 500 * time.Millisecond
	reconcileRetryMax        = 2
)

// SubscriptionReconcileJobParams configures the subscription sync cron job.
type SubscriptionReconcileJobParams struct {
	Logger        *logger.Logger
	Subscriptions *subscriptions.Service
	Provider      subscriptions.ProviderClient
	Limit         int
	Lookback      time.Duration
}

// NewSubscriptionReconcileJob builds a job that re-reads stale rows from the
// provider so subscriptions that missed webhook deliveries converge anyway.
func NewSubscriptionReconcileJob(params SubscriptionReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscriptions service required")
	}
	if params.Provider == nil {
		return nil, fmt.Errorf("provider client required")
	}
	lookback := params.Lookback
	if lookback <= 0 {
		lookback = defaultReconcileLookback
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultReconcileLimit
	}
	return &subscriptionReconcileJob{
		logg:     params.Logger,
		subs:     params.Subscriptions,
		provider: params.Provider,
		limit:    limit,
		lookback: lookback,
	}, nil
}

type subscriptionReconcileJob struct {
	logg     *logger.Logger
	subs     *subscriptions.Service
	provider subscriptions.ProviderClient
	limit    int
	lookback time.Duration
}

func (j *subscriptionReconcileJob) Name() string { return "subscription-reconcile" }

func (j *subscriptionReconcileJob) Run(ctx context.Context) error {
	stale, err := j.subs.Stale(ctx, j.lookback, j.limit)
	if err != nil {
		return fmt.Errorf("list stale subscriptions: %w", err)
	}

	var errs error
	synced := 0
	for i := range stale {
		if err := j.reconcileOne(ctx, stale[i].StripeSubscriptionID); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		synced++
	}

	reportCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates": len(stale),
		"synced":     synced,
	})
	j.logg.Info(reportCtx, "subscription reconcile loop complete")
	return errs
}

// reconcileOne fetches the provider's view of a subscription and replays it
// through the regular event handlers. A provider-side deletion becomes a
// deletion event so both paths converge on the same state.
func (j *subscriptionReconcileJob) reconcileOne(ctx context.Context, providerID string) error {
	logCtx := j.logg.WithField(ctx, "subscription_id", providerID)

	var providerSub *subscriptions.ProviderSubscription
	backoff := retry.WithMaxRetries(reconcileRetryMax, retry.NewExponential(reconcileRetryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		fetched, fetchErr := j.provider.GetSubscription(ctx, providerID)
		if fetchErr != nil {
			if isTransient(fetchErr) {
				return retry.RetryableError(fetchErr)
			}
			return fetchErr
		}
		providerSub = fetched
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil && pkgerrors.As(err).Code() == pkgerrors.CodeNotFound {
			return j.subs.HandleEvent(logCtx, subscriptions.SubscriptionDeleted{ProviderID: providerID})
		}
		return fmt.Errorf("fetch subscription %s: %w", providerID, err)
	}

	return j.subs.HandleEvent(logCtx, subscriptions.SubscriptionUpdated{
		ProviderID:     providerSub.ID,
		ProviderStatus: providerSub.Status,
		Tier:           providerSub.Tier,
		PeriodStart:    providerSub.PeriodStart,
		PeriodEnd:      providerSub.PeriodEnd,
	})
}

func isTransient(err error) bool {
	appErr := pkgerrors.As(err)
	if appErr == nil {
		return false
	}
	switch appErr.Code() {
	case pkgerrors.CodeProviderTimeout, pkgerrors.CodeDependency:
		return true
	default:
		return false
	}
}
