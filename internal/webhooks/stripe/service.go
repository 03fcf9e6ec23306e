package stripe

import (
	"context"

	"github.com/playabars/playabars-backend/internal/subscriptions"
	pkgerrors "github.com/playabars/playabars-backend/pkg/errors"
	"github.com/playabars/playabars-backend/pkg/logger"
	pkgredis "github.com/playabars/playabars-backend/pkg/redis"
	"github.com/stripe/stripe-go/v84/webhook"
)

// ServiceParams wires the webhook pipeline's dependencies.
type ServiceParams struct {
	Subscriptions *subscriptions.Service
	Guard         pkgredis.IdempotencyStore
	Logger        *logger.Logger
	SigningSecret string
}

// Service verifies, deduplicates, and dispatches provider webhook events.
// Nothing mutates state before the signature check passes.
type Service struct {
	subscriptions *subscriptions.Service
	guard         *eventGuard
	logger        *logger.Logger
	signingSecret string
}

// NewService validates dependencies and returns the webhook pipeline.
func NewService(params ServiceParams) (*Service, error) {
	if params.Subscriptions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "webhook service requires the subscriptions service")
	}
	if params.Guard == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "webhook service requires a dedup store")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "webhook service requires a logger")
	}
	if params.SigningSecret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "webhook service requires a signing secret")
	}
	return &Service{
		subscriptions: params.Subscriptions,
		guard:         newEventGuard(params.Guard, params.Logger),
		logger:        params.Logger,
		signingSecret: params.SigningSecret,
	}, nil
}

// Process verifies the payload signature, claims the event id, decodes the
// event once, and dispatches it. Handler failures release the claim and
// surface as errors so the provider re-delivers.
func (s *Service) Process(ctx context.Context, payload []byte, signatureHeader string) error {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, s.signingSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeSignature, err, "webhook signature verification failed")
	}

	ctx = s.logger.WithFields(ctx, map[string]any{
		"event_id":   event.ID,
		"event_type": string(event.Type),
	})

	if !s.guard.Claim(ctx, event.ID) {
		s.logger.Info(ctx, "duplicate webhook delivery, skipping")
		return nil
	}

	decoded, err := subscriptions.DecodeEvent(&event)
	if err != nil {
		s.guard.Release(ctx, event.ID)
		return err
	}

	if err := s.subscriptions.HandleEvent(ctx, decoded); err != nil {
		s.guard.Release(ctx, event.ID)
		s.logger.Error(ctx, "webhook handler failed", err)
		return err
	}
	return nil
}
