package subscriptions

import (
	"context"
	"time"

	pkgstripe "github.com/playabars/playabars-backend/pkg/stripe"
	"github.com/stripe/stripe-go/v84"
)

// ProviderSubscription is the provider's current view of one subscription.
type ProviderSubscription struct {
	ID          string
	Status      string
	Tier        string
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// ProviderClient reads subscription state from the provider. The reconcile
// job uses it to repair rows that missed webhook deliveries.
type ProviderClient interface {
	GetSubscription(ctx context.Context, providerID string) (*ProviderSubscription, error)
}

type stripeSubscriptionClient struct {
	api *stripe.Client
}

// NewStripeClient returns the production provider reader.
func NewStripeClient(api *pkgstripe.Client) ProviderClient {
	if api == nil {
		return nil
	}
	return &stripeSubscriptionClient{api: api.API()}
}

func (c *stripeSubscriptionClient) GetSubscription(ctx context.Context, providerID string) (*ProviderSubscription, error) {
	sub, err := c.api.V1Subscriptions.Retrieve(ctx, providerID, &stripe.SubscriptionRetrieveParams{})
	if err != nil {
		return nil, pkgstripe.TranslateError(err, "fetch subscription")
	}

	start, end := periodBounds(sub)
	return &ProviderSubscription{
		ID:          sub.ID,
		Status:      string(sub.Status),
		Tier:        sub.Metadata["tier"],
		PeriodStart: start,
		PeriodEnd:   end,
	}, nil
}
