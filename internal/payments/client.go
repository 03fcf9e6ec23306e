package payments

import (
	"context"

	pkgstripe "github.com/playabars/playabars-backend/pkg/stripe"
	"github.com/stripe/stripe-go/v84"
)

// ProviderIntent is the provider-agnostic view of a created payment intent.
type ProviderIntent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
	Status       string
}

// CreateIntentParams carries everything for the single intent-creation call.
// For split payments the fee and destination ride along so charge, fee, and
// transfer settle atomically at the provider. An empty destination means a
// plain platform charge with no transfer.
type CreateIntentParams struct {
	Amount               int64
	Currency             string
	ApplicationFeeAmount int64
	DestinationAccountID string
	Metadata             map[string]string
	IdempotencyKey       string
}

// PaymentIntentClient is the provider seam for intent creation.
type PaymentIntentClient interface {
	CreatePaymentIntent(ctx context.Context, params CreateIntentParams) (*ProviderIntent, error)
}

type stripeIntentClient struct {
	api *stripe.Client
}

// NewStripeClient returns the production payment-intent client.
func NewStripeClient(api *pkgstripe.Client) PaymentIntentClient {
	if api == nil {
		return nil
	}
	return &stripeIntentClient{api: api.API()}
}

func (c *stripeIntentClient) CreatePaymentIntent(ctx context.Context, params CreateIntentParams) (*ProviderIntent, error) {
	intentParams := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(params.Amount),
		Currency: stripe.String(params.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if params.DestinationAccountID != "" {
		intentParams.ApplicationFeeAmount = stripe.Int64(params.ApplicationFeeAmount)
		intentParams.TransferData = &stripe.PaymentIntentCreateTransferDataParams{
			Destination: stripe.String(params.DestinationAccountID),
		}
	}
	if params.IdempotencyKey != "" {
		intentParams.SetIdempotencyKey(params.IdempotencyKey)
	}
	for key, value := range params.Metadata {
		intentParams.AddMetadata(key, value)
	}

	intent, err := c.api.V1PaymentIntents.Create(ctx, intentParams)
	if err != nil {
		return nil, pkgstripe.TranslateError(err, "create payment intent")
	}
	return &ProviderIntent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       intent.Amount,
		Currency:     string(intent.Currency),
		Status:       string(intent.Status),
	}, nil
}
