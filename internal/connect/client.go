package connect

import (
	"context"

	pkgstripe "github.com/playabars/playabars-backend/pkg/stripe"
	"github.com/stripe/stripe-go/v84"
)

// ProviderAccount is the provider-agnostic view of a connected payout account.
type ProviderAccount struct {
	ID               string
	Email            string
	Livemode         bool
	ChargesEnabled   bool
	PayoutsEnabled   bool
	DetailsSubmitted bool
	Requirements     ProviderRequirements
	Metadata         map[string]string
}

// ProviderRequirements lists outstanding onboarding/verification items.
type ProviderRequirements struct {
	CurrentlyDue        []string
	PastDue             []string
	PendingVerification []string
	EventuallyDue       []string
	DisabledReason      string
}

// ProviderBalance sums the account's balance across currencies in minor units.
type ProviderBalance struct {
	Available int64
	Pending   int64
}

// CreateProviderAccountParams carries the fields needed to open a sub-merchant account.
type CreateProviderAccountParams struct {
	Email        string
	BusinessName string
	Metadata     map[string]string
}

// StripeAccountClient exposes the subset of Stripe Connect operations the
// lifecycle manager needs. Provider errors are translated to the platform
// taxonomy before they leave this interface.
type StripeAccountClient interface {
	CreateAccount(ctx context.Context, params CreateProviderAccountParams) (*ProviderAccount, error)
	GetAccount(ctx context.Context, accountID string) (*ProviderAccount, error)
	DeleteAccount(ctx context.Context, accountID string) error
	CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error)
	GetBalance(ctx context.Context, accountID string) (*ProviderBalance, error)
}

type stripeClientWrapper struct {
	api      *stripe.Client
	livemode bool
}

// NewStripeClient wraps the shared Stripe client so the lifecycle manager can be tested.
func NewStripeClient(api *pkgstripe.Client) StripeAccountClient {
	if api == nil {
		return nil
	}
	return &stripeClientWrapper{api: api.API(), livemode: api.Livemode()}
}

func (w *stripeClientWrapper) CreateAccount(ctx context.Context, params CreateProviderAccountParams) (*ProviderAccount, error) {
	acctParams := &stripe.AccountCreateParams{
		Type:  stripe.String(string(stripe.AccountTypeExpress)),
		Email: stripe.String(params.Email),
		BusinessProfile: &stripe.AccountCreateBusinessProfileParams{
			Name: stripe.String(params.BusinessName),
		},
		Capabilities: &stripe.AccountCreateCapabilitiesParams{
			CardPayments: &stripe.AccountCreateCapabilitiesCardPaymentsParams{Requested: stripe.Bool(true)},
			Transfers:    &stripe.AccountCreateCapabilitiesTransfersParams{Requested: stripe.Bool(true)},
		},
	}
	for key, value := range params.Metadata {
		acctParams.AddMetadata(key, value)
	}

	acct, err := w.api.V1Accounts.Create(ctx, acctParams)
	if err != nil {
		return nil, translateProviderError(err, "create connect account")
	}
	return w.toProviderAccount(acct), nil
}

func (w *stripeClientWrapper) GetAccount(ctx context.Context, accountID string) (*ProviderAccount, error) {
	acct, err := w.api.V1Accounts.GetByID(ctx, accountID, &stripe.AccountRetrieveParams{})
	if err != nil {
		return nil, translateProviderError(err, "fetch connect account")
	}
	return w.toProviderAccount(acct), nil
}

func (w *stripeClientWrapper) DeleteAccount(ctx context.Context, accountID string) error {
	if _, err := w.api.V1Accounts.Delete(ctx, accountID, &stripe.AccountDeleteParams{}); err != nil {
		return translateProviderError(err, "delete connect account")
	}
	return nil
}

func (w *stripeClientWrapper) CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	params := &stripe.AccountLinkCreateParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(refreshURL),
		ReturnURL:  stripe.String(returnURL),
		Type:       stripe.String("account_onboarding"),
	}
	link, err := w.api.V1AccountLinks.Create(ctx, params)
	if err != nil {
		return "", translateProviderError(err, "create account link")
	}
	return link.URL, nil
}

func (w *stripeClientWrapper) GetBalance(ctx context.Context, accountID string) (*ProviderBalance, error) {
	params := &stripe.BalanceRetrieveParams{}
	params.SetStripeAccount(accountID)
	bal, err := w.api.V1Balance.Retrieve(ctx, params)
	if err != nil {
		return nil, translateProviderError(err, "fetch account balance")
	}

	result := &ProviderBalance{}
	for _, amount := range bal.Available {
		if amount != nil {
			result.Available += amount.Amount
		}
	}
	for _, amount := range bal.Pending {
		if amount != nil {
			result.Pending += amount.Amount
		}
	}
	return result, nil
}

func (w *stripeClientWrapper) toProviderAccount(acct *stripe.Account) *ProviderAccount {
	if acct == nil {
		return nil
	}
	mapped := &ProviderAccount{
		ID:               acct.ID,
		Email:            acct.Email,
		Livemode:         w.livemode,
		ChargesEnabled:   acct.ChargesEnabled,
		PayoutsEnabled:   acct.PayoutsEnabled,
		DetailsSubmitted: acct.DetailsSubmitted,
		Metadata:         acct.Metadata,
	}
	if acct.Requirements != nil {
		mapped.Requirements = ProviderRequirements{
			CurrentlyDue:        acct.Requirements.CurrentlyDue,
			PastDue:             acct.Requirements.PastDue,
			PendingVerification: acct.Requirements.PendingVerification,
			EventuallyDue:       acct.Requirements.EventuallyDue,
			DisabledReason:      string(acct.Requirements.DisabledReason),
		}
	}
	return mapped
}
