package payments

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/playabars/playabars-backend/internal/connect"
	"github.com/playabars/playabars-backend/internal/fees"
	pkgerrors "github.com/playabars/playabars-backend/pkg/errors"
	"github.com/playabars/playabars-backend/pkg/logger"
)

const defaultRequestTimeout = 15 * time.Second

// DestinationGate verifies a payout account can accept charges before any
// money is routed to it.
type DestinationGate interface {
	RequireChargesEnabled(ctx context.Context, accountID string) (*connect.AccountStatus, error)
}

// ServiceParams wires the orchestrator's dependencies.
type ServiceParams struct {
	Client         PaymentIntentClient
	Destinations   DestinationGate
	Logger         *logger.Logger
	FeePolicy      fees.Policy
	RequestTimeout time.Duration
}

// Service creates payment intents. Split payments are destination charges,
// so the charge, platform fee, and merchant transfer settle in one provider
// call. Direct payments settle the full amount on the platform.
type Service struct {
	client       PaymentIntentClient
	destinations DestinationGate
	logger       *logger.Logger
	feePolicy    fees.Policy
	timeout      time.Duration
}

// NewService validates dependencies and returns a payment orchestrator.
func NewService(params ServiceParams) (*Service, error) {
	if params.Client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "payments service requires a provider client")
	}
	if params.Destinations == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "payments service requires a destination gate")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "payments service requires a logger")
	}
	if err := params.FeePolicy.Validate(); err != nil {
		return nil, err
	}
	timeout := params.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Service{
		client:       params.Client,
		destinations: params.Destinations,
		logger:       params.Logger,
		feePolicy:    params.FeePolicy,
		timeout:      timeout,
	}, nil
}

// CreateIntentInput describes one checkout payment.
type CreateIntentInput struct {
	Amount               int64
	Currency             string
	DestinationAccountID string
	BarID                string
	UserID               string
	BookingID            string
	IdempotencyKey       string
}

// PaymentIntent is returned to the client for confirmation.
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	PlatformFee  int64  `json:"platform_fee"`
	NetAmount    int64  `json:"net_amount"`
	Status       string `json:"status"`
}

func (in *CreateIntentInput) validate() error {
	if in.Amount <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be a positive number of minor units")
	}
	currency := strings.ToLower(strings.TrimSpace(in.Currency))
	if len(currency) != 3 {
		return pkgerrors.New(pkgerrors.CodeValidation, "currency must be a three-letter ISO code")
	}
	for _, r := range currency {
		if r < 'a' || r > 'z' {
			return pkgerrors.New(pkgerrors.CodeValidation, "currency must be a three-letter ISO code")
		}
	}
	in.Currency = currency
	in.DestinationAccountID = strings.TrimSpace(in.DestinationAccountID)
	return nil
}

// split reports whether this payment routes funds to a merchant account.
func (in *CreateIntentInput) split() bool {
	return in.DestinationAccountID != ""
}

// CreateIntent validates the request and creates the intent in a single
// provider call bounded by the request timeout. When a destination account
// is given the payment is a split: the gate checks the destination can
// accept charges and the fee split is computed once. Without a destination
// the full amount settles on the platform and no fee is taken.
func (s *Service) CreateIntent(ctx context.Context, input CreateIntentInput) (*PaymentIntent, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	fee := int64(0)
	net := input.Amount
	if input.split() {
		ctx = s.logger.WithAccountID(ctx, input.DestinationAccountID)

		if _, err := s.destinations.RequireChargesEnabled(ctx, input.DestinationAccountID); err != nil {
			return nil, err
		}

		split, err := fees.ComputeSplit(input.Amount, s.feePolicy)
		if err != nil {
			return nil, err
		}
		fee = split.Fee
		net = split.Net
	}

	metadata := map[string]string{}
	if input.split() {
		metadata["platform_fee"] = strconv.FormatInt(fee, 10)
	}
	if input.BarID != "" {
		metadata["bar_id"] = input.BarID
	}
	if input.UserID != "" {
		metadata["user_id"] = input.UserID
	}
	if input.BookingID != "" {
		metadata["booking_id"] = input.BookingID
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	intent, err := s.client.CreatePaymentIntent(callCtx, CreateIntentParams{
		Amount:               input.Amount,
		Currency:             input.Currency,
		ApplicationFeeAmount: fee,
		DestinationAccountID: input.DestinationAccountID,
		Metadata:             metadata,
		IdempotencyKey:       input.IdempotencyKey,
	})
	if err != nil {
		s.logger.Error(ctx, "payment intent creation failed", err)
		return nil, err
	}

	s.logger.Info(s.logger.WithField(ctx, "payment_intent_id", intent.ID), "created payment intent")
	return &PaymentIntent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       intent.Amount,
		Currency:     intent.Currency,
		PlatformFee:  fee,
		NetAmount:    net,
		Status:       intent.Status,
	}, nil
}
