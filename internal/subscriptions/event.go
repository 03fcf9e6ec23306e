package subscriptions

import (
	"encoding/json"
	"time"

	pkgerrors "github.com/playabars/playabars-backend/pkg/errors"
	"github.com/stripe/stripe-go/v84"
)

// Event is the decoded form of a provider webhook event. Each variant carries
// exactly the fields its handler needs; the raw payload is parsed once, here,
// and never re-inspected downstream.
type Event interface {
	isSubscriptionEvent()
}

// SubscriptionCreated signals a new subscription at the provider.
type SubscriptionCreated struct {
	ProviderID     string
	CustomerID     string
	ProviderStatus string
	UserID         string
	Tier           string
	PeriodStart    time.Time
	PeriodEnd      time.Time
}

// SubscriptionUpdated signals a status, tier, or period change.
type SubscriptionUpdated struct {
	ProviderID     string
	ProviderStatus string
	Tier           string
	PeriodStart    time.Time
	PeriodEnd      time.Time
}

// SubscriptionDeleted signals a cancellation at the provider.
type SubscriptionDeleted struct {
	ProviderID string
}

// PaymentSucceeded signals a paid invoice for a subscription period.
type PaymentSucceeded struct {
	ProviderID string
	InvoiceID  string
}

// PaymentFailed signals a failed invoice charge.
type PaymentFailed struct {
	ProviderID string
	InvoiceID  string
}

// Ignored is returned for event types this service does not track.
type Ignored struct {
	Type string
}

func (SubscriptionCreated) isSubscriptionEvent() {}
func (SubscriptionUpdated) isSubscriptionEvent() {}
func (SubscriptionDeleted) isSubscriptionEvent() {}
func (PaymentSucceeded) isSubscriptionEvent()    {}
func (PaymentFailed) isSubscriptionEvent()       {}
func (Ignored) isSubscriptionEvent()             {}

// DecodeEvent parses a verified provider event into its typed variant.
// Unknown event types decode to Ignored, never to an error.
func DecodeEvent(event *stripe.Event) (Event, error) {
	if event == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event is required")
	}

	switch event.Type {
	case stripe.EventTypeCustomerSubscriptionCreated:
		sub, err := decodeSubscription(event)
		if err != nil {
			return nil, err
		}
		start, end := periodBounds(sub)
		return SubscriptionCreated{
			ProviderID:     sub.ID,
			CustomerID:     customerID(sub),
			ProviderStatus: string(sub.Status),
			UserID:         sub.Metadata["user_id"],
			Tier:           sub.Metadata["tier"],
			PeriodStart:    start,
			PeriodEnd:      end,
		}, nil

	case stripe.EventTypeCustomerSubscriptionUpdated:
		sub, err := decodeSubscription(event)
		if err != nil {
			return nil, err
		}
		start, end := periodBounds(sub)
		return SubscriptionUpdated{
			ProviderID:     sub.ID,
			ProviderStatus: string(sub.Status),
			Tier:           sub.Metadata["tier"],
			PeriodStart:    start,
			PeriodEnd:      end,
		}, nil

	case stripe.EventTypeCustomerSubscriptionDeleted:
		sub, err := decodeSubscription(event)
		if err != nil {
			return nil, err
		}
		return SubscriptionDeleted{ProviderID: sub.ID}, nil

	case stripe.EventTypeInvoicePaymentSucceeded:
		invoiceID, subID, err := decodeInvoiceRefs(event)
		if err != nil {
			return nil, err
		}
		return PaymentSucceeded{ProviderID: subID, InvoiceID: invoiceID}, nil

	case stripe.EventTypeInvoicePaymentFailed:
		invoiceID, subID, err := decodeInvoiceRefs(event)
		if err != nil {
			return nil, err
		}
		return PaymentFailed{ProviderID: subID, InvoiceID: invoiceID}, nil

	default:
		return Ignored{Type: string(event.Type)}, nil
	}
}

func decodeSubscription(event *stripe.Event) (*stripe.Subscription, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed subscription payload")
	}
	if sub.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription payload missing id")
	}
	return &sub, nil
}

func decodeInvoiceRefs(event *stripe.Event) (invoiceID, subscriptionID string, err error) {
	var invoice stripe.Invoice
	if unmarshalErr := json.Unmarshal(event.Data.Raw, &invoice); unmarshalErr != nil {
		return "", "", pkgerrors.Wrap(pkgerrors.CodeValidation, unmarshalErr, "malformed invoice payload")
	}
	subscriptionID = event.GetObjectValue("subscription")
	if subscriptionID == "" {
		subscriptionID = event.GetObjectValue("parent", "subscription_details", "subscription")
	}
	return invoice.ID, subscriptionID, nil
}

func customerID(sub *stripe.Subscription) string {
	if sub.Customer == nil {
		return ""
	}
	return sub.Customer.ID
}

// periodBounds derives the subscription period from its items: earliest start,
// latest end.
func periodBounds(sub *stripe.Subscription) (time.Time, time.Time) {
	var start, end int64
	if sub.Items != nil {
		for _, item := range sub.Items.Data {
			if item == nil {
				continue
			}
			if start == 0 || (item.CurrentPeriodStart != 0 && item.CurrentPeriodStart < start) {
				start = item.CurrentPeriodStart
			}
			if item.CurrentPeriodEnd > end {
				end = item.CurrentPeriodEnd
			}
		}
	}
	var startTime, endTime time.Time
	if start != 0 {
		startTime = time.Unix(start, 0).UTC()
	}
	if end != 0 {
		endTime = time.Unix(end, 0).UTC()
	}
	return startTime, endTime
}
