package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/playabars/playabars-backend/api/middleware"
	"github.com/playabars/playabars-backend/api/responses"
	"github.com/playabars/playabars-backend/api/validators"
	"github.com/playabars/playabars-backend/internal/payments"
	"github.com/playabars/playabars-backend/pkg/logger"
)

// PaymentService creates payment intents, direct or split.
type PaymentService interface {
	CreateIntent(ctx context.Context, input payments.CreateIntentInput) (*payments.PaymentIntent, error)
}

type createIntentRequest struct {
	Amount               int64  `json:"amount" validate:"required,gt=0"`
	Currency             string `json:"currency" validate:"required,len=3"`
	DestinationAccountID string `json:"destinationAccountId" validate:"omitempty"`
	BarID                string `json:"barId" validate:"omitempty,uuid"`
	BookingID            string `json:"bookingId" validate:"omitempty"`
}

// CreatePaymentIntent initiates a payment, split when a destination account
// is given and direct otherwise. The Idempotency-Key header rides through to
// the provider so client retries never double charge.
func CreatePaymentIntent(svc PaymentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req createIntentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		intent, err := svc.CreateIntent(ctx, payments.CreateIntentInput{
			Amount:               req.Amount,
			Currency:             req.Currency,
			DestinationAccountID: req.DestinationAccountID,
			BarID:                req.BarID,
			UserID:               middleware.UserIDFromContext(ctx),
			BookingID:            validators.SanitizeString(req.BookingID, 64),
			IdempotencyKey:       strings.TrimSpace(r.Header.Get("Idempotency-Key")),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, intent)
	}
}
