package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/playabars/playabars-backend/api/responses"
	pkgerrors "github.com/playabars/playabars-backend/pkg/errors"
	"github.com/playabars/playabars-backend/pkg/logger"
)

// StripeWebhookService verifies and processes a raw webhook delivery.
type StripeWebhookService interface {
	Process(ctx context.Context, payload []byte, signatureHeader string) error
}

// StripeWebhook handles provider subscription and invoice events. The body
// is passed through raw; signature verification happens inside the service
// before anything else.
func StripeWebhook(svc StripeWebhookService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		if err := svc.Process(ctx, payload, r.Header.Get("Stripe-Signature")); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"received": true})
	}
}
