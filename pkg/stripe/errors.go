package stripe

import (
	"context"
	goerrors "errors"

	pkgerrors "github.com/playabars/playabars-backend/pkg/errors"
	"github.com/stripe/stripe-go/v84"
)

// TranslateError maps raw Stripe errors onto the platform taxonomy. Every
// Stripe call in the codebase funnels through here so callers only ever see
// platform error codes.
func TranslateError(err error, op string) error {
	if err == nil {
		return nil
	}

	var stripeErr *stripe.Error
	if goerrors.As(err, &stripeErr) {
		switch stripeErr.Code {
		case stripe.ErrorCodeResourceMissing:
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "resource not found at payment provider")
		case stripe.ErrorCodeRateLimit:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment provider rate limited")
		}
		switch stripeErr.Type {
		case stripe.ErrorTypeInvalidRequest:
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "payment provider rejected request: "+op)
		case stripe.ErrorType("authentication_error"):
			return pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, "payment provider credentials rejected")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment provider error: "+op)
	}

	if goerrors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.Wrap(pkgerrors.CodeProviderTimeout, err, "payment provider timed out: "+op)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment provider unreachable: "+op)
}

// IsNotFound reports whether err carries the platform not-found code.
func IsNotFound(err error) bool {
	appErr := pkgerrors.As(err)
	return appErr != nil && appErr.Code() == pkgerrors.CodeNotFound
}

// IsTimeout reports whether err carries the provider-timeout code.
func IsTimeout(err error) bool {
	appErr := pkgerrors.As(err)
	return appErr != nil && appErr.Code() == pkgerrors.CodeProviderTimeout
}
