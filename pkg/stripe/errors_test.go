package stripe

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/playabars/playabars-backend/pkg/errors"
)

func TestTranslateErrorNil(t *testing.T) {
	assert.NoError(t, TranslateError(nil, "noop"))
}

func TestTranslateErrorTable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want pkgerrors.Code
	}{
		{
			name: "resource missing maps to not found",
			err:  &stripe.Error{Code: stripe.ErrorCodeResourceMissing},
			want: pkgerrors.CodeNotFound,
		},
		{
			name: "rate limit maps to dependency",
			err:  &stripe.Error{Code: stripe.ErrorCodeRateLimit},
			want: pkgerrors.CodeDependency,
		},
		{
			name: "invalid request maps to validation",
			err:  &stripe.Error{Type: stripe.ErrorTypeInvalidRequest},
			want: pkgerrors.CodeValidation,
		},
		{
			name: "authentication maps to configuration",
			err:  &stripe.Error{Type: stripe.ErrorType("authentication_error")},
			want: pkgerrors.CodeConfiguration,
		},
		{
			name: "other provider error maps to dependency",
			err:  &stripe.Error{Type: stripe.ErrorTypeAPI},
			want: pkgerrors.CodeDependency,
		},
		{
			name: "deadline exceeded maps to provider timeout",
			err:  fmt.Errorf("call: %w", context.DeadlineExceeded),
			want: pkgerrors.CodeProviderTimeout,
		},
		{
			name: "transport failure maps to dependency",
			err:  errors.New("connection refused"),
			want: pkgerrors.CodeDependency,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			translated := TranslateError(tc.err, "test op")
			appErr := pkgerrors.As(translated)
			require.NotNil(t, appErr)
			assert.Equal(t, tc.want, appErr.Code())
			assert.ErrorIs(t, translated, tc.err)
		})
	}
}

func TestTranslateErrorPreservesCause(t *testing.T) {
	cause := &stripe.Error{Code: stripe.ErrorCodeResourceMissing}
	translated := TranslateError(cause, "fetch account")

	var stripeErr *stripe.Error
	require.True(t, errors.As(translated, &stripeErr))
	assert.Equal(t, stripe.ErrorCodeResourceMissing, stripeErr.Code)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(TranslateError(&stripe.Error{Code: stripe.ErrorCodeResourceMissing}, "op")))
	assert.False(t, IsNotFound(TranslateError(errors.New("boom"), "op")))
	assert.False(t, IsNotFound(nil))
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(TranslateError(context.DeadlineExceeded, "op")))
	assert.False(t, IsTimeout(TranslateError(errors.New("boom"), "op")))
	assert.False(t, IsTimeout(nil))
}
