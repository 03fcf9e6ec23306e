package fees

import (
	"fmt"

	pkgerrors "github.com/playabars/playabars-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

const basisPointDenominator = 10000

// Policy is an immutable fee configuration expressed in basis points
// (300 = 3%).
type Policy struct {
	RateBasisPoints int64
}

// Split is the platform/merchant division of a gross amount in minor units.
// Fee + Net always equals the gross the split was computed from.
type Split struct {
	Fee int64
	Net int64
}

// Validate reports whether the policy is usable.
func (p Policy) Validate() error {
	if p.RateBasisPoints < 0 || p.RateBasisPoints > basisPointDenominator {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("fee rate must be between 0 and %d basis points", basisPointDenominator))
	}
	return nil
}

// ComputeSplit divides grossAmount between the platform fee and the merchant
// net using round-half-up on the fee. The fee is computed exactly once per
// payment and never recomputed afterwards.
func ComputeSplit(grossAmount int64, policy Policy) (Split, error) {
	if grossAmount < 0 {
		return Split{}, pkgerrors.New(pkgerrors.CodeValidation, "gross amount must not be negative")
	}
	if err := policy.Validate(); err != nil {
		return Split{}, err
	}

	fee := decimal.NewFromInt(grossAmount).
		Mul(decimal.NewFromInt(policy.RateBasisPoints)).
		Div(decimal.NewFromInt(basisPointDenominator)).
		Round(0).
		IntPart()

	return Split{Fee: fee, Net: grossAmount - fee}, nil
}
