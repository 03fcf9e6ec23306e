package connect

import "github.com/playabars/playabars-backend/pkg/enums"

// DeriveStatus collapses the provider's capability flags into a single
// account status. This is the only place the mapping lives; everything
// that reports a status goes through it.
//
//	charges + payouts + details      -> active
//	details submitted, not enabled   -> restricted
//	otherwise                        -> pending
func DeriveStatus(chargesEnabled, payoutsEnabled, detailsSubmitted bool) enums.AccountStatus {
	switch {
	case chargesEnabled && payoutsEnabled && detailsSubmitted:
		return enums.AccountStatusActive
	case detailsSubmitted:
		return enums.AccountStatusRestricted
	default:
		return enums.AccountStatusPending
	}
}
