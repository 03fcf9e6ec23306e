package subscriptions

import "github.com/playabars/playabars-backend/pkg/enums"

// MapProviderStatus folds the provider's status vocabulary into the local
// one. Unknown provider statuses land on inactive so a new upstream state can
// never grant access.
func MapProviderStatus(providerStatus string) enums.SubscriptionStatus {
	switch providerStatus {
	case "active":
		return enums.SubscriptionStatusActive
	case "past_due":
		return enums.SubscriptionStatusPastDue
	case "canceled":
		return enums.SubscriptionStatusCancelled
	default:
		return enums.SubscriptionStatusInactive
	}
}
