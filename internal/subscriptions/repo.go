package subscriptions

import (
	"context"
	"time"

	"github.com/playabars/playabars-backend/pkg/db/models"
	pkgerrors "github.com/playabars/playabars-backend/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists subscriptions keyed by the provider's subscription id.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByProviderID(ctx context.Context, providerID string) (*models.Subscription, error)
	Upsert(ctx context.Context, sub *models.Subscription) error
	Update(ctx context.Context, sub *models.Subscription) error
	DeleteByProviderID(ctx context.Context, providerID string) error
	ListStale(ctx context.Context, updatedBefore time.Time, limit int) ([]models.Subscription, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a subscription repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByProviderID(ctx context.Context, providerID string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).
		Where("stripe_subscription_id = ?", providerID).
		First(&sub).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// Upsert inserts a subscription or, on a provider-id collision, refreshes the
// mutable columns. Replaying the same creation event therefore converges on
// one row with the same final state.
func (r *repository) Upsert(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "stripe_subscription_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"tier", "status", "current_period_start", "current_period_end", "updated_at",
			}),
		}).
		Create(sub).Error
}

// Update writes the mutable columns guarded by the row version. A stale
// version means a concurrent writer won; the caller decides whether to
// re-read and retry.
func (r *repository) Update(ctx context.Context, sub *models.Subscription) error {
	result := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("stripe_subscription_id = ? AND version = ?", sub.StripeSubscriptionID, sub.Version).
		Updates(map[string]any{
			"tier":                 sub.Tier,
			"status":               sub.Status,
			"current_period_start": sub.CurrentPeriodStart,
			"current_period_end":   sub.CurrentPeriodEnd,
			"bookings_used":        sub.BookingsUsed,
			"version":              sub.Version + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "subscription was modified concurrently")
	}
	sub.Version++
	return nil
}

func (r *repository) DeleteByProviderID(ctx context.Context, providerID string) error {
	return r.db.WithContext(ctx).
		Where("stripe_subscription_id = ?", providerID).
		Delete(&models.Subscription{}).Error
}

// ListStale returns subscriptions last touched before the cutoff, oldest
// first. The reconcile job uses it to find rows that may have missed events.
func (r *repository) ListStale(ctx context.Context, updatedBefore time.Time, limit int) ([]models.Subscription, error) {
	var subs []models.Subscription
	query := r.db.WithContext(ctx).
		Where("updated_at < ?", updatedBefore).
		Order("updated_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}
