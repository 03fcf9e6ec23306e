package cron

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/playabars/playabars-backend/internal/subscriptions"
	"github.com/playabars/playabars-backend/pkg/db/models"
	"github.com/playabars/playabars-backend/pkg/enums"
	pkgerrors "github.com/playabars/playabars-backend/pkg/errors"
	"github.com/playabars/playabars-backend/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type stubProvider struct {
	subs     map[string]*subscriptions.ProviderSubscription
	failures map[string]error
	calls    map[string]int
}

func newStubProvider() *stubProvider {
	return &stubProvider{
		subs:     map[string]*subscriptions.ProviderSubscription{},
		failures: map[string]error{},
		calls:    map[string]int{},
	}
}

func (s *stubProvider) GetSubscription(ctx context.Context, providerID string) (*subscriptions.ProviderSubscription, error) {
	s.calls[providerID]++
	if err, ok := s.failures[providerID]; ok {
		return nil, err
	}
	if sub, ok := s.subs[providerID]; ok {
		return sub, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "resource not found at payment provider")
}

func setupReconcileJob(t *testing.T, provider subscriptions.ProviderClient) (Job, subscriptions.Repository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Subscription{}))

	repo := subscriptions.NewRepository(db)
	logg := logger.New(logger.Options{ServiceName: "cron-test", Level: zerolog.Disabled})
	subsService, err := subscriptions.NewService(subscriptions.ServiceParams{Repo: repo, Logger: logg})
	require.NoError(t, err)

	job, err := NewSubscriptionReconcileJob(SubscriptionReconcileJobParams{
		Logger:        logg,
		Subscriptions: subsService,
		Provider:      provider,
		Lookback:      24 * time.Hour,
		Limit:         50,
	})
	require.NoError(t, err)
	return job, repo, db
}

func seedStaleSubscription(t *testing.T, db *gorm.DB, providerID string) {
	t.Helper()
	sub := &models.Subscription{
		ID:                   uuid.New(),
		UserID:               uuid.New(),
		StripeSubscriptionID: providerID,
		Tier:                 "premium",
		Status:               enums.SubscriptionStatusActive,
		CurrentPeriodEnd:     time.Now().UTC().AddDate(0, 1, 0),
	}
	require.NoError(t, db.Create(sub).Error)
	old := time.Now().UTC().Add(-72 * time.Hour)
	require.NoError(t, db.Model(&models.Subscription{}).
		Where("stripe_subscription_id = ?", providerID).
		Update("updated_at", old).Error)
}

func TestReconcileAppliesProviderState(t *testing.T) {
	provider := newStubProvider()
	provider.subs["sub_1"] = &subscriptions.ProviderSubscription{
		ID:        "sub_1",
		Status:    "past_due",
		Tier:      "premium",
		PeriodEnd: time.Now().UTC().AddDate(0, 1, 0),
	}
	job, repo, db := setupReconcileJob(t, provider)
	seedStaleSubscription(t, db, "sub_1")

	require.NoError(t, job.Run(context.Background()))

	sub, err := repo.FindByProviderID(context.Background(), "sub_1")
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, enums.SubscriptionStatusPastDue, sub.Status)
}

func TestReconcileDeletesRowsGoneAtProvider(t *testing.T) {
	provider := newStubProvider()
	job, repo, db := setupReconcileJob(t, provider)
	seedStaleSubscription(t, db, "sub_gone")

	require.NoError(t, job.Run(context.Background()))

	sub, err := repo.FindByProviderID(context.Background(), "sub_gone")
	require.NoError(t, err)
	assert.Nil(t, sub)
}

func TestReconcileRetriesTransientFailures(t *testing.T) {
	provider := newStubProvider()
	provider.failures["sub_flaky"] = pkgerrors.New(pkgerrors.CodeDependency, "payment provider rate limited")
	job, _, db := setupReconcileJob(t, provider)
	seedStaleSubscription(t, db, "sub_flaky")

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 3, provider.calls["sub_flaky"], "transient failures get two retries")
}

func TestReconcileContinuesPastFailures(t *testing.T) {
	provider := newStubProvider()
	provider.failures["sub_bad"] = pkgerrors.New(pkgerrors.CodeValidation, "payment provider rejected request")
	provider.subs["sub_ok"] = &subscriptions.ProviderSubscription{
		ID:     "sub_ok",
		Status: "canceled",
	}
	job, repo, db := setupReconcileJob(t, provider)
	seedStaleSubscription(t, db, "sub_bad")
	seedStaleSubscription(t, db, "sub_ok")

	err := job.Run(context.Background())
	require.Error(t, err, "the per-row failure is reported")

	sub, findErr := repo.FindByProviderID(context.Background(), "sub_ok")
	require.NoError(t, findErr)
	require.NotNil(t, sub)
	assert.Equal(t, enums.SubscriptionStatusCancelled, sub.Status, "later rows are still reconciled")
	assert.Equal(t, 1, provider.calls["sub_bad"], "permanent failures are not retried")
}
