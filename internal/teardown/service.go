package teardown

import (
	"context"

	"github.com/google/uuid"
	"github.com/playabars/playabars-backend/internal/bars"
	"github.com/playabars/playabars-backend/internal/connect"
	"github.com/playabars/playabars-backend/pkg/db/models"
	"github.com/playabars/playabars-backend/pkg/enums"
	pkgerrors "github.com/playabars/playabars-backend/pkg/errors"
	"github.com/playabars/playabars-backend/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 5

// AccountDeleter is the slice of the account lifecycle manager the
// coordinator needs.
type AccountDeleter interface {
	DeleteAccount(ctx context.Context, accountID string) connect.DeleteResult
}

// ServiceParams wires the coordinator's dependencies.
type ServiceParams struct {
	Bars        bars.Repository
	Accounts    AccountDeleter
	Logger      *logger.Logger
	Concurrency int
}

// Service tears down every payout account a user owns, one independent
// deletion per account, and reports the aggregate outcome.
type Service struct {
	bars        bars.Repository
	accounts    AccountDeleter
	logger      *logger.Logger
	concurrency int
}

// NewService validates dependencies and returns a teardown coordinator.
func NewService(params ServiceParams) (*Service, error) {
	if params.Bars == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "teardown service requires a bar repository")
	}
	if params.Accounts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "teardown service requires an account deleter")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "teardown service requires a logger")
	}
	concurrency := params.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Service{
		bars:        params.Bars,
		accounts:    params.Accounts,
		logger:      params.Logger,
		concurrency: concurrency,
	}, nil
}

// Report is the aggregate outcome of one bulk teardown.
type Report struct {
	Success      bool                         `json:"success"`
	DeletedCount int                          `json:"deleted_count"`
	FailedCount  int                          `json:"failed_count"`
	Reasons      map[enums.DeletionReason]int `json:"reasons"`
	Results      []connect.DeleteResult       `json:"results"`
}

// TeardownAccountsForUser deletes every connected account across the user's
// bars. Deletions run concurrently and independently; one account's failure
// never aborts the rest. The report is assembled only after all attempts
// complete.
func (s *Service) TeardownAccountsForUser(ctx context.Context, userID uuid.UUID) (*Report, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	ctx = s.logger.WithUserID(ctx, userID.String())

	owned, err := s.bars.ListByOwner(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list bars for user")
	}

	accountIDs := collectAccountIDs(owned)
	report := &Report{Reasons: map[enums.DeletionReason]int{}}
	if len(accountIDs) == 0 {
		report.Success = true
		s.logger.Info(ctx, "no connected accounts to tear down")
		return report, nil
	}

	results := make([]connect.DeleteResult, len(accountIDs))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency)
	for i, accountID := range accountIDs {
		group.Go(func() error {
			results[i] = s.accounts.DeleteAccount(groupCtx, accountID)
			return nil
		})
	}
	// Goroutines never return errors; failures live in the result values.
	_ = group.Wait()

	report.Results = results
	benignOnly := true
	for _, result := range results {
		if result.Deleted {
			report.DeletedCount++
			if result.Reason != "" {
				report.Reasons[result.Reason]++
			}
			continue
		}
		report.FailedCount++
		report.Reasons[result.Reason]++
		if !result.Reason.IsBenign() {
			benignOnly = false
		}
	}
	report.Success = report.FailedCount == 0 || benignOnly

	s.logger.Info(s.logger.WithFields(ctx, map[string]any{
		"deleted": report.DeletedCount,
		"failed":  report.FailedCount,
	}), "bulk account teardown finished")
	return report, nil
}

// collectAccountIDs extracts the distinct connected-account ids from bars,
// skipping bars that never onboarded.
func collectAccountIDs(owned []models.Bar) []string {
	seen := map[string]struct{}{}
	var ids []string
	for _, bar := range owned {
		if bar.ConnectAccountID == nil || *bar.ConnectAccountID == "" {
			continue
		}
		if _, dup := seen[*bar.ConnectAccountID]; dup {
			continue
		}
		seen[*bar.ConnectAccountID] = struct{}{}
		ids = append(ids, *bar.ConnectAccountID)
	}
	return ids
}
