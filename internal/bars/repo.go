package bars

import (
	"context"

	"github.com/google/uuid"
	"github.com/playabars/playabars-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository handles bar persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Bar, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Bar, error)
	SetConnectAccount(ctx context.Context, barID uuid.UUID, accountID string) error
	ClearConnectAccount(ctx context.Context, accountID string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a bar repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Bar, error) {
	var bar models.Bar
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&bar).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &bar, nil
}

func (r *repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Bar, error) {
	var bars []models.Bar
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&bars).Error; err != nil {
		return nil, err
	}
	return bars, nil
}

func (r *repository) SetConnectAccount(ctx context.Context, barID uuid.UUID, accountID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Bar{}).
		Where("id = ?", barID).
		Update("connect_account_id", accountID).Error
}

func (r *repository) ClearConnectAccount(ctx context.Context, accountID string) error {
	if accountID == "" {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Bar{}).
		Where("connect_account_id = ?", accountID).
		Update("connect_account_id", nil).Error
}
