package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/testtrackhq/testtrack-backend/internal/logger"
	"github.com/testtrackhq/testtrack-backend/internal/types"
)

type StatusCodeRepo interface {
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.StatusCode, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.StatusCode, error)
}

type statusCodeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStatusCodeRepo(db *gorm.DB, baseLog *logger.Logger) StatusCodeRepo {
	repoLog := baseLog.With("repo", "StatusCodeRepo")
	return &statusCodeRepo{db: db, log: repoLog}
}

func (sr *statusCodeRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.StatusCode, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	var results []*types.StatusCode
	if err := transaction.WithContext(ctx).
		Order("category, name").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (sr *statusCodeRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.StatusCode, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	var results []*types.StatusCode
	if len(ids) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
