package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/testtrackhq/testtrack-backend/internal/logger"
	"github.com/testtrackhq/testtrack-backend/internal/types"
)

type TestRunRepo interface {
	Create(ctx context.Context, tx *gorm.DB, runs []*types.TestRun) ([]*types.TestRun, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, runIDs []uuid.UUID) ([]*types.TestRun, error)
	GetByTaskIDs(ctx context.Context, tx *gorm.DB, taskIDs []uuid.UUID) ([]*types.TestRun, error)
	Update(ctx context.Context, tx *gorm.DB, run *types.TestRun) error
	Delete(ctx context.Context, tx *gorm.DB, runID uuid.UUID) error
}

type testRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTestRunRepo(db *gorm.DB, baseLog *logger.Logger) TestRunRepo {
	repoLog := baseLog.With("repo", "TestRunRepo")
	return &testRunRepo{db: db, log: repoLog}
}

func (rr *testRunRepo) Create(ctx context.Context, tx *gorm.DB, runs []*types.TestRun) ([]*types.TestRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	if len(runs) == 0 {
		return []*types.TestRun{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (rr *testRunRepo) GetByIDs(ctx context.Context, tx *gorm.DB, runIDs []uuid.UUID) ([]*types.TestRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var results []*types.TestRun
	if len(runIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", runIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rr *testRunRepo) GetByTaskIDs(ctx context.Context, tx *gorm.DB, taskIDs []uuid.UUID) ([]*types.TestRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var results []*types.TestRun
	if len(taskIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("task_id IN ?", taskIDs).
		Order("run_date DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rr *testRunRepo) Update(ctx context.Context, tx *gorm.DB, run *types.TestRun) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	return transaction.WithContext(ctx).Save(run).Error
}

func (rr *testRunRepo) Delete(ctx context.Context, tx *gorm.DB, runID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", runID).
		Delete(&types.TestRun{}).Error
}
