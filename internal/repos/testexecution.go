package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/testtrackhq/testtrack-backend/internal/logger"
	"github.com/testtrackhq/testtrack-backend/internal/types"
)

type TestExecutionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, execution *types.TestExecution) (bool, error)
	GetByRunAndCase(ctx context.Context, tx *gorm.DB, runID, caseID uuid.UUID) (*types.TestExecution, error)
	GetByRunIDs(ctx context.Context, tx *gorm.DB, runIDs []uuid.UUID) ([]*types.TestExecution, error)
	CountByCaseIDs(ctx context.Context, tx *gorm.DB, caseIDs []uuid.UUID) (int64, error)
	Update(ctx context.Context, tx *gorm.DB, execution *types.TestExecution) error
}

type testExecutionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTestExecutionRepo(db *gorm.DB, baseLog *logger.Logger) TestExecutionRepo {
	repoLog := baseLog.With("repo", "TestExecutionRepo")
	return &testExecutionRepo{db: db, log: repoLog}
}

// Create inserts the row for a (run, case) pair. The insert carries ON
// CONFLICT DO NOTHING on the pair's unique index so a concurrent first
// submission never aborts the enclosing transaction; the bool reports whether
// this call inserted the row.
func (er *testExecutionRepo) Create(ctx context.Context, tx *gorm.DB, execution *types.TestExecution) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	result := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "test_run_id"}, {Name: "test_case_id"}},
			DoNothing: true,
		}).
		Create(execution)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (er *testExecutionRepo) GetByRunAndCase(ctx context.Context, tx *gorm.DB, runID, caseID uuid.UUID) (*types.TestExecution, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}

	var result types.TestExecution
	err := transaction.WithContext(ctx).
		Where("test_run_id = ? AND test_case_id = ?", runID, caseID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (er *testExecutionRepo) GetByRunIDs(ctx context.Context, tx *gorm.DB, runIDs []uuid.UUID) ([]*types.TestExecution, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}

	var results []*types.TestExecution
	if len(runIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("test_run_id IN ?", runIDs).
		Order("executed_at").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (er *testExecutionRepo) CountByCaseIDs(ctx context.Context, tx *gorm.DB, caseIDs []uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}

	if len(caseIDs) == 0 {
		return 0, nil
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.TestExecution{}).
		Where("test_case_id IN ?", caseIDs).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (er *testExecutionRepo) Update(ctx context.Context, tx *gorm.DB, execution *types.TestExecution) error {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	return transaction.WithContext(ctx).Save(execution).Error
}
