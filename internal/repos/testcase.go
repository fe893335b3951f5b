package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/testtrackhq/testtrack-backend/internal/logger"
	"github.com/testtrackhq/testtrack-backend/internal/types"
)

type TestCaseRepo interface {
	Create(ctx context.Context, tx *gorm.DB, cases []*types.TestCase) ([]*types.TestCase, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, caseIDs []uuid.UUID) ([]*types.TestCase, error)
	GetByTaskIDs(ctx context.Context, tx *gorm.DB, taskIDs []uuid.UUID) ([]*types.TestCase, error)
	Update(ctx context.Context, tx *gorm.DB, testCase *types.TestCase) error
	Delete(ctx context.Context, tx *gorm.DB, caseID uuid.UUID) error
}

type testCaseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTestCaseRepo(db *gorm.DB, baseLog *logger.Logger) TestCaseRepo {
	repoLog := baseLog.With("repo", "TestCaseRepo")
	return &testCaseRepo{db: db, log: repoLog}
}

func (cr *testCaseRepo) Create(ctx context.Context, tx *gorm.DB, cases []*types.TestCase) ([]*types.TestCase, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	if len(cases) == 0 {
		return []*types.TestCase{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&cases).Error; err != nil {
		return nil, err
	}
	return cases, nil
}

func (cr *testCaseRepo) GetByIDs(ctx context.Context, tx *gorm.DB, caseIDs []uuid.UUID) ([]*types.TestCase, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var results []*types.TestCase
	if len(caseIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", caseIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *testCaseRepo) GetByTaskIDs(ctx context.Context, tx *gorm.DB, taskIDs []uuid.UUID) ([]*types.TestCase, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var results []*types.TestCase
	if len(taskIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("task_id IN ?", taskIDs).
		Order("created_at").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *testCaseRepo) Update(ctx context.Context, tx *gorm.DB, testCase *types.TestCase) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).Save(testCase).Error
}

func (cr *testCaseRepo) Delete(ctx context.Context, tx *gorm.DB, caseID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", caseID).
		Delete(&types.TestCase{}).Error
}
