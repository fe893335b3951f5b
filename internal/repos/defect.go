package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/testtrackhq/testtrack-backend/internal/logger"
	"github.com/testtrackhq/testtrack-backend/internal/types"
)

type DefectRepo interface {
	Create(ctx context.Context, tx *gorm.DB, defects []*types.Defect) ([]*types.Defect, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, defectIDs []uuid.UUID) ([]*types.Defect, error)
	GetByRunIDs(ctx context.Context, tx *gorm.DB, runIDs []uuid.UUID) ([]*types.Defect, error)
	OpenExistsForPair(ctx context.Context, tx *gorm.DB, runID, caseID uuid.UUID) (bool, error)
	Update(ctx context.Context, tx *gorm.DB, defect *types.Defect) error
	Delete(ctx context.Context, tx *gorm.DB, defectID uuid.UUID) error
}

type defectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDefectRepo(db *gorm.DB, baseLog *logger.Logger) DefectRepo {
	repoLog := baseLog.With("repo", "DefectRepo")
	return &defectRepo{db: db, log: repoLog}
}

func (dr *defectRepo) Create(ctx context.Context, tx *gorm.DB, defects []*types.Defect) ([]*types.Defect, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	if len(defects) == 0 {
		return []*types.Defect{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&defects).Error; err != nil {
		return nil, err
	}
	return defects, nil
}

func (dr *defectRepo) GetByIDs(ctx context.Context, tx *gorm.DB, defectIDs []uuid.UUID) ([]*types.Defect, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	var results []*types.Defect
	if len(defectIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", defectIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (dr *defectRepo) GetByRunIDs(ctx context.Context, tx *gorm.DB, runIDs []uuid.UUID) ([]*types.Defect, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	var results []*types.Defect
	if len(runIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("test_run_id IN ?", runIDs).
		Order("reported_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// OpenExistsForPair reports whether an unresolved defect already references
// the (run, case) pair. Used only when defect dedup is enabled.
func (dr *defectRepo) OpenExistsForPair(ctx context.Context, tx *gorm.DB, runID, caseID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Defect{}).
		Where("test_run_id = ? AND test_case_id = ? AND resolved_at IS NULL", runID, caseID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (dr *defectRepo) Update(ctx context.Context, tx *gorm.DB, defect *types.Defect) error {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}
	return transaction.WithContext(ctx).Save(defect).Error
}

func (dr *defectRepo) Delete(ctx context.Context, tx *gorm.DB, defectID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", defectID).
		Delete(&types.Defect{}).Error
}
