package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/testtrackhq/testtrack-backend/internal/logger"
	"github.com/testtrackhq/testtrack-backend/internal/types"
)

type TeamRepo interface {
	Create(ctx context.Context, tx *gorm.DB, teams []*types.Team) ([]*types.Team, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, teamIDs []uuid.UUID) ([]*types.Team, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Team, error)
	Update(ctx context.Context, tx *gorm.DB, team *types.Team) error
	Delete(ctx context.Context, tx *gorm.DB, teamID uuid.UUID) error
}

type teamRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTeamRepo(db *gorm.DB, baseLog *logger.Logger) TeamRepo {
	repoLog := baseLog.With("repo", "TeamRepo")
	return &teamRepo{db: db, log: repoLog}
}

func (tr *teamRepo) Create(ctx context.Context, tx *gorm.DB, teams []*types.Team) ([]*types.Team, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	if len(teams) == 0 {
		return []*types.Team{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}

func (tr *teamRepo) GetByIDs(ctx context.Context, tx *gorm.DB, teamIDs []uuid.UUID) ([]*types.Team, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	var results []*types.Team
	if len(teamIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", teamIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (tr *teamRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Team, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	var results []*types.Team
	if err := transaction.WithContext(ctx).
		Order("name").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (tr *teamRepo) Update(ctx context.Context, tx *gorm.DB, team *types.Team) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	return transaction.WithContext(ctx).Save(team).Error
}

func (tr *teamRepo) Delete(ctx context.Context, tx *gorm.DB, teamID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", teamID).
		Delete(&types.Team{}).Error
}
