package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/testtrackhq/testtrack-backend/internal/logger"
	"github.com/testtrackhq/testtrack-backend/internal/types"
)

type TeamMemberRepo interface {
	Create(ctx context.Context, tx *gorm.DB, members []*types.TeamMember) ([]*types.TeamMember, error)
	GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.TeamMember, error)
	GetByTeamIDs(ctx context.Context, tx *gorm.DB, teamIDs []uuid.UUID) ([]*types.TeamMember, error)
	Delete(ctx context.Context, tx *gorm.DB, teamID, userID uuid.UUID) error
}

type teamMemberRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTeamMemberRepo(db *gorm.DB, baseLog *logger.Logger) TeamMemberRepo {
	repoLog := baseLog.With("repo", "TeamMemberRepo")
	return &teamMemberRepo{db: db, log: repoLog}
}

func (mr *teamMemberRepo) Create(ctx context.Context, tx *gorm.DB, members []*types.TeamMember) ([]*types.TeamMember, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	if len(members) == 0 {
		return []*types.TeamMember{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (mr *teamMemberRepo) GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.TeamMember, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	var results []*types.TeamMember
	if len(userIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (mr *teamMemberRepo) GetByTeamIDs(ctx context.Context, tx *gorm.DB, teamIDs []uuid.UUID) ([]*types.TeamMember, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	var results []*types.TeamMember
	if len(teamIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("team_id IN ?", teamIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (mr *teamMemberRepo) Delete(ctx context.Context, tx *gorm.DB, teamID, userID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	return transaction.WithContext(ctx).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Delete(&types.TeamMember{}).Error
}
