package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/testtrackhq/testtrack-backend/internal/logger"
	"github.com/testtrackhq/testtrack-backend/internal/repos"
	"github.com/testtrackhq/testtrack-backend/internal/types"
)

type TeamService interface {
	CreateTeam(ctx context.Context, name, description string) (*types.Team, error)
	GetTeams(ctx context.Context) ([]*types.Team, error)
	GetTeamMembers(ctx context.Context, teamID uuid.UUID) ([]*types.TeamMember, error)
	AddMember(ctx context.Context, teamID, userID uuid.UUID, role types.Role) (*types.TeamMember, error)
	RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error
	DeleteTeam(ctx context.Context, teamID uuid.UUID) error
}

type teamService struct {
	db             *gorm.DB
	log            *logger.Logger
	authz          AuthzService
	teamRepo       repos.TeamRepo
	teamMemberRepo repos.TeamMemberRepo
	userRepo       repos.UserRepo
}

func NewTeamService(
	db *gorm.DB,
	baseLog *logger.Logger,
	authz AuthzService,
	teamRepo repos.TeamRepo,
	teamMemberRepo repos.TeamMemberRepo,
	userRepo repos.UserRepo,
) TeamService {
	serviceLog := baseLog.With("service", "TeamService")
	return &teamService{
		db:             db,
		log:            serviceLog,
		authz:          authz,
		teamRepo:       teamRepo,
		teamMemberRepo: teamMemberRepo,
		userRepo:       userRepo,
	}
}

var validRoles = map[types.Role]bool{
	types.RoleAdmin:     true,
	types.RoleManager:   true,
	types.RoleDeveloper: true,
	types.RoleQA:        true,
	types.RoleTester:    true,
}

func (ts *teamService) CreateTeam(ctx context.Context, name, description string) (*types.Team, error) {
	actorID, err := ts.authz.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("A team name is required")
	}

	var team *types.Team
	err = ts.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		team = &types.Team{ID: uuid.New(), Name: name, Description: description}
		if _, cErr := ts.teamRepo.Create(ctx, tx, []*types.Team{team}); cErr != nil {
			return fmt.Errorf("Failed to create team: %w", cErr)
		}
		// The creator manages the team it just made.
		member := &types.TeamMember{ID: uuid.New(), TeamID: team.ID, UserID: actorID, Role: types.RoleManager}
		if _, mErr := ts.teamMemberRepo.Create(ctx, tx, []*types.TeamMember{member}); mErr != nil {
			return fmt.Errorf("Failed to add creator to team: %w", mErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	ts.authz.InvalidateRoles(ctx, actorID)
	return team, nil
}

func (ts *teamService) GetTeams(ctx context.Context) ([]*types.Team, error) {
	if _, err := ts.authz.CurrentActor(ctx); err != nil {
		return nil, err
	}
	return ts.teamRepo.GetAll(ctx, nil)
}

func (ts *teamService) GetTeamMembers(ctx context.Context, teamID uuid.UUID) ([]*types.TeamMember, error) {
	if _, err := ts.authz.CurrentActor(ctx); err != nil {
		return nil, err
	}
	return ts.teamMemberRepo.GetByTeamIDs(ctx, nil, []uuid.UUID{teamID})
}

func (ts *teamService) AddMember(ctx context.Context, teamID, userID uuid.UUID, role types.Role) (*types.TeamMember, error) {
	actorID, err := ts.authz.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := ts.authz.Authorize(ctx, actorID, types.RoleAdmin, types.RoleManager); err != nil {
		return nil, err
	}
	if !validRoles[role] {
		return nil, fmt.Errorf("Unknown role %q", role)
	}

	teams, err := ts.teamRepo.GetByIDs(ctx, nil, []uuid.UUID{teamID})
	if err != nil {
		return nil, fmt.Errorf("Failed to load team: %w", err)
	}
	if len(teams) == 0 {
		return nil, fmt.Errorf("%w: team %s", ErrNotFound, teamID)
	}
	users, err := ts.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil {
		return nil, fmt.Errorf("Failed to load user: %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}

	member := &types.TeamMember{ID: uuid.New(), TeamID: teamID, UserID: userID, Role: role}
	if _, err := ts.teamMemberRepo.Create(ctx, nil, []*types.TeamMember{member}); err != nil {
		if repos.IsUniqueViolation(err) {
			return nil, fmt.Errorf("User is already a member of this team")
		}
		return nil, fmt.Errorf("Failed to add member: %w", err)
	}
	ts.authz.InvalidateRoles(ctx, userID)
	return member, nil
}

func (ts *teamService) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error {
	actorID, err := ts.authz.CurrentActor(ctx)
	if err != nil {
		return err
	}
	if err := ts.authz.Authorize(ctx, actorID, types.RoleAdmin, types.RoleManager); err != nil {
		return err
	}
	if err := ts.teamMemberRepo.Delete(ctx, nil, teamID, userID); err != nil {
		return fmt.Errorf("Failed to remove member: %w", err)
	}
	ts.authz.InvalidateRoles(ctx, userID)
	return nil
}

func (ts *teamService) DeleteTeam(ctx context.Context, teamID uuid.UUID) error {
	actorID, err := ts.authz.CurrentActor(ctx)
	if err != nil {
		return err
	}
	if err := ts.authz.Authorize(ctx, actorID, types.RoleAdmin); err != nil {
		return err
	}
	return ts.teamRepo.Delete(ctx, nil, teamID)
}
