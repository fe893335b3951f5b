package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/testtrackhq/testtrack-backend/internal/logger"
	"github.com/testtrackhq/testtrack-backend/internal/repos"
	"github.com/testtrackhq/testtrack-backend/internal/types"
)

type CreateTestRunInput struct {
	TaskID          uuid.UUID
	Name            string
	CreatedByTeamID uuid.UUID
	ExecutingTeamID *uuid.UUID // defaults to the creating team
	RunDate         time.Time
}

type TestRunService interface {
	CreateTestRun(ctx context.Context, input CreateTestRunInput) (*types.TestRun, error)
	GetTaskTestRuns(ctx context.Context, taskID uuid.UUID) ([]*types.TestRun, error)
	UpdateTestRunStatus(ctx context.Context, runID, statusID uuid.UUID) (*types.TestRun, error)
	DeleteTestRun(ctx context.Context, runID uuid.UUID) error
}

type testRunService struct {
	db          *gorm.DB
	log         *logger.Logger
	authz       AuthzService
	catalog     CatalogService
	testRunRepo repos.TestRunRepo
	taskRepo    repos.TaskRepo
	teamRepo    repos.TeamRepo
}

func NewTestRunService(
	db *gorm.DB,
	baseLog *logger.Logger,
	authz AuthzService,
	catalog CatalogService,
	testRunRepo repos.TestRunRepo,
	taskRepo repos.TaskRepo,
	teamRepo repos.TeamRepo,
) TestRunService {
	serviceLog := baseLog.With("service", "TestRunService")
	return &testRunService{
		db:          db,
		log:         serviceLog,
		authz:       authz,
		catalog:     catalog,
		testRunRepo: testRunRepo,
		taskRepo:    taskRepo,
		teamRepo:    teamRepo,
	}
}

func (rs *testRunService) CreateTestRun(ctx context.Context, input CreateTestRunInput) (*types.TestRun, error) {
	actorID, err := rs.authz.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := rs.authz.Authorize(ctx, actorID, types.RoleQA); err != nil {
		return nil, err
	}
	if input.Name == "" {
		return nil, fmt.Errorf("A test run name is required")
	}

	tasks, err := rs.taskRepo.GetByIDs(ctx, nil, []uuid.UUID{input.TaskID})
	if err != nil {
		return nil, fmt.Errorf("Failed to load task: %w", err)
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("%w: task %s", ErrNotFound, input.TaskID)
	}

	teams, err := rs.teamRepo.GetByIDs(ctx, nil, []uuid.UUID{input.CreatedByTeamID})
	if err != nil {
		return nil, fmt.Errorf("Failed to load team: %w", err)
	}
	if len(teams) == 0 {
		return nil, fmt.Errorf("%w: team %s", ErrNotFound, input.CreatedByTeamID)
	}

	executingTeamID := input.CreatedByTeamID
	if input.ExecutingTeamID != nil && *input.ExecutingTeamID != uuid.Nil {
		executingTeamID = *input.ExecutingTeamID
	}

	// A run cannot be scheduled in the future; clamp to now.
	runDate := input.RunDate
	if runDate.IsZero() || runDate.After(time.Now()) {
		runDate = time.Now()
	}

	planned, err := rs.catalog.Resolve(types.CategoryTestRunStatus, "Planned")
	if err != nil {
		return nil, err
	}

	run := &types.TestRun{
		ID:              uuid.New(),
		TaskID:          input.TaskID,
		Name:            input.Name,
		CreatedByTeamID: input.CreatedByTeamID,
		ExecutingTeamID: executingTeamID,
		RunDate:         runDate,
		StatusID:        planned.ID,
	}
	if _, err := rs.testRunRepo.Create(ctx, nil, []*types.TestRun{run}); err != nil {
		return nil, fmt.Errorf("Failed to create test run: %w", err)
	}
	return run, nil
}

func (rs *testRunService) GetTaskTestRuns(ctx context.Context, taskID uuid.UUID) ([]*types.TestRun, error) {
	if _, err := rs.authz.CurrentActor(ctx); err != nil {
		return nil, err
	}
	return rs.testRunRepo.GetByTaskIDs(ctx, nil, []uuid.UUID{taskID})
}

func (rs *testRunService) UpdateTestRunStatus(ctx context.Context, runID, statusID uuid.UUID) (*types.TestRun, error) {
	actorID, err := rs.authz.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := rs.authz.Authorize(ctx, actorID, types.RoleQA, types.RoleTester); err != nil {
		return nil, err
	}
	if err := rs.catalog.ValidateStatus(types.CategoryTestRunStatus, statusID); err != nil {
		return nil, err
	}

	runs, err := rs.testRunRepo.GetByIDs(ctx, nil, []uuid.UUID{runID})
	if err != nil {
		return nil, fmt.Errorf("Failed to load test run: %w", err)
	}
	if len(runs) == 0 || runs[0] == nil {
		return nil, fmt.Errorf("%w: test run %s", ErrNotFound, runID)
	}
	run := runs[0]
	run.StatusID = statusID
	if err := rs.testRunRepo.Update(ctx, nil, run); err != nil {
		return nil, fmt.Errorf("Failed to update test run: %w", err)
	}
	return run, nil
}

func (rs *testRunService) DeleteTestRun(ctx context.Context, runID uuid.UUID) error {
	actorID, err := rs.authz.CurrentActor(ctx)
	if err != nil {
		return err
	}
	if err := rs.authz.Authorize(ctx, actorID, types.RoleQA, types.RoleAdmin); err != nil {
		return err
	}
	return rs.testRunRepo.Delete(ctx, nil, runID)
}
