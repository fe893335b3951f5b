package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/testtrackhq/testtrack-backend/internal/logger"
	"github.com/testtrackhq/testtrack-backend/internal/repos"
	"github.com/testtrackhq/testtrack-backend/internal/types"
)

type CreateTestCaseInput struct {
	TaskID         uuid.UUID
	Title          string
	Description    string
	Steps          []string
	ExpectedResult string
	TypeID         *uuid.UUID
	AuthorTeamID   uuid.UUID
}

type UpdateTestCaseInput struct {
	Title          *string
	Description    *string
	Steps          []string
	ExpectedResult *string
	ActualResult   *string
	TypeID         *uuid.UUID
	StatusID       *uuid.UUID
}

type TestCaseService interface {
	CreateTestCase(ctx context.Context, input CreateTestCaseInput) (*types.TestCase, error)
	GetTaskTestCases(ctx context.Context, taskID uuid.UUID) ([]*types.TestCase, error)
	UpdateTestCase(ctx context.Context, caseID uuid.UUID, input UpdateTestCaseInput) (*types.TestCase, error)
	DeleteTestCase(ctx context.Context, caseID uuid.UUID) error
}

type testCaseService struct {
	db            *gorm.DB
	log           *logger.Logger
	authz         AuthzService
	catalog       CatalogService
	testCaseRepo  repos.TestCaseRepo
	taskRepo      repos.TaskRepo
	executionRepo repos.TestExecutionRepo
}

func NewTestCaseService(
	db *gorm.DB,
	baseLog *logger.Logger,
	authz AuthzService,
	catalog CatalogService,
	testCaseRepo repos.TestCaseRepo,
	taskRepo repos.TaskRepo,
	executionRepo repos.TestExecutionRepo,
) TestCaseService {
	serviceLog := baseLog.With("service", "TestCaseService")
	return &testCaseService{
		db:            db,
		log:           serviceLog,
		authz:         authz,
		catalog:       catalog,
		testCaseRepo:  testCaseRepo,
		taskRepo:      taskRepo,
		executionRepo: executionRepo,
	}
}

func (cs *testCaseService) CreateTestCase(ctx context.Context, input CreateTestCaseInput) (*types.TestCase, error) {
	actorID, err := cs.authz.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := cs.authz.Authorize(ctx, actorID, types.RoleQA); err != nil {
		return nil, err
	}
	if input.Title == "" {
		return nil, fmt.Errorf("A test case title is required")
	}

	tasks, err := cs.taskRepo.GetByIDs(ctx, nil, []uuid.UUID{input.TaskID})
	if err != nil {
		return nil, fmt.Errorf("Failed to load task: %w", err)
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("%w: task %s", ErrNotFound, input.TaskID)
	}

	if input.TypeID != nil {
		if _, ok := cs.catalog.ByID(*input.TypeID); !ok {
			return nil, fmt.Errorf("%w: type %s", ErrInvalidStatus, *input.TypeID)
		}
	}
	draft, err := cs.catalog.Resolve(types.CategoryTestCaseStatus, types.StatusNameDraft)
	if err != nil {
		return nil, err
	}

	steps, err := encodeSteps(input.Steps)
	if err != nil {
		return nil, err
	}

	testCase := &types.TestCase{
		ID:             uuid.New(),
		TaskID:         input.TaskID,
		Title:          input.Title,
		Description:    input.Description,
		Steps:          steps,
		ExpectedResult: input.ExpectedResult,
		TypeID:         input.TypeID,
		StatusID:       draft.ID,
		AuthorTeamID:   input.AuthorTeamID,
	}
	if _, err := cs.testCaseRepo.Create(ctx, nil, []*types.TestCase{testCase}); err != nil {
		return nil, fmt.Errorf("Failed to create test case: %w", err)
	}
	return testCase, nil
}

func (cs *testCaseService) GetTaskTestCases(ctx context.Context, taskID uuid.UUID) ([]*types.TestCase, error) {
	if _, err := cs.authz.CurrentActor(ctx); err != nil {
		return nil, err
	}
	return cs.testCaseRepo.GetByTaskIDs(ctx, nil, []uuid.UUID{taskID})
}

func (cs *testCaseService) UpdateTestCase(ctx context.Context, caseID uuid.UUID, input UpdateTestCaseInput) (*types.TestCase, error) {
	actorID, err := cs.authz.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := cs.authz.Authorize(ctx, actorID, types.RoleQA); err != nil {
		return nil, err
	}

	cases, err := cs.testCaseRepo.GetByIDs(ctx, nil, []uuid.UUID{caseID})
	if err != nil {
		return nil, fmt.Errorf("Failed to load test case: %w", err)
	}
	if len(cases) == 0 || cases[0] == nil {
		return nil, fmt.Errorf("%w: test case %s", ErrNotFound, caseID)
	}
	testCase := cases[0]

	if input.StatusID != nil {
		if err := cs.catalog.ValidateStatus(types.CategoryTestCaseStatus, *input.StatusID); err != nil {
			return nil, err
		}
		testCase.StatusID = *input.StatusID
	}
	if input.TypeID != nil {
		if _, ok := cs.catalog.ByID(*input.TypeID); !ok {
			return nil, fmt.Errorf("%w: type %s", ErrInvalidStatus, *input.TypeID)
		}
		testCase.TypeID = input.TypeID
	}
	if input.Title != nil {
		testCase.Title = *input.Title
	}
	if input.Description != nil {
		testCase.Description = *input.Description
	}
	if input.Steps != nil {
		steps, sErr := encodeSteps(input.Steps)
		if sErr != nil {
			return nil, sErr
		}
		testCase.Steps = steps
	}
	if input.ExpectedResult != nil {
		testCase.ExpectedResult = *input.ExpectedResult
	}
	if input.ActualResult != nil {
		testCase.ActualResult = *input.ActualResult
	}

	if err := cs.testCaseRepo.Update(ctx, nil, testCase); err != nil {
		return nil, fmt.Errorf("Failed to update test case: %w", err)
	}
	return testCase, nil
}

// DeleteTestCase only removes cases no execution record references, so
// execution history never loses its subject.
func (cs *testCaseService) DeleteTestCase(ctx context.Context, caseID uuid.UUID) error {
	actorID, err := cs.authz.CurrentActor(ctx)
	if err != nil {
		return err
	}
	if err := cs.authz.Authorize(ctx, actorID, types.RoleQA); err != nil {
		return err
	}

	count, err := cs.executionRepo.CountByCaseIDs(ctx, nil, []uuid.UUID{caseID})
	if err != nil {
		return fmt.Errorf("Failed to count executions: %w", err)
	}
	if count > 0 {
		return ErrHasExecutions
	}
	return cs.testCaseRepo.Delete(ctx, nil, caseID)
}

func encodeSteps(steps []string) (datatypes.JSON, error) {
	if steps == nil {
		steps = []string{}
	}
	raw, err := json.Marshal(steps)
	if err != nil {
		return nil, fmt.Errorf("Failed to encode steps: %w", err)
	}
	return datatypes.JSON(raw), nil
}
