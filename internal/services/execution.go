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

// RecordResultInput is one reported outcome for a (run, case) pair.
type RecordResultInput struct {
	TestRunID       uuid.UUID
	TestCaseID      uuid.UUID
	ActualResult    string
	StatusID        uuid.UUID
	ExecutingTeamID *uuid.UUID // defaults to the run's executing team
}

// ExecutionService records test results. RecordResult is the workflow
// coordinator for the submission side: one transaction covering the
// execution upsert and, when the reported status is Failed, defect filing.
type ExecutionService interface {
	RecordResult(ctx context.Context, input RecordResultInput) (*types.TestExecution, error)
	GetRunHistory(ctx context.Context, runID uuid.UUID) ([]*types.TestExecution, error)
}

type executionService struct {
	db            *gorm.DB
	log           *logger.Logger
	authz         AuthzService
	catalog       CatalogService
	executionRepo repos.TestExecutionRepo
	testRunRepo   repos.TestRunRepo
	testCaseRepo  repos.TestCaseRepo
	defectRepo    repos.DefectRepo

	// dedupOpenDefect switches the filer from one-defect-per-failure-event to
	// skip-if-an-open-defect-exists for the same pair.
	dedupOpenDefect bool
}

func NewExecutionService(
	db *gorm.DB,
	baseLog *logger.Logger,
	authz AuthzService,
	catalog CatalogService,
	executionRepo repos.TestExecutionRepo,
	testRunRepo repos.TestRunRepo,
	testCaseRepo repos.TestCaseRepo,
	defectRepo repos.DefectRepo,
	dedupOpenDefect bool,
) ExecutionService {
	serviceLog := baseLog.With("service", "ExecutionService")
	return &executionService{
		db:              db,
		log:             serviceLog,
		authz:           authz,
		catalog:         catalog,
		executionRepo:   executionRepo,
		testRunRepo:     testRunRepo,
		testCaseRepo:    testCaseRepo,
		defectRepo:      defectRepo,
		dedupOpenDefect: dedupOpenDefect,
	}
}

func (es *executionService) RecordResult(ctx context.Context, input RecordResultInput) (*types.TestExecution, error) {
	actorID, err := es.authz.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := es.authz.Authorize(ctx, actorID, types.RoleQA, types.RoleTester); err != nil {
		return nil, err
	}

	if err := es.catalog.ValidateStatus(types.CategoryTestCaseStatus, input.StatusID); err != nil {
		return nil, err
	}

	runs, err := es.testRunRepo.GetByIDs(ctx, nil, []uuid.UUID{input.TestRunID})
	if err != nil {
		return nil, fmt.Errorf("Failed to load test run: %w", err)
	}
	if len(runs) == 0 || runs[0] == nil {
		return nil, fmt.Errorf("%w: test run %s", ErrNotFound, input.TestRunID)
	}
	run := runs[0]

	cases, err := es.testCaseRepo.GetByIDs(ctx, nil, []uuid.UUID{input.TestCaseID})
	if err != nil {
		return nil, fmt.Errorf("Failed to load test case: %w", err)
	}
	if len(cases) == 0 || cases[0] == nil {
		return nil, fmt.Errorf("%w: test case %s", ErrNotFound, input.TestCaseID)
	}

	executingTeamID := run.ExecutingTeamID
	if input.ExecutingTeamID != nil && *input.ExecutingTeamID != uuid.Nil {
		executingTeamID = *input.ExecutingTeamID
	}

	var execution *types.TestExecution
	err = es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, gErr := es.executionRepo.GetByRunAndCase(ctx, tx, input.TestRunID, input.TestCaseID)
		if gErr != nil {
			return fmt.Errorf("Failed to look up execution: %w", gErr)
		}
		if existing == nil {
			fresh := &types.TestExecution{
				ID:              uuid.New(),
				TestRunID:       input.TestRunID,
				TestCaseID:      input.TestCaseID,
				ActualResult:    "",
				StatusID:        input.StatusID,
				ExecutingTeamID: executingTeamID,
				ExecutedAt:      time.Now(),
			}
			created, cErr := es.executionRepo.Create(ctx, tx, fresh)
			if cErr != nil {
				return fmt.Errorf("Failed to create execution: %w", cErr)
			}
			if created {
				existing = fresh
			} else {
				// Concurrent first submission won the insert; the conflict-free
				// insert leaves the transaction usable, so fall back to the
				// winner's row and update in place.
				es.log.Debug("Execution insert conflicted, re-reading", "test_run_id", input.TestRunID, "test_case_id", input.TestCaseID)
				existing, gErr = es.executionRepo.GetByRunAndCase(ctx, tx, input.TestRunID, input.TestCaseID)
				if gErr != nil {
					return fmt.Errorf("Failed to re-read execution after conflict: %w", gErr)
				}
				if existing == nil {
					return fmt.Errorf("Execution vanished after insert conflict for run %s case %s", input.TestRunID, input.TestCaseID)
				}
			}
		}

		if prior, ok := es.catalog.ByID(existing.StatusID); ok && prior.Name == types.StatusNameRetest {
			existing.RetryCount++
		}

		existing.ActualResult = input.ActualResult
		existing.StatusID = input.StatusID
		existing.ExecutingTeamID = executingTeamID
		existing.ExecutedAt = time.Now()
		if uErr := es.executionRepo.Update(ctx, tx, existing); uErr != nil {
			return fmt.Errorf("Failed to update execution: %w", uErr)
		}

		reported, ok := es.catalog.ByID(input.StatusID)
		if ok && reported.Name == types.StatusNameFailed {
			if fErr := es.fileDefect(ctx, tx, existing); fErr != nil {
				return fErr
			}
		}

		execution = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return execution, nil
}

// fileDefect runs inside the RecordResult transaction; any failure here rolls
// the execution write back with it.
func (es *executionService) fileDefect(ctx context.Context, tx *gorm.DB, execution *types.TestExecution) error {
	if es.dedupOpenDefect {
		open, err := es.defectRepo.OpenExistsForPair(ctx, tx, execution.TestRunID, execution.TestCaseID)
		if err != nil {
			return fmt.Errorf("Failed to check for open defect: %w", err)
		}
		if open {
			es.log.Debug("Open defect already filed for pair, skipping", "test_run_id", execution.TestRunID, "test_case_id", execution.TestCaseID)
			return nil
		}
	}

	medium, err := es.catalog.Resolve(types.CategoryPriority, types.PriorityNameMedium)
	if err != nil {
		es.log.Error("Medium priority missing from status catalog; seed data is broken", "error", err)
		return ErrPriorityMissing
	}

	caseID := execution.TestCaseID
	defect := &types.Defect{
		ID:               uuid.New(),
		Title:            fmt.Sprintf("Failed execution of test case %s", execution.TestCaseID),
		Description:      execution.ActualResult,
		StepsToReproduce: "N/A",
		Severity:         "Unspecified",
		PriorityID:       medium.ID,
		ReportedAt:       time.Now(),
		ReportedByTeamID: execution.ExecutingTeamID,
		TestRunID:        execution.TestRunID,
		TestCaseID:       &caseID,
	}
	if _, err := es.defectRepo.Create(ctx, tx, []*types.Defect{defect}); err != nil {
		return fmt.Errorf("Failed to file defect: %w", err)
	}
	es.log.Info("Defect filed for failed execution", "defect_id", defect.ID, "test_run_id", execution.TestRunID, "test_case_id", execution.TestCaseID)
	return nil
}

// GetRunHistory lists the run's executions ordered by execution time. With
// one row per (run, case) pair this is the latest result per case.
func (es *executionService) GetRunHistory(ctx context.Context, runID uuid.UUID) ([]*types.TestExecution, error) {
	if _, err := es.authz.CurrentActor(ctx); err != nil {
		return nil, err
	}
	runs, err := es.testRunRepo.GetByIDs(ctx, nil, []uuid.UUID{runID})
	if err != nil {
		return nil, fmt.Errorf("Failed to load test run: %w", err)
	}
	if len(runs) == 0 || runs[0] == nil {
		return nil, fmt.Errorf("%w: test run %s", ErrNotFound, runID)
	}
	return es.executionRepo.GetByRunIDs(ctx, nil, []uuid.UUID{runID})
}
