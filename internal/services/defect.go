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

type CreateDefectInput struct {
	Title            string
	Description      string
	StepsToReproduce string
	Severity         string
	PriorityID       uuid.UUID
	TestRunID        uuid.UUID
	ReportedByTeamID uuid.UUID
}

type UpdateDefectInput struct {
	Title       *string
	Description *string
	Severity    *string
	PriorityID  *uuid.UUID
}

type ResolveDefectInput struct {
	StepsToReproduce *string
	Severity         *string
}

// DefectService owns the defect lifecycle. ResolveDefect is the workflow
// coordinator for the resolution side: one transaction covering the defect
// update and the retest reopening of the originating execution.
type DefectService interface {
	CreateDefect(ctx context.Context, input CreateDefectInput) (*types.Defect, error)
	GetDefect(ctx context.Context, defectID uuid.UUID) (*types.Defect, error)
	GetRunDefects(ctx context.Context, runID uuid.UUID) ([]*types.Defect, error)
	UpdateDefect(ctx context.Context, defectID uuid.UUID, input UpdateDefectInput) (*types.Defect, error)
	ResolveDefect(ctx context.Context, defectID uuid.UUID, input ResolveDefectInput) (*types.Defect, error)
	DeleteDefect(ctx context.Context, defectID uuid.UUID) error
}

type defectService struct {
	db             *gorm.DB
	log            *logger.Logger
	authz          AuthzService
	catalog        CatalogService
	defectRepo     repos.DefectRepo
	executionRepo  repos.TestExecutionRepo
	teamMemberRepo repos.TeamMemberRepo
}

func NewDefectService(
	db *gorm.DB,
	baseLog *logger.Logger,
	authz AuthzService,
	catalog CatalogService,
	defectRepo repos.DefectRepo,
	executionRepo repos.TestExecutionRepo,
	teamMemberRepo repos.TeamMemberRepo,
) DefectService {
	serviceLog := baseLog.With("service", "DefectService")
	return &defectService{
		db:             db,
		log:            serviceLog,
		authz:          authz,
		catalog:        catalog,
		defectRepo:     defectRepo,
		executionRepo:  executionRepo,
		teamMemberRepo: teamMemberRepo,
	}
}

// CreateDefect files a defect by hand, for problems observed outside a
// recorded execution. It never links a test case; that link is reserved for
// the automatic filer.
func (ds *defectService) CreateDefect(ctx context.Context, input CreateDefectInput) (*types.Defect, error) {
	actorID, err := ds.authz.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := ds.authz.Authorize(ctx, actorID, types.RoleQA, types.RoleTester); err != nil {
		return nil, err
	}
	if err := ds.catalog.ValidateStatus(types.CategoryPriority, input.PriorityID); err != nil {
		return nil, err
	}
	if input.Title == "" {
		return nil, fmt.Errorf("A defect title is required")
	}

	defect := &types.Defect{
		ID:               uuid.New(),
		Title:            input.Title,
		Description:      input.Description,
		StepsToReproduce: input.StepsToReproduce,
		Severity:         input.Severity,
		PriorityID:       input.PriorityID,
		ReportedAt:       time.Now(),
		ReportedByTeamID: input.ReportedByTeamID,
		TestRunID:        input.TestRunID,
	}
	if _, err := ds.defectRepo.Create(ctx, nil, []*types.Defect{defect}); err != nil {
		return nil, fmt.Errorf("Failed to create defect: %w", err)
	}
	return defect, nil
}

func (ds *defectService) GetDefect(ctx context.Context, defectID uuid.UUID) (*types.Defect, error) {
	if _, err := ds.authz.CurrentActor(ctx); err != nil {
		return nil, err
	}
	return ds.loadDefect(ctx, nil, defectID)
}

func (ds *defectService) GetRunDefects(ctx context.Context, runID uuid.UUID) ([]*types.Defect, error) {
	if _, err := ds.authz.CurrentActor(ctx); err != nil {
		return nil, err
	}
	return ds.defectRepo.GetByRunIDs(ctx, nil, []uuid.UUID{runID})
}

func (ds *defectService) UpdateDefect(ctx context.Context, defectID uuid.UUID, input UpdateDefectInput) (*types.Defect, error) {
	actorID, err := ds.authz.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := ds.authz.Authorize(ctx, actorID, types.RoleQA, types.RoleTester); err != nil {
		return nil, err
	}

	defect, err := ds.loadDefect(ctx, nil, defectID)
	if err != nil {
		return nil, err
	}
	if input.Title != nil {
		defect.Title = *input.Title
	}
	if input.Description != nil {
		defect.Description = *input.Description
	}
	if input.Severity != nil {
		defect.Severity = *input.Severity
	}
	if input.PriorityID != nil {
		if err := ds.catalog.ValidateStatus(types.CategoryPriority, *input.PriorityID); err != nil {
			return nil, err
		}
		defect.PriorityID = *input.PriorityID
	}
	if err := ds.defectRepo.Update(ctx, nil, defect); err != nil {
		return nil, fmt.Errorf("Failed to update defect: %w", err)
	}
	return defect, nil
}

// ResolveDefect marks the defect resolved and reopens the originating
// execution for retest. Both writes commit together or not at all.
func (ds *defectService) ResolveDefect(ctx context.Context, defectID uuid.UUID, input ResolveDefectInput) (*types.Defect, error) {
	actorID, err := ds.authz.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := ds.authz.Authorize(ctx, actorID, types.RoleTester); err != nil {
		return nil, err
	}

	var resolved *types.Defect
	err = ds.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		defect, lErr := ds.loadDefect(ctx, tx, defectID)
		if lErr != nil {
			return lErr
		}

		if input.StepsToReproduce != nil {
			defect.StepsToReproduce = *input.StepsToReproduce
		}
		if input.Severity != nil {
			defect.Severity = *input.Severity
		}
		now := time.Now()
		defect.ResolvedAt = &now

		// Best effort: assign the defect to the reporting team when the
		// resolving actor belongs to it. No team, no reassignment, no error.
		memberships, mErr := ds.teamMemberRepo.GetByUserIDs(ctx, tx, []uuid.UUID{actorID})
		if mErr != nil {
			ds.log.Warn("Could not load actor memberships for defect reassignment", "error", mErr)
		} else {
			for _, m := range memberships {
				if m != nil && m.TeamID == defect.ReportedByTeamID {
					teamID := m.TeamID
					defect.AssignedToTeamID = &teamID
					break
				}
			}
		}

		if uErr := ds.defectRepo.Update(ctx, tx, defect); uErr != nil {
			return fmt.Errorf("Failed to update defect: %w", uErr)
		}

		if rErr := ds.reopenExecution(ctx, tx, defect); rErr != nil {
			return rErr
		}

		resolved = defect
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

// reopenExecution resets the execution that produced the defect to Retest,
// closing the workflow loop. A defect with no matching execution is a no-op.
func (ds *defectService) reopenExecution(ctx context.Context, tx *gorm.DB, defect *types.Defect) error {
	if defect.TestCaseID == nil {
		return nil
	}
	execution, err := ds.executionRepo.GetByRunAndCase(ctx, tx, defect.TestRunID, *defect.TestCaseID)
	if err != nil {
		return fmt.Errorf("Failed to look up execution for defect: %w", err)
	}
	if execution == nil {
		return nil
	}
	retest, err := ds.catalog.Resolve(types.CategoryTestCaseStatus, types.StatusNameRetest)
	if err != nil {
		ds.log.Error("Retest status missing from status catalog; seed data is broken", "error", err)
		return err
	}
	execution.StatusID = retest.ID
	if err := ds.executionRepo.Update(ctx, tx, execution); err != nil {
		return fmt.Errorf("Failed to reset execution status to retest: %w", err)
	}
	ds.log.Info("Execution reopened for retest", "test_run_id", defect.TestRunID, "test_case_id", *defect.TestCaseID, "defect_id", defect.ID)
	return nil
}

// DeleteDefect refuses to remove defects tied to an execution; deleting them
// would orphan execution history.
func (ds *defectService) DeleteDefect(ctx context.Context, defectID uuid.UUID) error {
	actorID, err := ds.authz.CurrentActor(ctx)
	if err != nil {
		return err
	}
	if err := ds.authz.Authorize(ctx, actorID, types.RoleQA, types.RoleAdmin); err != nil {
		return err
	}

	defect, err := ds.loadDefect(ctx, nil, defectID)
	if err != nil {
		return err
	}
	if defect.TestCaseID != nil {
		return ErrHasLinkedCase
	}
	return ds.defectRepo.Delete(ctx, nil, defectID)
}

func (ds *defectService) loadDefect(ctx context.Context, tx *gorm.DB, defectID uuid.UUID) (*types.Defect, error) {
	defects, err := ds.defectRepo.GetByIDs(ctx, tx, []uuid.UUID{defectID})
	if err != nil {
		return nil, fmt.Errorf("Failed to load defect: %w", err)
	}
	if len(defects) == 0 || defects[0] == nil {
		return nil, fmt.Errorf("%w: defect %s", ErrNotFound, defectID)
	}
	return defects[0], nil
}
