package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/testtrackhq/testtrack-backend/internal/types"
)

func failExecution(t *testing.T, f *fixture, runID, caseID uuid.UUID) *types.Defect {
	t.Helper()
	_, err := f.execution.RecordResult(f.actorCtx(), RecordResultInput{
		TestRunID:    runID,
		TestCaseID:   caseID,
		ActualResult: "broken",
		StatusID:     f.statusID(t, types.CategoryTestCaseStatus, types.StatusNameFailed),
	})
	if err != nil {
		t.Fatalf("RecordResult: %v", err)
	}
	defects, err := f.defectRepo.GetByRunIDs(context.Background(), nil, []uuid.UUID{runID})
	if err != nil || len(defects) == 0 {
		t.Fatalf("expected a filed defect, got %d (err %v)", len(defects), err)
	}
	return defects[len(defects)-1]
}

func TestResolveDefectReopensExecution(t *testing.T) {
	f := newFixture(t, types.RoleTester)
	tc := f.seedTestCase(t)
	run := f.seedTestRun(t)
	filed := failExecution(t, f, run.ID, tc.ID)

	steps := "1. log in\n2. submit the form"
	resolved, err := f.defect.ResolveDefect(f.actorCtx(), filed.ID, ResolveDefectInput{
		StepsToReproduce: &steps,
	})
	if err != nil {
		t.Fatalf("ResolveDefect: %v", err)
	}
	if resolved.ResolvedAt == nil {
		t.Fatalf("ResolvedAt: expected a timestamp")
	}
	if resolved.StepsToReproduce != steps {
		t.Fatalf("StepsToReproduce: got %q", resolved.StepsToReproduce)
	}
	// The resolving tester belongs to the reporting team, so the defect comes
	// back to it.
	if resolved.AssignedToTeamID == nil || *resolved.AssignedToTeamID != f.team.ID {
		t.Fatalf("AssignedToTeamID: expected %s, got %v", f.team.ID, resolved.AssignedToTeamID)
	}

	execution, err := f.executionRepo.GetByRunAndCase(context.Background(), nil, run.ID, tc.ID)
	if err != nil {
		t.Fatalf("GetByRunAndCase: %v", err)
	}
	if execution == nil {
		t.Fatalf("expected the execution row to survive resolution")
	}
	if execution.StatusID != f.statusID(t, types.CategoryTestCaseStatus, types.StatusNameRetest) {
		t.Fatalf("expected the execution reset to Retest")
	}
}

func TestResolveManualDefectLeavesExecutionsAlone(t *testing.T) {
	f := newFixture(t, types.RoleTester)
	run := f.seedTestRun(t)

	manual, err := f.defect.CreateDefect(f.actorCtx(), CreateDefectInput{
		Title:            "Build server flaky",
		Description:      "Observed outside a recorded execution",
		PriorityID:       f.statusID(t, types.CategoryPriority, types.PriorityNameMedium),
		TestRunID:        run.ID,
		ReportedByTeamID: f.team.ID,
	})
	if err != nil {
		t.Fatalf("CreateDefect: %v", err)
	}
	if manual.TestCaseID != nil {
		t.Fatalf("manual defects must not link a test case")
	}

	resolved, err := f.defect.ResolveDefect(f.actorCtx(), manual.ID, ResolveDefectInput{})
	if err != nil {
		t.Fatalf("ResolveDefect: %v", err)
	}
	if resolved.ResolvedAt == nil {
		t.Fatalf("ResolvedAt: expected a timestamp")
	}

	history, err := f.execution.GetRunHistory(f.actorCtx(), run.ID)
	if err != nil {
		t.Fatalf("GetRunHistory: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected no executions to be touched, got %d", len(history))
	}
}

func TestResolveDefectRequiresTester(t *testing.T) {
	f := newFixture(t, types.RoleQA)
	tc := f.seedTestCase(t)
	run := f.seedTestRun(t)
	filed := failExecution(t, f, run.ID, tc.ID)

	_, err := f.defect.ResolveDefect(f.actorCtx(), filed.ID, ResolveDefectInput{})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for qa resolving, got %v", err)
	}
}

func TestResolveDefectUnknownID(t *testing.T) {
	f := newFixture(t, types.RoleTester)

	_, err := f.defect.ResolveDefect(f.actorCtx(), uuid.New(), ResolveDefectInput{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateDefectValidatesPriority(t *testing.T) {
	f := newFixture(t, types.RoleQA)
	run := f.seedTestRun(t)

	_, err := f.defect.CreateDefect(f.actorCtx(), CreateDefectInput{
		Title:            "Bad priority",
		PriorityID:       uuid.New(),
		TestRunID:        run.ID,
		ReportedByTeamID: f.team.ID,
	})
	if !errors.Is(err, ErrInvalidPriority) {
		t.Fatalf("expected ErrInvalidPriority, got %v", err)
	}
}

func TestUpdateDefect(t *testing.T) {
	f := newFixture(t, types.RoleQA)
	run := f.seedTestRun(t)

	defect, err := f.defect.CreateDefect(f.actorCtx(), CreateDefectInput{
		Title:            "Typo in banner",
		PriorityID:       f.statusID(t, types.CategoryPriority, "Low"),
		TestRunID:        run.ID,
		ReportedByTeamID: f.team.ID,
	})
	if err != nil {
		t.Fatalf("CreateDefect: %v", err)
	}

	title := "Typo in the login banner"
	high := f.statusID(t, types.CategoryPriority, "High")
	updated, err := f.defect.UpdateDefect(f.actorCtx(), defect.ID, UpdateDefectInput{
		Title:      &title,
		PriorityID: &high,
	})
	if err != nil {
		t.Fatalf("UpdateDefect: %v", err)
	}
	if updated.Title != title || updated.PriorityID != high {
		t.Fatalf("update not applied: %+v", updated)
	}

	bogus := uuid.New()
	_, err = f.defect.UpdateDefect(f.actorCtx(), defect.ID, UpdateDefectInput{PriorityID: &bogus})
	if !errors.Is(err, ErrInvalidPriority) {
		t.Fatalf("expected ErrInvalidPriority, got %v", err)
	}
}

func TestDeleteDefectGuardsLinkedCase(t *testing.T) {
	f := newFixture(t, types.RoleQA)
	tc := f.seedTestCase(t)
	run := f.seedTestRun(t)
	filed := failExecution(t, f, run.ID, tc.ID)

	if err := f.defect.DeleteDefect(f.actorCtx(), filed.ID); !errors.Is(err, ErrHasLinkedCase) {
		t.Fatalf("expected ErrHasLinkedCase, got %v", err)
	}

	manual, err := f.defect.CreateDefect(f.actorCtx(), CreateDefectInput{
		Title:            "Deletable",
		PriorityID:       f.statusID(t, types.CategoryPriority, types.PriorityNameMedium),
		TestRunID:        run.ID,
		ReportedByTeamID: f.team.ID,
	})
	if err != nil {
		t.Fatalf("CreateDefect: %v", err)
	}
	if err := f.defect.DeleteDefect(f.actorCtx(), manual.ID); err != nil {
		t.Fatalf("DeleteDefect: %v", err)
	}
	if _, err := f.defect.GetDefect(f.actorCtx(), manual.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
