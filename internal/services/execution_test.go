package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/testtrackhq/testtrack-backend/internal/repos"
	"github.com/testtrackhq/testtrack-backend/internal/types"
)

// lateRowRepo reports the pair row as absent on the first lookup, modeling a
// concurrent first submission landing between the recorder's lookup and its
// insert.
type lateRowRepo struct {
	repos.TestExecutionRepo
	missedOnce bool
}

func (r *lateRowRepo) GetByRunAndCase(ctx context.Context, tx *gorm.DB, runID, caseID uuid.UUID) (*types.TestExecution, error) {
	if !r.missedOnce {
		r.missedOnce = true
		return nil, nil
	}
	return r.TestExecutionRepo.GetByRunAndCase(ctx, tx, runID, caseID)
}

func TestRecordResultPassedFilesNoDefect(t *testing.T) {
	f := newFixture(t, types.RoleTester)
	tc := f.seedTestCase(t)
	run := f.seedTestRun(t)
	ctx := f.actorCtx()

	execution, err := f.execution.RecordResult(ctx, RecordResultInput{
		TestRunID:    run.ID,
		TestCaseID:   tc.ID,
		ActualResult: "all good",
		StatusID:     f.statusID(t, types.CategoryTestCaseStatus, types.StatusNamePassed),
	})
	if err != nil {
		t.Fatalf("RecordResult: %v", err)
	}
	if execution.ActualResult != "all good" {
		t.Fatalf("ActualResult: got %q", execution.ActualResult)
	}
	if execution.ExecutingTeamID != f.team.ID {
		t.Fatalf("ExecutingTeamID: expected run's team %s, got %s", f.team.ID, execution.ExecutingTeamID)
	}

	defects, err := f.defectRepo.GetByRunIDs(context.Background(), nil, []uuid.UUID{run.ID})
	if err != nil {
		t.Fatalf("GetByRunIDs: %v", err)
	}
	if len(defects) != 0 {
		t.Fatalf("expected no defects for a passed execution, got %d", len(defects))
	}
}

func TestRecordResultFailedFilesDefect(t *testing.T) {
	f := newFixture(t, types.RoleTester)
	tc := f.seedTestCase(t)
	run := f.seedTestRun(t)
	ctx := f.actorCtx()

	_, err := f.execution.RecordResult(ctx, RecordResultInput{
		TestRunID:    run.ID,
		TestCaseID:   tc.ID,
		ActualResult: "crashed",
		StatusID:     f.statusID(t, types.CategoryTestCaseStatus, types.StatusNameFailed),
	})
	if err != nil {
		t.Fatalf("RecordResult: %v", err)
	}

	defects, err := f.defectRepo.GetByRunIDs(context.Background(), nil, []uuid.UUID{run.ID})
	if err != nil {
		t.Fatalf("GetByRunIDs: %v", err)
	}
	if len(defects) != 1 {
		t.Fatalf("expected exactly one defect, got %d", len(defects))
	}
	d := defects[0]
	if d.Description != "crashed" {
		t.Fatalf("Description: got %q", d.Description)
	}
	if d.TestCaseID == nil || *d.TestCaseID != tc.ID {
		t.Fatalf("TestCaseID: expected %s, got %v", tc.ID, d.TestCaseID)
	}
	if d.PriorityID != f.statusID(t, types.CategoryPriority, types.PriorityNameMedium) {
		t.Fatalf("PriorityID: expected the Medium priority")
	}
	if d.ReportedByTeamID != f.team.ID {
		t.Fatalf("ReportedByTeamID: expected %s, got %s", f.team.ID, d.ReportedByTeamID)
	}
	if d.ResolvedAt != nil {
		t.Fatalf("ResolvedAt: expected nil for a fresh defect")
	}
}

func TestRecordResultRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t, types.RoleTester)
	tc := f.seedTestCase(t)
	run := f.seedTestRun(t)

	_, err := f.execution.RecordResult(f.actorCtx(), RecordResultInput{
		TestRunID:  run.ID,
		TestCaseID: tc.ID,
		StatusID:   uuid.New(),
	})
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}

	existing, err := f.executionRepo.GetByRunAndCase(context.Background(), nil, run.ID, tc.ID)
	if err != nil {
		t.Fatalf("GetByRunAndCase: %v", err)
	}
	if existing != nil {
		t.Fatalf("expected no execution row after a rejected result")
	}
}

func TestRecordResultRejectsPriorityAsCaseStatus(t *testing.T) {
	f := newFixture(t, types.RoleTester)
	tc := f.seedTestCase(t)
	run := f.seedTestRun(t)

	_, err := f.execution.RecordResult(f.actorCtx(), RecordResultInput{
		TestRunID:  run.ID,
		TestCaseID: tc.ID,
		StatusID:   f.statusID(t, types.CategoryPriority, types.PriorityNameMedium),
	})
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus for a cross-category id, got %v", err)
	}
}

func TestRecordResultKeepsOneRowPerPair(t *testing.T) {
	f := newFixture(t, types.RoleTester)
	tc := f.seedTestCase(t)
	run := f.seedTestRun(t)
	ctx := f.actorCtx()

	passed := f.statusID(t, types.CategoryTestCaseStatus, types.StatusNamePassed)
	failed := f.statusID(t, types.CategoryTestCaseStatus, types.StatusNameFailed)

	first, err := f.execution.RecordResult(ctx, RecordResultInput{
		TestRunID:    run.ID,
		TestCaseID:   tc.ID,
		ActualResult: "ok",
		StatusID:     passed,
	})
	if err != nil {
		t.Fatalf("first RecordResult: %v", err)
	}
	second, err := f.execution.RecordResult(ctx, RecordResultInput{
		TestRunID:    run.ID,
		TestCaseID:   tc.ID,
		ActualResult: "broke on retry",
		StatusID:     failed,
	})
	if err != nil {
		t.Fatalf("second RecordResult: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected the same execution row, got %s then %s", first.ID, second.ID)
	}

	history, err := f.execution.GetRunHistory(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRunHistory: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected one row for the pair, got %d", len(history))
	}
	if history[0].ActualResult != "broke on retry" || history[0].StatusID != failed {
		t.Fatalf("latest result not kept: %+v", history[0])
	}
}

func TestRecordResultSecondFailureFilesSecondDefect(t *testing.T) {
	f := newFixture(t, types.RoleTester)
	tc := f.seedTestCase(t)
	run := f.seedTestRun(t)
	ctx := f.actorCtx()

	failed := f.statusID(t, types.CategoryTestCaseStatus, types.StatusNameFailed)
	for _, result := range []string{"first failure", "second failure"} {
		if _, err := f.execution.RecordResult(ctx, RecordResultInput{
			TestRunID:    run.ID,
			TestCaseID:   tc.ID,
			ActualResult: result,
			StatusID:     failed,
		}); err != nil {
			t.Fatalf("RecordResult(%q): %v", result, err)
		}
	}

	defects, err := f.defectRepo.GetByRunIDs(context.Background(), nil, []uuid.UUID{run.ID})
	if err != nil {
		t.Fatalf("GetByRunIDs: %v", err)
	}
	if len(defects) != 2 {
		t.Fatalf("expected a defect per failure event, got %d", len(defects))
	}
}

func TestRecordResultDedupSkipsOpenDefect(t *testing.T) {
	f := newFixture(t, types.RoleTester)
	tc := f.seedTestCase(t)
	run := f.seedTestRun(t)
	ctx := f.actorCtx()

	deduping := NewExecutionService(f.db, f.log, f.authz, f.catalog, f.executionRepo, f.testRunRepo, f.testCaseRepo, f.defectRepo, true)
	failed := f.statusID(t, types.CategoryTestCaseStatus, types.StatusNameFailed)
	for i := 0; i < 2; i++ {
		if _, err := deduping.RecordResult(ctx, RecordResultInput{
			TestRunID:    run.ID,
			TestCaseID:   tc.ID,
			ActualResult: "still broken",
			StatusID:     failed,
		}); err != nil {
			t.Fatalf("RecordResult: %v", err)
		}
	}

	defects, err := f.defectRepo.GetByRunIDs(context.Background(), nil, []uuid.UUID{run.ID})
	if err != nil {
		t.Fatalf("GetByRunIDs: %v", err)
	}
	if len(defects) != 1 {
		t.Fatalf("expected the open defect to suppress refiling, got %d", len(defects))
	}
}

func TestRecordResultIncrementsRetryCountAfterRetest(t *testing.T) {
	f := newFixture(t, types.RoleTester)
	tc := f.seedTestCase(t)
	run := f.seedTestRun(t)
	ctx := f.actorCtx()

	failed := f.statusID(t, types.CategoryTestCaseStatus, types.StatusNameFailed)
	first, err := f.execution.RecordResult(ctx, RecordResultInput{
		TestRunID:    run.ID,
		TestCaseID:   tc.ID,
		ActualResult: "broken",
		StatusID:     failed,
	})
	if err != nil {
		t.Fatalf("RecordResult: %v", err)
	}
	if first.RetryCount != 0 {
		t.Fatalf("RetryCount after first failure: got %d", first.RetryCount)
	}

	defects, err := f.defectRepo.GetByRunIDs(context.Background(), nil, []uuid.UUID{run.ID})
	if err != nil || len(defects) != 1 {
		t.Fatalf("expected one defect, got %d (err %v)", len(defects), err)
	}
	if _, err := f.defect.ResolveDefect(ctx, defects[0].ID, ResolveDefectInput{}); err != nil {
		t.Fatalf("ResolveDefect: %v", err)
	}

	retried, err := f.execution.RecordResult(ctx, RecordResultInput{
		TestRunID:    run.ID,
		TestCaseID:   tc.ID,
		ActualResult: "fixed now",
		StatusID:     f.statusID(t, types.CategoryTestCaseStatus, types.StatusNamePassed),
	})
	if err != nil {
		t.Fatalf("RecordResult after retest: %v", err)
	}
	if retried.RetryCount != 1 {
		t.Fatalf("RetryCount after retest: got %d, want 1", retried.RetryCount)
	}
}

func TestRecordResultRollsBackWhenMediumPriorityMissing(t *testing.T) {
	f := newFixture(t, types.RoleTester)
	tc := f.seedTestCase(t)
	run := f.seedTestRun(t)
	ctx := f.actorCtx()

	if err := f.db.
		Where("category = ? AND name = ?", types.CategoryPriority, types.PriorityNameMedium).
		Delete(&types.StatusCode{}).Error; err != nil {
		t.Fatalf("delete Medium priority: %v", err)
	}
	if err := f.catalog.Load(context.Background()); err != nil {
		t.Fatalf("reload catalog: %v", err)
	}

	_, err := f.execution.RecordResult(ctx, RecordResultInput{
		TestRunID:    run.ID,
		TestCaseID:   tc.ID,
		ActualResult: "broken",
		StatusID:     f.statusID(t, types.CategoryTestCaseStatus, types.StatusNameFailed),
	})
	if !errors.Is(err, ErrPriorityMissing) {
		t.Fatalf("expected ErrPriorityMissing, got %v", err)
	}

	// Defect filing failed, so the execution write must be gone too.
	existing, gErr := f.executionRepo.GetByRunAndCase(context.Background(), nil, run.ID, tc.ID)
	if gErr != nil {
		t.Fatalf("GetByRunAndCase: %v", gErr)
	}
	if existing != nil {
		t.Fatalf("expected the execution upsert to roll back with the defect")
	}
}

func TestRecordResultRecoversFromInsertConflict(t *testing.T) {
	f := newFixture(t, types.RoleTester)
	tc := f.seedTestCase(t)
	run := f.seedTestRun(t)
	ctx := f.actorCtx()

	winner := &types.TestExecution{
		ID:              uuid.New(),
		TestRunID:       run.ID,
		TestCaseID:      tc.ID,
		ActualResult:    "first reporter",
		StatusID:        f.statusID(t, types.CategoryTestCaseStatus, types.StatusNamePassed),
		ExecutingTeamID: f.team.ID,
		ExecutedAt:      time.Now(),
	}
	if err := f.db.Create(winner).Error; err != nil {
		t.Fatalf("seed winner row: %v", err)
	}

	// A conflicting insert must report no row created, not an error that would
	// poison the surrounding transaction.
	created, err := f.executionRepo.Create(context.Background(), nil, &types.TestExecution{
		ID:              uuid.New(),
		TestRunID:       run.ID,
		TestCaseID:      tc.ID,
		StatusID:        winner.StatusID,
		ExecutingTeamID: f.team.ID,
		ExecutedAt:      time.Now(),
	})
	if err != nil {
		t.Fatalf("Create on conflict: %v", err)
	}
	if created {
		t.Fatalf("Create: expected the existing pair row to win")
	}

	racing := NewExecutionService(f.db, f.log, f.authz, f.catalog,
		&lateRowRepo{TestExecutionRepo: f.executionRepo},
		f.testRunRepo, f.testCaseRepo, f.defectRepo, false)
	got, err := racing.RecordResult(ctx, RecordResultInput{
		TestRunID:    run.ID,
		TestCaseID:   tc.ID,
		ActualResult: "second reporter",
		StatusID:     f.statusID(t, types.CategoryTestCaseStatus, types.StatusNameFailed),
	})
	if err != nil {
		t.Fatalf("RecordResult: %v", err)
	}
	if got.ID != winner.ID {
		t.Fatalf("expected the winner's row updated in place, got %s want %s", got.ID, winner.ID)
	}
	if got.ActualResult != "second reporter" {
		t.Fatalf("ActualResult: got %q", got.ActualResult)
	}

	history, err := f.execution.GetRunHistory(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRunHistory: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected one row for the pair after the conflict, got %d", len(history))
	}

	defects, err := f.defectRepo.GetByRunIDs(context.Background(), nil, []uuid.UUID{run.ID})
	if err != nil {
		t.Fatalf("GetByRunIDs: %v", err)
	}
	if len(defects) != 1 {
		t.Fatalf("expected the failed result to still file a defect, got %d", len(defects))
	}
}

func TestRecordResultRoleGate(t *testing.T) {
	f := newFixture(t, types.RoleDeveloper)
	tc := f.seedTestCase(t)
	run := f.seedTestRun(t)

	_, err := f.execution.RecordResult(f.actorCtx(), RecordResultInput{
		TestRunID:  run.ID,
		TestCaseID: tc.ID,
		StatusID:   f.statusID(t, types.CategoryTestCaseStatus, types.StatusNamePassed),
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for a developer, got %v", err)
	}

	_, err = f.execution.RecordResult(context.Background(), RecordResultInput{
		TestRunID:  run.ID,
		TestCaseID: tc.ID,
		StatusID:   f.statusID(t, types.CategoryTestCaseStatus, types.StatusNamePassed),
	})
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated without request data, got %v", err)
	}
}

func TestRecordResultUnknownRunOrCase(t *testing.T) {
	f := newFixture(t, types.RoleTester)
	tc := f.seedTestCase(t)
	run := f.seedTestRun(t)
	passed := f.statusID(t, types.CategoryTestCaseStatus, types.StatusNamePassed)

	_, err := f.execution.RecordResult(f.actorCtx(), RecordResultInput{
		TestRunID:  uuid.New(),
		TestCaseID: tc.ID,
		StatusID:   passed,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown run, got %v", err)
	}

	_, err = f.execution.RecordResult(f.actorCtx(), RecordResultInput{
		TestRunID:  run.ID,
		TestCaseID: uuid.New(),
		StatusID:   passed,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown case, got %v", err)
	}
}
