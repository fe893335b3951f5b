package services

import (
	"errors"
	"testing"
	"time"

	"github.com/testtrackhq/testtrack-backend/internal/types"
)

func TestCreateTestRunDefaults(t *testing.T) {
	f := newFixture(t, types.RoleQA)

	run, err := f.testRun.CreateTestRun(f.actorCtx(), CreateTestRunInput{
		TaskID:          f.task.ID,
		Name:            "Regression sweep",
		CreatedByTeamID: f.team.ID,
	})
	if err != nil {
		t.Fatalf("CreateTestRun: %v", err)
	}
	if run.ExecutingTeamID != f.team.ID {
		t.Fatalf("ExecutingTeamID: expected the creating team by default")
	}
	if run.StatusID != f.statusID(t, types.CategoryTestRunStatus, "Planned") {
		t.Fatalf("expected new runs to start as Planned")
	}
	if run.RunDate.IsZero() || run.RunDate.After(time.Now().Add(time.Second)) {
		t.Fatalf("RunDate: expected a present timestamp, got %v", run.RunDate)
	}
}

func TestCreateTestRunClampsFutureDate(t *testing.T) {
	f := newFixture(t, types.RoleQA)

	future := time.Now().Add(48 * time.Hour)
	run, err := f.testRun.CreateTestRun(f.actorCtx(), CreateTestRunInput{
		TaskID:          f.task.ID,
		Name:            "Scheduled",
		CreatedByTeamID: f.team.ID,
		RunDate:         future,
	})
	if err != nil {
		t.Fatalf("CreateTestRun: %v", err)
	}
	if run.RunDate.After(time.Now().Add(time.Second)) {
		t.Fatalf("RunDate: expected future date clamped to now, got %v", run.RunDate)
	}
}

func TestCreateTestRunRequiresQA(t *testing.T) {
	f := newFixture(t, types.RoleDeveloper)

	_, err := f.testRun.CreateTestRun(f.actorCtx(), CreateTestRunInput{
		TaskID:          f.task.ID,
		Name:            "Not allowed",
		CreatedByTeamID: f.team.ID,
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestUpdateTestRunStatus(t *testing.T) {
	f := newFixture(t, types.RoleTester)
	run := f.seedTestRun(t)

	inProgress := f.statusID(t, types.CategoryTestRunStatus, "In Progress")
	updated, err := f.testRun.UpdateTestRunStatus(f.actorCtx(), run.ID, inProgress)
	if err != nil {
		t.Fatalf("UpdateTestRunStatus: %v", err)
	}
	if updated.StatusID != inProgress {
		t.Fatalf("StatusID not applied")
	}

	wrong := f.statusID(t, types.CategoryTestCaseStatus, types.StatusNamePassed)
	if _, err := f.testRun.UpdateTestRunStatus(f.actorCtx(), run.ID, wrong); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus for a case status on a run, got %v", err)
	}
}
