package services

import (
	"errors"
	"testing"

	"github.com/testtrackhq/testtrack-backend/internal/types"
)

func TestCreateTestCaseStartsAsDraft(t *testing.T) {
	f := newFixture(t, types.RoleQA)
	ctx := f.actorCtx()

	created, err := f.testCase.CreateTestCase(ctx, CreateTestCaseInput{
		TaskID:         f.task.ID,
		Title:          "Checkout totals",
		Steps:          []string{"add item", "open cart", "check total"},
		ExpectedResult: "total matches item prices",
		AuthorTeamID:   f.team.ID,
	})
	if err != nil {
		t.Fatalf("CreateTestCase: %v", err)
	}
	if created.StatusID != f.statusID(t, types.CategoryTestCaseStatus, types.StatusNameDraft) {
		t.Fatalf("expected new cases to start as Draft")
	}
	if string(created.Steps) != `["add item","open cart","check total"]` {
		t.Fatalf("Steps: got %s", created.Steps)
	}

	listed, err := f.testCase.GetTaskTestCases(ctx, f.task.ID)
	if err != nil {
		t.Fatalf("GetTaskTestCases: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("GetTaskTestCases: unexpected result: %+v", listed)
	}
}

func TestCreateTestCaseRequiresQA(t *testing.T) {
	f := newFixture(t, types.RoleTester)

	_, err := f.testCase.CreateTestCase(f.actorCtx(), CreateTestCaseInput{
		TaskID:       f.task.ID,
		Title:        "Not allowed",
		AuthorTeamID: f.team.ID,
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for a tester authoring cases, got %v", err)
	}
}

func TestDeleteTestCaseGuardsExecutions(t *testing.T) {
	f := newFixture(t, types.RoleQA)
	tc := f.seedTestCase(t)
	run := f.seedTestRun(t)

	if _, err := f.execution.RecordResult(f.actorCtx(), RecordResultInput{
		TestRunID:    run.ID,
		TestCaseID:   tc.ID,
		ActualResult: "ok",
		StatusID:     f.statusID(t, types.CategoryTestCaseStatus, types.StatusNamePassed),
	}); err != nil {
		t.Fatalf("RecordResult: %v", err)
	}

	if err := f.testCase.DeleteTestCase(f.actorCtx(), tc.ID); !errors.Is(err, ErrHasExecutions) {
		t.Fatalf("expected ErrHasExecutions, got %v", err)
	}

	fresh := f.seedTestCase(t)
	if err := f.testCase.DeleteTestCase(f.actorCtx(), fresh.ID); err != nil {
		t.Fatalf("DeleteTestCase: %v", err)
	}
}

func TestUpdateTestCaseValidatesStatus(t *testing.T) {
	f := newFixture(t, types.RoleQA)
	tc := f.seedTestCase(t)

	blocked := f.statusID(t, types.CategoryTestCaseStatus, "Blocked")
	updated, err := f.testCase.UpdateTestCase(f.actorCtx(), tc.ID, UpdateTestCaseInput{
		StatusID: &blocked,
	})
	if err != nil {
		t.Fatalf("UpdateTestCase: %v", err)
	}
	if updated.StatusID != blocked {
		t.Fatalf("StatusID not applied")
	}

	wrong := f.statusID(t, types.CategoryTestRunStatus, "Planned")
	if _, err := f.testCase.UpdateTestCase(f.actorCtx(), tc.ID, UpdateTestCaseInput{StatusID: &wrong}); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus for a run status on a case, got %v", err)
	}
}
