package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/testtrackhq/testtrack-backend/internal/repos"
	"github.com/testtrackhq/testtrack-backend/internal/types"
)

func TestCatalogResolve(t *testing.T) {
	db := testDB(t)
	log := testLogger(t)
	catalog := NewCatalogService(log, repos.NewStatusCodeRepo(db, log))
	if err := catalog.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	failed, err := catalog.Resolve(types.CategoryTestCaseStatus, types.StatusNameFailed)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if failed.Name != types.StatusNameFailed || failed.Category != types.CategoryTestCaseStatus {
		t.Fatalf("Resolve: unexpected code %+v", failed)
	}

	// Names are case-sensitive.
	if _, err := catalog.Resolve(types.CategoryTestCaseStatus, "failed"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus for lowercase name, got %v", err)
	}
	if _, err := catalog.Resolve(types.CategoryTestRunStatus, types.StatusNameFailed); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus for wrong category, got %v", err)
	}

	got, ok := catalog.ByID(failed.ID)
	if !ok || got.ID != failed.ID {
		t.Fatalf("ByID: expected the resolved code back")
	}
	if _, ok := catalog.ByID(uuid.New()); ok {
		t.Fatalf("ByID: expected a miss for an unknown id")
	}
}

func TestCatalogValidateStatus(t *testing.T) {
	db := testDB(t)
	log := testLogger(t)
	catalog := NewCatalogService(log, repos.NewStatusCodeRepo(db, log))
	if err := catalog.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	medium, err := catalog.Resolve(types.CategoryPriority, types.PriorityNameMedium)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := catalog.ValidateStatus(types.CategoryPriority, medium.ID); err != nil {
		t.Fatalf("ValidateStatus: %v", err)
	}
	if err := catalog.ValidateStatus(types.CategoryTestCaseStatus, medium.ID); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus for category mismatch, got %v", err)
	}
	if err := catalog.ValidateStatus(types.CategoryPriority, uuid.New()); !errors.Is(err, ErrInvalidPriority) {
		t.Fatalf("expected ErrInvalidPriority, got %v", err)
	}
}
