package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/testtrackhq/testtrack-backend/internal/repos"
	"github.com/testtrackhq/testtrack-backend/internal/requestdata"
	"github.com/testtrackhq/testtrack-backend/internal/types"
)

func TestCurrentActor(t *testing.T) {
	db := testDB(t)
	log := testLogger(t)
	authz := NewAuthzService(db, log, repos.NewTeamMemberRepo(db, log), nil)

	if _, err := authz.CurrentActor(context.Background()); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated without request data, got %v", err)
	}

	userID := uuid.New()
	ctx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: userID})
	got, err := authz.CurrentActor(ctx)
	if err != nil {
		t.Fatalf("CurrentActor: %v", err)
	}
	if got != userID {
		t.Fatalf("CurrentActor: got %s, want %s", got, userID)
	}
}

func TestAuthorizeAnyOf(t *testing.T) {
	db := testDB(t)
	log := testLogger(t)
	authz := NewAuthzService(db, log, repos.NewTeamMemberRepo(db, log), nil)
	ctx := context.Background()

	user := seedUser(t, db, "authz@example.com")
	teamA := seedTeam(t, db, "Team A")
	teamB := seedTeam(t, db, "Team B")
	seedMembership(t, db, teamA.ID, user.ID, types.RoleDeveloper)
	seedMembership(t, db, teamB.ID, user.ID, types.RoleTester)

	roles, err := authz.RolesOf(ctx, user.ID)
	if err != nil {
		t.Fatalf("RolesOf: %v", err)
	}
	if len(roles) != 2 {
		t.Fatalf("RolesOf: expected 2 distinct roles, got %v", roles)
	}

	if err := authz.Authorize(ctx, user.ID, types.RoleQA, types.RoleTester); err != nil {
		t.Fatalf("Authorize: tester membership should satisfy the gate: %v", err)
	}
	if err := authz.Authorize(ctx, user.ID, types.RoleAdmin); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := authz.Authorize(ctx, uuid.Nil, types.RoleTester); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for nil actor, got %v", err)
	}

	// No memberships means no roles, not an error.
	stranger := seedUser(t, db, "stranger@example.com")
	if err := authz.Authorize(ctx, stranger.ID, types.RoleTester); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for a user with no teams, got %v", err)
	}
}
