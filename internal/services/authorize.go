package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	redisclient "github.com/testtrackhq/testtrack-backend/internal/clients/redis"
	"github.com/testtrackhq/testtrack-backend/internal/logger"
	"github.com/testtrackhq/testtrack-backend/internal/repos"
	"github.com/testtrackhq/testtrack-backend/internal/requestdata"
	"github.com/testtrackhq/testtrack-backend/internal/types"
)

// AuthzService is the authorization gate: a pure predicate over the roles an
// actor holds through team memberships. There is no owner bypass; if a caller
// wants one it passes the owning role explicitly.
type AuthzService interface {
	CurrentActor(ctx context.Context) (uuid.UUID, error)
	RolesOf(ctx context.Context, actorID uuid.UUID) ([]types.Role, error)
	Authorize(ctx context.Context, actorID uuid.UUID, required ...types.Role) error
	InvalidateRoles(ctx context.Context, userID uuid.UUID)
}

type authzService struct {
	db             *gorm.DB
	log            *logger.Logger
	teamMemberRepo repos.TeamMemberRepo
	rolesCache     redisclient.RolesCache

	fetchGroup singleflight.Group
}

func NewAuthzService(db *gorm.DB, baseLog *logger.Logger, teamMemberRepo repos.TeamMemberRepo, rolesCache redisclient.RolesCache) AuthzService {
	serviceLog := baseLog.With("service", "AuthzService")
	return &authzService{
		db:             db,
		log:            serviceLog,
		teamMemberRepo: teamMemberRepo,
		rolesCache:     rolesCache,
	}
}

func (az *authzService) CurrentActor(ctx context.Context) (uuid.UUID, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, ErrUnauthenticated
	}
	return rd.UserID, nil
}

func (az *authzService) RolesOf(ctx context.Context, actorID uuid.UUID) ([]types.Role, error) {
	if az.rolesCache != nil {
		cached, ok, err := az.rolesCache.Get(ctx, actorID)
		if err != nil {
			az.log.Warn("Roles cache read failed, falling back to postgres", "error", err)
		} else if ok {
			return cached, nil
		}
	}

	v, err, _ := az.fetchGroup.Do(actorID.String(), func() (interface{}, error) {
		memberships, err := az.teamMemberRepo.GetByUserIDs(ctx, nil, []uuid.UUID{actorID})
		if err != nil {
			return nil, fmt.Errorf("Failed to load team memberships: %w", err)
		}
		seen := map[types.Role]bool{}
		roles := []types.Role{}
		for _, m := range memberships {
			if m == nil || seen[m.Role] {
				continue
			}
			seen[m.Role] = true
			roles = append(roles, m.Role)
		}
		if az.rolesCache != nil {
			if cErr := az.rolesCache.Set(ctx, actorID, roles); cErr != nil {
				az.log.Warn("Roles cache write failed", "error", cErr)
			}
		}
		return roles, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]types.Role), nil
}

// Authorize succeeds iff the actor holds at least one of the required roles.
func (az *authzService) Authorize(ctx context.Context, actorID uuid.UUID, required ...types.Role) error {
	if actorID == uuid.Nil {
		return ErrUnauthenticated
	}
	if len(required) == 0 {
		return nil
	}
	held, err := az.RolesOf(ctx, actorID)
	if err != nil {
		return err
	}
	for _, have := range held {
		for _, want := range required {
			if have == want {
				return nil
			}
		}
	}
	return ErrUnauthorized
}

func (az *authzService) InvalidateRoles(ctx context.Context, userID uuid.UUID) {
	if az.rolesCache == nil {
		return
	}
	if err := az.rolesCache.Invalidate(ctx, userID); err != nil {
		az.log.Warn("Roles cache invalidation failed", "error", err)
	}
}
