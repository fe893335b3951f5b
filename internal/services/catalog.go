package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/testtrackhq/testtrack-backend/internal/logger"
	"github.com/testtrackhq/testtrack-backend/internal/repos"
	"github.com/testtrackhq/testtrack-backend/internal/types"
)

// CatalogService resolves seeded status vocabulary by (category, name) and by
// id. The catalog is loaded once at startup; lookups never hit storage.
type CatalogService interface {
	Load(ctx context.Context) error
	Resolve(category types.StatusCategory, name string) (*types.StatusCode, error)
	ByID(id uuid.UUID) (*types.StatusCode, bool)
	ValidateStatus(category types.StatusCategory, id uuid.UUID) error
}

type catalogService struct {
	log            *logger.Logger
	statusCodeRepo repos.StatusCodeRepo

	mu     sync.RWMutex
	byName map[types.StatusCategory]map[string]*types.StatusCode
	byID   map[uuid.UUID]*types.StatusCode

	loadGroup singleflight.Group
}

func NewCatalogService(baseLog *logger.Logger, statusCodeRepo repos.StatusCodeRepo) CatalogService {
	serviceLog := baseLog.With("service", "CatalogService")
	return &catalogService{
		log:            serviceLog,
		statusCodeRepo: statusCodeRepo,
		byName:         map[types.StatusCategory]map[string]*types.StatusCode{},
		byID:           map[uuid.UUID]*types.StatusCode{},
	}
}

// Load replaces the in-memory catalog with the current table contents.
// Concurrent calls are collapsed into a single query.
func (cs *catalogService) Load(ctx context.Context) error {
	_, err, _ := cs.loadGroup.Do("load", func() (interface{}, error) {
		codes, err := cs.statusCodeRepo.GetAll(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("Failed to load status catalog: %w", err)
		}
		byName := map[types.StatusCategory]map[string]*types.StatusCode{}
		byID := map[uuid.UUID]*types.StatusCode{}
		for _, code := range codes {
			if byName[code.Category] == nil {
				byName[code.Category] = map[string]*types.StatusCode{}
			}
			byName[code.Category][code.Name] = code
			byID[code.ID] = code
		}
		cs.mu.Lock()
		cs.byName = byName
		cs.byID = byID
		cs.mu.Unlock()
		cs.log.Info("Status catalog loaded", "entries", len(codes))
		return nil, nil
	})
	return err
}

// Resolve is an exact, case-sensitive match on the seeded name. Absence is a
// hard precondition failure for the caller; no default is substituted.
func (cs *catalogService) Resolve(category types.StatusCategory, name string) (*types.StatusCode, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	names := cs.byName[category]
	if names == nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrInvalidStatus, category, name)
	}
	code, ok := names[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrInvalidStatus, category, name)
	}
	return code, nil
}

func (cs *catalogService) ByID(id uuid.UUID) (*types.StatusCode, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	code, ok := cs.byID[id]
	return code, ok
}

func (cs *catalogService) ValidateStatus(category types.StatusCategory, id uuid.UUID) error {
	code, ok := cs.ByID(id)
	if !ok || code.Category != category {
		if category == types.CategoryPriority {
			return fmt.Errorf("%w: %s", ErrInvalidPriority, id)
		}
		return fmt.Errorf("%w: %s", ErrInvalidStatus, id)
	}
	return nil
}
