package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/testtrackhq/testtrack-backend/internal/logger"
	"github.com/testtrackhq/testtrack-backend/internal/repos"
	"github.com/testtrackhq/testtrack-backend/internal/types"
)

type ProjectService interface {
	CreateProject(ctx context.Context, productID uuid.UUID, name, description string) (*types.Project, error)
	GetProductProjects(ctx context.Context, productID uuid.UUID) ([]*types.Project, error)
	UpdateProject(ctx context.Context, projectID uuid.UUID, name, description *string) (*types.Project, error)
	DeleteProject(ctx context.Context, projectID uuid.UUID) error
}

type projectService struct {
	db          *gorm.DB
	log         *logger.Logger
	authz       AuthzService
	projectRepo repos.ProjectRepo
	productRepo repos.ProductRepo
}

func NewProjectService(db *gorm.DB, baseLog *logger.Logger, authz AuthzService, projectRepo repos.ProjectRepo, productRepo repos.ProductRepo) ProjectService {
	serviceLog := baseLog.With("service", "ProjectService")
	return &projectService{db: db, log: serviceLog, authz: authz, projectRepo: projectRepo, productRepo: productRepo}
}

func (ps *projectService) CreateProject(ctx context.Context, productID uuid.UUID, name, description string) (*types.Project, error) {
	actorID, err := ps.authz.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := ps.authz.Authorize(ctx, actorID, types.RoleAdmin, types.RoleManager); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("A project name is required")
	}

	products, err := ps.productRepo.GetByIDs(ctx, nil, []uuid.UUID{productID})
	if err != nil {
		return nil, fmt.Errorf("Failed to load product: %w", err)
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("%w: product %s", ErrNotFound, productID)
	}

	project := &types.Project{ID: uuid.New(), ProductID: productID, Name: name, Description: description}
	if _, err := ps.projectRepo.Create(ctx, nil, []*types.Project{project}); err != nil {
		return nil, fmt.Errorf("Failed to create project: %w", err)
	}
	return project, nil
}

func (ps *projectService) GetProductProjects(ctx context.Context, productID uuid.UUID) ([]*types.Project, error) {
	if _, err := ps.authz.CurrentActor(ctx); err != nil {
		return nil, err
	}
	return ps.projectRepo.GetByProductIDs(ctx, nil, []uuid.UUID{productID})
}

func (ps *projectService) UpdateProject(ctx context.Context, projectID uuid.UUID, name, description *string) (*types.Project, error) {
	actorID, err := ps.authz.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := ps.authz.Authorize(ctx, actorID, types.RoleAdmin, types.RoleManager); err != nil {
		return nil, err
	}

	projects, err := ps.projectRepo.GetByIDs(ctx, nil, []uuid.UUID{projectID})
	if err != nil {
		return nil, fmt.Errorf("Failed to load project: %w", err)
	}
	if len(projects) == 0 || projects[0] == nil {
		return nil, fmt.Errorf("%w: project %s", ErrNotFound, projectID)
	}
	project := projects[0]
	if name != nil {
		project.Name = *name
	}
	if description != nil {
		project.Description = *description
	}
	if err := ps.projectRepo.Update(ctx, nil, project); err != nil {
		return nil, fmt.Errorf("Failed to update project: %w", err)
	}
	return project, nil
}

func (ps *projectService) DeleteProject(ctx context.Context, projectID uuid.UUID) error {
	actorID, err := ps.authz.CurrentActor(ctx)
	if err != nil {
		return err
	}
	if err := ps.authz.Authorize(ctx, actorID, types.RoleAdmin); err != nil {
		return err
	}
	return ps.projectRepo.Delete(ctx, nil, projectID)
}
