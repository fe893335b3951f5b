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

type TaskService interface {
	CreateTask(ctx context.Context, projectID uuid.UUID, title, description string, assignedTeamID *uuid.UUID) (*types.Task, error)
	GetProjectTasks(ctx context.Context, projectID uuid.UUID) ([]*types.Task, error)
	UpdateTask(ctx context.Context, taskID uuid.UUID, title, description *string, assignedTeamID *uuid.UUID) (*types.Task, error)
	DeleteTask(ctx context.Context, taskID uuid.UUID) error
}

type taskService struct {
	db          *gorm.DB
	log         *logger.Logger
	authz       AuthzService
	taskRepo    repos.TaskRepo
	projectRepo repos.ProjectRepo
}

func NewTaskService(db *gorm.DB, baseLog *logger.Logger, authz AuthzService, taskRepo repos.TaskRepo, projectRepo repos.ProjectRepo) TaskService {
	serviceLog := baseLog.With("service", "TaskService")
	return &taskService{db: db, log: serviceLog, authz: authz, taskRepo: taskRepo, projectRepo: projectRepo}
}

func (ts *taskService) CreateTask(ctx context.Context, projectID uuid.UUID, title, description string, assignedTeamID *uuid.UUID) (*types.Task, error) {
	actorID, err := ts.authz.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := ts.authz.Authorize(ctx, actorID, types.RoleAdmin, types.RoleManager, types.RoleDeveloper); err != nil {
		return nil, err
	}
	if title == "" {
		return nil, fmt.Errorf("A task title is required")
	}

	projects, err := ts.projectRepo.GetByIDs(ctx, nil, []uuid.UUID{projectID})
	if err != nil {
		return nil, fmt.Errorf("Failed to load project: %w", err)
	}
	if len(projects) == 0 {
		return nil, fmt.Errorf("%w: project %s", ErrNotFound, projectID)
	}

	task := &types.Task{ID: uuid.New(), ProjectID: projectID, Title: title, Description: description, AssignedTeamID: assignedTeamID}
	if _, err := ts.taskRepo.Create(ctx, nil, []*types.Task{task}); err != nil {
		return nil, fmt.Errorf("Failed to create task: %w", err)
	}
	return task, nil
}

func (ts *taskService) GetProjectTasks(ctx context.Context, projectID uuid.UUID) ([]*types.Task, error) {
	if _, err := ts.authz.CurrentActor(ctx); err != nil {
		return nil, err
	}
	return ts.taskRepo.GetByProjectIDs(ctx, nil, []uuid.UUID{projectID})
}

func (ts *taskService) UpdateTask(ctx context.Context, taskID uuid.UUID, title, description *string, assignedTeamID *uuid.UUID) (*types.Task, error) {
	actorID, err := ts.authz.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := ts.authz.Authorize(ctx, actorID, types.RoleAdmin, types.RoleManager, types.RoleDeveloper); err != nil {
		return nil, err
	}

	tasks, err := ts.taskRepo.GetByIDs(ctx, nil, []uuid.UUID{taskID})
	if err != nil {
		return nil, fmt.Errorf("Failed to load task: %w", err)
	}
	if len(tasks) == 0 || tasks[0] == nil {
		return nil, fmt.Errorf("%w: task %s", ErrNotFound, taskID)
	}
	task := tasks[0]
	if title != nil {
		task.Title = *title
	}
	if description != nil {
		task.Description = *description
	}
	if assignedTeamID != nil {
		task.AssignedTeamID = assignedTeamID
	}
	if err := ts.taskRepo.Update(ctx, nil, task); err != nil {
		return nil, fmt.Errorf("Failed to update task: %w", err)
	}
	return task, nil
}

func (ts *taskService) DeleteTask(ctx context.Context, taskID uuid.UUID) error {
	actorID, err := ts.authz.CurrentActor(ctx)
	if err != nil {
		return err
	}
	if err := ts.authz.Authorize(ctx, actorID, types.RoleAdmin, types.RoleManager); err != nil {
		return err
	}
	return ts.taskRepo.Delete(ctx, nil, taskID)
}
