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

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
	GetAvatar(ctx context.Context) ([]byte, error)
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	authz    AuthzService
	userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, baseLog *logger.Logger, authz AuthzService, userRepo repos.UserRepo) UserService {
	serviceLog := baseLog.With("service", "UserService")
	return &userService{db: db, log: serviceLog, authz: authz, userRepo: userRepo}
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
	actorID, err := us.authz.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	users, err := us.userRepo.GetByIDs(ctx, nil, []uuid.UUID{actorID})
	if err != nil {
		return nil, fmt.Errorf("Failed to load user: %w", err)
	}
	if len(users) == 0 || users[0] == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, actorID)
	}
	return users[0], nil
}

func (us *userService) GetAvatar(ctx context.Context) ([]byte, error) {
	me, err := us.GetMe(ctx)
	if err != nil {
		return nil, err
	}
	if len(me.AvatarPNG) == 0 {
		return nil, fmt.Errorf("%w: avatar for user %s", ErrNotFound, me.ID)
	}
	return me.AvatarPNG, nil
}
