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

type ProductService interface {
	CreateProduct(ctx context.Context, name, description string, ownerTeamID *uuid.UUID) (*types.Product, error)
	GetProducts(ctx context.Context) ([]*types.Product, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, name, description *string) (*types.Product, error)
	DeleteProduct(ctx context.Context, productID uuid.UUID) error
}

type productService struct {
	db          *gorm.DB
	log         *logger.Logger
	authz       AuthzService
	productRepo repos.ProductRepo
}

func NewProductService(db *gorm.DB, baseLog *logger.Logger, authz AuthzService, productRepo repos.ProductRepo) ProductService {
	serviceLog := baseLog.With("service", "ProductService")
	return &productService{db: db, log: serviceLog, authz: authz, productRepo: productRepo}
}

func (ps *productService) CreateProduct(ctx context.Context, name, description string, ownerTeamID *uuid.UUID) (*types.Product, error) {
	actorID, err := ps.authz.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := ps.authz.Authorize(ctx, actorID, types.RoleAdmin, types.RoleManager); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("A product name is required")
	}

	product := &types.Product{ID: uuid.New(), Name: name, Description: description, OwnerTeamID: ownerTeamID}
	if _, err := ps.productRepo.Create(ctx, nil, []*types.Product{product}); err != nil {
		return nil, fmt.Errorf("Failed to create product: %w", err)
	}
	return product, nil
}

func (ps *productService) GetProducts(ctx context.Context) ([]*types.Product, error) {
	if _, err := ps.authz.CurrentActor(ctx); err != nil {
		return nil, err
	}
	return ps.productRepo.GetAll(ctx, nil)
}

func (ps *productService) UpdateProduct(ctx context.Context, productID uuid.UUID, name, description *string) (*types.Product, error) {
	actorID, err := ps.authz.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := ps.authz.Authorize(ctx, actorID, types.RoleAdmin, types.RoleManager); err != nil {
		return nil, err
	}

	products, err := ps.productRepo.GetByIDs(ctx, nil, []uuid.UUID{productID})
	if err != nil {
		return nil, fmt.Errorf("Failed to load product: %w", err)
	}
	if len(products) == 0 || products[0] == nil {
		return nil, fmt.Errorf("%w: product %s", ErrNotFound, productID)
	}
	product := products[0]
	if name != nil {
		product.Name = *name
	}
	if description != nil {
		product.Description = *description
	}
	if err := ps.productRepo.Update(ctx, nil, product); err != nil {
		return nil, fmt.Errorf("Failed to update product: %w", err)
	}
	return product, nil
}

func (ps *productService) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	actorID, err := ps.authz.CurrentActor(ctx)
	if err != nil {
		return err
	}
	if err := ps.authz.Authorize(ctx, actorID, types.RoleAdmin); err != nil {
		return err
	}
	return ps.productRepo.Delete(ctx, nil, productID)
}
