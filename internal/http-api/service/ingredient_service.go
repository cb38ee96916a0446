package service

import (
	"context"
	"fmt"
	"strings"

	"foodgram/internal/apperr"
	"foodgram/internal/http-api/dto"
	"foodgram/internal/http-api/models"
	"foodgram/internal/http-api/repository"
	"foodgram/internal/shared"
	"foodgram/internal/validation"
)

type IngredientService interface {
	Search(ctx context.Context, prefix string) ([]models.Ingredient, error)
	Get(ctx context.Context, id int64) (*models.Ingredient, error)
	Create(ctx context.Context, viewer shared.Identity, req dto.IngredientRequest) (*models.Ingredient, error)
	Import(ctx context.Context, items []dto.IngredientRequest) (int64, error)
}

type ingredientService struct {
	repo repository.IngredientRepository
}

func NewIngredientService(repo repository.IngredientRepository) IngredientService {
	return &ingredientService{repo: repo}
}

func (s *ingredientService) Search(ctx context.Context, prefix string) ([]models.Ingredient, error) {
	return s.repo.Search(ctx, prefix)
}

func (s *ingredientService) Get(ctx context.Context, id int64) (*models.Ingredient, error) {
	ing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, apperr.NotFound("ingredient_not_found", fmt.Sprintf("ingredient %d not found", id)))
	}
	return ing, nil
}

func (s *ingredientService) Create(ctx context.Context, viewer shared.Identity, req dto.IngredientRequest) (*models.Ingredient, error) {
	if err := requireAdmin(viewer); err != nil {
		return nil, err
	}
	ing, err := newIngredient(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, ing); err != nil {
		if repository.IsDuplicate(err) {
			return nil, apperr.Conflict("ingredient_exists", "this ingredient and unit already exist")
		}
		return nil, err
	}
	return ing, nil
}

func (s *ingredientService) Import(ctx context.Context, reqs []dto.IngredientRequest) (int64, error) {
	items := make([]models.Ingredient, 0, len(reqs))
	for i, req := range reqs {
		ing, err := newIngredient(req)
		if err != nil {
			return 0, fmt.Errorf("ingredient #%d: %w", i+1, err)
		}
		items = append(items, *ing)
	}
	return s.repo.Upsert(ctx, items)
}

func newIngredient(req dto.IngredientRequest) (*models.Ingredient, error) {
	fields := validation.IngredientFields{
		Name:            strings.TrimSpace(req.Name),
		MeasurementUnit: strings.TrimSpace(req.MeasurementUnit),
	}
	if v := validation.IngredientCreate(fields); !v.OK() {
		return nil, v.Err("invalid_ingredient", "ingredient data is invalid")
	}
	return &models.Ingredient{Name: fields.Name, MeasurementUnit: fields.MeasurementUnit}, nil
}
