package repository

import (
	"context"
	"fmt"
	"strings"

	"foodgram/internal/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type IngredientRepository interface {
	// Search returns ingredients whose name starts with prefix (case-insensitive),
	// ordered by name. An empty prefix lists everything.
	Search(ctx context.Context, prefix string) ([]models.Ingredient, error)
	GetByID(ctx context.Context, id int64) (*models.Ingredient, error)
	Create(ctx context.Context, ing *models.Ingredient) error
	MissingIDs(ctx context.Context, ids []int64) ([]int64, error)
	// Upsert inserts ingredients whose (name, unit) pair is new, in batches.
	Upsert(ctx context.Context, items []models.Ingredient) (int64, error)
}

type ingredientRepository struct {
	db *gorm.DB
}

func NewIngredientRepository(db *gorm.DB) IngredientRepository {
	return &ingredientRepository{db: db}
}

// likeEscaper neutralises LIKE wildcards in user input.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *ingredientRepository) Search(ctx context.Context, prefix string) ([]models.Ingredient, error) {
	var list []models.Ingredient
	q := r.db.WithContext(ctx).Order("LOWER(name) ASC").Order("id ASC")
	if p := strings.TrimSpace(prefix); p != "" {
		q = q.Where(`LOWER(name) LIKE LOWER(?) ESCAPE '\'`, likeEscaper.Replace(p)+"%")
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("search ingredients: %w", err)
	}
	return list, nil
}

func (r *ingredientRepository) GetByID(ctx context.Context, id int64) (*models.Ingredient, error) {
	var ing models.Ingredient
	if err := r.db.WithContext(ctx).First(&ing, id).Error; err != nil {
		return nil, err
	}
	return &ing, nil
}

func (r *ingredientRepository) Create(ctx context.Context, ing *models.Ingredient) error {
	if err := r.db.WithContext(ctx).Create(ing).Error; err != nil {
		return fmt.Errorf("create ingredient: %w", err)
	}
	return nil
}

func (r *ingredientRepository) MissingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	return missingIDs(ctx, r.db, &models.Ingredient{}, ids)
}

func (r *ingredientRepository) Upsert(ctx context.Context, items []models.Ingredient) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&items, 500)
	if result.Error != nil {
		return 0, fmt.Errorf("upsert ingredients: %w", result.Error)
	}
	return result.RowsAffected, nil
}
