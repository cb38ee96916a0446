package repository

import (
	"context"
	"fmt"

	"foodgram/internal/http-api/models"

	"gorm.io/gorm"
)

// LinkRepository manages a (user, recipe) relation such as favorites or
// the shopping cart. The store's unique index on the pair is the final
// guard against duplicates.
type LinkRepository interface {
	Add(ctx context.Context, userID string, recipeID int64) error
	// Remove returns gorm.ErrRecordNotFound when the pair does not exist.
	Remove(ctx context.Context, userID string, recipeID int64) error
	Exists(ctx context.Context, userID string, recipeID int64) (bool, error)
	// Linked reports which of recipeIDs are linked to userID.
	Linked(ctx context.Context, userID string, recipeIDs []int64) (map[int64]bool, error)
}

type linkRepository[T any] struct {
	db    *gorm.DB
	label string
	build func(userID string, recipeID int64) *T
}

func NewFavoriteRepository(db *gorm.DB) LinkRepository {
	return &linkRepository[models.Favorite]{
		db:    db,
		label: "favorite",
		build: func(userID string, recipeID int64) *models.Favorite {
			return &models.Favorite{UserID: userID, RecipeID: recipeID}
		},
	}
}

func NewCartRepository(db *gorm.DB) LinkRepository {
	return &linkRepository[models.CartEntry]{
		db:    db,
		label: "shopping cart",
		build: func(userID string, recipeID int64) *models.CartEntry {
			return &models.CartEntry{UserID: userID, RecipeID: recipeID}
		},
	}
}

func (r *linkRepository[T]) Add(ctx context.Context, userID string, recipeID int64) error {
	if err := r.db.WithContext(ctx).Create(r.build(userID, recipeID)).Error; err != nil {
		return fmt.Errorf("add to %s: %w", r.label, err)
	}
	return nil
}

func (r *linkRepository[T]) Remove(ctx context.Context, userID string, recipeID int64) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(new(T))
	if result.Error != nil {
		return fmt.Errorf("remove from %s: %w", r.label, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *linkRepository[T]) Exists(ctx context.Context, userID string, recipeID int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(new(T)).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *linkRepository[T]) Linked(ctx context.Context, userID string, recipeIDs []int64) (map[int64]bool, error) {
	out := make(map[int64]bool, len(recipeIDs))
	if userID == "" || len(recipeIDs) == 0 {
		return out, nil
	}
	var ids []int64
	if err := r.db.WithContext(ctx).
		Model(new(T)).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("lookup %s: %w", r.label, err)
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
