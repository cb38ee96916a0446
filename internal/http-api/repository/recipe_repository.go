package repository

import (
	"context"
	"fmt"

	"foodgram/internal/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecipeFilter narrows a recipe listing. Zero values do not filter.
type RecipeFilter struct {
	AuthorID    string
	TagSlugs    []string
	FavoritedBy string
	InCartOf    string
}

// RecipeUpdate carries a partial update. Nil slices leave the
// association untouched; a non-nil slice replaces it wholesale.
type RecipeUpdate struct {
	Fields      map[string]any
	TagIDs      *[]int64
	Ingredients *[]models.RecipeIngredient
}

type RecipeRepository interface {
	// Create inserts the recipe, its tag set and its ingredient rows in one transaction.
	Create(ctx context.Context, recipe *models.Recipe, tagIDs []int64, ingredients []models.RecipeIngredient) error
	Update(ctx context.Context, id int64, upd RecipeUpdate) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.Recipe, error)
	// AuthorOf returns the author id without loading associations.
	AuthorOf(ctx context.Context, id int64) (string, error)
	List(ctx context.Context, filter RecipeFilter, page Page) ([]models.Recipe, int64, error)
	ListByAuthors(ctx context.Context, authorIDs []string, limit int) (map[string][]models.Recipe, error)
	CountByAuthors(ctx context.Context, authorIDs []string) (map[string]int64, error)
}

type recipeRepository struct {
	db *gorm.DB
}

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func (r *recipeRepository) Create(ctx context.Context, recipe *models.Recipe, tagIDs []int64, ingredients []models.RecipeIngredient) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return fmt.Errorf("create recipe: %w", err)
		}
		if err := replaceTags(tx, recipe.ID, tagIDs); err != nil {
			return err
		}
		return replaceIngredients(tx, recipe.ID, ingredients)
	})
}

func (r *recipeRepository) Update(ctx context.Context, id int64, upd RecipeUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Recipe
		if err := tx.Select("id").First(&current, id).Error; err != nil {
			return err
		}
		if len(upd.Fields) > 0 {
			if err := tx.Model(&models.Recipe{}).Where("id = ?", id).Updates(upd.Fields).Error; err != nil {
				return fmt.Errorf("update recipe: %w", err)
			}
		}
		if upd.TagIDs != nil {
			if err := replaceTags(tx, id, *upd.TagIDs); err != nil {
				return err
			}
		}
		if upd.Ingredients != nil {
			if err := replaceIngredients(tx, id, *upd.Ingredients); err != nil {
				return err
			}
		}
		return nil
	})
}

// replaceTags clears the recipe's tag set and inserts tagIDs.
func replaceTags(tx *gorm.DB, recipeID int64, tagIDs []int64) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeTag{}).Error; err != nil {
		return fmt.Errorf("clear recipe tags: %w", err)
	}
	if len(tagIDs) == 0 {
		return nil
	}
	rows := make([]models.RecipeTag, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		rows = append(rows, models.RecipeTag{RecipeID: recipeID, TagID: tagID})
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("insert recipe tags: %w", err)
	}
	return nil
}

// replaceIngredients clears the ingredient rows of recipeID, then inserts
// entries scoped to that same recipe.
func replaceIngredients(tx *gorm.DB, recipeID int64, entries []models.RecipeIngredient) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
		return fmt.Errorf("clear recipe ingredients: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}
	rows := make([]models.RecipeIngredient, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, models.RecipeIngredient{RecipeID: recipeID, IngredientID: e.IngredientID, Amount: e.Amount})
	}
	if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
		return fmt.Errorf("insert recipe ingredients: %w", err)
	}
	return nil
}

func (r *recipeRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, dep := range []any{&models.RecipeTag{}, &models.RecipeIngredient{}, &models.Favorite{}, &models.CartEntry{}} {
			if err := tx.Where("recipe_id = ?", id).Delete(dep).Error; err != nil {
				return fmt.Errorf("delete recipe dependents: %w", err)
			}
		}
		result := tx.Delete(&models.Recipe{}, id)
		if result.Error != nil {
			return fmt.Errorf("delete recipe: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *recipeRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id ASC") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredients.id ASC") }).
		Preload("Ingredients.Ingredient")
}

func (r *recipeRepository) GetByID(ctx context.Context, id int64) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := r.preloaded(ctx).First(&recipe, id).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepository) AuthorOf(ctx context.Context, id int64) (string, error) {
	var recipe models.Recipe
	if err := r.db.WithContext(ctx).Select("id", "author_id").First(&recipe, id).Error; err != nil {
		return "", err
	}
	return recipe.AuthorID, nil
}

// filtered builds a fresh query for filter each call so Count and Find do
// not share statement state.
func (r *recipeRepository) filtered(db *gorm.DB, f RecipeFilter) *gorm.DB {
	q := db.Model(&models.Recipe{})
	if f.AuthorID != "" {
		q = q.Where("recipes.author_id = ?", f.AuthorID)
	}
	if len(f.TagSlugs) > 0 {
		sub := r.db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", f.TagSlugs)
		q = q.Where("recipes.id IN (?)", sub)
	}
	if f.FavoritedBy != "" {
		q = q.Where("recipes.id IN (?)", r.db.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", f.FavoritedBy))
	}
	if f.InCartOf != "" {
		q = q.Where("recipes.id IN (?)", r.db.Model(&models.CartEntry{}).Select("recipe_id").Where("user_id = ?", f.InCartOf))
	}
	return q
}

func (r *recipeRepository) List(ctx context.Context, f RecipeFilter, page Page) ([]models.Recipe, int64, error) {
	var (
		list  []models.Recipe
		total int64
	)
	if err := r.filtered(r.db.WithContext(ctx), f).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count recipes: %w", err)
	}
	q := r.filtered(r.preloaded(ctx), f).Order("recipes.pub_date DESC").Order("recipes.id DESC")
	if err := page.apply(q).Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list recipes: %w", err)
	}
	return list, total, nil
}

// ListByAuthors returns up to limit newest recipes per author (all when
// limit <= 0) in one round trip, keyed by author id. Only the summary
// columns are loaded.
func (r *recipeRepository) ListByAuthors(ctx context.Context, authorIDs []string, limit int) (map[string][]models.Recipe, error) {
	byAuthor := make(map[string][]models.Recipe, len(authorIDs))
	if len(authorIDs) == 0 {
		return byAuthor, nil
	}
	ranked := r.db.Model(&models.Recipe{}).
		Select("recipes.*, ROW_NUMBER() OVER (PARTITION BY recipes.author_id ORDER BY recipes.pub_date DESC, recipes.id DESC) AS rn").
		Where("recipes.author_id IN ?", authorIDs)
	q := r.db.WithContext(ctx).Table("(?) AS ranked", ranked).
		Select("id, author_id, name, image, cooking_time").
		Order("rn")
	if limit > 0 {
		q = q.Where("rn <= ?", limit)
	}
	var list []models.Recipe
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list author recipes: %w", err)
	}
	for _, rec := range list {
		byAuthor[rec.AuthorID] = append(byAuthor[rec.AuthorID], rec)
	}
	return byAuthor, nil
}

func (r *recipeRepository) CountByAuthors(ctx context.Context, authorIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		AuthorID string
		Total    int64
	}
	if err := r.db.WithContext(ctx).Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count author recipes: %w", err)
	}
	for _, row := range rows {
		counts[row.AuthorID] = row.Total
	}
	return counts, nil
}
