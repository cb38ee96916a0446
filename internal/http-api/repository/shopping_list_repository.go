package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// ShoppingLine is one aggregated (ingredient name, unit) group.
type ShoppingLine struct {
	Name            string
	MeasurementUnit string
	Amount          int64
}

type ShoppingListRepository interface {
	// Aggregate sums ingredient amounts across every recipe in userID's cart,
	// grouped by (name, unit) and ordered by name.
	Aggregate(ctx context.Context, userID string) ([]ShoppingLine, error)
}

type shoppingListRepository struct {
	db *gorm.DB
}

func NewShoppingListRepository(db *gorm.DB) ShoppingListRepository {
	return &shoppingListRepository{db: db}
}

func (r *shoppingListRepository) Aggregate(ctx context.Context, userID string) ([]ShoppingLine, error) {
	var lines []ShoppingLine
	err := r.db.WithContext(ctx).
		Table("recipe_ingredients AS ri").
		Select("i.name AS name, i.measurement_unit AS measurement_unit, CAST(SUM(ri.amount) AS BIGINT) AS amount").
		Joins("JOIN ingredients AS i ON i.id = ri.ingredient_id").
		Joins("JOIN shopping_cart AS sc ON sc.recipe_id = ri.recipe_id").
		Where("sc.user_id = ?", userID).
		Group("i.name, i.measurement_unit").
		Order("i.name ASC").Order("i.measurement_unit ASC").
		Scan(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate shopping list: %w", err)
	}
	return lines, nil
}
