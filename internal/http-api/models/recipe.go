package models

import "time"

type Recipe struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	AuthorID    string    `json:"author_id" gorm:"type:uuid;not null;index"`
	Name        string    `json:"name" gorm:"size:200;not null"`
	Image       string    `json:"image" gorm:"not null"`
	Text        string    `json:"text" gorm:"type:text;not null"`
	CookingTime int       `json:"cooking_time" gorm:"not null;check:chk_cooking_time_positive,cooking_time >= 1"`
	PubDate     time.Time `json:"pub_date" gorm:"autoCreateTime;index"`

	// Associations
	Author      *User              `json:"author,omitempty" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE;"`
	Tags        []Tag              `json:"tags,omitempty" gorm:"many2many:recipe_tags;"`
	Ingredients []RecipeIngredient `json:"ingredients,omitempty" gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE;"`
}

func (Recipe) TableName() string {
	return "recipes"
}

// RecipeTag is the explicit join row behind Recipe.Tags.
type RecipeTag struct {
	RecipeID int64 `gorm:"primaryKey"`
	TagID    int64 `gorm:"primaryKey;index"`
}

func (RecipeTag) TableName() string {
	return "recipe_tags"
}

// RecipeIngredient holds the amount of one ingredient in one recipe.
// (recipe_id, ingredient_id) is unique.
type RecipeIngredient struct {
	ID           int64 `json:"id" gorm:"primaryKey;autoIncrement"`
	RecipeID     int64 `json:"recipe_id" gorm:"not null;uniqueIndex:idx_recipe_ingredient"`
	IngredientID int64 `json:"ingredient_id" gorm:"not null;uniqueIndex:idx_recipe_ingredient;index"`
	Amount       int   `json:"amount" gorm:"not null;check:chk_amount_positive,amount >= 1"`

	Ingredient *Ingredient `json:"ingredient,omitempty" gorm:"foreignKey:IngredientID;constraint:OnDelete:RESTRICT;"`
}

func (RecipeIngredient) TableName() string {
	return "recipe_ingredients"
}
