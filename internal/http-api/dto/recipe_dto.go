package dto

import "foodgram/internal/http-api/models"

// IngredientAmountRequest: one ingredient entry of a recipe submission
type IngredientAmountRequest struct {
	ID     int64 `json:"id"`
	Amount int   `json:"amount"`
}

// RecipeCreateRequest: payload for POST /api/recipes/
type RecipeCreateRequest struct {
	Ingredients []IngredientAmountRequest `json:"ingredients"`
	Tags        []int64                   `json:"tags"`
	Image       string                    `json:"image"` // data:image/<type>;base64,...
	Name        string                    `json:"name"`
	Text        string                    `json:"text"`
	CookingTime int                       `json:"cooking_time"`
}

// RecipeUpdateRequest: payload for PATCH /api/recipes/{id}/
// nil means "not supplied"; a supplied empty list is rejected.
type RecipeUpdateRequest struct {
	Ingredients *[]IngredientAmountRequest `json:"ingredients"`
	Tags        *[]int64                   `json:"tags"`
	Image       *string                    `json:"image"`
	Name        *string                    `json:"name"`
	Text        *string                    `json:"text"`
	CookingTime *int                       `json:"cooking_time"`
}

type RecipeIngredientResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// RecipeResponse: full recipe projection relative to the requester
type RecipeResponse struct {
	ID               int64                      `json:"id"`
	Tags             []TagResponse              `json:"tags"`
	Author           UserResponse               `json:"author"`
	Ingredients      []RecipeIngredientResponse `json:"ingredients"`
	IsFavorited      bool                       `json:"is_favorited"`
	IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	Name             string                     `json:"name"`
	Image            string                     `json:"image"`
	Text             string                     `json:"text"`
	CookingTime      int                        `json:"cooking_time"`
}

// RecipeSummaryResponse: short form used by favorite, cart and subscription responses
type RecipeSummaryResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

func ToRecipeSummary(r *models.Recipe) RecipeSummaryResponse {
	return RecipeSummaryResponse{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}

func ToRecipeIngredients(rows []models.RecipeIngredient) []RecipeIngredientResponse {
	out := make([]RecipeIngredientResponse, 0, len(rows))
	for _, ri := range rows {
		item := RecipeIngredientResponse{ID: ri.IngredientID, Amount: ri.Amount}
		if ri.Ingredient != nil {
			item.Name = ri.Ingredient.Name
			item.MeasurementUnit = ri.Ingredient.MeasurementUnit
		}
		out = append(out, item)
	}
	return out
}
