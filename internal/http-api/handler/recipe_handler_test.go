package handler_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"foodgram/internal/apperr"
	"foodgram/internal/http-api/dto"
	"foodgram/internal/http-api/handler"
	"foodgram/internal/http-api/repository"
	"foodgram/internal/http-api/service"
	"foodgram/internal/shared"
)

var pages = handler.Paginator{DefaultLimit: 6, MaxLimit: 24}

func recipeRouter(svc *MockRecipeService) http.Handler {
	return setupRouter("/api/recipes", handler.NewRecipeHandler(svc, pages))
}

func TestRecipeHandler_List(t *testing.T) {
	mockService := new(MockRecipeService)
	r := recipeRouter(mockService)

	t.Run("FiltersAndPagination", func(t *testing.T) {
		want := service.RecipeQuery{
			AuthorID:         "author-1",
			Tags:             []string{"breakfast", "lunch"},
			IsFavorited:      true,
			IsInShoppingCart: false,
			Page:             repository.Page{Limit: 2, Offset: 2},
		}
		results := []dto.RecipeResponse{{ID: 3, Name: "Toast"}, {ID: 2, Name: "Stew"}}
		mockService.On("List", mock.Anything, alice, want).Return(results, int64(5), nil).Once()

		w := perform(r, http.MethodGet,
			"/api/recipes/?author=author-1&tags=breakfast&tags=lunch&is_favorited=1&page=2&limit=2", "alice", nil)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decode[dto.Page[dto.RecipeResponse]](t, w)
		assert.EqualValues(t, 5, resp.Count)
		assert.Len(t, resp.Results, 2)
		require.NotNil(t, resp.Next)
		require.NotNil(t, resp.Previous)
		assert.Contains(t, *resp.Next, "page=3")
		assert.Contains(t, *resp.Next, "limit=2")
		assert.NotContains(t, *resp.Previous, "page=")
	})

	t.Run("DefaultLimitAndCap", func(t *testing.T) {
		mockService.On("List", mock.Anything, shared.Anonymous(), service.RecipeQuery{
			Page: repository.Page{Limit: 24},
		}).Return([]dto.RecipeResponse{}, int64(0), nil).Once()

		w := perform(r, http.MethodGet, "/api/recipes/?limit=1000", "", nil)

		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[dto.Page[dto.RecipeResponse]](t, w)
		assert.Zero(t, resp.Count)
		assert.NotNil(t, resp.Results)
		assert.Nil(t, resp.Next)
		assert.Nil(t, resp.Previous)
	})

	t.Run("PagePastEnd", func(t *testing.T) {
		mockService.On("List", mock.Anything, shared.Anonymous(), service.RecipeQuery{
			Page: repository.Page{Limit: 6, Offset: 54},
		}).Return([]dto.RecipeResponse{}, int64(3), nil).Once()

		w := perform(r, http.MethodGet, "/api/recipes/?page=10", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("BadPage", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/api/recipes/?page=abc", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "invalid_page", decode[dto.ErrorResponse](t, w).Code)
	})

	mockService.AssertExpectations(t)
}

func TestRecipeHandler_Get(t *testing.T) {
	mockService := new(MockRecipeService)
	r := recipeRouter(mockService)

	t.Run("Success", func(t *testing.T) {
		mockService.On("Get", mock.Anything, shared.Anonymous(), int64(7)).
			Return(&dto.RecipeResponse{ID: 7, Name: "Soup", CookingTime: 30}, nil).Once()

		w := perform(r, http.MethodGet, "/api/recipes/7/", "", nil)

		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[dto.RecipeResponse](t, w)
		assert.Equal(t, "Soup", resp.Name)
		assert.False(t, resp.IsFavorited)
	})

	t.Run("NotFound", func(t *testing.T) {
		mockService.On("Get", mock.Anything, shared.Anonymous(), int64(999)).
			Return(nil, apperr.NotFound("recipe_not_found", "recipe 999 not found")).Once()

		w := perform(r, http.MethodGet, "/api/recipes/999/", "", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "recipe_not_found", decode[dto.ErrorResponse](t, w).Code)
	})

	t.Run("NonNumericID", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/api/recipes/abc/", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("InternalErrorHidden", func(t *testing.T) {
		mockService.On("Get", mock.Anything, shared.Anonymous(), int64(8)).
			Return(nil, errors.New("connection reset by peer")).Once()

		w := perform(r, http.MethodGet, "/api/recipes/8/", "", nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "connection reset")
	})
}

func TestRecipeHandler_Create(t *testing.T) {
	mockService := new(MockRecipeService)
	r := recipeRouter(mockService)

	body := dto.RecipeCreateRequest{
		Ingredients: []dto.IngredientAmountRequest{{ID: 1, Amount: 2}},
		Tags:        []int64{1},
		Image:       "data:image/png;base64,AAAA",
		Name:        "Pancakes",
		Text:        "Mix.",
		CookingTime: 10,
	}

	t.Run("Success", func(t *testing.T) {
		mockService.On("Create", mock.Anything, alice, body).
			Return(&dto.RecipeResponse{ID: 1, Name: "Pancakes"}, nil).Once()

		w := perform(r, http.MethodPost, "/api/recipes/", "alice", body)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, int64(1), decode[dto.RecipeResponse](t, w).ID)
	})

	t.Run("Anonymous", func(t *testing.T) {
		w := perform(r, http.MethodPost, "/api/recipes/", "", body)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("ValidationRendersViolations", func(t *testing.T) {
		invalid := body
		invalid.CookingTime = 0
		mockService.On("Create", mock.Anything, alice, invalid).
			Return(nil, apperr.Validation("invalid_cooking_time", "recipe data is invalid",
				apperr.Violation{Field: "cooking_time", Rule: "gte", Message: "must be greater than or equal to 1"})).Once()

		w := perform(r, http.MethodPost, "/api/recipes/", "alice", invalid)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode[dto.ErrorResponse](t, w)
		assert.Equal(t, "invalid_cooking_time", resp.Code)
		require.Len(t, resp.Violations, 1)
		assert.Equal(t, "cooking_time", resp.Violations[0].Field)
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		w := perform(r, http.MethodPost, "/api/recipes/", "alice", `{"name": 12`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_body", decode[dto.ErrorResponse](t, w).Code)
	})
}

func TestRecipeHandler_UpdateAndDelete(t *testing.T) {
	mockService := new(MockRecipeService)
	r := recipeRouter(mockService)

	name := "Renamed"
	mockService.On("Update", mock.Anything, alice, int64(3), dto.RecipeUpdateRequest{Name: &name}).
		Return(&dto.RecipeResponse{ID: 3, Name: name}, nil).Once()

	w := perform(r, http.MethodPatch, "/api/recipes/3/", "alice", `{"name":"Renamed"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Renamed", decode[dto.RecipeResponse](t, w).Name)

	mockService.On("Delete", mock.Anything, alice, int64(3)).
		Return(apperr.Forbidden("only the author can change this recipe")).Once()
	w = perform(r, http.MethodDelete, "/api/recipes/3/", "alice", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	mockService.On("Delete", mock.Anything, admin, int64(3)).Return(nil).Once()
	w = perform(r, http.MethodDelete, "/api/recipes/3/", "admin", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	mockService.AssertExpectations(t)
}

func TestRecipeHandler_FavoriteAndCart(t *testing.T) {
	mockService := new(MockRecipeService)
	r := recipeRouter(mockService)
	summary := &dto.RecipeSummaryResponse{ID: 5, Name: "Soup", Image: "/media/recipes/a.png", CookingTime: 30}

	mockService.On("AddFavorite", mock.Anything, alice, int64(5)).Return(summary, nil).Once()
	w := perform(r, http.MethodPost, "/api/recipes/5/favorite/", "alice", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":5,"name":"Soup","image":"/media/recipes/a.png","cooking_time":30}`, w.Body.String())

	mockService.On("AddFavorite", mock.Anything, alice, int64(5)).
		Return(nil, apperr.Conflict("already_favorited", "recipe is already in favorites")).Once()
	w = perform(r, http.MethodPost, "/api/recipes/5/favorite/", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "already_favorited", decode[dto.ErrorResponse](t, w).Code)

	mockService.On("RemoveFavorite", mock.Anything, alice, int64(5)).Return(nil).Once()
	w = perform(r, http.MethodDelete, "/api/recipes/5/favorite/", "alice", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	mockService.On("RemoveFavorite", mock.Anything, alice, int64(5)).
		Return(apperr.MissingRelation("not_favorited", "recipe is not in favorites")).Once()
	w = perform(r, http.MethodDelete, "/api/recipes/5/favorite/", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mockService.On("AddToCart", mock.Anything, alice, int64(404)).
		Return(nil, apperr.NotFound("recipe_not_found", "recipe 404 not found")).Once()
	w = perform(r, http.MethodPost, "/api/recipes/404/shopping_cart/", "alice", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	mockService.On("RemoveFromCart", mock.Anything, alice, int64(5)).Return(nil).Once()
	w = perform(r, http.MethodDelete, "/api/recipes/5/shopping_cart/", "alice", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = perform(r, http.MethodPost, "/api/recipes/5/shopping_cart/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	mockService.AssertExpectations(t)
}

func TestRecipeHandler_DownloadShoppingCart(t *testing.T) {
	mockService := new(MockRecipeService)
	r := recipeRouter(mockService)

	content := "Shopping list for alice:\nIngredient - Amount/Unit\n\negg - 2/pcs\n"
	mockService.On("ShoppingList", mock.Anything, alice).Return(&service.ShoppingList{
		FileName: "alice_shopping_list.txt",
		Content:  content,
		Lines:    1,
	}, nil).Once()

	w := perform(r, http.MethodGet, "/api/recipes/download_shopping_cart/", "alice", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=alice_shopping_list.txt", w.Header().Get("Content-Disposition"))
	assert.Equal(t, content, w.Body.String())

	w = perform(r, http.MethodGet, "/api/recipes/download_shopping_cart/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockService.AssertExpectations(t)
}
