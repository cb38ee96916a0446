package handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"foodgram/internal/apperr"
	"foodgram/internal/http-api/dto"
	"foodgram/internal/http-api/handler"
	"foodgram/internal/http-api/models"
)

func TestTagHandler(t *testing.T) {
	mockService := new(MockTagService)
	r := setupRouter("/api/tags", handler.NewTagHandler(mockService))

	t.Run("List", func(t *testing.T) {
		mockService.On("List", mock.Anything).Return([]models.Tag{
			{ID: 1, Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"},
		}, nil).Once()

		w := perform(r, http.MethodGet, "/api/tags/", "", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[{"id":1,"name":"Breakfast","color":"#E26C2D","slug":"breakfast"}]`, w.Body.String())
	})

	t.Run("GetMissing", func(t *testing.T) {
		mockService.On("Get", mock.Anything, int64(9)).Return(nil, apperr.NotFound("tag_not_found", "tag 9 not found")).Once()

		w := perform(r, http.MethodGet, "/api/tags/9/", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("CreateAdminOnly", func(t *testing.T) {
		req := dto.TagRequest{Name: "Brunch", Color: "#AABBCC", Slug: "brunch"}

		w := perform(r, http.MethodPost, "/api/tags/", "", req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = perform(r, http.MethodPost, "/api/tags/", "alice", req)
		assert.Equal(t, http.StatusForbidden, w.Code)

		mockService.On("Create", mock.Anything, admin, req).Return(&models.Tag{ID: 4, Name: "Brunch", Color: "#AABBCC", Slug: "brunch"}, nil).Once()
		w = perform(r, http.MethodPost, "/api/tags/", "admin", req)
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, int64(4), decode[dto.TagResponse](t, w).ID)
	})

	mockService.AssertExpectations(t)
}

func TestIngredientHandler(t *testing.T) {
	mockService := new(MockIngredientService)
	r := setupRouter("/api/ingredients", handler.NewIngredientHandler(mockService))

	mockService.On("Search", mock.Anything, "fl").Return([]models.Ingredient{
		{ID: 2, Name: "flour", MeasurementUnit: "g"},
	}, nil).Once()
	w := perform(r, http.MethodGet, "/api/ingredients/?search=fl", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":2,"name":"flour","measurement_unit":"g"}]`, w.Body.String())

	mockService.On("Search", mock.Anything, "").Return([]models.Ingredient{}, nil).Once()
	w = perform(r, http.MethodGet, "/api/ingredients/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	mockService.On("Get", mock.Anything, int64(2)).Return(&models.Ingredient{ID: 2, Name: "flour", MeasurementUnit: "g"}, nil).Once()
	w = perform(r, http.MethodGet, "/api/ingredients/2/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "flour", decode[dto.IngredientResponse](t, w).Name)

	req := dto.IngredientRequest{Name: "salt", MeasurementUnit: "g"}
	mockService.On("Create", mock.Anything, admin, req).
		Return(nil, apperr.Conflict("ingredient_exists", "this ingredient and unit already exist")).Once()
	w = perform(r, http.MethodPost, "/api/ingredients/", "admin", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ingredient_exists", decode[dto.ErrorResponse](t, w).Code)

	mockService.AssertExpectations(t)
}

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	healthy := setupRouter("/api", handler.NewHealthHandler(func(context.Context) error { return nil }))
	w := perform(healthy, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","database":"up"}`, w.Body.String())

	down := setupRouter("/api", handler.NewHealthHandler(func(context.Context) error { return errors.New("dial tcp: refused") }))
	w = perform(down, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
