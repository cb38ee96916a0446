package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"foodgram/internal/http-api/dto"
	"foodgram/internal/http-api/middleware"
	"foodgram/internal/http-api/models"
	"foodgram/internal/http-api/repository"
	"foodgram/internal/http-api/service"
	"foodgram/internal/shared"
)

// --- MOCK SERVICES ---

type MockRecipeService struct {
	mock.Mock
}

func (m *MockRecipeService) List(ctx context.Context, viewer shared.Identity, q service.RecipeQuery) ([]dto.RecipeResponse, int64, error) {
	args := m.Called(ctx, viewer, q)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]dto.RecipeResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockRecipeService) Get(ctx context.Context, viewer shared.Identity, id int64) (*dto.RecipeResponse, error) {
	args := m.Called(ctx, viewer, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.RecipeResponse), args.Error(1)
}

func (m *MockRecipeService) Create(ctx context.Context, viewer shared.Identity, req dto.RecipeCreateRequest) (*dto.RecipeResponse, error) {
	args := m.Called(ctx, viewer, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.RecipeResponse), args.Error(1)
}

func (m *MockRecipeService) Update(ctx context.Context, viewer shared.Identity, id int64, req dto.RecipeUpdateRequest) (*dto.RecipeResponse, error) {
	args := m.Called(ctx, viewer, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.RecipeResponse), args.Error(1)
}

func (m *MockRecipeService) Delete(ctx context.Context, viewer shared.Identity, id int64) error {
	args := m.Called(ctx, viewer, id)
	return args.Error(0)
}

func (m *MockRecipeService) AddFavorite(ctx context.Context, viewer shared.Identity, id int64) (*dto.RecipeSummaryResponse, error) {
	args := m.Called(ctx, viewer, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.RecipeSummaryResponse), args.Error(1)
}

func (m *MockRecipeService) RemoveFavorite(ctx context.Context, viewer shared.Identity, id int64) error {
	args := m.Called(ctx, viewer, id)
	return args.Error(0)
}

func (m *MockRecipeService) AddToCart(ctx context.Context, viewer shared.Identity, id int64) (*dto.RecipeSummaryResponse, error) {
	args := m.Called(ctx, viewer, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.RecipeSummaryResponse), args.Error(1)
}

func (m *MockRecipeService) RemoveFromCart(ctx context.Context, viewer shared.Identity, id int64) error {
	args := m.Called(ctx, viewer, id)
	return args.Error(0)
}

func (m *MockRecipeService) ShoppingList(ctx context.Context, viewer shared.Identity) (*service.ShoppingList, error) {
	args := m.Called(ctx, viewer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ShoppingList), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Get(ctx context.Context, viewer shared.Identity, id string) (*dto.UserResponse, error) {
	args := m.Called(ctx, viewer, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.UserResponse), args.Error(1)
}

func (m *MockUserService) Me(ctx context.Context, viewer shared.Identity) (*dto.UserResponse, error) {
	args := m.Called(ctx, viewer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.UserResponse), args.Error(1)
}

func (m *MockUserService) List(ctx context.Context, viewer shared.Identity, page repository.Page) ([]dto.UserResponse, int64, error) {
	args := m.Called(ctx, viewer, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]dto.UserResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserService) Subscribe(ctx context.Context, viewer shared.Identity, authorID string, recipesLimit int) (*dto.SubscriptionResponse, error) {
	args := m.Called(ctx, viewer, authorID, recipesLimit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SubscriptionResponse), args.Error(1)
}

func (m *MockUserService) Unsubscribe(ctx context.Context, viewer shared.Identity, authorID string) error {
	args := m.Called(ctx, viewer, authorID)
	return args.Error(0)
}

func (m *MockUserService) Subscriptions(ctx context.Context, viewer shared.Identity, page repository.Page, recipesLimit int) ([]dto.SubscriptionResponse, int64, error) {
	args := m.Called(ctx, viewer, page, recipesLimit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]dto.SubscriptionResponse), args.Get(1).(int64), args.Error(2)
}

// MockAuthService mocks the AuthService interface
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, in service.RegisterInput) (*models.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) CreateAdmin(ctx context.Context, in service.RegisterInput) (*models.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*models.User), args.Error(2)
}

func (m *MockAuthService) Logout(ctx context.Context, claims *shared.AuthClaims) error {
	args := m.Called(ctx, claims)
	return args.Error(0)
}

func (m *MockAuthService) ValidateToken(ctx context.Context, tokenString string) (*shared.AuthClaims, error) {
	args := m.Called(ctx, tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.AuthClaims), args.Error(1)
}

func (m *MockAuthService) SetPassword(ctx context.Context, viewer shared.Identity, currentPassword, newPassword string) error {
	args := m.Called(ctx, viewer, currentPassword, newPassword)
	return args.Error(0)
}

type MockTagService struct {
	mock.Mock
}

func (m *MockTagService) List(ctx context.Context) ([]models.Tag, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Tag), args.Error(1)
}

func (m *MockTagService) Get(ctx context.Context, id int64) (*models.Tag, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tag), args.Error(1)
}

func (m *MockTagService) Create(ctx context.Context, viewer shared.Identity, req dto.TagRequest) (*models.Tag, error) {
	args := m.Called(ctx, viewer, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tag), args.Error(1)
}

func (m *MockTagService) Import(ctx context.Context, reqs []dto.TagRequest) (int64, error) {
	args := m.Called(ctx, reqs)
	return args.Get(0).(int64), args.Error(1)
}

type MockIngredientService struct {
	mock.Mock
}

func (m *MockIngredientService) Search(ctx context.Context, prefix string) ([]models.Ingredient, error) {
	args := m.Called(ctx, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Ingredient), args.Error(1)
}

func (m *MockIngredientService) Get(ctx context.Context, id int64) (*models.Ingredient, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ingredient), args.Error(1)
}

func (m *MockIngredientService) Create(ctx context.Context, viewer shared.Identity, req dto.IngredientRequest) (*models.Ingredient, error) {
	args := m.Called(ctx, viewer, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ingredient), args.Error(1)
}

func (m *MockIngredientService) Import(ctx context.Context, reqs []dto.IngredientRequest) (int64, error) {
	args := m.Called(ctx, reqs)
	return args.Get(0).(int64), args.Error(1)
}

// --- SETUP ---

var (
	alice = shared.Identity{UserID: "11111111-1111-1111-1111-111111111111", Username: "alice", Role: "user"}
	admin = shared.Identity{UserID: "22222222-2222-2222-2222-222222222222", Username: "root", Role: "admin"}
)

// mockAuthMiddleware resolves the requester from X-Test-User, standing in
// for token validation.
func mockAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.GetHeader("X-Test-User") {
		case "alice":
			middleware.SetIdentity(c, alice)
		case "admin":
			middleware.SetIdentity(c, admin)
		}
		c.Next()
	}
}

type registrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

func setupRouter(prefix string, h registrar) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	rg := r.Group(prefix)
	rg.Use(mockAuthMiddleware())
	h.RegisterRoutes(rg)
	return r
}

func perform(r http.Handler, method, path, user string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
