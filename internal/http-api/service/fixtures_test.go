package service_test

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"foodgram/database/dbtest"
	"foodgram/internal/config"
	"foodgram/internal/http-api/dto"
	"foodgram/internal/http-api/models"
	"foodgram/internal/http-api/repository"
	"foodgram/internal/http-api/service"
	"foodgram/internal/shared"
	"foodgram/internal/storage"
	"foodgram/internal/tokenstore"
)

var pngURI = "data:image/png;base64," + base64.StdEncoding.EncodeToString(
	[]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01"))

type env struct {
	t           *testing.T
	ctx         context.Context
	repos       repos
	auth        service.AuthService
	users       service.UserService
	recipes     service.RecipeService
	tags        service.TagService
	ingredients service.IngredientService
	images      *storage.LocalStore
}

type repos struct {
	users       repository.UserRepository
	tags        repository.TagRepository
	ingredients repository.IngredientRepository
	recipes     repository.RecipeRepository
	favorites   repository.LinkRepository
	cart        repository.LinkRepository
	follows     repository.FollowRepository
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := dbtest.New(t)
	r := repos{
		users:       repository.NewUserRepository(db),
		tags:        repository.NewTagRepository(db),
		ingredients: repository.NewIngredientRepository(db),
		recipes:     repository.NewRecipeRepository(db),
		favorites:   repository.NewFavoriteRepository(db),
		cart:        repository.NewCartRepository(db),
		follows:     repository.NewFollowRepository(db),
	}
	cfg := &config.Config{JWTSecret: "test-secret-test-secret-test-secret!", AccessTokenTTL: time.Hour}
	images := storage.NewLocal(t.TempDir(), "/media/")
	projector := service.NewProjector(r.favorites, r.cart, r.follows, r.recipes)

	return &env{
		t:     t,
		ctx:   context.Background(),
		repos: r,
		auth:  service.NewAuthService(r.users, tokenstore.NewMemory(), cfg),
		users: service.NewUserService(r.users, r.follows, projector),
		recipes: service.NewRecipeService(service.RecipeDeps{
			Recipes:      r.recipes,
			Tags:         r.tags,
			Ingredients:  r.ingredients,
			Favorites:    r.favorites,
			Cart:         r.cart,
			ShoppingList: repository.NewShoppingListRepository(db),
			Projector:    projector,
			Images:       images,
			MaxImageSize: 1 << 20,
		}),
		tags:        service.NewTagService(r.tags),
		ingredients: service.NewIngredientService(r.ingredients),
		images:      images,
	}
}

func (e *env) register(username string) shared.Identity {
	e.t.Helper()
	u, err := e.auth.Register(e.ctx, service.RegisterInput{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "First",
		LastName:  "Last",
		Password:  "correct-horse",
	})
	require.NoError(e.t, err)
	return shared.Identity{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func (e *env) tag(slug string, color string) *models.Tag {
	e.t.Helper()
	tag := &models.Tag{Name: slug, Color: color, Slug: slug}
	require.NoError(e.t, e.repos.tags.Create(e.ctx, tag))
	return tag
}

func (e *env) ingredient(name, unit string) *models.Ingredient {
	e.t.Helper()
	ing := &models.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(e.t, e.repos.ingredients.Create(e.ctx, ing))
	return ing
}

func amounts(pairs ...any) []dto.IngredientAmountRequest {
	out := make([]dto.IngredientAmountRequest, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, dto.IngredientAmountRequest{ID: pairs[i].(*models.Ingredient).ID, Amount: pairs[i+1].(int)})
	}
	return out
}

func (e *env) recipeRequest(name string, tags []int64, ings []dto.IngredientAmountRequest) dto.RecipeCreateRequest {
	return dto.RecipeCreateRequest{
		Ingredients: ings,
		Tags:        tags,
		Image:       pngURI,
		Name:        name,
		Text:        "Mix everything.",
		CookingTime: 15,
	}
}

func (e *env) createRecipe(author shared.Identity, name string, tags []int64, ings []dto.IngredientAmountRequest) *dto.RecipeResponse {
	e.t.Helper()
	r, err := e.recipes.Create(e.ctx, author, e.recipeRequest(name, tags, ings))
	require.NoError(e.t, err)
	return r
}
