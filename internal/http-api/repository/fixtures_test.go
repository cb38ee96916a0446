package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"foodgram/database/dbtest"
	"foodgram/internal/http-api/models"
	"foodgram/internal/http-api/repository"
)

type fixture struct {
	t           *testing.T
	ctx         context.Context
	db          *gorm.DB
	users       repository.UserRepository
	tags        repository.TagRepository
	ingredients repository.IngredientRepository
	recipes     repository.RecipeRepository
	favorites   repository.LinkRepository
	cart        repository.LinkRepository
	follows     repository.FollowRepository
	shopping    repository.ShoppingListRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	return &fixture{
		t:           t,
		ctx:         context.Background(),
		db:          db,
		users:       repository.NewUserRepository(db),
		tags:        repository.NewTagRepository(db),
		ingredients: repository.NewIngredientRepository(db),
		recipes:     repository.NewRecipeRepository(db),
		favorites:   repository.NewFavoriteRepository(db),
		cart:        repository.NewCartRepository(db),
		follows:     repository.NewFollowRepository(db),
		shopping:    repository.NewShoppingListRepository(db),
	}
}

func (f *fixture) user(username string) *models.User {
	f.t.Helper()
	u := &models.User{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "First",
		LastName:  "Last",
		Password:  "hash",
	}
	require.NoError(f.t, f.users.Create(f.ctx, u))
	return u
}

func (f *fixture) tag(name, color, slug string) *models.Tag {
	f.t.Helper()
	tag := &models.Tag{Name: name, Color: color, Slug: slug}
	require.NoError(f.t, f.tags.Create(f.ctx, tag))
	return tag
}

func (f *fixture) ingredient(name, unit string) *models.Ingredient {
	f.t.Helper()
	ing := &models.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(f.t, f.ingredients.Create(f.ctx, ing))
	return ing
}

type amount struct {
	ing *models.Ingredient
	n   int
}

func (f *fixture) recipe(author *models.User, name string, tags []*models.Tag, amounts ...amount) *models.Recipe {
	f.t.Helper()
	r := &models.Recipe{AuthorID: author.ID, Name: name, Image: "/media/recipes/x.png", Text: "text", CookingTime: 10}
	tagIDs := make([]int64, 0, len(tags))
	for _, tag := range tags {
		tagIDs = append(tagIDs, tag.ID)
	}
	rows := make([]models.RecipeIngredient, 0, len(amounts))
	for _, a := range amounts {
		rows = append(rows, models.RecipeIngredient{IngredientID: a.ing.ID, Amount: a.n})
	}
	require.NoError(f.t, f.recipes.Create(f.ctx, r, tagIDs, rows))
	return r
}
