package repository_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodgram/internal/http-api/models"
	"foodgram/internal/http-api/repository"
)

func TestLinkRepositories(t *testing.T) {
	f := newFixture(t)
	chef := f.user("chef")
	eater := f.user("eater")
	tag := f.tag("Lunch", "#49B64E", "lunch")
	flour := f.ingredient("flour", "g")
	bread := f.recipe(chef, "Bread", []*models.Tag{tag}, amount{flour, 500})
	cake := f.recipe(chef, "Cake", []*models.Tag{tag}, amount{flour, 300})

	for name, repo := range map[string]repository.LinkRepository{"favorites": f.favorites, "cart": f.cart} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, repo.Add(f.ctx, eater.ID, bread.ID))

			err := repo.Add(f.ctx, eater.ID, bread.ID)
			assert.True(t, repository.IsDuplicate(err), "second add should hit the unique index, got %v", err)

			ok, err := repo.Exists(f.ctx, eater.ID, bread.ID)
			require.NoError(t, err)
			assert.True(t, ok)

			linked, err := repo.Linked(f.ctx, eater.ID, []int64{bread.ID, cake.ID})
			require.NoError(t, err)
			assert.Equal(t, map[int64]bool{bread.ID: true}, linked)

			anon, err := repo.Linked(f.ctx, "", []int64{bread.ID})
			require.NoError(t, err)
			assert.Empty(t, anon)

			require.NoError(t, repo.Remove(f.ctx, eater.ID, bread.ID))
			assert.True(t, repository.IsNotFound(repo.Remove(f.ctx, eater.ID, bread.ID)))
		})
	}
}

func TestFollowRepository(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	bob := f.user("bob")
	carol := f.user("carol")

	require.NoError(t, f.follows.Add(f.ctx, alice.ID, carol.ID))
	require.NoError(t, f.follows.Add(f.ctx, alice.ID, bob.ID))
	assert.True(t, repository.IsDuplicate(f.follows.Add(f.ctx, alice.ID, bob.ID)))

	ok, err := f.follows.Exists(f.ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	following, err := f.follows.Following(f.ctx, alice.ID, []string{bob.ID, carol.ID, alice.ID})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{bob.ID: true, carol.ID: true}, following)

	authors, total, err := f.follows.ListAuthors(f.ctx, alice.ID, repository.Page{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, authors, 1)
	assert.Equal(t, "bob", authors[0].Username)

	require.NoError(t, f.follows.Remove(f.ctx, alice.ID, bob.ID))
	assert.True(t, repository.IsNotFound(f.follows.Remove(f.ctx, alice.ID, bob.ID)))
}

func TestShoppingListAggregate(t *testing.T) {
	f := newFixture(t)
	chef := f.user("chef")
	eater := f.user("eater")
	tag := f.tag("Lunch", "#49B64E", "lunch")
	flour := f.ingredient("flour", "g")
	egg := f.ingredient("egg", "pcs")
	sugar := f.ingredient("sugar", "g")

	r1 := f.recipe(chef, "R1", []*models.Tag{tag}, amount{flour, 200})
	r2 := f.recipe(chef, "R2", []*models.Tag{tag}, amount{flour, 100}, amount{egg, 2})
	f.recipe(chef, "R3", []*models.Tag{tag}, amount{sugar, 50})

	t.Run("empty cart", func(t *testing.T) {
		lines, err := f.shopping.Aggregate(f.ctx, eater.ID)
		require.NoError(t, err)
		assert.Empty(t, lines)
	})

	require.NoError(t, f.cart.Add(f.ctx, eater.ID, r1.ID))
	require.NoError(t, f.cart.Add(f.ctx, eater.ID, r2.ID))
	// another user's cart must not leak in
	require.NoError(t, f.cart.Add(f.ctx, chef.ID, r1.ID))

	lines, err := f.shopping.Aggregate(f.ctx, eater.ID)
	require.NoError(t, err)
	assert.Equal(t, []repository.ShoppingLine{
		{Name: "egg", MeasurementUnit: "pcs", Amount: 2},
		{Name: "flour", MeasurementUnit: "g", Amount: 300},
	}, lines)
}
