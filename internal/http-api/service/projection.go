package service

import (
	"context"

	"foodgram/internal/http-api/dto"
	"foodgram/internal/http-api/models"
	"foodgram/internal/http-api/repository"
	"foodgram/internal/shared"
)

// Projector assembles read representations relative to a requester.
// An anonymous requester always sees false for every per-user flag.
type Projector struct {
	favorites repository.LinkRepository
	cart      repository.LinkRepository
	follows   repository.FollowRepository
	recipes   repository.RecipeRepository
}

func NewProjector(favorites, cart repository.LinkRepository, follows repository.FollowRepository, recipes repository.RecipeRepository) *Projector {
	return &Projector{favorites: favorites, cart: cart, follows: follows, recipes: recipes}
}

func (p *Projector) Recipe(ctx context.Context, viewer shared.Identity, r *models.Recipe) (*dto.RecipeResponse, error) {
	out, err := p.Recipes(ctx, viewer, []models.Recipe{*r})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (p *Projector) Recipes(ctx context.Context, viewer shared.Identity, list []models.Recipe) ([]dto.RecipeResponse, error) {
	ids := make([]int64, 0, len(list))
	authorIDs := make([]string, 0, len(list))
	for _, r := range list {
		ids = append(ids, r.ID)
		authorIDs = append(authorIDs, r.AuthorID)
	}

	favorited, inCart := map[int64]bool{}, map[int64]bool{}
	following := map[string]bool{}
	if !viewer.IsAnonymous() {
		var err error
		if favorited, err = p.favorites.Linked(ctx, viewer.UserID, ids); err != nil {
			return nil, err
		}
		if inCart, err = p.cart.Linked(ctx, viewer.UserID, ids); err != nil {
			return nil, err
		}
		if following, err = p.follows.Following(ctx, viewer.UserID, authorIDs); err != nil {
			return nil, err
		}
	}

	out := make([]dto.RecipeResponse, 0, len(list))
	for i := range list {
		r := &list[i]
		view := dto.RecipeResponse{
			ID:               r.ID,
			Tags:             dto.ToTagResponses(r.Tags),
			Ingredients:      dto.ToRecipeIngredients(r.Ingredients),
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            r.Image,
			Text:             r.Text,
			CookingTime:      r.CookingTime,
		}
		if r.Author != nil {
			view.Author = userView(r.Author, following[r.AuthorID])
		} else {
			view.Author = dto.UserResponse{ID: r.AuthorID, IsSubscribed: following[r.AuthorID]}
		}
		out = append(out, view)
	}
	return out, nil
}

func (p *Projector) User(ctx context.Context, viewer shared.Identity, u *models.User) (*dto.UserResponse, error) {
	out, err := p.Users(ctx, viewer, []models.User{*u})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (p *Projector) Users(ctx context.Context, viewer shared.Identity, users []models.User) ([]dto.UserResponse, error) {
	following, err := p.following(ctx, viewer, users)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, userView(&users[i], following[users[i].ID]))
	}
	return out, nil
}

// Subscriptions renders followed authors with up to recipesLimit of their
// newest recipes (all when recipesLimit <= 0) and their total recipe count.
func (p *Projector) Subscriptions(ctx context.Context, viewer shared.Identity, authors []models.User, recipesLimit int) ([]dto.SubscriptionResponse, error) {
	following, err := p.following(ctx, viewer, authors)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(authors))
	for _, a := range authors {
		ids = append(ids, a.ID)
	}
	counts, err := p.recipes.CountByAuthors(ctx, ids)
	if err != nil {
		return nil, err
	}
	byAuthor, err := p.recipes.ListByAuthors(ctx, ids, recipesLimit)
	if err != nil {
		return nil, err
	}

	out := make([]dto.SubscriptionResponse, 0, len(authors))
	for i := range authors {
		a := &authors[i]
		recipes := byAuthor[a.ID]
		summaries := make([]dto.RecipeSummaryResponse, 0, len(recipes))
		for j := range recipes {
			summaries = append(summaries, dto.ToRecipeSummary(&recipes[j]))
		}
		out = append(out, dto.SubscriptionResponse{
			UserResponse: userView(a, following[a.ID]),
			Recipes:      summaries,
			RecipesCount: counts[a.ID],
		})
	}
	return out, nil
}

func (p *Projector) following(ctx context.Context, viewer shared.Identity, users []models.User) (map[string]bool, error) {
	if viewer.IsAnonymous() {
		return map[string]bool{}, nil
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return p.follows.Following(ctx, viewer.UserID, ids)
}

func userView(u *models.User, subscribed bool) dto.UserResponse {
	return dto.UserResponse{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}
