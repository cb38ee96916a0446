package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"foodgram/internal/apperr"
	"foodgram/internal/http-api/dto"
	"foodgram/internal/http-api/models"
	"foodgram/internal/http-api/repository"
	"foodgram/internal/logging"
	"foodgram/internal/metrics"
	"foodgram/internal/shared"
	"foodgram/internal/storage"
	"foodgram/internal/validation"
)

// RecipeQuery is a parsed recipe listing request.
type RecipeQuery struct {
	AuthorID         string
	Tags             []string
	IsFavorited      bool
	IsInShoppingCart bool
	Page             repository.Page
}

type RecipeService interface {
	List(ctx context.Context, viewer shared.Identity, q RecipeQuery) ([]dto.RecipeResponse, int64, error)
	Get(ctx context.Context, viewer shared.Identity, id int64) (*dto.RecipeResponse, error)
	Create(ctx context.Context, viewer shared.Identity, req dto.RecipeCreateRequest) (*dto.RecipeResponse, error)
	Update(ctx context.Context, viewer shared.Identity, id int64, req dto.RecipeUpdateRequest) (*dto.RecipeResponse, error)
	Delete(ctx context.Context, viewer shared.Identity, id int64) error

	AddFavorite(ctx context.Context, viewer shared.Identity, id int64) (*dto.RecipeSummaryResponse, error)
	RemoveFavorite(ctx context.Context, viewer shared.Identity, id int64) error
	AddToCart(ctx context.Context, viewer shared.Identity, id int64) (*dto.RecipeSummaryResponse, error)
	RemoveFromCart(ctx context.Context, viewer shared.Identity, id int64) error

	ShoppingList(ctx context.Context, viewer shared.Identity) (*ShoppingList, error)
}

// relation describes one (user, recipe) link kind.
type relation struct {
	repo          repository.LinkRepository
	label         string
	duplicateCode string
	missingCode   string
	duplicateMsg  string
	missingMsg    string
}

type recipeService struct {
	recipes     repository.RecipeRepository
	tags        repository.TagRepository
	ingredients repository.IngredientRepository
	shopping    repository.ShoppingListRepository
	projector   *Projector
	images      storage.Store
	maxImage    int64

	favorites relation
	cart      relation
}

type RecipeDeps struct {
	Recipes      repository.RecipeRepository
	Tags         repository.TagRepository
	Ingredients  repository.IngredientRepository
	Favorites    repository.LinkRepository
	Cart         repository.LinkRepository
	ShoppingList repository.ShoppingListRepository
	Projector    *Projector
	Images       storage.Store
	MaxImageSize int64
}

func NewRecipeService(d RecipeDeps) RecipeService {
	return &recipeService{
		recipes:     d.Recipes,
		tags:        d.Tags,
		ingredients: d.Ingredients,
		shopping:    d.ShoppingList,
		projector:   d.Projector,
		images:      d.Images,
		maxImage:    d.MaxImageSize,
		favorites: relation{
			repo:          d.Favorites,
			label:         "favorite",
			duplicateCode: "already_favorited",
			missingCode:   "not_favorited",
			duplicateMsg:  "recipe is already in favorites",
			missingMsg:    "recipe is not in favorites",
		},
		cart: relation{
			repo:          d.Cart,
			label:         "shopping_cart",
			duplicateCode: "already_in_shopping_cart",
			missingCode:   "not_in_shopping_cart",
			duplicateMsg:  "recipe is already in the shopping cart",
			missingMsg:    "recipe is not in the shopping cart",
		},
	}
}

func (s *recipeService) List(ctx context.Context, viewer shared.Identity, q RecipeQuery) ([]dto.RecipeResponse, int64, error) {
	// author_id is a uuid column; postgres fails the cast on anything else
	if q.AuthorID != "" {
		if _, err := uuid.Parse(q.AuthorID); err != nil {
			return nil, 0, apperr.Validation("invalid_author", "author must be a user id",
				apperr.Violation{Field: "author", Rule: "uuid", Message: "not a valid user id"})
		}
	}
	filter := repository.RecipeFilter{AuthorID: q.AuthorID, TagSlugs: q.Tags}
	// per-user filters mean nothing for an anonymous requester
	if !viewer.IsAnonymous() {
		if q.IsFavorited {
			filter.FavoritedBy = viewer.UserID
		}
		if q.IsInShoppingCart {
			filter.InCartOf = viewer.UserID
		}
	}
	list, total, err := s.recipes.List(ctx, filter, q.Page)
	if err != nil {
		return nil, 0, err
	}
	out, err := s.projector.Recipes(ctx, viewer, list)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *recipeService) Get(ctx context.Context, viewer shared.Identity, id int64) (*dto.RecipeResponse, error) {
	recipe, err := s.recipes.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, recipeNotFound(id))
	}
	return s.projector.Recipe(ctx, viewer, recipe)
}

func (s *recipeService) Create(ctx context.Context, viewer shared.Identity, req dto.RecipeCreateRequest) (_ *dto.RecipeResponse, err error) {
	if err := requireIdentity(viewer); err != nil {
		return nil, err
	}
	defer func() { s.countWrite("create", err) }()

	entries := toEntries(req.Ingredients)
	fields := validation.RecipeFields{Name: strings.TrimSpace(req.Name), Text: req.Text, CookingTime: req.CookingTime}
	if v := validation.RecipeCreate(fields, req.Image, req.Tags, entries); !v.OK() {
		return nil, v.Err(v.Code("invalid_recipe"), "recipe data is invalid")
	}
	if err := s.checkReferences(ctx, &req.Tags, &entries); err != nil {
		return nil, err
	}

	imageURL, err := storage.SaveRecipeImage(ctx, s.images, req.Image, s.maxImage)
	if err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		AuthorID:    viewer.UserID,
		Name:        fields.Name,
		Image:       imageURL,
		Text:        fields.Text,
		CookingTime: fields.CookingTime,
	}
	if err := s.recipes.Create(ctx, recipe, req.Tags, toRows(entries)); err != nil {
		s.discardImage(ctx, imageURL)
		return nil, storeError(err, nil)
	}
	logging.Ctx(ctx).Info().Int64("recipe_id", recipe.ID).Str("author_id", viewer.UserID).Msg("recipe created")

	return s.Get(ctx, viewer, recipe.ID)
}

func (s *recipeService) Update(ctx context.Context, viewer shared.Identity, id int64, req dto.RecipeUpdateRequest) (_ *dto.RecipeResponse, err error) {
	if err := s.authorize(ctx, viewer, id); err != nil {
		return nil, err
	}
	defer func() { s.countWrite("update", err) }()

	var entries *[]validation.IngredientEntry
	if req.Ingredients != nil {
		e := toEntries(*req.Ingredients)
		entries = &e
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}
	if v := validation.RecipeUpdate(req.Name, req.Text, req.CookingTime, req.Tags, entries); !v.OK() {
		return nil, v.Err(v.Code("invalid_recipe"), "recipe data is invalid")
	}
	if err := s.checkReferences(ctx, req.Tags, entries); err != nil {
		return nil, err
	}

	upd := repository.RecipeUpdate{Fields: map[string]any{}, TagIDs: req.Tags}
	if req.Name != nil {
		upd.Fields["name"] = *req.Name
	}
	if req.Text != nil {
		upd.Fields["text"] = *req.Text
	}
	if req.CookingTime != nil {
		upd.Fields["cooking_time"] = *req.CookingTime
	}
	if entries != nil {
		rows := toRows(*entries)
		upd.Ingredients = &rows
	}

	var previousImage, newImage string
	if req.Image != nil {
		current, err := s.recipes.GetByID(ctx, id)
		if err != nil {
			return nil, storeError(err, recipeNotFound(id))
		}
		previousImage = current.Image
		if newImage, err = storage.SaveRecipeImage(ctx, s.images, *req.Image, s.maxImage); err != nil {
			return nil, err
		}
		upd.Fields["image"] = newImage
	}

	if err := s.recipes.Update(ctx, id, upd); err != nil {
		s.discardImage(ctx, newImage)
		return nil, storeError(err, recipeNotFound(id))
	}
	s.discardImage(ctx, previousImage)

	return s.Get(ctx, viewer, id)
}

func (s *recipeService) Delete(ctx context.Context, viewer shared.Identity, id int64) (err error) {
	if err := s.authorize(ctx, viewer, id); err != nil {
		return err
	}
	defer func() { s.countWrite("delete", err) }()

	recipe, err := s.recipes.GetByID(ctx, id)
	if err != nil {
		return storeError(err, recipeNotFound(id))
	}
	if err := s.recipes.Delete(ctx, id); err != nil {
		return storeError(err, recipeNotFound(id))
	}
	s.discardImage(ctx, recipe.Image)
	return nil
}

// authorize lets the author or an admin change the recipe.
func (s *recipeService) authorize(ctx context.Context, viewer shared.Identity, id int64) error {
	if err := requireIdentity(viewer); err != nil {
		return err
	}
	authorID, err := s.recipes.AuthorOf(ctx, id)
	if err != nil {
		return storeError(err, recipeNotFound(id))
	}
	if !viewer.CanModify(authorID) {
		return apperr.Forbidden("only the author can change this recipe")
	}
	return nil
}

// checkReferences rejects tag or ingredient ids with no matching row.
// nil pointers are skipped.
func (s *recipeService) checkReferences(ctx context.Context, tagIDs *[]int64, entries *[]validation.IngredientEntry) error {
	if tagIDs != nil {
		missing, err := s.tags.MissingIDs(ctx, *tagIDs)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return apperr.Reference("unknown_tag", fmt.Sprintf("no such tag: %d", missing[0]))
		}
	}
	if entries != nil {
		ids := make([]int64, 0, len(*entries))
		for _, e := range *entries {
			ids = append(ids, e.ID)
		}
		missing, err := s.ingredients.MissingIDs(ctx, ids)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return apperr.Reference("unknown_ingredient", fmt.Sprintf("no such ingredient: %d", missing[0]))
		}
	}
	return nil
}

func (s *recipeService) discardImage(ctx context.Context, url string) {
	if url == "" {
		return
	}
	key := s.images.KeyFromURL(url)
	if key == "" {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("failed to delete recipe image")
	}
}

func (s *recipeService) countWrite(op string, err error) {
	outcome := metrics.Outcome(err)
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindReference, apperr.KindConflict:
		outcome = "invalid"
	}
	metrics.RecipeWritesTotal.WithLabelValues(op, outcome).Inc()
}

func (s *recipeService) AddFavorite(ctx context.Context, viewer shared.Identity, id int64) (*dto.RecipeSummaryResponse, error) {
	return s.link(ctx, viewer, id, s.favorites)
}

func (s *recipeService) RemoveFavorite(ctx context.Context, viewer shared.Identity, id int64) error {
	return s.unlink(ctx, viewer, id, s.favorites)
}

func (s *recipeService) AddToCart(ctx context.Context, viewer shared.Identity, id int64) (*dto.RecipeSummaryResponse, error) {
	return s.link(ctx, viewer, id, s.cart)
}

func (s *recipeService) RemoveFromCart(ctx context.Context, viewer shared.Identity, id int64) error {
	return s.unlink(ctx, viewer, id, s.cart)
}

// link adds (viewer, recipe) to rel. The existence check gives a clean
// error in the common case; the unique index decides races.
func (s *recipeService) link(ctx context.Context, viewer shared.Identity, id int64, rel relation) (*dto.RecipeSummaryResponse, error) {
	if err := requireIdentity(viewer); err != nil {
		return nil, err
	}
	recipe, err := s.recipes.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, recipeNotFound(id))
	}
	exists, err := rel.repo.Exists(ctx, viewer.UserID, id)
	if err != nil {
		return nil, err
	}
	if exists {
		metrics.RelationChangesTotal.WithLabelValues(rel.label, "add", "conflict").Inc()
		return nil, apperr.Conflict(rel.duplicateCode, rel.duplicateMsg)
	}
	if err := rel.repo.Add(ctx, viewer.UserID, id); err != nil {
		if repository.IsDuplicate(err) {
			metrics.RelationChangesTotal.WithLabelValues(rel.label, "add", "conflict").Inc()
			return nil, apperr.Conflict(rel.duplicateCode, rel.duplicateMsg)
		}
		metrics.RelationChangesTotal.WithLabelValues(rel.label, "add", "error").Inc()
		return nil, storeError(err, nil)
	}
	metrics.RelationChangesTotal.WithLabelValues(rel.label, "add", "success").Inc()
	summary := dto.ToRecipeSummary(recipe)
	return &summary, nil
}

func (s *recipeService) unlink(ctx context.Context, viewer shared.Identity, id int64, rel relation) error {
	if err := requireIdentity(viewer); err != nil {
		return err
	}
	if _, err := s.recipes.AuthorOf(ctx, id); err != nil {
		return storeError(err, recipeNotFound(id))
	}
	if err := rel.repo.Remove(ctx, viewer.UserID, id); err != nil {
		if repository.IsNotFound(err) {
			metrics.RelationChangesTotal.WithLabelValues(rel.label, "remove", "missing").Inc()
			return apperr.MissingRelation(rel.missingCode, rel.missingMsg)
		}
		metrics.RelationChangesTotal.WithLabelValues(rel.label, "remove", "error").Inc()
		return err
	}
	metrics.RelationChangesTotal.WithLabelValues(rel.label, "remove", "success").Inc()
	return nil
}

func toEntries(reqs []dto.IngredientAmountRequest) []validation.IngredientEntry {
	out := make([]validation.IngredientEntry, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, validation.IngredientEntry{ID: r.ID, Amount: r.Amount})
	}
	return out
}

func toRows(entries []validation.IngredientEntry) []models.RecipeIngredient {
	out := make([]models.RecipeIngredient, 0, len(entries))
	for _, e := range entries {
		out = append(out, models.RecipeIngredient{IngredientID: e.ID, Amount: e.Amount})
	}
	return out
}
