package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"foodgram/internal/http-api/dto"
	"foodgram/internal/http-api/middleware"
	"foodgram/internal/http-api/service"
	"foodgram/internal/shared"
)

type RecipeHandler struct {
	svc   service.RecipeService
	pages Paginator
}

func NewRecipeHandler(svc service.RecipeService, pages Paginator) *RecipeHandler {
	return &RecipeHandler{svc: svc, pages: pages}
}

func (h *RecipeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/", h.List)
	rg.GET("/download_shopping_cart/", middleware.Authenticated(), h.DownloadShoppingCart)
	rg.GET("/:recipe_id/", h.Get)

	rg.POST("/", middleware.Authenticated(), h.Create)
	rg.PATCH("/:recipe_id/", middleware.Authenticated(), h.Update)
	rg.DELETE("/:recipe_id/", middleware.Authenticated(), h.Delete)

	rg.POST("/:recipe_id/favorite/", middleware.Authenticated(), h.AddFavorite)
	rg.DELETE("/:recipe_id/favorite/", middleware.Authenticated(), h.RemoveFavorite)
	rg.POST("/:recipe_id/shopping_cart/", middleware.Authenticated(), h.AddToCart)
	rg.DELETE("/:recipe_id/shopping_cart/", middleware.Authenticated(), h.RemoveFromCart)
}

// List supports ?author=<user id>, repeated ?tags=<slug>, ?is_favorited=1
// and ?is_in_shopping_cart=1 on top of page/limit.
func (h *RecipeHandler) List(c *gin.Context) {
	req, err := h.pages.parse(c)
	if err != nil {
		respondError(c, err)
		return
	}
	q := service.RecipeQuery{
		AuthorID:         c.Query("author"),
		Tags:             c.QueryArray("tags"),
		IsFavorited:      truthy(c.Query("is_favorited")),
		IsInShoppingCart: truthy(c.Query("is_in_shopping_cart")),
		Page:             req.repo(),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	list, total, err := h.svc.List(ctx, middleware.Identity(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	resp, err := page(c, req, total, list)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RecipeHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "recipe_id")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	r, err := h.svc.Get(ctx, middleware.Identity(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *RecipeHandler) Create(c *gin.Context) {
	var in dto.RecipeCreateRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, bindError(err))
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	r, err := h.svc.Create(ctx, middleware.Identity(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *RecipeHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "recipe_id")
	if !ok {
		return
	}
	var in dto.RecipeUpdateRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, bindError(err))
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	r, err := h.svc.Update(ctx, middleware.Identity(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *RecipeHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "recipe_id")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.svc.Delete(ctx, middleware.Identity(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) AddFavorite(c *gin.Context) {
	h.link(c, h.svc.AddFavorite)
}

func (h *RecipeHandler) RemoveFavorite(c *gin.Context) {
	h.unlink(c, h.svc.RemoveFavorite)
}

func (h *RecipeHandler) AddToCart(c *gin.Context) {
	h.link(c, h.svc.AddToCart)
}

func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	h.unlink(c, h.svc.RemoveFromCart)
}

type linkFunc func(ctx context.Context, viewer shared.Identity, id int64) (*dto.RecipeSummaryResponse, error)

type unlinkFunc func(ctx context.Context, viewer shared.Identity, id int64) error

func (h *RecipeHandler) link(c *gin.Context, add linkFunc) {
	id, ok := parseID(c, "recipe_id")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	summary, err := add(ctx, middleware.Identity(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, summary)
}

func (h *RecipeHandler) unlink(c *gin.Context, remove unlinkFunc) {
	id, ok := parseID(c, "recipe_id")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := remove(ctx, middleware.Identity(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DownloadShoppingCart sends the aggregated cart as a text attachment.
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	list, err := h.svc.ShoppingList(ctx, middleware.Identity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+list.FileName)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(list.Content))
}
