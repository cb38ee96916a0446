package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"foodgram/internal/http-api/dto"
	"foodgram/internal/http-api/middleware"
	"foodgram/internal/http-api/service"
)

// TagHandler serves the tag catalogue. Lists are not paginated.
type TagHandler struct {
	svc service.TagService
}

func NewTagHandler(svc service.TagService) *TagHandler {
	return &TagHandler{svc: svc}
}

func (h *TagHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/", h.List)
	rg.GET("/:tag_id/", h.Get)

	// Admin-only routes
	rg.POST("/", middleware.Authenticated(), middleware.RequireAdmin(), h.Create)
}

func (h *TagHandler) List(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	tags, err := h.svc.List(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTagResponses(tags))
}

func (h *TagHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "tag_id")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	tag, err := h.svc.Get(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTagResponse(*tag))
}

func (h *TagHandler) Create(c *gin.Context) {
	var in dto.TagRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, bindError(err))
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	tag, err := h.svc.Create(ctx, middleware.Identity(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToTagResponse(*tag))
}

type IngredientHandler struct {
	svc service.IngredientService
}

func NewIngredientHandler(svc service.IngredientService) *IngredientHandler {
	return &IngredientHandler{svc: svc}
}

func (h *IngredientHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/", h.Search)
	rg.GET("/:ingredient_id/", h.Get)
	rg.POST("/", middleware.Authenticated(), middleware.RequireAdmin(), h.Create)
}

// Search lists ingredients whose name starts with ?search=, case-insensitively.
// Without the parameter every ingredient is returned.
func (h *IngredientHandler) Search(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	items, err := h.svc.Search(ctx, c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToIngredientResponses(items))
}

func (h *IngredientHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "ingredient_id")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	item, err := h.svc.Get(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToIngredientResponse(*item))
}

func (h *IngredientHandler) Create(c *gin.Context) {
	var in dto.IngredientRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, bindError(err))
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	item, err := h.svc.Create(ctx, middleware.Identity(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToIngredientResponse(*item))
}
