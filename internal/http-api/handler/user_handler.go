package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"foodgram/internal/http-api/dto"
	"foodgram/internal/http-api/middleware"
	"foodgram/internal/http-api/service"
)

type UserHandler struct {
	users service.UserService
	auth  service.AuthService
	pages Paginator
}

func NewUserHandler(users service.UserService, auth service.AuthService, pages Paginator) *UserHandler {
	return &UserHandler{users: users, auth: auth, pages: pages}
}

func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/", h.Register)
	rg.GET("/", h.List)
	rg.GET("/me/", middleware.Authenticated(), h.Me)
	rg.POST("/set_password/", middleware.Authenticated(), h.SetPassword)
	rg.GET("/subscriptions/", middleware.Authenticated(), h.Subscriptions)
	rg.GET("/:user_id/", h.Get)
	rg.POST("/:user_id/subscribe/", middleware.Authenticated(), h.Subscribe)
	rg.DELETE("/:user_id/subscribe/", middleware.Authenticated(), h.Unsubscribe)
}

func (h *UserHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.auth.Register(ctx, service.RegisterInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.RegisterResponse{
		Email:     user.Email,
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
}

func (h *UserHandler) List(c *gin.Context) {
	req, err := h.pages.parse(c)
	if err != nil {
		respondError(c, err)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	list, total, err := h.users.List(ctx, middleware.Identity(c), req.repo())
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

func (h *UserHandler) Get(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.users.Get(ctx, middleware.Identity(c), c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Me(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.users.Me(ctx, middleware.Identity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	var req dto.SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.auth.SetPassword(ctx, middleware.Identity(c), req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	req, err := h.pages.parse(c)
	if err != nil {
		respondError(c, err)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	list, total, err := h.users.Subscriptions(ctx, middleware.Identity(c), req.repo(), recipesLimit(c))
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

func (h *UserHandler) Subscribe(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	sub, err := h.users.Subscribe(ctx, middleware.Identity(c), c.Param("user_id"), recipesLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.users.Unsubscribe(ctx, middleware.Identity(c), c.Param("user_id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// recipesLimit reads ?recipes_limit=; anything but a positive integer
// means no truncation.
func recipesLimit(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("recipes_limit"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
