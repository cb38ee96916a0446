// Package httpapi assembles the gin engine serving the REST API.
package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"foodgram/internal/http-api/handler"
	"foodgram/internal/http-api/middleware"
	"foodgram/internal/http-api/service"
	"foodgram/internal/metrics"
	"foodgram/internal/ratelimit"
)

// Services is everything the router dispatches to.
type Services struct {
	Auth        service.AuthService
	Users       service.UserService
	Recipes     service.RecipeService
	Tags        service.TagService
	Ingredients service.IngredientService
}

type RouterConfig struct {
	Pages handler.Paginator
	// Limiter is optional; nil disables rate limiting.
	Limiter         ratelimit.Limiter
	RateLimitWindow time.Duration
	// MediaRoot is served under MediaURL when both are set.
	MediaRoot string
	MediaURL  string
	DBPing    handler.Pinger
}

func NewRouter(svc Services, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(), middleware.Metrics())

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	if cfg.MediaRoot != "" && cfg.MediaURL != "" {
		r.Static(strings.TrimSuffix(cfg.MediaURL, "/"), cfg.MediaRoot)
	}

	api := r.Group("/api")
	if cfg.DBPing != nil {
		handler.NewHealthHandler(cfg.DBPing).RegisterRoutes(api)
	}

	api.Use(middleware.OptionalAuth(svc.Auth))
	if cfg.Limiter != nil {
		api.Use(middleware.RateLimit(cfg.Limiter, cfg.RateLimitWindow))
	}

	handler.NewAuthHandler(svc.Auth).RegisterRoutes(api.Group("/auth/token"))
	handler.NewUserHandler(svc.Users, svc.Auth, cfg.Pages).RegisterRoutes(api.Group("/users"))
	handler.NewTagHandler(svc.Tags).RegisterRoutes(api.Group("/tags"))
	handler.NewIngredientHandler(svc.Ingredients).RegisterRoutes(api.Group("/ingredients"))
	handler.NewRecipeHandler(svc.Recipes, cfg.Pages).RegisterRoutes(api.Group("/recipes"))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found", "code": "not_found"})
	})
	return r
}
