// Package app wires configuration, storage and services into a runnable
// API. Both the api-server binary and the management CLI build on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"foodgram/database"
	"foodgram/internal/config"
	httpapi "foodgram/internal/http-api"
	"foodgram/internal/http-api/handler"
	"foodgram/internal/http-api/repository"
	"foodgram/internal/http-api/service"
	"foodgram/internal/logging"
	"foodgram/internal/ratelimit"
	"foodgram/internal/storage"
	"foodgram/internal/tokenstore"
)

type App struct {
	Config   *config.Config
	DB       *gorm.DB
	Services httpapi.Services
	Images   storage.Store
	Limiter  ratelimit.Limiter

	revoked tokenstore.Store
	redis   *redis.Client
}

// New connects to the database and builds every service. It does not
// migrate the schema.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	return Assemble(ctx, cfg, db)
}

// Assemble builds the services on an already opened database.
func Assemble(ctx context.Context, cfg *config.Config, db *gorm.DB) (*App, error) {
	a := &App{Config: cfg, DB: db}

	revoked, err := tokenstore.New(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	a.revoked = revoked
	// the rate limiter shares the token store's connection
	if rs, ok := revoked.(*tokenstore.RedisStore); ok {
		a.redis = rs.Client()
	}
	a.Limiter = ratelimit.New(a.redis, cfg.RateLimitRequests, cfg.RateLimitWindow)

	images, err := storage.New(ctx, cfg)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("init image storage: %w", err)
	}
	a.Images = images

	users := repository.NewUserRepository(db)
	recipes := repository.NewRecipeRepository(db)
	tags := repository.NewTagRepository(db)
	ingredients := repository.NewIngredientRepository(db)
	follows := repository.NewFollowRepository(db)
	favorites := repository.NewFavoriteRepository(db)
	cart := repository.NewCartRepository(db)
	projector := service.NewProjector(favorites, cart, follows, recipes)

	a.Services = httpapi.Services{
		Auth:  service.NewAuthService(users, a.revoked, cfg),
		Users: service.NewUserService(users, follows, projector),
		Recipes: service.NewRecipeService(service.RecipeDeps{
			Recipes:      recipes,
			Tags:         tags,
			Ingredients:  ingredients,
			Favorites:    favorites,
			Cart:         cart,
			ShoppingList: repository.NewShoppingListRepository(db),
			Projector:    projector,
			Images:       images,
			MaxImageSize: cfg.UploadMaxSizeBytes,
		}),
		Tags:        service.NewTagService(tags),
		Ingredients: service.NewIngredientService(ingredients),
	}

	logging.Info().
		Str("token_store", a.revoked.Backend()).
		Str("rate_limiter", a.Limiter.Backend()).
		Str("image_storage", images.Backend()).
		Msg("services assembled")
	return a, nil
}

func (a *App) Router() *gin.Engine {
	if a.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	rc := httpapi.RouterConfig{
		Pages: handler.Paginator{
			DefaultLimit: a.Config.PageSizeDefault,
			MaxLimit:     a.Config.PageSizeMax,
		},
		Limiter:         a.Limiter,
		RateLimitWindow: a.Config.RateLimitWindow,
		DBPing: func(ctx context.Context) error {
			return database.Ping(ctx, a.DB)
		},
	}
	// S3 objects are served by the bucket itself
	if a.Images.Backend() == "local" {
		rc.MediaRoot = a.Config.MediaRoot
		rc.MediaURL = a.Config.MediaURL
	}
	return httpapi.NewRouter(a.Services, rc)
}

// Serve runs the HTTP server until ctx is cancelled, then drains
// in-flight requests.
func (a *App) Serve(ctx context.Context) error {
	if local, ok := a.Limiter.(*ratelimit.Local); ok {
		go local.Run(ctx, 10*time.Minute)
	}

	srv := &http.Server{
		Addr:              a.Config.Addr(),
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func (a *App) Close() error {
	var errs []error
	// the redis store closes the shared client
	if a.revoked != nil {
		errs = append(errs, a.revoked.Close())
	}
	errs = append(errs, database.Close(a.DB))
	return errors.Join(errs...)
}
