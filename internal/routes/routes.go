package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/xyz-asif/roadwatch/internal/config"
	"github.com/xyz-asif/roadwatch/internal/features/auth"
	"github.com/xyz-asif/roadwatch/internal/features/classifier"
	"github.com/xyz-asif/roadwatch/internal/features/geo"
	"github.com/xyz-asif/roadwatch/internal/features/reports"
	"github.com/xyz-asif/roadwatch/internal/features/rewards"
	"github.com/xyz-asif/roadwatch/internal/middleware"
	"github.com/xyz-asif/roadwatch/internal/pkg/jwt"
	"github.com/xyz-asif/roadwatch/internal/pkg/metrics"
	"github.com/xyz-asif/roadwatch/internal/pkg/ratelimit"
	"github.com/xyz-asif/roadwatch/internal/pkg/response"
)

// Dependencies are the backends chosen at startup
type Dependencies struct {
	Identity auth.Identity
	Profiles auth.ProfileStore
	Reports  reports.Store
	Rewards  rewards.Store
	Storage  reports.ObjectStorage
	Gate     *classifier.Gate
	// Provider answers server-side location requests, may be nil
	Provider geo.Locator
	// Health pings the configured store
	Health func(ctx context.Context) error
}

// NewRouter builds the engine with global middleware, health, metrics and docs.
// Rate limiter buckets are swept until stop is closed.
func NewRouter(cfg *config.Config, deps Dependencies, stop <-chan struct{}) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.Middleware())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.FrontendURL))

	router.GET("/health", func(c *gin.Context) {
		if deps.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Health(ctx); err != nil {
				response.ErrorWithData(c, http.StatusServiceUnavailable, "Store unreachable", "STORE_UNAVAILABLE", map[string]interface{}{
					"status": "degraded",
					"store":  cfg.StoreDriver,
				})
				return
			}
		}
		response.Success(c, map[string]interface{}{
			"status": "ok",
			"store":  cfg.StoreDriver,
			"time":   time.Now().Unix(),
		})
	})
	router.GET("/metrics", metrics.Handler())

	router.GET(
		"/swagger/*any",
		ginSwagger.WrapHandler(
			swaggerFiles.Handler,
			ginSwagger.URL("/swagger/doc.json"),
			ginSwagger.DeepLinking(true),
			ginSwagger.DefaultModelsExpandDepth(-1),
			ginSwagger.DocExpansion("none"),
			ginSwagger.PersistAuthorization(true),
		),
	)

	SetupRoutes(router, cfg, deps, stop)
	return router
}

// SetupRoutes registers every feature under /api/v1
func SetupRoutes(router *gin.Engine, cfg *config.Config, deps Dependencies, stop <-chan struct{}) *reports.Submitter {
	api := router.Group("/api/v1")

	authLimiter := ratelimit.New("signin", cfg.AuthRateLimit, cfg.AuthRateWindow)
	submitLimiter := ratelimit.New("submit", cfg.SubmitRateLimit, cfg.SubmitRateWindow)
	if stop != nil {
		authLimiter.StartCleanup(time.Minute, stop)
		submitLimiter.StartCleanup(time.Minute, stop)
	}

	jwtCfg := jwt.DefaultConfig(cfg.JWTSecret)
	if cfg.JWTExpireHours > 0 {
		jwtCfg.AccessExpiry = time.Duration(cfg.JWTExpireHours) * time.Hour
	}
	authService := auth.NewService(deps.Identity, deps.Profiles, jwtCfg)
	authMiddleware := auth.NewAuthMiddleware(authService)

	submitter := reports.NewSubmitter(deps.Reports, deps.Storage, deps.Gate, deps.Provider, reports.SubmitterConfig{
		StoragePrefix:    cfg.StoragePrefix,
		GeoTimeout:       cfg.GeoTimeout,
		DraftTTL:         cfg.DraftTTL,
		DraftCapacity:    cfg.DraftCapacity,
		MaxDraftsPerUser: cfg.MaxDraftsPerUser,
	})
	moderator := reports.NewModerator(deps.Reports)
	submitter.OnSubmitted(func(reports.Report) { moderator.MarkStale() })

	auth.RegisterRoutes(api, authService, authMiddleware, ratelimit.Middleware(authLimiter))
	reports.RegisterRoutes(api,
		reports.NewHandler(submitter, deps.Reports, cfg.MaxImageBytes),
		reports.NewAdminHandler(moderator),
		authMiddleware,
		ratelimit.UserBasedMiddleware(submitLimiter),
	)
	rewards.RegisterRoutes(api, rewards.NewService(deps.Rewards, authService.Profiles(), cfg.MinRedeemPoints), authMiddleware)

	return submitter
}
