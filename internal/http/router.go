// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, identity, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-mealplan-backend/internal/config"
	"github.com/tbourn/go-mealplan-backend/internal/domain"
	"github.com/tbourn/go-mealplan-backend/internal/http/handlers"
	"github.com/tbourn/go-mealplan-backend/internal/http/middleware"
	"github.com/tbourn/go-mealplan-backend/internal/ratelimit"
	"github.com/tbourn/go-mealplan-backend/internal/repo"
	"github.com/tbourn/go-mealplan-backend/internal/services"
)

// mealPlanRepoShim adapts the repository free functions to the
// services.MealPlanRepo interface expected by the MealPlanService.
type mealPlanRepoShim struct{}

// FindMealPlanByNaturalKey proxies repo.FindMealPlanByNaturalKey.
func (mealPlanRepoShim) FindMealPlanByNaturalKey(ctx context.Context, db *gorm.DB, userID, title string, duration, mealsPerDay int) (*domain.MealPlan, error) {
	return repo.FindMealPlanByNaturalKey(ctx, db, userID, title, duration, mealsPerDay)
}

// CreateMealPlan proxies repo.CreateMealPlan.
func (mealPlanRepoShim) CreateMealPlan(ctx context.Context, db *gorm.DB, p *domain.MealPlan) error {
	return repo.CreateMealPlan(ctx, db, p)
}

// CreateDay proxies repo.CreateDay.
func (mealPlanRepoShim) CreateDay(ctx context.Context, db *gorm.DB, d *domain.Day) error {
	return repo.CreateDay(ctx, db, d)
}

// CreateMeal proxies repo.CreateMeal.
func (mealPlanRepoShim) CreateMeal(ctx context.Context, db *gorm.DB, m *domain.Meal) error {
	return repo.CreateMeal(ctx, db, m)
}

// GetMealPlanGraph proxies repo.GetMealPlanGraph.
func (mealPlanRepoShim) GetMealPlanGraph(ctx context.Context, db *gorm.DB, id string) (*domain.MealPlan, error) {
	return repo.GetMealPlanGraph(ctx, db, id)
}

// GetMealPlanForUser proxies repo.GetMealPlanForUser.
func (mealPlanRepoShim) GetMealPlanForUser(ctx context.Context, db *gorm.DB, id, userID string) (*domain.MealPlan, error) {
	return repo.GetMealPlanForUser(ctx, db, id, userID)
}

// CountMealPlans proxies repo.CountMealPlans (pagination support).
func (mealPlanRepoShim) CountMealPlans(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountMealPlans(ctx, db, userID)
}

// ListMealPlansPage proxies repo.ListMealPlansPage (pagination support).
func (mealPlanRepoShim) ListMealPlansPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.MealPlan, error) {
	return repo.ListMealPlansPage(ctx, db, userID, offset, limit)
}

// MealPlansStats proxies repo.MealPlansStats (ETag support).
func (mealPlanRepoShim) MealPlansStats(ctx context.Context, db *gorm.DB, userID string) (int64, *time.Time, error) {
	return repo.MealPlansStats(ctx, db, userID)
}

// Deps carries the long-lived collaborators built in main.
type Deps struct {
	DB      *gorm.DB
	Limiter *ratelimit.Limiter
	Effects *services.Dispatcher
	// Now overrides the service clock; nil means time.Now.
	Now func() time.Time
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), compression, CORS
// and security headers, identity, rate limiting, health and metrics
// endpoints, and then mounts the versioned public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Gzip
//  8. CORS and Security headers
//  9. Identity (per-request user id)
//  10. Rate limiter (per explicit key, user or IP) on API routes only
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.Logger(middleware.LogOptions{
		MaskHeaders: []string{"X-API-Key", middleware.HeaderClientKey},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit
	if cfg.MaxBodyBytes > 0 {
		r.Use(limitBody(cfg.MaxBodyBytes))
	}

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics("/metrics", "/health"))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Response compression (the metrics handler negotiates its own)
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 8) CORS posture (safe defaults: allow all if none configured)
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderUserID, middleware.HeaderClientKey}
	exposeHeaders := []string{
		"X-Request-ID", "Content-Length", "ETag",
		middleware.HeaderRateLimitLimit, middleware.HeaderRateLimitRemaining,
		middleware.HeaderRateLimitReset, middleware.HeaderRetryAfter,
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		Revalidate:   true,
		EnablePolicy: true,
	}))

	// 9) Caller identity (JWT bearer, or X-User-ID without a secret)
	r.Use(middleware.Identity(cfg.JWTSecret))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db
	svc := services.NewMealPlanService(deps.DB, mealPlanRepoShim{}, deps.Effects)
	if cfg.PlanLocation != nil {
		svc.Location = cfg.PlanLocation
	}
	if deps.Now != nil {
		svc.Now = deps.Now
	}
	h := handlers.New(svc)

	// Without an injected limiter a private one is used; nothing sweeps it.
	limiter := deps.Limiter
	if limiter == nil {
		limiter = ratelimit.New(ratelimit.WithSweepInterval(cfg.RateLimit.SweepInterval))
	}
	byClientKey := middleware.IdentifierFromClientKey(middleware.HeaderClientKey, cfg.RateLimit.ClientKeys)
	apiPolicy := middleware.Policy{Name: "api", Max: cfg.RateLimit.Max, Window: cfg.RateLimit.Window}
	savePolicy := middleware.Policy{Name: "save", Max: cfg.RateLimit.SaveMax, Window: cfg.RateLimit.SaveWindow}

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath) // e.g. "/api/v1"
	api.Use(middleware.RateLimit(limiter, apiPolicy, byClientKey), middleware.RequireUser())
	{
		api.POST("/meal-plans", middleware.RateLimit(limiter, savePolicy, byClientKey), h.SaveMealPlan)
		api.GET("/meal-plans", h.ListMealPlans)
		api.GET("/meal-plans/:id", h.GetMealPlan)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
