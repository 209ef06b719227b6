// Command server runs the meal plan HTTP API.
//
// Startup order: environment (.env) → config → logging → tracing → database
// (+ migrations) → optional Redis → side-effect dispatcher → rate limiter →
// router → HTTP server. SIGINT/SIGTERM trigger a graceful shutdown that
// drains in-flight requests, stops the limiter sweep, and flushes traces.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-mealplan-backend/docs"
	"github.com/tbourn/go-mealplan-backend/internal/config"
	httpapi "github.com/tbourn/go-mealplan-backend/internal/http"
	"github.com/tbourn/go-mealplan-backend/internal/observability"
	"github.com/tbourn/go-mealplan-backend/internal/ratelimit"
	"github.com/tbourn/go-mealplan-backend/internal/repo"
	"github.com/tbourn/go-mealplan-backend/internal/services"
	"github.com/tbourn/go-mealplan-backend/internal/sysutil"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	// .env is optional; real environment variables win unless overridden.
	envFile := sysutil.FirstNonEmpty(os.Getenv("ENV_FILE"), ".env")
	if sysutil.IsTruthy(os.Getenv("ENV_OVERRIDE")) {
		_ = godotenv.Overload(envFile)
	} else {
		_ = godotenv.Load(envFile)
	}

	cfg := config.MustLoad()
	sysutil.ConfigureLogger(cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName, os.Stdout)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.Open(repo.Options{
		Driver:  cfg.DB.Driver,
		DSN:     cfg.DB.DSN(),
		Tracing: cfg.OTEL.Enabled,
	})
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	handlers := []services.EffectHandler{
		services.GenerationCounter{DB: db},
		services.AnalyticsAggregator{DB: db},
	}
	if cfg.RedisURL != "" {
		rdb, err := repo.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			// The mirror is optional; SQL counters stay authoritative.
			log.Warn().Err(err).Msg("redis unavailable, usage mirror disabled")
		} else {
			defer rdb.Close()
			handlers = append(handlers, services.RedisUsageMirror{Usage: repo.NewRedisUsage(rdb)})
		}
	}
	effects := services.NewDispatcher(cfg.SideEffectTimeout, handlers...)

	limiter := ratelimit.New(ratelimit.WithSweepInterval(cfg.RateLimit.SweepInterval))
	limiter.Start(ctx)

	docs.SwaggerInfo.BasePath = cfg.APIBasePath
	docs.SwaggerInfo.Version = version

	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{DB: db, Limiter: limiter, Effects: effects}, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("db_driver", cfg.DB.Driver).
			Str("api_base", cfg.APIBasePath).
			Str("version", version).
			Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
	limiter.Stop()
	// Let in-flight usage counters land before the pool closes.
	effects.Wait()
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server stopped")
}
