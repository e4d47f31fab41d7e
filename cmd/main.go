package main

import (
	"context"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/pixelforge/imagegen-service/config"
	database "github.com/pixelforge/imagegen-service/internal/core"
	"github.com/pixelforge/imagegen-service/internal/core/domain"
	"github.com/pixelforge/imagegen-service/internal/core/repository"
	logicv1 "github.com/pixelforge/imagegen-service/internal/logic/v1"
	"github.com/pixelforge/imagegen-service/internal/provider/gemini"
	"github.com/pixelforge/imagegen-service/internal/provider/local"
	"github.com/pixelforge/imagegen-service/internal/provider/s3store"
	"github.com/pixelforge/imagegen-service/internal/provider/supabase"
	v1 "github.com/pixelforge/imagegen-service/internal/web/v1"
	"github.com/pixelforge/imagegen-service/middleware"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		panic("Configuration validation failed: " + err.Error())
	}

	// Initialize Zerolog with LOG_LEVEL from config
	middleware.SetupLogging(cfg.Logging.Level)

	log.Info().
		Str("service", cfg.Service.Name).
		Str("version", cfg.Service.Version).
		Str("env", cfg.Service.Env).
		Str("port", cfg.Service.Port).
		Msg("Service starting")

	// Initialize OpenTelemetry tracing
	var tp interface{ Shutdown(context.Context) error }
	if cfg.Tracing.Enabled {
		provider, err := middleware.InitTracing(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize tracing")
		} else {
			tp = provider
			log.Info().
				Str("endpoint", cfg.Tracing.Endpoint).
				Float64("sample_rate", cfg.Tracing.SampleRate).
				Msg("Tracing initialized")
		}
	} else {
		log.Info().Msg("Tracing disabled (TRACING_ENABLED=false)")
	}

	// Initialize Pyroscope profiling
	if cfg.Profiling.Enabled {
		if err := middleware.InitProfiling(cfg); err != nil {
			log.Warn().Err(err).Msg("Failed to initialize profiling")
		} else {
			log.Info().
				Str("endpoint", cfg.Profiling.Endpoint).
				Msg("Profiling initialized")
			defer middleware.StopProfiling()
		}
	} else {
		log.Info().Msg("Profiling disabled (PROFILING_ENABLED=false)")
	}

	// Initialize database connection pool (pgx). The pool is optional: with
	// an external identity provider and no DATABASE_URL the service runs in
	// degraded mode without persistence.
	var pool *pgxpool.Pool
	if cfg.Database.URL != "" {
		var err error
		pool, err = database.Connect(context.Background(), cfg.Database.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer pool.Close()
		log.Info().Msg("Database connection pool established")
	} else {
		log.Warn().Msg("DATABASE_URL not set, generation persistence disabled")
	}

	// Identity provider: hosted service when configured, self-hosted
	// Postgres-backed provider otherwise.
	var authProvider domain.AuthProvider
	if cfg.Auth.URL != "" {
		authProvider = supabase.New(cfg.Auth.URL, cfg.Auth.Key)
		log.Info().Str("endpoint", cfg.Auth.URL).Msg("Using hosted identity provider")
	} else {
		authProvider = local.New(
			repository.NewUserRepository(pool),
			repository.NewSessionRepository(pool),
		)
		log.Info().Msg("Using self-hosted identity provider")
	}

	// Object store is optional: without it generated images are inlined as
	// data URIs.
	var store domain.ObjectStore
	if cfg.Storage.Endpoint != "" {
		s3, err := s3store.New(context.Background(), s3store.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Region:    cfg.Storage.Region,
			Bucket:    cfg.Storage.Bucket,
			PublicURL: cfg.Storage.PublicURL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize object store")
		}
		store = s3
		log.Info().Str("bucket", cfg.Storage.Bucket).Msg("Object store initialized")
	} else {
		log.Warn().Msg("S3_ENDPOINT not set, images will be inlined as data URIs")
	}

	var generationRepo domain.GenerationRepository
	if pool != nil {
		generationRepo = repository.NewGenerationRepository(pool)
	}

	authService := logicv1.NewAuthService(authProvider)
	imageService := logicv1.NewImageService(gemini.New(cfg.Gemini.APIKey), store, generationRepo)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	var isShuttingDown atomic.Bool

	rateLimiter := middleware.NewRateLimiter(cfg.GetRateLimitWindowDuration(), cfg.RateLimit.Max)
	defer rateLimiter.Stop()

	// Tracing middleware
	r.Use(middleware.TracingMiddleware())

	// Logging middleware
	r.Use(middleware.LoggingMiddleware())

	// Prometheus middleware
	r.Use(middleware.PrometheusMiddleware())

	// CORS, rate limiting, body cap
	r.Use(middleware.CORSMiddleware(cfg.HTTP.AllowedOrigin))
	r.Use(rateLimiter.Middleware())
	r.Use(middleware.BodyLimitMiddleware(cfg.HTTP.MaxBodyBytes))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Readiness check
	// Returns 503 once shutdown has started, to drain traffic before HTTP shutdown.
	r.GET("/ready", func(c *gin.Context) {
		if isShuttingDown.Load() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting_down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := r.Group("/api")
	{
		cookieCodec := v1.NewCookieCodec(cfg.IsProduction())
		v1.NewAuthHandler(authService, cookieCodec).RegisterRoutes(api)
		v1.NewImageHandler(imageService).RegisterRoutes(api, authService)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Service.Port,
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Service.Port).Msg("Starting imagegen service")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info().Msg("Shutdown signal received")

	// Fail readiness first and wait for propagation before stopping HTTP.
	isShuttingDown.Store(true)
	drainDelay := cfg.GetReadinessDrainDelayDuration()
	if drainDelay > 0 {
		log.Info().Dur("delay", drainDelay).Msg("Readiness drain delay started")
		time.Sleep(drainDelay)
		log.Info().Dur("delay", drainDelay).Msg("Readiness drain delay completed")
	}

	// Shutdown context with configurable timeout
	shutdownTimeout := cfg.GetShutdownTimeoutDuration()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info().Dur("timeout", shutdownTimeout).Msg("Shutting down server...")

	// 1. Shutdown HTTP server
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		log.Info().Msg("HTTP server shutdown complete")
	}

	// 2. Close database connections
	if pool != nil {
		pool.Close()
		log.Info().Msg("Database pool closed")
	}

	// 3. Shutdown tracer
	if tp != nil {
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Tracer shutdown error")
		} else {
			log.Info().Msg("Tracer shutdown complete")
		}
	}

	log.Info().Msg("Graceful shutdown complete")
}
