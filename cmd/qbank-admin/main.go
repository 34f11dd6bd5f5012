package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/qbank-admin-api/api/swagger"
	"github.com/noah-isme/qbank-admin-api/internal/client"
	"github.com/noah-isme/qbank-admin-api/internal/handler"
	internalmiddleware "github.com/noah-isme/qbank-admin-api/internal/middleware"
	"github.com/noah-isme/qbank-admin-api/internal/models"
	"github.com/noah-isme/qbank-admin-api/internal/repository"
	"github.com/noah-isme/qbank-admin-api/internal/service"
	"github.com/noah-isme/qbank-admin-api/pkg/cache"
	"github.com/noah-isme/qbank-admin-api/pkg/config"
	"github.com/noah-isme/qbank-admin-api/pkg/database"
	"github.com/noah-isme/qbank-admin-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/qbank-admin-api/pkg/middleware/cors"
	"github.com/noah-isme/qbank-admin-api/pkg/middleware/ratelimit"
	reqidmiddleware "github.com/noah-isme/qbank-admin-api/pkg/middleware/requestid"
	"github.com/noah-isme/qbank-admin-api/pkg/storage"
)

// @title QBank Admin API
// @version 1.0.0
// @description Question search filters, presets and workspaces for the question bank admin dashboard.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// presetStore is satisfied by every key/value repository.
type presetStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

type infra struct {
	redis  *redis.Client
	db     *sqlx.DB
	checks map[string]handler.ReadinessCheck
}

func (i *infra) close(logr *zap.Logger) {
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			logr.Warn("close redis", zap.Error(err))
		}
	}
	if i.db != nil {
		if err := i.db.Close(); err != nil {
			logr.Warn("close postgres", zap.Error(err))
		}
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	deps := &infra{checks: map[string]handler.ReadinessCheck{}}
	defer deps.close(logr)

	if cfg.Search.CacheEnabled || cfg.Presets.Backend == config.PresetBackendRedis {
		deps.redis, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect redis", zap.Error(err))
		}
		deps.checks["redis"] = func(ctx context.Context) error { return deps.redis.Ping(ctx).Err() }
	}

	presets, err := newPresetStore(cfg, deps)
	if err != nil {
		logr.Fatal("failed to initialise preset storage", zap.String("backend", cfg.Presets.Backend), zap.Error(err))
	}
	logr.Info("preset storage ready", zap.String("backend", cfg.Presets.Backend))

	validate := validator.New()
	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if deps.redis != nil {
		cacheRepo = repository.NewCacheRepository(deps.redis, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Search.CacheTTL, logr, cfg.Search.CacheEnabled)

	questions := client.NewQuestionClient(cfg.Backend, logr)
	querySvc := service.NewQueryService(questions, cacheSvc, metrics, logr, service.QueryServiceConfig{CacheTTL: cfg.Search.CacheTTL})
	presetSvc := service.NewPresetService(presets, validate, logr, metrics, service.PresetServiceConfig{
		StorageKey: cfg.Presets.StorageKey,
		MaxCount:   cfg.Presets.MaxCount,
	})
	workspaceSvc := service.NewWorkspaceService(querySvc, presetSvc, metrics, logr, service.WorkspaceServiceConfig{
		BasePath: cfg.Filters.BasePath,
		Debounce: cfg.Filters.Debounce,
		IdleTTL:  cfg.Filters.WorkspaceTTL,
		Workers:  cfg.Filters.QueryWorkers,
	})
	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workspaceSvc.Start(ctx)
	defer workspaceSvc.Stop()

	filterHandler := handler.NewFilterHandler(cfg.Filters.BasePath)
	questionHandler := handler.NewQuestionHandler(querySvc, cacheSvc, validate)
	presetHandler := handler.NewPresetHandler(presetSvc)
	workspaceHandler := handler.NewWorkspaceHandler(workspaceSvc)
	metricsHandler := handler.NewMetricsHandler(metrics, deps.checks)
	authHandler := handler.NewAuthHandler(authSvc, validate, cfg.Env == config.EnvDevelopment)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(corsmiddleware.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		ExposedHeaders: []string{reqidmiddleware.HeaderKey, handler.FilterQueryHeader},
	}))
	r.Use(internalmiddleware.WithResponseMeta())
	r.Use(internalmiddleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/dev-token", authHandler.IssueDevToken)

	limited := ratelimit.Middleware(ratelimit.Options{
		Enabled: cfg.RateLimit.Enabled,
		RPS:     cfg.RateLimit.RPS,
		Burst:   cfg.RateLimit.Burst,
		Key:     callerKey,
	})

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(authSvc), internalmiddleware.RequireRoles(internalmiddleware.AdminRoles...))
	{
		secured.GET("/auth/me", authHandler.Me)
		secured.GET("/metrics/summary", metricsHandler.Summary)

		filters := secured.Group("/filters")
		filters.GET("/defaults", filterHandler.Defaults)
		filters.POST("/encode", filterHandler.Encode)
		filters.GET("/decode", filterHandler.Decode)

		questionsGroup := secured.Group("/questions")
		questionsGroup.POST("/search", limited, questionHandler.SearchByBody)
		questionsGroup.GET("/search", limited, questionHandler.SearchByQuery)
		questionsGroup.GET("/export", limited, questionHandler.Export)
		questionsGroup.DELETE("/cache", internalmiddleware.RequireRoles(models.RoleSuperAdmin), questionHandler.InvalidateCache)

		presetsGroup := secured.Group("/presets")
		presetsGroup.GET("", presetHandler.List)
		presetsGroup.POST("", presetHandler.Save)
		presetsGroup.DELETE("", presetHandler.ClearAll)
		presetsGroup.GET("/stats", presetHandler.Stats)
		presetsGroup.GET("/export", presetHandler.Export)
		presetsGroup.POST("/import", presetHandler.Import)
		presetsGroup.GET("/:id", presetHandler.Get)
		presetsGroup.PUT("/:id", presetHandler.Update)
		presetsGroup.PATCH("/:id/name", presetHandler.Rename)
		presetsGroup.POST("/:id/duplicate", presetHandler.Duplicate)
		presetsGroup.DELETE("/:id", presetHandler.Delete)

		workspaces := secured.Group("/workspaces")
		workspaces.Use(limited)
		workspaces.POST("", workspaceHandler.Create)
		workspaces.GET("/:id", workspaceHandler.Get)
		workspaces.DELETE("/:id", workspaceHandler.Delete)
		workspaces.PATCH("/:id/sections/:section", workspaceHandler.UpdateSection)
		workspaces.POST("/:id/reset", workspaceHandler.Reset)
		workspaces.POST("/:id/presets", workspaceHandler.SavePreset)
		workspaces.POST("/:id/presets/:presetId/apply", workspaceHandler.ApplyPreset)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newPresetStore opens the backend selected by PRESETS_BACKEND and registers its readiness check.
func newPresetStore(cfg *config.Config, deps *infra) (presetStore, error) {
	switch cfg.Presets.Backend {
	case "", config.PresetBackendMemory:
		return repository.NewMemoryKVRepository(), nil
	case config.PresetBackendRedis:
		return repository.NewRedisKVRepository(deps.redis), nil
	case config.PresetBackendPostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, err
		}
		deps.db = db
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := database.EnsureKVStore(ctx, db); err != nil {
			return nil, err
		}
		deps.checks["postgres"] = func(ctx context.Context) error { return db.PingContext(ctx) }
		return repository.NewPostgresKVRepository(db), nil
	case config.PresetBackendFile:
		local, err := storage.NewLocalStorage(cfg.Presets.FileDir)
		if err != nil {
			return nil, err
		}
		return repository.NewFileKVRepository(local), nil
	case config.PresetBackendMinio:
		mc, err := storage.NewMinio(cfg.Minio)
		if err != nil {
			return nil, err
		}
		bucket := cfg.Minio.Bucket
		deps.checks["minio"] = func(ctx context.Context) error {
			_, err := mc.BucketExists(ctx, bucket)
			return err
		}
		return repository.NewMinioKVRepository(mc, bucket, "presets/"), nil
	default:
		return nil, fmt.Errorf("unknown preset backend %q", cfg.Presets.Backend)
	}
}

// callerKey buckets rate limits per authenticated user, falling back to the client IP.
func callerKey(c *gin.Context) string {
	if claims := internalmiddleware.CurrentClaims(c); claims != nil && claims.UserID != "" {
		return "user:" + claims.UserID
	}
	return "ip:" + c.ClientIP()
}
