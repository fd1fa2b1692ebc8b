package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/research-portal-api/api/swagger"
	"github.com/noah-isme/research-portal-api/internal/handler"
	internalmiddleware "github.com/noah-isme/research-portal-api/internal/middleware"
	"github.com/noah-isme/research-portal-api/internal/repository"
	"github.com/noah-isme/research-portal-api/internal/service"
	"github.com/noah-isme/research-portal-api/pkg/cache"
	"github.com/noah-isme/research-portal-api/pkg/config"
	"github.com/noah-isme/research-portal-api/pkg/database"
	"github.com/noah-isme/research-portal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/research-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/research-portal-api/pkg/middleware/requestid"
	"github.com/noah-isme/research-portal-api/pkg/storage"
	"github.com/noah-isme/research-portal-api/pkg/validation"
)

// @title Research Portal API
// @version 1.0.0
// @description Research uploads, researcher profiles and the admin review workflow.
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)
		direction := migrateCmd.String("direction", "up", "migration direction (up, down or version)")
		_ = migrateCmd.Parse(os.Args[2:])
		if err := runMigrations(cfg, *direction, logr); err != nil {
			logr.Fatal("migration failed", zap.Error(err))
		}
		return
	}

	if err := serve(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func runMigrations(cfg *config.Config, direction string, logr *zap.Logger) error {
	migrator, err := database.NewMigrator(cfg.Database)
	if err != nil {
		return err
	}
	defer migrator.Close() //nolint:errcheck

	switch direction {
	case "up":
		err = migrator.Up()
	case "down":
		err = migrator.Down()
	case "version":
	default:
		return fmt.Errorf("unknown migration direction %q", direction)
	}
	if err != nil {
		return err
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		return err
	}
	logr.Info("schema version", zap.Uint("version", version), zap.Bool("dirty", dirty), zap.String("direction", direction))
	return nil
}

func serve(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if cfg.RunMigrations {
		if err := runMigrations(cfg, "up", logr); err != nil {
			return err
		}
	}

	blobs, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, public listing cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
		}
	}

	router := buildRouter(cfg, logr, db, redisClient, blobs)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
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

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildRouter(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, redisClient *redis.Client, blobs storage.BlobStore) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	validate := validation.New()
	metrics := service.NewMetricsService()
	presenter := service.NewUploadPresenter(cfg.Media.URL)

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	uploadRepo := repository.NewUploadRepository(db)
	eventRepo := repository.NewEventRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.PublicListTTL, logr, redisClient != nil)
	rules := service.AssetRules{
		MaxFileSize:       cfg.Uploads.MaxFileSizeBytes,
		MaxCoverSize:      cfg.Uploads.MaxCoverSizeBytes,
		AllowedFileTypes:  cfg.Uploads.AllowedFileTypes,
		AllowedCoverTypes: cfg.Uploads.AllowedCoverTypes,
	}

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	profileSvc := service.NewProfileService(profileRepo, userRepo, userRepo, blobs, metrics, presenter, rules, validate, logr)
	submissionSvc := service.NewSubmissionService(profileRepo, uploadRepo, userRepo, blobs, cacheSvc, metrics, presenter, rules, validate, logr)
	querySvc := service.NewUploadQueryService(uploadRepo, cacheSvc, presenter, cfg.PublicList.ApprovedOnly, logr)
	reviewSvc := service.NewReviewService(uploadRepo, userRepo, cacheSvc, metrics, presenter, validate, logr)
	userSvc := service.NewUserService(userRepo, validate, logr)
	eventSvc := service.NewEventService(eventRepo, userRepo, validate, logr)

	checks := map[string]handler.Pinger{"database": db}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(cacheRepo.Ping)
	}

	r := gin.New()
	r.MaxMultipartMemory = 8 << 20
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logr.Warn("ignoring invalid TRUSTED_PROXIES", zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics", "/media/*path"))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(internalmiddleware.Metrics(metrics))

	handler.Router{
		Auth:    handler.NewAuthHandler(authSvc),
		Profile: handler.NewProfileHandler(profileSvc),
		Uploads: handler.NewUploadHandler(submissionSvc, querySvc),
		Admin:   handler.NewAdminHandler(reviewSvc, userSvc),
		Events:  handler.NewEventHandler(eventSvc),
		Media:   handler.NewMediaHandler(blobs, logr),
		Metrics: handler.NewMetricsHandler(metrics, checks),
		Tokens:  authSvc,
		Audit:   userRepo,
		Logger:  logr,

		UploadBodyLimit:  cfg.Uploads.SubmissionBodyLimit(),
		ProfileBodyLimit: cfg.Uploads.ProfileBodyLimit(),
		TrustedProxies:   cfg.TrustedProxies,
	}.Register(r, cfg.APIPrefix)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
