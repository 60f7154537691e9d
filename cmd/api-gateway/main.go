package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/Noel-Teens/pms-server/api/swagger"
	"github.com/Noel-Teens/pms-server/internal/repository"
	"github.com/Noel-Teens/pms-server/internal/service"
	"github.com/Noel-Teens/pms-server/migrations"
	"github.com/Noel-Teens/pms-server/pkg/cache"
	"github.com/Noel-Teens/pms-server/pkg/config"
	"github.com/Noel-Teens/pms-server/pkg/database"
	"github.com/Noel-Teens/pms-server/pkg/export"
	"github.com/Noel-Teens/pms-server/pkg/jobs"
	"github.com/Noel-Teens/pms-server/pkg/logger"
	"github.com/Noel-Teens/pms-server/pkg/mailer"
	"github.com/Noel-Teens/pms-server/pkg/storage"
	"github.com/Noel-Teens/pms-server/pkg/vault"
)

// @title Paperwork Management Server
// @version 1.0.0
// @description Assignment, versioned submission and review of research paperwork.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var vaultKeys []string
	if cfg.Vault.Enabled() {
		client, err := vault.NewClient(cfg.Vault)
		if err != nil {
			log.Fatalf("failed to init vault client: %v", err)
		}
		if vaultKeys, err = vault.Overlay(ctx, client, cfg); err != nil {
			log.Fatalf("failed to read vault secrets: %v", err)
		}
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck
	if len(vaultKeys) > 0 {
		logr.Info("vault secrets applied", zap.Strings("keys", vaultKeys))
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		applied, err := database.NewMigrator(db, migrations.FS, logr).Up(ctx)
		if err != nil {
			logr.Fatal("failed to migrate database", zap.Error(err))
		}
		logr.Info("database migrated", zap.Strings("applied", applied))
	}

	var redisClient *redis.Client
	if cfg.Reports.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, report cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
		}
	}

	blobs, err := newBlobStore(ctx, cfg.Storage)
	if err != nil {
		logr.Fatal("failed to init blob storage", zap.Error(err))
	}

	app := buildApp(ctx, cfg, db, redisClient, blobs, logr)
	defer app.close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(cfg, app, logr),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("storage", cfg.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
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

func newBlobStore(ctx context.Context, cfg config.StorageConfig) (storage.Blob, error) {
	switch cfg.Driver {
	case config.StorageDriverMinIO:
		return storage.NewMinIOStorage(ctx, storage.MinIOConfig{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			UseSSL:    cfg.MinIO.UseSSL,
		})
	case config.StorageDriverLocal, "":
		return storage.NewLocalStorage(cfg.MediaRoot)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// app holds the wired services handed to the router.
type app struct {
	db        *sqlx.DB
	redis     *redis.Client
	metrics   *service.MetricsService
	auth      *service.AuthService
	users     *service.UserService
	paperwork *service.PaperworkService
	versions  *service.VersionService
	reviews   *service.ReviewService
	files     *service.FileService
	archives  *service.ArchiveInspector
	reports   *service.ReportService
	notifier  *service.NotificationService
	mailQueue *jobs.Queue[service.NotificationMailJob]
}

func buildApp(ctx context.Context, cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, blobs storage.Blob, logr *zap.Logger) *app {
	validate := service.NewValidator()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	paperworkRepo := repository.NewPaperworkRepository(db)
	versionRepo := repository.NewVersionRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	reportRepo := repository.NewReportRepository(db)

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, "pms:")
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Reports.CacheTTL, logr.Named("cache"), cfg.Reports.CacheEnabled)

	layout := service.StorageLayout{
		PDFDir:   cfg.Storage.PDFDir,
		LatexDir: cfg.Storage.LatexDir,
		CodeDir:  cfg.Storage.CodeDir,
		DocxDir:  cfg.Storage.DocxDir,
	}
	signer := storage.NewSignedURLSigner(cfg.Viewer.SignedURLSecret, cfg.Viewer.SignedURLTTL)

	notifier := service.NewNotificationService(notificationRepo, userRepo, metrics, logr.Named("notifications"), service.NotificationConfig{Reviewers: cfg.Mail.Reviewers})
	a := &app{db: db, redis: redisClient, metrics: metrics, notifier: notifier}

	if cfg.Mail.Enabled {
		smtp, err := mailer.New(mailer.Config{
			Host:          cfg.Mail.Host,
			Port:          cfg.Mail.Port,
			User:          cfg.Mail.User,
			Password:      cfg.Mail.Password,
			From:          cfg.Mail.From,
			SkipTLSVerify: cfg.Mail.SkipTLSVerify,
		})
		if err != nil {
			logr.Warn("notification mail disabled", zap.Error(err))
		} else {
			a.mailQueue = jobs.NewQueue[service.NotificationMailJob]("notification-mail", notifier.Deliver, jobs.QueueConfig{
				Workers:    cfg.Mail.Workers,
				MaxRetries: cfg.Mail.Retries,
				Logger:     logr,
			})
			a.mailQueue.Start(ctx)
			notifier.UseMail(a.mailQueue, smtp)
		}
	}

	retention := service.NewRetentionManager(versionRepo, blobs, metrics, logr.Named("retention"), cfg.Retention.MaxVersions)

	a.auth = service.NewAuthService(userRepo, validate, logr.Named("auth"), service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	a.users = service.NewUserService(userRepo, validate, logr.Named("users"))
	a.paperwork = service.NewPaperworkService(paperworkRepo, userRepo, versionRepo, retention, notifier, cacheSvc, validate, logr.Named("paperwork"))
	a.versions = service.NewVersionService(paperworkRepo, versionRepo, blobs, retention, notifier, cacheSvc, signer, metrics, logr.Named("versions"), service.VersionServiceConfig{
		Layout:      layout,
		MaxFileSize: cfg.Upload.MaxFileSizeBytes,
		APIPrefix:   cfg.APIPrefix,
	})
	a.reviews = service.NewReviewService(paperworkRepo, reviewRepo, versionRepo, notifier, cacheSvc, validate, metrics, logr.Named("reviews"), service.ReviewConfig{
		Strict: cfg.Review.StrictTransitions,
	})
	a.files = service.NewFileService(signer, versionRepo, blobs)
	a.archives = service.NewArchiveInspector(paperworkRepo, versionRepo, blobs, logr.Named("archives"), 0)
	a.reports = service.NewReportService(reportRepo, cacheSvc, export.NewCSVExporter(), export.NewPDFExporter(), logr.Named("reports"), cfg.Reports.CacheTTL)
	return a
}

func (a *app) close() {
	if a.mailQueue != nil {
		a.mailQueue.Stop()
	}
}
