package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/Noel-Teens/pms-server/internal/handler"
	"github.com/Noel-Teens/pms-server/internal/middleware"
	"github.com/Noel-Teens/pms-server/internal/models"
	"github.com/Noel-Teens/pms-server/pkg/config"
	"github.com/Noel-Teens/pms-server/pkg/logger"
	corsmiddleware "github.com/Noel-Teens/pms-server/pkg/middleware/cors"
	reqidmiddleware "github.com/Noel-Teens/pms-server/pkg/middleware/requestid"
)

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) PingContext(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func newRouter(cfg *config.Config, a *app, logr *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(a.metrics))

	deps := map[string]handler.Pinger{"postgres": a.db}
	if a.redis != nil {
		deps["redis"] = redisPinger{client: a.redis}
	}
	metricsHandler := handler.NewMetricsHandler(a.metrics, deps)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(a.auth)
	userHandler := handler.NewUserHandler(a.users)
	paperworkHandler := handler.NewPaperworkHandler(a.paperwork)
	versionHandler := handler.NewVersionHandler(a.versions)
	reviewHandler := handler.NewReviewHandler(a.reviews)
	archiveHandler := handler.NewArchiveHandler(a.archives)
	fileHandler := handler.NewFileHandler(a.files)
	reportHandler := handler.NewReportHandler(a.reports)
	notificationHandler := handler.NewNotificationHandler(a.notifier)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/files/:token", fileHandler.Serve)

	secured := api.Group("")
	secured.Use(middleware.JWT(a.auth))
	secured.GET("/auth/me", authHandler.Me)

	active := secured.Group("")
	active.Use(middleware.RequireActive())

	admin := active.Group("/admin")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.POST("/users", middleware.Audit(logr, "USER_CREATE"), userHandler.Create)
	admin.GET("/users", userHandler.List)
	admin.GET("/users/:id", userHandler.Get)
	admin.PATCH("/users/:username/status", middleware.Audit(logr, "USER_STATUS_CHANGE"), userHandler.UpdateStatus)
	admin.POST("/paperworks", middleware.Audit(logr, "PAPERWORK_ASSIGN"), paperworkHandler.Assign)
	admin.PATCH("/paperworks/:id/deadline", middleware.Audit(logr, "PAPERWORK_DEADLINE"), paperworkHandler.UpdateDeadline)

	paperworks := active.Group("/paperworks")
	paperworks.GET("", paperworkHandler.List)
	paperworks.GET("/:id", paperworkHandler.Get)
	paperworks.DELETE("/:id", middleware.Audit(logr, "PAPERWORK_DELETE"), paperworkHandler.Delete)
	paperworks.GET("/:id/versions", versionHandler.List)
	paperworks.POST("/:id/versions", middleware.Audit(logr, "VERSION_SUBMIT"), versionHandler.Submit)
	paperworks.GET("/:id/versions/:ver", versionHandler.Get)
	paperworks.POST("/:id/review", middleware.Audit(logr, "PAPERWORK_REVIEW"), reviewHandler.Review)
	paperworks.GET("/:id/reviews", reviewHandler.List)

	viewer := api.Group("/paperworks/:id/versions/:ver")
	viewer.Use(middleware.QueryTokenJWT(a.auth), middleware.RequireActive())
	viewer.GET("/:fileType/view", versionHandler.ViewFile)
	viewer.GET("/zip-contents", archiveHandler.Contents)
	viewer.GET("/zip-file/*path", archiveHandler.Entry)

	reports := active.Group("/reports")
	reports.Use(middleware.RequireRoles(models.RoleAdmin))
	reports.GET("/summary", reportHandler.Summary)
	reports.GET("/export.csv", reportHandler.ExportCSV)
	reports.GET("/export.pdf", reportHandler.ExportPDF)

	active.GET("/notifications", notificationHandler.List)
	active.GET("/stats/researcher", middleware.RequireRoles(models.RoleResearcher), reportHandler.ResearcherStats)
	active.GET("/stats/admin", middleware.RequireRoles(models.RoleAdmin), reportHandler.AdminStats)

	return r
}
