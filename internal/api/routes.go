package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/api/handlers"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/api/middleware"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/index"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/services"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/pkg/metrics"
	"go.uber.org/zap"
)

type Router struct {
	engine         *gin.Engine
	logger         *zap.Logger
	metrics        *metrics.MetricsCollector
	authHandler    *handlers.AuthHandler
	userHandler    *handlers.UserHandler
	reportHandler  *handlers.ReportHandler
	versionHandler *handlers.VersionHandler
	authMiddleware *middleware.AuthMiddleware
	reqMiddleware  *middleware.RequestMiddleware
}

func NewRouter(
	logger *zap.Logger,
	collector *metrics.MetricsCollector,
	users *services.UserService,
	reports *services.ReportService,
	ix *index.Index,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	reqMiddleware := middleware.NewRequestMiddleware(logger)
	engine.Use(reqMiddleware.ProcessRequest())
	engine.Use(reqMiddleware.RecoverPanic())

	return &Router{
		engine:         engine,
		logger:         logger,
		metrics:        collector,
		authHandler:    handlers.NewAuthHandler(users, logger),
		userHandler:    handlers.NewUserHandler(ix, logger),
		reportHandler:  handlers.NewReportHandler(reports, ix, logger),
		versionHandler: handlers.NewVersionHandler(reports, ix, logger),
		authMiddleware: middleware.NewAuthMiddleware(users),
		reqMiddleware:  reqMiddleware,
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "up", "name": "document-management"})
	})

	r.engine.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"counters":  r.metrics.GetCounters(),
			"latencies": r.metrics.GetLatencies(),
			"sizes":     r.metrics.GetSizes(),
		})
	})

	r.engine.POST("/api/auth/login", r.authHandler.Login)
	r.engine.POST("/api/auth/signup", r.authHandler.SignUp)

	authorized := r.engine.Group("/api")
	authorized.Use(r.authMiddleware.RequireAuth())
	{
		authorized.GET("/me", r.userHandler.Me)
		authorized.GET("/users", r.userHandler.SearchUsers)
		authorized.GET("/users/:id", r.userHandler.GetUser)
		authorized.GET("/users/:id/reports", r.reportHandler.ListUserReports)

		authorized.POST("/reports", r.reportHandler.CreateReport)
		authorized.GET("/reports", r.reportHandler.ListReports)
		authorized.GET("/reports/mine", r.reportHandler.ListMyReports)
		authorized.GET("/reports/:id", r.reportHandler.GetReport)
		authorized.PUT("/reports/:id", r.reportHandler.UpdateReport)
		authorized.GET("/reports/:id/initial", r.reportHandler.GetInitialReport)
		authorized.GET("/reports/:id/versions", r.versionHandler.ListVersions)
		authorized.GET("/reports/:id/versions/:transactionId", r.versionHandler.GetVersion)
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
