package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/api"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/config"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/content"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/db"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/index"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/ledger"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/services"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/pkg/logger"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/pkg/metrics"
	"go.uber.org/zap"
)

func main() {
	var cfg *config.Configuration
	var err error
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		cfg, err = config.LoadConfig(path)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	zapLogger, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	zap.ReplaceGlobals(zapLogger)

	config.LogConfig(cfg, zapLogger)

	database, err := db.Initialize(cfg)
	if err != nil {
		zapLogger.Fatal("Failed to initialize database", zap.Error(err))
	}

	metricsCollector := metrics.NewMetricsCollector()

	store, err := newContentStore(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize content store", zap.Error(err))
	}

	gateway := ledger.NewClient(
		cfg.Ledger.GatewayURL,
		cfg.Ledger.Network,
		cfg.Ledger.AdminIdentity,
		cfg.Ledger.RequestTimeout,
		zapLogger,
	)

	documentIndex := index.New(database, zapLogger)
	tokenService := services.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, zapLogger)
	userService := services.NewUserService(documentIndex, gateway, tokenService, zapLogger, metricsCollector, cfg.Auth.BcryptCost)
	reportService := services.NewReportService(documentIndex, gateway, store, zapLogger, metricsCollector)

	router := api.NewRouter(zapLogger, metricsCollector, userService, reportService, documentIndex)
	router.SetupRoutes()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Server.Port
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()
	zapLogger.Info("Server started", zap.String("port", port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		zapLogger.Error("Forced shutdown", zap.Error(err))
	}

	if sqlDB, err := database.DB(); err == nil {
		sqlDB.Close()
	}
	zapLogger.Info("Server gracefully stopped")
}

func newContentStore(cfg *config.Configuration, zapLogger *zap.Logger) (content.Store, error) {
	if cfg.Content.Mode == "http" {
		return content.NewHTTPStore(cfg.Content.URL, cfg.Ledger.RequestTimeout, zapLogger), nil
	}
	return content.NewFileStore(cfg.Content.Directory, zapLogger)
}
