package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"holding-rag/internal/api"
	"holding-rag/internal/api/handlers"
	"holding-rag/internal/repository"
	"holding-rag/internal/service"
	"holding-rag/pkg/auth"
	"holding-rag/pkg/config"
	"holding-rag/pkg/logger"
	"holding-rag/pkg/postgres"

	"go.uber.org/zap"
)

// @title Holding RAG API
// @version 1.0
// @description RAG backend answering company questions from per-tenant document collections

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting holding-rag service")

	// Initialize database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db, appLogger)
	indexRepo := repository.NewIndexRepository(appLogger)

	tenantRegistry, err := repository.NewTenantRegistry(cfg.Retrieval.TenantsFile, cfg.Retrieval.IndexDir, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize tenant registry", zap.Error(err))
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtManager, appLogger)

	embeddingService, err := service.NewEmbeddingService(&cfg.Embedding, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize embedding service", zap.Error(err))
	}

	llmService, err := service.NewLLMService(&cfg.GigaChat, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize LLM service", zap.Error(err))
	}
	defer llmService.Close()

	retrievalService := service.NewRetrievalService(tenantRegistry, embeddingService, indexRepo, &cfg.Retrieval, appLogger)
	queryService := service.NewQueryService(retrievalService, llmService, appLogger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, appLogger)
	queryHandler := handlers.NewQueryHandler(queryService, appLogger)

	// Setup router
	app := api.SetupRouter(authHandler, queryHandler, jwtManager, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
