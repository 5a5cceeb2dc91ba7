package main

import (
	"context"
	"log"
	"time"

	"holding-rag/internal/models"
	"holding-rag/internal/repository"
	"holding-rag/pkg/auth"
	"holding-rag/pkg/config"
	"holding-rag/pkg/logger"
	"holding-rag/pkg/postgres"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type seedUser struct {
	username string
	password string
	role     models.Role
	tenant   string
}

// The holding's manager plus one manager per company. Passwords are initial
// credentials meant to be rotated after first login.
var seedUsers = []seedUser{
	{username: "modir", password: "modir", role: models.RoleHoldingManager},
	{username: "sina", password: "sina", role: models.RoleCompanyManager, tenant: "sina"},
	{username: "irantire", password: "irantire", role: models.RoleCompanyManager, tenant: "irantire"},
	{username: "behran", password: "behran", role: models.RoleCompanyManager, tenant: "behran"},
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	// Connect to database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	userRepo := repository.NewUserRepository(db, appLogger)

	appLogger.Info("Seeding users...")

	for _, su := range seedUsers {
		if existing, _ := userRepo.GetByUsername(ctx, su.username); existing != nil {
			appLogger.Info("User already exists, skipping", zap.String("username", su.username))
			continue
		}

		hashed, err := auth.HashPassword(su.password)
		if err != nil {
			appLogger.Fatal("Failed to hash password", zap.String("username", su.username), zap.Error(err))
		}

		now := time.Now()
		user := &models.User{
			ID:        uuid.New(),
			Username:  su.username,
			Password:  hashed,
			Role:      su.role,
			Tenant:    su.tenant,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := userRepo.Create(ctx, user); err != nil {
			appLogger.Fatal("Failed to create user", zap.String("username", su.username), zap.Error(err))
		}

		appLogger.Info("User created",
			zap.String("username", su.username),
			zap.String("role", string(su.role)),
		)
	}

	appLogger.Info("Seeding completed")
}
