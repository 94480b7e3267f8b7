package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"servimarket_backend/database"
	"servimarket_backend/internal/config"
	"servimarket_backend/internal/email"
	"servimarket_backend/internal/handlers"
	"servimarket_backend/internal/logger"
	"servimarket_backend/internal/middleware"
	"servimarket_backend/internal/models"
	"servimarket_backend/internal/repositories"
	"servimarket_backend/internal/routes"
	"servimarket_backend/internal/services"
	"servimarket_backend/internal/sms"
	"servimarket_backend/internal/storage"
	"servimarket_backend/internal/validator"
	"servimarket_backend/internal/workers"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to GORM", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := database.Migrate(gormDB); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	if err := seedFirstAdmin(gormDB, cfg); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Fatal("Redis unavailable", "error", err)
	}
	logger.Info("Redis connected", "addr", cfg.Redis.Addr)

	ginRouter := SetupRouter(cfg, gormDB, redisClient)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startWorkers(ctx, cfg, gormDB)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info(fmt.Sprintf("Server starting on %s", address))
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

func SetupRouter(cfg *config.Config, gormDB *gorm.DB, redisClient *redis.Client) *gin.Engine {
	storageInstance, err := storage.NewStorage(storage.Config{
		Type:       cfg.Storage.Type,
		BasePath:   cfg.Storage.BasePath,
		BaseURL:    cfg.Storage.BaseURL,
		Bucket:     cfg.Storage.Bucket,
		AccessKey:  cfg.Storage.AccessKey,
		SecretKey:  cfg.Storage.SecretKey,
		Endpoint:   cfg.Storage.Endpoint,
		PublicRead: cfg.Storage.PublicRead,
	})
	if err != nil {
		logger.Fatal("Failed to initialize storage", "error", err)
	}
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	emailProvider := newEmailProvider(cfg)
	smsProvider := sms.NewLogProvider()
	codeRepo := repositories.NewCodeRepository(redisClient)

	serviceContainer := services.NewServiceContainer(cfg, codeRepo, storageInstance, smsProvider, emailProvider)

	appHandlers := initializeHandlers(serviceContainer, storageInstance)

	ginRouter := initializeGinRouter(gormDB)
	routes.RegisterRoutes(ginRouter, appHandlers, repositories.NewUserRepository())

	return ginRouter
}

func newEmailProvider(cfg *config.Config) email.Provider {
	renderer, err := email.NewTemplateManager()
	if err != nil {
		logger.Fatal("Failed to load email templates", "error", err)
	}
	return email.NewSMTPProvider(&email.SMTPConfig{
		Host:      cfg.Email.SMTPHost,
		Port:      cfg.Email.SMTPPort,
		Username:  cfg.Email.SMTPUsername,
		Password:  cfg.Email.SMTPPassword,
		FromEmail: cfg.Email.FromEmail,
		FromName:  cfg.Email.FromName,
		UseTLS:    cfg.Email.UseTLS,
	}, renderer)
}

func initializeHandlers(sc *services.ServiceContainer, storageInstance storage.Storage) *handlers.AppHandlers {
	customValidator := validator.New()
	userRepo := repositories.NewUserRepository()

	return &handlers.AppHandlers{
		AuthHandler:         handlers.NewAuthHandler(customValidator, sc.Auth),
		VerificationHandler: handlers.NewVerificationHandler(customValidator, sc.Verification),
		DocumentHandler:     handlers.NewDocumentHandler(customValidator, sc.Documents),
		AdminHandler:        handlers.NewAdminHandler(customValidator, sc.AdminReview),
		FileHandler:         handlers.NewFileHandler(customValidator, storageInstance, sc.Documents, userRepo),
	}
}

func initializeGinRouter(db *gorm.DB) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DBMiddleware(db))
	return router
}

func startWorkers(ctx context.Context, cfg *config.Config, gormDB *gorm.DB) {
	outboxWorker := workers.NewOutboxWorker(
		gormDB,
		repositories.NewOutboxRepository(),
		repositories.NewUserRepository(),
		newEmailProvider(cfg),
		time.Duration(cfg.Verification.OutboxPollSeconds)*time.Second,
	)
	outboxWorker.Start(ctx)
	logger.Info("Outbox worker started", "poll_seconds", cfg.Verification.OutboxPollSeconds)
}

// seedFirstAdmin creates the bootstrap administrator when the configured
// email does not exist yet. Admins are regular accounts with the flag set;
// they are created active and verified.
func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	adminEmail := cfg.FirstAdminEmail
	adminPassword := cfg.FirstAdminPassword

	if adminEmail == "" || adminPassword == "" {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set. Skipping admin seeding.")
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var adminUser models.User
		result := tx.Where("email = ?", adminEmail).First(&adminUser)

		if result.Error == nil {
			logger.Info("Admin user already exists. Skipping creation.", "email", adminEmail)
			return nil
		}
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check for admin user: %w", result.Error)
		}

		logger.Warn("No admin user found with specified email. Creating first admin...", "email", adminEmail)

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}

		newAdmin := &models.User{
			Name:               "Administrator",
			Email:              adminEmail,
			PasswordHash:       string(hashedPassword),
			Role:               models.UserRoleClient,
			IsActive:           true,
			IsAdmin:            true,
			VerificationStatus: models.VerificationStatusVerified,
			VerificationStep:   models.StepCompleted,
		}
		if err := tx.Create(newAdmin).Error; err != nil {
			return fmt.Errorf("failed to create admin user in database: %w", err)
		}
		return nil
	})
}
