package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/telaila/companion/pkg/validator"

	"github.com/telaila/companion/internal/adapter/handler"
	"github.com/telaila/companion/internal/adapter/repository"
	"github.com/telaila/companion/internal/domain/repositories"
	"github.com/telaila/companion/internal/infrastructure/cache"
	"github.com/telaila/companion/internal/infrastructure/database"
	"github.com/telaila/companion/internal/infrastructure/storage"
	"github.com/telaila/companion/internal/usecase/biography"
	"github.com/telaila/companion/internal/usecase/conversation"
	"github.com/telaila/companion/internal/usecase/dashboard"
	"github.com/telaila/companion/internal/usecase/insights"
	"github.com/telaila/companion/internal/usecase/tester"
	pkgai "github.com/telaila/companion/pkg/ai"
	"github.com/telaila/companion/pkg/config"
)

// @title           TelAila Companion API
// @version         1.0
// @description     Family dashboard, biography and conversation ingestion for the TelAila voice companion
// @BasePath        /

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.Server.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	e.Use(middleware.RequestID())

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${id} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	// Initialize dependencies
	log.Println("🔧 Initializing dependencies...")

	// Tester registry: Postgres when enabled, otherwise the JSON registry file
	var testers repositories.TesterRepository
	if cfg.Database.Enabled {
		log.Println("📦 Connecting to database...")
		db, err := database.NewPostgresDB(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.CloseDB(db)

		// Run AutoMigrate only when explicitly enabled in config.
		// Production deployments should manage schema via sql-migrate.
		if cfg.Database.AutoMigrate {
			if cfg.Server.Environment == "production" {
				log.Fatalf("AutoMigrate is enabled in production. Disable DB_AUTO_MIGRATE or manage schema with sql-migrate.")
			}
			log.Println("🔄 Running GORM AutoMigrate (development only) ...")
			if err := database.AutoMigrate(db); err != nil {
				log.Fatalf("Failed to run AutoMigrate: %v", err)
			}
		} else {
			log.Println("🔄 Skipping GORM AutoMigrate; use cmd/migrate for schema migrations")
		}
		testers = repository.NewTesterRepository(db)
	} else {
		log.Printf("📒 Using tester registry file %s", cfg.Archive.RegistryFile)
		testers = repository.NewRegistryRepository(cfg.Archive.RegistryFile)
	}

	archive := repository.NewFileArchive(cfg.Archive.DataDir, logger)

	// Webhook deduplication
	var claims conversation.ClaimStore
	if cfg.Redis.Enabled {
		log.Println("📦 Connecting to Redis...")
		redisClient, err := cache.NewRedisClient(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		claims = cache.NewRedisStore(redisClient, "telaila:webhook:")
	} else {
		log.Println("⚠️  Redis disabled, deduplicating webhooks in memory")
		memoryStore := cache.NewMemoryStore()
		defer memoryStore.Close()
		claims = memoryStore
	}

	// Object storage mirror
	var objects conversation.ObjectStore
	var exports biography.ExportStore
	if cfg.Storage.Enabled {
		log.Println("☁️  Connecting to object storage...")
		minioClient, err := storage.NewMinIOClient(&cfg.Storage)
		if err != nil {
			log.Printf("⚠️  Object storage unavailable, continuing without mirror: %v", err)
		} else {
			objects = minioClient
			exports = minioClient
			log.Printf("✅ Object storage bucket: %s", cfg.Storage.BucketName)
		}
	}

	// Conversation analysis
	log.Println("🤖 Initializing AI components...")
	var analyzer conversation.Analyzer
	if cfg.OpenAI.APIKey != "" {
		analyzer = pkgai.NewOpenAIClient(&cfg.OpenAI, cfg.Webhook.AgentName, logger)
	} else {
		log.Println("⚠️  OPENAI_API_KEY not set, conversations get the fallback analysis")
	}

	// Health and quote vocabulary
	keywords, err := insights.LoadKeywords(cfg.Archive.KeywordsFile)
	if err != nil {
		log.Fatalf("Failed to load keywords: %v", err)
	}
	keywords = keywords.WithAgentSpeaker(cfg.Webhook.AgentName)
	policy := insights.DefaultPolicy()
	policy.ContextBefore = cfg.Dashboard.ContextBefore
	policy.ContextAfter = cfg.Dashboard.ContextAfter
	policy.DescriptionMaxLength = cfg.Dashboard.DescriptionMaxLength
	policy.SymptomModerateMentions = cfg.Dashboard.SymptomModerateMentions
	pipeline, err := insights.NewPipeline(keywords, policy)
	if err != nil {
		log.Fatalf("Failed to compile keywords: %v", err)
	}

	// Initialize services
	log.Println("✨ Initializing services...")
	testerService := tester.NewService(testers, archive, logger)
	conversationService := conversation.NewService(testers, archive, analyzer, claims, objects, cfg, logger)
	dashboardService := dashboard.NewService(testers, archive, pipeline, cfg, logger)
	biographyService := biography.NewService(testers, archive, pipeline, exports, cfg, logger)

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	router := handler.NewRouter(
		cfg,
		handler.NewTesterHandler(testerService, logger),
		handler.NewDashboardHandler(dashboardService, logger),
		handler.NewBiographyHandler(biographyService, logger),
		handler.NewWebhookHandler(conversationService, logger),
	)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}

func newLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
