package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"thesisguard/internal/config"
	"thesisguard/internal/handlers"
	"thesisguard/internal/repositories"
	"thesisguard/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.Println("✅ Config loaded successfully")

	// Initialize database
	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	// Initialize repositories
	subRepo := repositories.NewSubmissionRepository(db)
	accountRepo := repositories.NewAccountRepository(db)
	log.Println("✅ Repositories initialized successfully")

	// Initialize document store
	store, err := newDocumentStore(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize document store: %v", err)
	}
	log.Printf("✅ Document store initialized (%s)\n", cfg.Storage.Backend)

	extractor := services.NewTextExtractor()
	splitter := services.NewPassageSplitter()

	// Initialize detector backends
	backends, err := newDetectorBackends(cfg, splitter)
	if err != nil {
		log.Fatalf("❌ Failed to initialize detector backends: %v", err)
	}
	log.Printf("✅ Detector backends initialized (%s)\n", cfg.Detector.Mode)

	// Initialize worker and pipeline
	worker := services.NewWorker(cfg.Worker.Concurrency)
	pipeline := services.NewReviewPipeline(subRepo, store, worker)
	gateway := services.NewDetectorGateway(store, extractor, pipeline, backends...)

	ctx := context.Background()
	worker.Start(ctx, gateway.Dispatch)
	log.Println("✅ Worker started successfully")

	// Initialize auth
	authService := services.NewAuthService(accountRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	thesisHandler := handlers.NewThesisHandler(pipeline)
	reportHandler := handlers.NewReportHandler(pipeline)
	adminHandler := handlers.NewAdminHandler(pipeline)
	log.Println("✅ Handlers initialized")

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "ThesisGuard API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize) + 1<<20,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Routes
	api := app.Group("/api/v1")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	api.Post("/auth/register", authHandler.HandleRegister)
	api.Post("/auth/login", authHandler.HandleLogin)

	authenticated := api.Use(handlers.NewAuthMiddleware(authService))
	authenticated.Get("/theses", thesisHandler.HandleList)
	authenticated.Post("/theses", thesisHandler.HandleUpload)
	authenticated.Get("/theses/:id/report", reportHandler.HandleGetReport)
	authenticated.Get("/theses/:id/download", thesisHandler.HandleDownload)
	authenticated.Delete("/theses/:id", thesisHandler.HandleDelete)
	authenticated.Post("/theses/:id/decision", adminHandler.HandleDecision)

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "ThesisGuard API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/auth/register",
				"POST /api/v1/auth/login",
				"GET /api/v1/theses",
				"POST /api/v1/theses",
				"GET /api/v1/theses/:id/report",
				"GET /api/v1/theses/:id/download",
				"DELETE /api/v1/theses/:id",
				"POST /api/v1/theses/:id/decision",
			},
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("\n🛑 Shutting down server...")
		worker.Stop()
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("🚀 Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

func newDocumentStore(cfg *config.Config) (services.DocumentStore, error) {
	switch cfg.Storage.Backend {
	case "minio":
		return services.NewMinioDocumentStore(
			cfg.Storage.MinioEndpoint,
			cfg.Storage.MinioAccessKey,
			cfg.Storage.MinioSecretKey,
			cfg.Storage.MinioBucket,
			cfg.Storage.MinioUseSSL,
		)
	case "local":
		return services.NewLocalDocumentStore(cfg.Storage.UploadPath)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func newDetectorBackends(cfg *config.Config, splitter services.PassageSplitter) ([]services.DetectorBackend, error) {
	switch cfg.Detector.Mode {
	case "live":
		geminiService, err := services.NewGeminiService(cfg.Gemini.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gemini: %w", err)
		}

		index, err := services.NewReferenceIndex(
			cfg.Qdrant.URL,
			cfg.Qdrant.APIKey,
			cfg.Qdrant.Collection,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Qdrant: %w", err)
		}
		if err := index.InitCollection(); err != nil {
			return nil, fmt.Errorf("failed to initialize Qdrant collection: %w", err)
		}

		return []services.DetectorBackend{
			services.NewCorpusTraditionalDetector(geminiService, index, splitter, 60),
			services.NewGeminiAIDetector(geminiService, splitter, 3, 50),
		}, nil
	case "simulated":
		return []services.DetectorBackend{
			services.NewSimulatedTraditionalDetector(splitter, 80),
			services.NewSimulatedAIDetector(splitter, 85),
		}, nil
	default:
		return nil, fmt.Errorf("unknown detector mode %q", cfg.Detector.Mode)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
