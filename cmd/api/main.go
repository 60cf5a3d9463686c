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

	"alfredoptarigan/essay-marker/internal/config"
	"alfredoptarigan/essay-marker/internal/handlers"
	"alfredoptarigan/essay-marker/internal/marking"
	"alfredoptarigan/essay-marker/internal/repositories"
	"alfredoptarigan/essay-marker/internal/services"
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
	essayRepo := repositories.NewEssayRepository(db)
	feedbackRepo := repositories.NewFeedbackRepository(db)
	profileRepo := repositories.NewProfileRepository(db)
	log.Println("✅ Repositories initialized successfully")

	// Initialize services
	storageService := services.NewStorageService(cfg.Storage.UploadPath)
	if err := storageService.EnsureUploadDir(); err != nil {
		log.Fatalf("❌ Failed to create upload directory: %v", err)
	}

	pdfParser := services.NewPDFParserService()
	log.Println("✅ Services initialized successfully")

	// Completion gateway
	gateway, err := newGateway(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize %s gateway: %v", cfg.LLM.Provider, err)
	}
	log.Printf("✅ %s gateway initialized", cfg.LLM.Provider)

	marker := marking.NewMarker(
		gateway,
		marking.WithTimeout(cfg.LLM.Timeout),
		marking.WithMarkingOptions(marking.CompletionOptions{
			Temperature:     cfg.LLM.MarkingTemperature,
			MaxOutputTokens: cfg.LLM.MarkingMaxTokens,
			JSONMode:        true,
		}),
		marking.WithRewriteOptions(marking.CompletionOptions{
			Temperature:     cfg.LLM.RewriteTemperature,
			MaxOutputTokens: cfg.LLM.RewriteMaxTokens,
			JSONMode:        true,
			SchemaName:      marking.DefaultRewriteOptions.SchemaName,
			Schema:          marking.DefaultRewriteOptions.Schema,
		}),
	)

	// Examiner guidance is optional
	guidance := newGuidanceRetriever(cfg)

	essayService := services.NewEssayService(
		essayRepo,
		feedbackRepo,
		profileRepo,
		marker,
		guidance,
		services.EssayServiceConfig{
			FreeEssayLimit:    cfg.Usage.FreeEssayLimit,
			RetryMaxAttempts:  cfg.Worker.RetryMaxAttempts,
			RetryInitialDelay: cfg.Worker.RetryInitialDelay,
		},
	)
	log.Println("✅ Essay service initialized")

	// Initialize worker
	worker := services.NewWorker(
		essayRepo,
		essayService.Process,
		cfg.Worker.Concurrency,
		cfg.Worker.PollInterval,
	)

	ctx := context.Background()
	worker.Start(ctx)
	log.Println("✅ Worker started successfully")

	// Initialize handlers
	essayHandler := handlers.NewEssayHandler(essayService, worker)
	resultHandler := handlers.NewResultHandler(essayService)
	usageHandler := handlers.NewUsageHandler(essayService)
	rewriteHandler := handlers.NewRewriteHandler(marker)
	uploadHandler := handlers.NewUploadHandler(
		storageService,
		pdfParser,
		cfg.Storage.MaxFileSize,
	)
	log.Println("✅ Handlers initialized")

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Economics Essay Marker API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.LLM.Timeout + 30*time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize),
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
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + handlers.HeaderUserID,
	}))

	// Routes
	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "healthy",
			"provider": cfg.LLM.Provider,
			"guidance": guidance != nil,
			"time":     time.Now(),
		})
	})

	authed := api.Group("", handlers.RequireUser(cfg.Auth.JWTSecret))
	authed.Post("/essays/mark", essayHandler.HandleMark)
	authed.Post("/essays/upload", uploadHandler.HandleUpload)
	authed.Post("/essays", essayHandler.HandleSubmit)
	authed.Get("/essays", resultHandler.HandleListEssays)
	authed.Get("/essays/:id", resultHandler.HandleGetEssay)
	authed.Post("/sentences/rewrite", rewriteHandler.HandleRewrite)
	authed.Get("/usage", usageHandler.HandleUsage)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Economics Essay Marker API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/essays/mark",
				"POST /api/v1/essays/upload",
				"POST /api/v1/essays",
				"GET /api/v1/essays",
				"GET /api/v1/essays/:id",
				"POST /api/v1/sentences/rewrite",
				"GET /api/v1/usage",
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

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("🚀 Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

func newGateway(cfg *config.Config) (marking.Gateway, error) {
	switch cfg.LLM.Provider {
	case config.ProviderOpenAI:
		return services.NewOpenAIGateway(services.OpenAIOptions{
			APIKey:         cfg.OpenAI.APIKey,
			Model:          cfg.OpenAI.Model,
			BaseURL:        cfg.OpenAI.BaseURL,
			RequestTimeout: cfg.LLM.Timeout,
		})
	case config.ProviderGemini:
		return services.NewGeminiService(cfg.Gemini.APIKey, cfg.Gemini.Model)
	}
	return nil, &marking.ConfigurationError{
		Setting: "LLM_PROVIDER",
		Reason:  fmt.Sprintf("must be %q or %q, got %q", config.ProviderOpenAI, config.ProviderGemini, cfg.LLM.Provider),
	}
}

// newGuidanceRetriever returns nil when guidance is disabled or cannot be set
// up; marking then runs without it.
func newGuidanceRetriever(cfg *config.Config) services.GuidanceRetriever {
	if !cfg.Guidance.Enabled {
		return nil
	}

	embedder, err := services.NewGeminiService(cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		log.Printf("⚠️  Examiner guidance disabled: %v", err)
		return nil
	}

	store, err := services.NewQdrantStore(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection)
	if err != nil {
		log.Printf("⚠️  Examiner guidance disabled: %v", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.InitCollection(ctx); err != nil {
		log.Printf("⚠️  Examiner guidance disabled: %v", err)
		return nil
	}

	log.Println("✅ Examiner guidance enabled")
	return services.NewGuidanceRetriever(embedder, store, cfg.Guidance.Limit, float32(cfg.Guidance.MinScore))
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
		"code":    code,
	})
}
