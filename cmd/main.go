package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"exam-chatbot-backend/internal/ai"
	"exam-chatbot-backend/internal/config"
	"exam-chatbot-backend/internal/kb"
	"exam-chatbot-backend/internal/logger"
	"exam-chatbot-backend/internal/scheduler"
	"exam-chatbot-backend/internal/telemetry"
	"exam-chatbot-backend/middleware"
	"exam-chatbot-backend/routes"
	"exam-chatbot-backend/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	if cfg.OTLPEndpoint != "" {
		shutdown, err := telemetry.InitTracer("exam-chatbot-backend", cfg.OTLPEndpoint)
		if err != nil {
			logger.Warn("tracing disabled", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Load the knowledge base produced by the last ingestion run. Starting
	// without one is allowed; /chat degrades to ungrounded answers.
	store := kb.NewStore(cfg.KnowledgePath)
	if err := store.Load(); err != nil {
		log.Fatal("Failed to load knowledge base:", err)
	}
	if store.Count() == 0 {
		logger.Warn("knowledge base is empty, run ingestion to enable grounding",
			"path", cfg.KnowledgePath)
	} else {
		logger.Info("knowledge base loaded", "chunks", store.Count())
	}

	extractor := services.NewPDFExtractor()
	ingestor := services.NewIngestor(cfg, extractor, store)
	retriever := services.NewRetriever(store, cfg.RetrieveLimit)

	ctx := context.Background()
	generator, err := ai.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Fatal("Failed to initialize Gemini client (is GEMINI_API_KEY set?):", err)
	}
	defer generator.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()

	queueClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer queueClient.Close()

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.EnrichTrace())
	router.Use(middleware.RateLimitMiddleware(rdb, cfg))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Requested-With", "X-Request-ID"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	routes.SetupChatRoutes(router, routes.Deps{
		Config:    cfg,
		Store:     store,
		Retriever: retriever,
		Ingestor:  ingestor,
		Generator: generator,
		Queue:     queueClient,
	})

	// Periodic re-ingestion, if configured
	var jobs *scheduler.Scheduler
	if cfg.ReingestIntervalMinutes > 0 {
		jobs = scheduler.NewScheduler()
		interval := time.Duration(cfg.ReingestIntervalMinutes) * time.Minute
		err := jobs.ScheduleInterval("reingest", interval, func() error {
			runCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			_, err := ingestor.Run(runCtx)
			return err
		})
		if err != nil {
			log.Fatal("Failed to schedule re-ingestion:", err)
		}
		jobs.Start()
		defer jobs.Stop()
		logger.Info("scheduled periodic re-ingestion", "interval", interval.String())
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("server exited")
}
