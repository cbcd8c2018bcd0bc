package main

import (
	"context"
	"log"

	"github.com/hibiken/asynq"

	"exam-chatbot-backend/internal/config"
	"exam-chatbot-backend/internal/kb"
	"exam-chatbot-backend/internal/logger"
	"exam-chatbot-backend/internal/queue"
	"exam-chatbot-backend/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	store := kb.NewStore(cfg.KnowledgePath)
	if err := store.Load(); err != nil {
		log.Fatal("Failed to load knowledge base:", err)
	}

	extractor := services.NewPDFExtractor()
	ingestor := services.NewIngestor(cfg, extractor, store)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			// Rebuilds replace the knowledge base wholesale; running them
			// concurrently would just waste extraction work.
			Concurrency: 1,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	processor := queue.NewTaskProcessor(ingestor)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskRebuildKB, processor.RebuildKB)

	logger.Info("starting worker", "redis", redisOpt.Addr)
	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
