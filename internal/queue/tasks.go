package queue

import (
	"context"
	"time"

	"github.com/hibiken/asynq"

	"exam-chatbot-backend/internal/logger"
	"exam-chatbot-backend/services"
)

const TaskRebuildKB = "kb:rebuild"

// NewRebuildTask creates a knowledge base rebuild task. The task carries no
// payload: a rebuild always re-ingests the whole configured PDF directory.
func NewRebuildTask() (*asynq.Task, error) {
	return asynq.NewTask(
		TaskRebuildKB,
		nil,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("default"),
	), nil
}

// TaskProcessor handles background tasks.
type TaskProcessor struct {
	ingestor *services.Ingestor
}

func NewTaskProcessor(ingestor *services.Ingestor) *TaskProcessor {
	return &TaskProcessor{ingestor: ingestor}
}

// RebuildKB re-runs ingestion out of band. Retries are safe: the rebuild is
// idempotent and replaces the knowledge base wholesale.
func (p *TaskProcessor) RebuildKB(ctx context.Context, t *asynq.Task) error {
	logger.Info("rebuilding knowledge base", "task", t.Type())

	report, err := p.ingestor.Run(ctx)
	if err != nil {
		logger.Error("knowledge base rebuild failed", "error", err)
		return err
	}

	logger.Info("knowledge base rebuilt",
		"pdfs_processed", report.PDFsProcessed,
		"total_chunks", report.TotalChunks)
	return nil
}
