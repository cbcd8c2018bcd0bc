package routes

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"exam-chatbot-backend/internal/config"
	"exam-chatbot-backend/internal/kb"
	"exam-chatbot-backend/internal/logger"
	"exam-chatbot-backend/internal/queue"
	"exam-chatbot-backend/models"
	"exam-chatbot-backend/services"
	"exam-chatbot-backend/utils"
)

// AnswerGenerator produces an answer for a question given grounding context.
// Implemented by ai.GeminiClient.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question, contextText string) (string, error)
}

// Deps carries the services the chat routes operate on.
type Deps struct {
	Config    *config.Config
	Store     *kb.Store
	Retriever *services.Retriever
	Ingestor  *services.Ingestor
	Generator AnswerGenerator
	Queue     *asynq.Client // optional; nil disables async rebuilds
}

const previewLen = 200

// SetupChatRoutes registers the public API surface.
func SetupChatRoutes(router *gin.Engine, deps Deps) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Exam Chatbot RAG API",
			"version": "1.0.0",
			"endpoints": gin.H{
				"health":        "/health",
				"chat":          "/chat (POST)",
				"chat_stream":   "/chat/stream (POST)",
				"search":        "/search (POST)",
				"rebuild_index": "/rebuild-index (POST)",
			},
		})
	})

	router.GET("/health", func(c *gin.Context) {
		initialized := deps.Store.Count() > 0
		status := "healthy"
		if !initialized {
			status = "degraded"
		}
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:         status,
			RAGInitialized: initialized,
			NumChunks:      deps.Store.Count(),
			PDFDirectory:   deps.Config.PDFDirectory,
			KnowledgePath:  deps.Config.KnowledgePath,
		})
	})

	router.POST("/chat", chatHandler(deps))
	router.POST("/chat/stream", chatStreamHandler(deps))
	router.POST("/search", searchHandler(deps))
	router.POST("/rebuild-index", rebuildHandler(deps))
}

// answerRequest runs the retrieve-then-generate pipeline shared by the chat
// endpoints. Retrieval never fails; an empty context means the model answers
// without grounding.
func answerRequest(c *gin.Context, deps Deps, req models.ChatRequest) (*models.ChatResponse, []models.Chunk, bool) {
	start := time.Now()

	if strings.TrimSpace(req.Message) == "" {
		utils.RespondWithBadRequest(c, "Message cannot be empty", nil)
		return nil, nil, false
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	matched := deps.Retriever.Retrieve(req.Message)
	contextText := services.BuildContext(matched)

	answer, err := deps.Generator.GenerateAnswer(c.Request.Context(), req.Message, contextText)
	if err != nil {
		logger.Error("answer generation failed",
			"error", err, "conversation_id", conversationID)
		utils.RespondWithBadGateway(c, "Failed to generate response", gin.H{"error": err.Error()})
		return nil, nil, false
	}

	resp := &models.ChatResponse{
		Response:       answer,
		ConversationID: conversationID,
		Timestamp:      time.Now(),
		LatencyMs:      time.Since(start).Milliseconds(),
	}
	if req.IncludeSources {
		resp.Sources = toSources(matched)
		n := len(matched)
		resp.NumSources = &n
	}
	return resp, matched, true
}

func chatHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		resp, matched, ok := answerRequest(c, deps, req)
		if !ok {
			return
		}

		logger.Info("chat response generated",
			"conversation_id", resp.ConversationID,
			"num_sources", len(matched),
			"latency_ms", resp.LatencyMs)
		c.JSON(http.StatusOK, resp)
	}
}

// chatStreamHandler runs the same pipeline but relays the fully generated
// answer as Server-Sent Events, chunked into small deltas. Streaming is
// simulated: generation completes before the first event is written.
func chatStreamHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		resp, _, ok := answerRequest(c, deps, req)
		if !ok {
			return
		}

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")

		for _, delta := range splitDeltas(resp.Response, 24) {
			select {
			case <-c.Request.Context().Done():
				return
			default:
			}
			c.SSEvent("message", gin.H{"delta": delta})
			c.Writer.Flush()
			time.Sleep(15 * time.Millisecond)
		}

		done := gin.H{"conversation_id": resp.ConversationID, "latency_ms": resp.LatencyMs}
		if resp.NumSources != nil {
			done["sources"] = resp.Sources
			done["num_sources"] = *resp.NumSources
		}
		c.SSEvent("done", done)
		c.Writer.Flush()
	}
}

func searchHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		k := req.K
		if k == 0 {
			k = deps.Config.SearchLimit
		}
		if k < 1 || k > 20 {
			utils.RespondWithBadRequest(c, "k must be between 1 and 20", gin.H{"k": req.K})
			return
		}

		matched := deps.Retriever.RetrieveK(req.Query, k)
		results := make([]models.SearchResult, len(matched))
		for i, chunk := range matched {
			results[i] = models.SearchResult{
				ID:      chunk.ID,
				Source:  chunk.Source,
				Content: chunk.Content,
			}
		}

		c.JSON(http.StatusOK, models.SearchResponse{
			Results:    results,
			Query:      req.Query,
			NumResults: len(results),
		})
	}
}

func rebuildHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RebuildRequest
		// Body is optional; default is a synchronous rebuild.
		_ = c.ShouldBindJSON(&req)

		if req.Async {
			if deps.Queue == nil {
				utils.RespondWithUnavailable(c, "Async rebuild is not available, retry without async")
				return
			}
			task, err := queue.NewRebuildTask()
			if err != nil {
				utils.RespondWithInternalError(c, "Failed to create rebuild task", nil)
				return
			}
			info, err := deps.Queue.EnqueueContext(c.Request.Context(), task)
			if err != nil {
				utils.RespondWithInternalError(c, "Failed to enqueue rebuild task", gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusAccepted, gin.H{
				"status":  "queued",
				"task_id": info.ID,
			})
			return
		}

		report, err := deps.Ingestor.Run(c.Request.Context())
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to rebuild knowledge base", gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"message": "Knowledge base rebuilt successfully",
			"report":  report,
		})
	}
}

func toSources(chunks []models.Chunk) []models.Source {
	sources := make([]models.Source, len(chunks))
	for i, chunk := range chunks {
		preview := chunk.Content
		if len([]rune(preview)) > previewLen {
			preview = string([]rune(preview)[:previewLen]) + "..."
		}
		sources[i] = models.Source{
			File:           chunk.Source,
			ChunkID:        chunk.ID,
			ContentPreview: preview,
		}
	}
	return sources
}

// splitDeltas cuts text into rune-bounded pieces for SSE relay.
func splitDeltas(text string, size int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	var deltas []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		deltas = append(deltas, string(runes[start:end]))
	}
	return deltas
}
