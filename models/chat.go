package models

import "time"

// ChatRequest is the payload for POST /chat and POST /chat/stream
type ChatRequest struct {
	Message        string `json:"message" binding:"required"`
	IncludeSources bool   `json:"include_sources"`
	ConversationID string `json:"conversation_id"`
}

// Source describes a knowledge base chunk that grounded an answer
type Source struct {
	File           string `json:"file"`
	ChunkID        string `json:"chunk_id"`
	ContentPreview string `json:"content_preview"`
}

// ChatResponse is the reply for POST /chat
type ChatResponse struct {
	Response       string    `json:"response"`
	Sources        []Source  `json:"sources,omitempty"`
	NumSources     *int      `json:"num_sources,omitempty"`
	ConversationID string    `json:"conversation_id"`
	Timestamp      time.Time `json:"timestamp"`
	LatencyMs      int64     `json:"latency_ms"`
}

// SearchRequest is the payload for POST /search
type SearchRequest struct {
	Query string `json:"query" binding:"required"`
	K     int    `json:"k"`
}

// SearchResult is one retrieved chunk in a SearchResponse
type SearchResult struct {
	ID      string `json:"id"`
	Source  string `json:"source,omitempty"`
	Content string `json:"content"`
}

// SearchResponse is the reply for POST /search
type SearchResponse struct {
	Results    []SearchResult `json:"results"`
	Query      string         `json:"query"`
	NumResults int            `json:"num_results"`
}

// RebuildRequest is the payload for POST /rebuild-index
type RebuildRequest struct {
	Async bool `json:"async"`
}

// HealthResponse is the reply for GET /health
type HealthResponse struct {
	Status         string `json:"status"`
	RAGInitialized bool   `json:"rag_initialized"`
	NumChunks      int    `json:"num_chunks"`
	PDFDirectory   string `json:"pdf_directory"`
	KnowledgePath  string `json:"knowledge_path"`
}
