package services

import (
	"strings"
	"unicode/utf8"

	"exam-chatbot-backend/internal/kb"
	"exam-chatbot-backend/internal/logger"
	"exam-chatbot-backend/models"
)

// DefaultRetrieveLimit caps how many chunks ground a single answer.
const DefaultRetrieveLimit = 5

// Retriever selects knowledge base chunks relevant to a query by
// case-insensitive keyword overlap. Matching is a raw substring check, not
// word-boundary aware, and matched chunks keep their persisted order; no
// re-ranking by match strength is performed.
type Retriever struct {
	store *kb.Store
	limit int
}

func NewRetriever(store *kb.Store, limit int) *Retriever {
	if limit <= 0 {
		limit = DefaultRetrieveLimit
	}
	return &Retriever{store: store, limit: limit}
}

// Retrieve returns up to limit matching chunks in persisted order. A query
// with no usable keywords, no matches, or an empty knowledge base yields nil;
// retrieval never fails.
func (r *Retriever) Retrieve(query string) []models.Chunk {
	return r.RetrieveK(query, r.limit)
}

// RetrieveK is Retrieve with a per-call result cap.
func (r *Retriever) RetrieveK(query string, k int) []models.Chunk {
	chunks := r.store.Chunks()
	if len(chunks) == 0 {
		// Downstream generation degrades silently without grounding,
		// so make the empty knowledge base visible in logs.
		logger.Warn("knowledge base is empty, retrieval returns no context")
		return nil
	}

	keywords := extractKeywords(query)
	if len(keywords) == 0 {
		return nil
	}

	var matched []models.Chunk
	for _, chunk := range chunks {
		content := strings.ToLower(chunk.Content)
		for _, keyword := range keywords {
			if strings.Contains(content, keyword) {
				matched = append(matched, chunk)
				break
			}
		}
	}

	if k > 0 && len(matched) > k {
		matched = matched[:k]
	}
	return matched
}

// BuildContext joins retrieved chunk contents with a blank line for use as
// LLM grounding text. Zero chunks produce the empty string.
func BuildContext(chunks []models.Chunk) string {
	if len(chunks) == 0 {
		return ""
	}
	parts := make([]string, len(chunks))
	for i, chunk := range chunks {
		parts[i] = chunk.Content
	}
	return strings.Join(parts, "\n\n")
}

// extractKeywords lower-cases the query and keeps whitespace-separated
// tokens longer than two runes. Short tokens are ignored entirely.
func extractKeywords(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	keywords := make([]string, 0, len(fields))
	for _, field := range fields {
		if utf8.RuneCountInString(field) > 2 {
			keywords = append(keywords, field)
		}
	}
	return keywords
}
