package models

// Chunk is the unit of retrievable text in the knowledge base.
// IDs are assigned sequentially during a single ingestion run and carry
// no meaning across runs; re-ingestion regenerates all chunks from id 1.
type Chunk struct {
	ID      string `json:"id"`
	Source  string `json:"source,omitempty"`
	Content string `json:"content"`
}
