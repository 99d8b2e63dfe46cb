package store

import (
	"context"
	"time"
)

// DocumentChunk is an embedded span of source text. It is never updated once
// stored; re-indexing appends new rows.
type DocumentChunk struct {
	ID         string            `json:"id"` // UUID
	Collection string            `json:"collection"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"` // heading path, source
	Embedding  []float32         `json:"-"`
	CreatedAt  time.Time         `json:"created_at"`
}

type ScoredChunk struct {
	Chunk DocumentChunk `json:"chunk"`
	Score float32       `json:"score"`
}

// VectorStore is an append-only similarity index scoped to one collection.
type VectorStore interface {
	AddChunk(ctx context.Context, chunk *DocumentChunk) error
	SimilaritySearch(ctx context.Context, embedding []float32, k int) ([]ScoredChunk, error)
	Count(ctx context.Context) (int, error)
	Close() error
}
