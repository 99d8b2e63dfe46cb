package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // Postgres driver
	"github.com/pgvector/pgvector-go"
)

// PGVectorStore keeps chunks in Postgres and lets pgvector rank them.
type PGVectorStore struct {
	db         *sql.DB
	collection string
}

func NewPGVectorStore(ctx context.Context, dsn, collection string) (*PGVectorStore, error) {
	if collection == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PGVectorStore{db: db, collection: collection}
	if err = store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *PGVectorStore) Close() error {
	return s.db.Close()
}

func (s *PGVectorStore) initSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	schema := `
    CREATE EXTENSION IF NOT EXISTS vector;

    CREATE TABLE IF NOT EXISTS document_chunks (
        seq BIGSERIAL PRIMARY KEY,
        id UUID UNIQUE NOT NULL,
        collection TEXT NOT NULL,
        content TEXT NOT NULL,
        metadata JSONB NOT NULL DEFAULT '{}',
        embedding vector NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    );

    CREATE INDEX IF NOT EXISTS idx_document_chunks_collection ON document_chunks (collection);
    `
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *PGVectorStore) AddChunk(ctx context.Context, chunk *DocumentChunk) error {
	if len(chunk.Embedding) == 0 {
		return ErrEmptyEmbedding
	}
	if chunk.ID == "" {
		chunk.ID = uuid.NewString()
	}
	chunk.Collection = s.collection
	if chunk.CreatedAt.IsZero() {
		chunk.CreatedAt = time.Now()
	}
	metadata := chunk.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadataBytes, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO document_chunks (id, collection, content, metadata, embedding, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		chunk.ID, chunk.Collection, chunk.Content, string(metadataBytes), pgvector.NewVector(chunk.Embedding), chunk.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute document_chunk insert: %w", err)
	}
	return nil
}

// SimilaritySearch orders by cosine distance; Score is 1 - distance.
func (s *PGVectorStore) SimilaritySearch(ctx context.Context, embedding []float32, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than zero")
	}
	query := pgvector.NewVector(embedding)
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, content, metadata, embedding, created_at, 1 - (embedding <=> $1) AS score
        FROM document_chunks
        WHERE collection = $2 AND vector_dims(embedding) = $3
        ORDER BY embedding <=> $1, seq
        LIMIT $4`,
		query, s.collection, len(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query document_chunks: %w", err)
	}
	defer rows.Close()

	var results []ScoredChunk
	for rows.Next() {
		var (
			chunk    = DocumentChunk{Collection: s.collection}
			metadata []byte
			vec      pgvector.Vector
			score    float64
		)
		if err := rows.Scan(&chunk.ID, &chunk.Content, &metadata, &vec, &chunk.CreatedAt, &score); err != nil {
			return nil, fmt.Errorf("failed to scan document_chunk row: %w", err)
		}
		if err := json.Unmarshal(metadata, &chunk.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata for chunk %s: %w", chunk.ID, err)
		}
		chunk.Embedding = vec.Slice()
		results = append(results, ScoredChunk{Chunk: chunk, Score: float32(score)})
	}
	return results, rows.Err()
}

func (s *PGVectorStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM document_chunks WHERE collection = $1`, s.collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count document_chunks: %w", err)
	}
	return n, nil
}
