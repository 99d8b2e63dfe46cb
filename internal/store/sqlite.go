package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"crustdata.com/support-chatbot/internal/utils"
)

var ErrEmptyEmbedding = errors.New("chunk embedding is empty")

type SQLiteStore struct {
	db         *sql.DB
	collection string
}

// NewSQLiteStore opens (creating if needed) the index database. Parent
// directories of a file path are created.
func NewSQLiteStore(dataSourceName, collection string) (*SQLiteStore, error) {
	if collection == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	if dataSourceName != ":memory:" {
		if dir := filepath.Dir(dataSourceName); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create index directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dataSourceName == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db, collection: collection}
	if err = store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS document_chunks (
        seq INTEGER PRIMARY KEY AUTOINCREMENT,
        id TEXT UNIQUE NOT NULL, -- UUID
        collection TEXT NOT NULL,
        content TEXT NOT NULL,
        metadata_json TEXT NOT NULL DEFAULT '{}',
        embedding_json TEXT NOT NULL, -- JSON array of float32
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE INDEX IF NOT EXISTS idx_document_chunks_collection ON document_chunks (collection);

    CREATE TRIGGER IF NOT EXISTS document_chunks_no_update
    BEFORE UPDATE ON document_chunks
    BEGIN
        SELECT RAISE(ABORT, 'document chunks are immutable');
    END;
    `
	_, err := s.db.Exec(schema)
	return err
}

// AddChunk appends chunk to the collection, filling in ID, collection and
// creation time when unset.
func (s *SQLiteStore) AddChunk(ctx context.Context, chunk *DocumentChunk) error {
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

	embeddingBytes, err := json.Marshal(chunk.Embedding)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
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
		"INSERT INTO document_chunks (id, collection, content, metadata_json, embedding_json, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		chunk.ID, chunk.Collection, chunk.Content, string(metadataBytes), string(embeddingBytes), chunk.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute document_chunk insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) allChunks(ctx context.Context) ([]DocumentChunk, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, content, metadata_json, embedding_json, created_at FROM document_chunks WHERE collection = ? ORDER BY seq ASC",
		s.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to query document_chunks: %w", err)
	}
	defer rows.Close()

	var chunks []DocumentChunk
	for rows.Next() {
		chunk := DocumentChunk{Collection: s.collection}
		var metadataJSON, embeddingJSON string
		if err := rows.Scan(&chunk.ID, &chunk.Content, &metadataJSON, &embeddingJSON, &chunk.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document_chunk row: %w", err)
		}
		if err := json.Unmarshal([]byte(embeddingJSON), &chunk.Embedding); err != nil {
			log.Printf("Warning: failed to unmarshal embedding for chunk %s (content: %.50s...): %v. Skipping.", chunk.ID, chunk.Content, err)
			continue
		}
		if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
			log.Printf("Warning: failed to unmarshal metadata for chunk %s: %v", chunk.ID, err)
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

// SimilaritySearch returns the k chunks closest to embedding by cosine
// similarity, best first.
func (s *SQLiteStore) SimilaritySearch(ctx context.Context, embedding []float32, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than zero")
	}
	chunks, err := s.allChunks(ctx)
	if err != nil {
		return nil, err
	}

	ranked := utils.TopK(embedding, chunks, func(c DocumentChunk) []float32 { return c.Embedding }, k,
		func(c DocumentChunk, err error) {
			log.Printf("Skipping chunk %s in similarity search: %v", c.ID, err)
		})

	results := make([]ScoredChunk, 0, len(ranked))
	for _, r := range ranked {
		results = append(results, ScoredChunk{Chunk: r.Item, Score: r.Score})
	}
	return results, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM document_chunks WHERE collection = ?", s.collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count document_chunks: %w", err)
	}
	return n, nil
}
