package store

import (
	"context"
	"fmt"
)

const (
	BackendSQLite   = "sqlite"
	BackendPGVector = "pgvector"
)

// Open returns the vector store for backend. sqlitePath is used by the
// sqlite backend, dsn by pgvector.
func Open(ctx context.Context, backend, sqlitePath, dsn, collection string) (VectorStore, error) {
	switch backend {
	case BackendSQLite, "":
		return NewSQLiteStore(sqlitePath, collection)
	case BackendPGVector:
		return NewPGVectorStore(ctx, dsn, collection)
	default:
		return nil, fmt.Errorf("unsupported vector store %q", backend)
	}
}
