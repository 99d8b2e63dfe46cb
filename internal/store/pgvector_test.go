package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func startPGVector(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping pgvector container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := postgres.Run(ctx, "pgvector/pgvector:pg16",
		postgres.WithDatabase("supportbot"),
		postgres.WithUsername("supportbot"),
		postgres.WithPassword("supportbot"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestPGVectorStoreAddAndSearch(t *testing.T) {
	dsn := startPGVector(t)
	ctx := context.Background()

	store, err := NewPGVectorStore(ctx, dsn, "docs")
	require.NoError(t, err)
	defer store.Close()

	other, err := NewPGVectorStore(ctx, dsn, "other")
	require.NoError(t, err)
	defer other.Close()

	require.NoError(t, store.AddChunk(ctx, &DocumentChunk{Content: "company", Embedding: []float32{1, 0}, Metadata: map[string]string{"Header 1": "Company"}}))
	require.NoError(t, store.AddChunk(ctx, &DocumentChunk{Content: "people", Embedding: []float32{0, 1}}))
	require.NoError(t, other.AddChunk(ctx, &DocumentChunk{Content: "elsewhere", Embedding: []float32{1, 0}}))

	results, err := store.SimilaritySearch(ctx, []float32{0.9, 0.1}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "company", results[0].Chunk.Content)
	assert.Equal(t, "Company", results[0].Chunk.Metadata["Header 1"])
	assert.InDelta(t, 0.99, results[0].Score, 0.01)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
