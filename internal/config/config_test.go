package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, 4, cfg.NumberOfDocs)
	assert.Equal(t, 99, cfg.IndexPauseEvery)
	assert.Equal(t, 60*time.Second, cfg.IndexPause)
	assert.Equal(t, "sqlite", cfg.VectorStore)
	assert.Equal(t, "crustdata_docs", cfg.CollectionName)
	assert.Equal(t, filepath.Join("./data", "index.db"), cfg.SQLitePath())
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "500")
	t.Setenv("CHUNK_OVERLAP", "50")
	t.Setenv("NUMBER_OF_DOC", "6")
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("INDEX_PAUSE", "2s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.ChunkSize)
	assert.Equal(t, 50, cfg.ChunkOverlap)
	assert.Equal(t, 6, cfg.NumberOfDocs)
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, 2*time.Second, cfg.IndexPause)
	assert.True(t, cfg.Debug())
}

func TestLoadConfigRejectsBadChunking(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "100")
	t.Setenv("CHUNK_OVERLAP", "100")
	_, err := LoadConfig()
	assert.ErrorContains(t, err, "CHUNK_OVERLAP")

	t.Setenv("CHUNK_SIZE", "0")
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "CHUNK_SIZE")
}

func TestLoadConfigRejectsZeroDocs(t *testing.T) {
	t.Setenv("NUMBER_OF_DOC", "0")
	_, err := LoadConfig()
	assert.ErrorContains(t, err, "NUMBER_OF_DOC")
}

func TestValidatePull(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate(PurposePull)
	assert.ErrorContains(t, err, "NOTION_API_KEY")
	assert.ErrorContains(t, err, "NOTION_PAGE_ID")

	cfg = &Config{NotionAPIKey: "secret", NotionPageID: "page"}
	assert.NoError(t, cfg.Validate(PurposePull))
}

func TestValidateIndexAndQuery(t *testing.T) {
	cfg := &Config{EmbeddingProvider: "gemini", GeminiAPIKey: "k", VectorStore: "sqlite"}
	assert.NoError(t, cfg.Validate(PurposeIndex))
	assert.ErrorContains(t, cfg.Validate(PurposeQuery), "LLM_PROVIDER")

	cfg.LLMProvider = "gemini"
	assert.NoError(t, cfg.Validate(PurposeQuery))

	cfg.LLMProvider = "openai"
	assert.ErrorContains(t, cfg.Validate(PurposeQuery), "OPENAI_API_KEY")

	cfg = &Config{EmbeddingProvider: "hugot", VectorStore: "pgvector"}
	assert.ErrorContains(t, cfg.Validate(PurposeIndex), "DATABASE_URL")

	cfg = &Config{EmbeddingProvider: "word2vec", VectorStore: "chroma"}
	err := cfg.Validate(PurposeIndex)
	assert.ErrorContains(t, err, "EMBEDDING_PROVIDER")
	assert.ErrorContains(t, err, "VECTOR_STORE")
}
