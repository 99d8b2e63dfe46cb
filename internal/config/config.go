package config

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Purpose selects which credentials Validate insists on.
type Purpose int

const (
	PurposePull Purpose = iota
	PurposeIndex
	PurposeQuery
)

type Config struct {
	NotionPageID     string
	NotionAPIKey     string
	NotionOutputPath string

	LLMProvider       string
	EmbeddingProvider string
	GeminiAPIKey      string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	ChatModel         string
	EmbeddingModel    string
	HugotModelDir     string

	VectorStore    string
	PersistentDir  string
	DatabaseURL    string
	CollectionName string

	ChunkSize       int
	ChunkOverlap    int
	NumberOfDocs    int
	IndexPauseEvery int
	IndexPause      time.Duration

	HTTPPort       string
	SessionSecret  string
	LogLevel       string
	LogFile        string
	RequestTimeout time.Duration
}

var defaults = map[string]any{
	"NOTION_OUTPUT_PATH": "notion_data.txt",
	"LLM_PROVIDER":       "gemini",
	"EMBEDDING_PROVIDER": "gemini",
	"OPENAI_BASE_URL":    "https://api.groq.com/openai/v1",
	"HUGOT_MODEL_DIR":    "./models",
	"VECTOR_STORE":       "sqlite",
	"PERSISTENT_DIR":     "./data",
	"COLLECTION_NAME":    "crustdata_docs",
	"CHUNK_SIZE":         1000,
	"CHUNK_OVERLAP":      200,
	"NUMBER_OF_DOC":      4,
	"INDEX_PAUSE_EVERY":  99,
	"INDEX_PAUSE":        "60s",
	"HTTP_PORT":          "8080",
	"LOG_LEVEL":          "INFO",
	"REQUEST_TIMEOUT":    "60s",
}

// LoadConfig reads an optional .env file and resolves every key through
// viper, so bound command-line flags take precedence over the environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	v := viper.GetViper()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	cfg := &Config{
		NotionPageID:      v.GetString("NOTION_PAGE_ID"),
		NotionAPIKey:      v.GetString("NOTION_API_KEY"),
		NotionOutputPath:  v.GetString("NOTION_OUTPUT_PATH"),
		LLMProvider:       strings.ToLower(v.GetString("LLM_PROVIDER")),
		EmbeddingProvider: strings.ToLower(v.GetString("EMBEDDING_PROVIDER")),
		GeminiAPIKey:      v.GetString("GEMINI_API_KEY"),
		OpenAIAPIKey:      v.GetString("OPENAI_API_KEY"),
		OpenAIBaseURL:     v.GetString("OPENAI_BASE_URL"),
		ChatModel:         v.GetString("CHAT_MODEL"),
		EmbeddingModel:    v.GetString("EMBEDDING_MODEL"),
		HugotModelDir:     v.GetString("HUGOT_MODEL_DIR"),
		VectorStore:       strings.ToLower(v.GetString("VECTOR_STORE")),
		PersistentDir:     v.GetString("PERSISTENT_DIR"),
		DatabaseURL:       v.GetString("DATABASE_URL"),
		CollectionName:    v.GetString("COLLECTION_NAME"),
		ChunkSize:         v.GetInt("CHUNK_SIZE"),
		ChunkOverlap:      v.GetInt("CHUNK_OVERLAP"),
		NumberOfDocs:      v.GetInt("NUMBER_OF_DOC"),
		IndexPauseEvery:   v.GetInt("INDEX_PAUSE_EVERY"),
		IndexPause:        v.GetDuration("INDEX_PAUSE"),
		HTTPPort:          v.GetString("HTTP_PORT"),
		SessionSecret:     v.GetString("SESSION_SECRET"),
		LogLevel:          strings.ToUpper(v.GetString("LOG_LEVEL")),
		LogFile:           v.GetString("LOG_FILE"),
		RequestTimeout:    v.GetDuration("REQUEST_TIMEOUT"),
	}

	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("CHUNK_SIZE must be greater than zero")
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP must be >= 0 and smaller than CHUNK_SIZE")
	}
	if cfg.NumberOfDocs <= 0 {
		return nil, fmt.Errorf("NUMBER_OF_DOC must be greater than zero")
	}
	return cfg, nil
}

// Validate reports the settings missing for the given command.
func (c *Config) Validate(purpose Purpose) error {
	var errs []error
	if purpose == PurposePull {
		if c.NotionAPIKey == "" {
			errs = append(errs, errors.New("NOTION_API_KEY environment variable is required"))
		}
		if c.NotionPageID == "" {
			errs = append(errs, errors.New("NOTION_PAGE_ID environment variable is required"))
		}
		return errors.Join(errs...)
	}

	switch c.EmbeddingProvider {
	case "gemini":
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required for gemini embeddings"))
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for openai embeddings"))
		}
	case "hugot":
	default:
		errs = append(errs, fmt.Errorf("unsupported EMBEDDING_PROVIDER %q", c.EmbeddingProvider))
	}

	switch c.VectorStore {
	case "sqlite":
	case "pgvector":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when VECTOR_STORE=pgvector"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported VECTOR_STORE %q", c.VectorStore))
	}

	if purpose == PurposeQuery {
		switch c.LLMProvider {
		case "gemini":
			if c.GeminiAPIKey == "" {
				errs = append(errs, errors.New("GEMINI_API_KEY is required for the gemini chat model"))
			}
		case "openai":
			if c.OpenAIAPIKey == "" {
				errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai chat model"))
			}
		default:
			errs = append(errs, fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLMProvider))
		}
	}
	return errors.Join(errs...)
}

// SQLitePath is the index database inside the persistent directory.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.PersistentDir, "index.db")
}

func (c *Config) Debug() bool {
	return c.LogLevel == "DEBUG"
}
