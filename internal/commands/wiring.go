package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"crustdata.com/support-chatbot/internal/chunking"
	"crustdata.com/support-chatbot/internal/config"
	"crustdata.com/support-chatbot/internal/core"
	"crustdata.com/support-chatbot/internal/llm"
	"crustdata.com/support-chatbot/internal/store"
)

// resources closes everything opened while wiring a command, last first.
type resources []io.Closer

func (r resources) Close() error {
	var errs []error
	for i := len(r) - 1; i >= 0; i-- {
		if err := r[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newEmbedder(ctx context.Context, cfg *config.Config) (core.Embedder, io.Closer, error) {
	switch cfg.EmbeddingProvider {
	case "gemini":
		svc, err := llm.NewGeminiService(ctx, cfg.GeminiAPIKey, "", cfg.EmbeddingModel)
		if err != nil {
			return nil, nil, err
		}
		return svc, svc, nil
	case "openai":
		svc := llm.NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, "", cfg.EmbeddingModel, cfg.RequestTimeout)
		return svc, svc, nil
	case "hugot":
		emb, err := llm.NewHugotEmbedder(cfg.EmbeddingModel, cfg.HugotModelDir)
		if err != nil {
			return nil, nil, err
		}
		return emb, emb, nil
	default:
		return nil, nil, fmt.Errorf("unsupported embedding provider %q", cfg.EmbeddingProvider)
	}
}

func newLanguageModel(ctx context.Context, cfg *config.Config) (core.LanguageModel, io.Closer, error) {
	switch cfg.LLMProvider {
	case "gemini":
		svc, err := llm.NewGeminiService(ctx, cfg.GeminiAPIKey, cfg.ChatModel, "")
		if err != nil {
			return nil, nil, err
		}
		return svc, svc, nil
	case "openai":
		svc := llm.NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.ChatModel, "", cfg.RequestTimeout)
		return svc, svc, nil
	default:
		return nil, nil, fmt.Errorf("unsupported LLM provider %q", cfg.LLMProvider)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (store.VectorStore, error) {
	return store.Open(ctx, cfg.VectorStore, cfg.SQLitePath(), cfg.DatabaseURL, cfg.CollectionName)
}

func newIndexer(ctx context.Context, cfg *config.Config) (*core.Indexer, resources, error) {
	if err := cfg.Validate(config.PurposeIndex); err != nil {
		return nil, nil, err
	}
	splitter, err := chunking.NewSplitter(chunking.Plan{ChunkSize: cfg.ChunkSize, ChunkOverlap: cfg.ChunkOverlap})
	if err != nil {
		return nil, nil, err
	}

	var res resources
	vs, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	res = append(res, vs)

	embedder, closer, err := newEmbedder(ctx, cfg)
	if err != nil {
		res.Close()
		return nil, nil, err
	}
	res = append(res, closer)

	return core.NewIndexer(splitter, embedder, vs, core.WithPacing(cfg.IndexPauseEvery, cfg.IndexPause)), res, nil
}

func newChatService(ctx context.Context, cfg *config.Config) (*core.ChatService, resources, error) {
	if err := cfg.Validate(config.PurposeQuery); err != nil {
		return nil, nil, err
	}

	var res resources
	vs, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	res = append(res, vs)

	embedder, closer, err := newEmbedder(ctx, cfg)
	if err != nil {
		res.Close()
		return nil, nil, err
	}
	res = append(res, closer)

	model, closer, err := newLanguageModel(ctx, cfg)
	if err != nil {
		res.Close()
		return nil, nil, err
	}
	res = append(res, closer)

	rag, err := core.NewRAGService(ctx, vs, embedder, model, cfg.NumberOfDocs)
	if err != nil {
		res.Close()
		return nil, nil, err
	}
	return core.NewChatService(rag, cfg.RequestTimeout), res, nil
}
