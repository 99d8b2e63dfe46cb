package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"crustdata.com/support-chatbot/internal/logging"
	"crustdata.com/support-chatbot/internal/store"
)

const DefaultNumberOfDocs = 4

const (
	relevanceSystemPrompt = "You are a grader assessing relevance of a retrieved document to a user question. \n" +
		"If the document contains keyword(s) or semantic meaning related to the user question, grade it as relevant. \n" +
		"It does not need to be a stringent test. The goal is to filter out erroneous retrievals. \n" +
		"Give a binary score 'yes' or 'no' score to indicate whether the document is relevant to the question."
	relevancePromptTemplate = "Retrieved document: \n %s \n\n User question: \n %s"

	answerSystemPrompt   = "You are an assistant for question-answering tasks. Answer the question based upon your knowledge."
	answerPromptTemplate = "Retrieved documents: \n\n <docs>%s</docs> \n\n User question: <question>%s</question>"

	groundingSystemPrompt = "You are a grader assessing whether an LLM generation is grounded in / supported by a set of retrieved facts. \n" +
		"Give a binary score 'yes' or 'no'. 'Yes' means that the answer is grounded in / supported by the set of facts."
	groundingPromptTemplate = "Set of facts: \n\n <facts>%s</facts> \n\n LLM generation: <generation>%s</generation>"
)

var ErrEmptyQuery = errors.New("query is empty")

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// LanguageModel answers free-text prompts and yes/no grading prompts.
type LanguageModel interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
	GradeBinary(ctx context.Context, system, prompt string) (bool, error)
}

// Pipeline is the per-query sequence the chat service drives.
type Pipeline interface {
	Retrieve(ctx context.Context, query string) ([]store.DocumentChunk, error)
	FilterRelevant(ctx context.Context, query string, docs []store.DocumentChunk) ([]store.DocumentChunk, error)
	GenerateAnswer(ctx context.Context, query string, docs []store.DocumentChunk) (string, error)
	CheckGrounding(ctx context.Context, docs []store.DocumentChunk, answer string) (bool, error)
}

type RAGService struct {
	store    store.VectorStore
	embedder Embedder
	llm      LanguageModel
	topK     int
}

func NewRAGService(ctx context.Context, vs store.VectorStore, embedder Embedder, llm LanguageModel, topK int) (*RAGService, error) {
	if topK <= 0 {
		topK = DefaultNumberOfDocs
	}
	count, err := vs.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect vector index for RAG service: %w", err)
	}
	if count == 0 {
		log.Println("Warning: RAGService initialized with an empty index. Run the index command first.")
	} else {
		log.Printf("RAGService initialized with %d indexed chunks.", count)
	}

	return &RAGService{
		store:    vs,
		embedder: embedder,
		llm:      llm,
		topK:     topK,
	}, nil
}

// Retrieve returns the topK stored chunks nearest to the query, best first.
func (s *RAGService) Retrieve(ctx context.Context, query string) ([]store.DocumentChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	queryEmbedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get query embedding: %w", err)
	}
	scored, err := s.store.SimilaritySearch(ctx, queryEmbedding, s.topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	docs := make([]store.DocumentChunk, 0, len(scored))
	for _, sc := range scored {
		logging.Debugf("Retrieved chunk %s (score %.3f): %s", sc.Chunk.ID, sc.Score, logging.Preview(sc.Chunk.Content, 80))
		docs = append(docs, sc.Chunk)
	}
	log.Printf("Retrieved %d chunks for query.", len(docs))
	return docs, nil
}

// FilterRelevant grades each chunk on its own and keeps the relevant ones in
// their original order.
func (s *RAGService) FilterRelevant(ctx context.Context, query string, docs []store.DocumentChunk) ([]store.DocumentChunk, error) {
	var kept []store.DocumentChunk
	for _, doc := range docs {
		relevant, err := s.llm.GradeBinary(ctx, relevanceSystemPrompt, fmt.Sprintf(relevancePromptTemplate, doc.Content, query))
		if err != nil {
			return nil, fmt.Errorf("relevance grading failed for chunk %s: %w", doc.ID, err)
		}
		logging.Debugf("Chunk %s relevant=%t", doc.ID, relevant)
		if relevant {
			kept = append(kept, doc)
		}
	}
	log.Printf("Kept %d of %d retrieved chunks after relevance grading.", len(kept), len(docs))
	return kept, nil
}

func (s *RAGService) GenerateAnswer(ctx context.Context, query string, docs []store.DocumentChunk) (string, error) {
	log.Println("Generating answer")
	answer, err := s.llm.Generate(ctx, answerSystemPrompt, fmt.Sprintf(answerPromptTemplate, FormatDocs(docs), query))
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	return answer, nil
}

// CheckGrounding reports whether answer is supported by docs.
func (s *RAGService) CheckGrounding(ctx context.Context, docs []store.DocumentChunk, answer string) (bool, error) {
	log.Println("Checking grounding")
	grounded, err := s.llm.GradeBinary(ctx, groundingSystemPrompt, fmt.Sprintf(groundingPromptTemplate, FormatDocs(docs), answer))
	if err != nil {
		return false, fmt.Errorf("grounding check failed: %w", err)
	}
	return grounded, nil
}

// FormatDocs wraps each chunk in numbered <docN> tags for prompting.
func FormatDocs(docs []store.DocumentChunk) string {
	parts := make([]string, len(docs))
	for i, doc := range docs {
		parts[i] = fmt.Sprintf("<doc%d>:\nContent:%s\n</doc%d>\n", i+1, doc.Content, i+1)
	}
	return strings.Join(parts, "\n")
}
