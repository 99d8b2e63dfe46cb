package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const (
	DefaultOpenAIChatModel      = "llama-3.1-70b-versatile"
	DefaultOpenAIEmbeddingModel = "text-embedding-3-small"
)

// OpenAIService talks to any OpenAI compatible endpoint, Groq included.
type OpenAIService struct {
	client         openai.Client
	chatModel      string
	embeddingModel string
}

func NewOpenAIService(apiKey, baseURL, chatModel, embeddingModel string, timeout time.Duration) *OpenAIService {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	if chatModel == "" {
		chatModel = DefaultOpenAIChatModel
	}
	if embeddingModel == "" {
		embeddingModel = DefaultOpenAIEmbeddingModel
	}
	return &OpenAIService{
		client:         openai.NewClient(opts...),
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
	}
}

func (s *OpenAIService) Close() error { return nil }

func (s *OpenAIService) complete(ctx context.Context, params openai.ChatCompletionNewParams) (string, error) {
	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("chat completion returned no content")
	}
	return resp.Choices[0].Message.Content, nil
}

func (s *OpenAIService) Generate(ctx context.Context, system, prompt string) (string, error) {
	return s.complete(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.chatModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0),
	})
}

func (s *OpenAIService) GradeBinary(ctx context.Context, system, prompt string) (bool, error) {
	reply, err := s.complete(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.chatModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system + "\n" + GradeInstruction),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return false, err
	}
	return ParseBinaryScore(reply)
}

func (s *OpenAIService) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := s.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(s.embeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("no embedding data received")
	}
	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}
