package llm

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	DefaultGeminiChatModel      = "gemini-1.5-flash-latest"
	DefaultGeminiEmbeddingModel = "text-embedding-004"
)

// GeminiService serves chat completions, binary grades and embeddings from
// the Gemini API.
type GeminiService struct {
	client         *genai.Client
	chatModel      string
	embeddingModel string
}

func NewGeminiService(ctx context.Context, apiKey, chatModel, embeddingModel string) (*GeminiService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	if chatModel == "" {
		chatModel = DefaultGeminiChatModel
	}
	if embeddingModel == "" {
		embeddingModel = DefaultGeminiEmbeddingModel
	}
	return &GeminiService{
		client:         client,
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
	}, nil
}

func (s *GeminiService) Close() error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("error closing GenAI client: %w", err)
	}
	log.Println("GenAI client closed.")
	return nil
}

func (s *GeminiService) Embed(ctx context.Context, text string) ([]float32, error) {
	em := s.client.EmbeddingModel(s.embeddingModel)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embedding request failed: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("no embedding data received from gemini")
	}
	return res.Embedding.Values, nil
}

func (s *GeminiService) model(system string) *genai.GenerativeModel {
	model := s.client.GenerativeModel(s.chatModel)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(system)},
	}
	model.SetTemperature(0)
	return model
}

func (s *GeminiService) Generate(ctx context.Context, system, prompt string) (string, error) {
	resp, err := s.model(system).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation request failed: %w", err)
	}
	return responseText(resp)
}

// GradeBinary asks for a JSON {"binary_score": "yes"|"no"} reply.
func (s *GeminiService) GradeBinary(ctx context.Context, system, prompt string) (bool, error) {
	model := s.model(system)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"binary_score": {
				Type:        genai.TypeString,
				Description: "Binary score, 'yes' or 'no'.",
			},
		},
		Required: []string{"binary_score"},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return false, fmt.Errorf("gemini grading request failed: %w", err)
	}
	text, err := responseText(resp)
	if err != nil {
		return false, err
	}
	return ParseBinaryScore(text)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini response was empty or had no valid candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		} else {
			log.Printf("Gemini response part was not text: %T", part)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("gemini response had no text parts")
	}
	return sb.String(), nil
}
