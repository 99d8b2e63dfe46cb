package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpenAIServer(t *testing.T, reply string) (*httptest.Server, *[]map[string]any) {
	t.Helper()
	var requests []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var payload map[string]any
		require.NoError(t, json.Unmarshal(body, &payload))
		requests = append(requests, payload)

		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/chat/completions"):
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":      "chatcmpl-1",
				"object":  "chat.completion",
				"created": 0,
				"model":   payload["model"],
				"choices": []any{map[string]any{
					"index":         0,
					"finish_reason": "stop",
					"message":       map[string]any{"role": "assistant", "content": reply},
				}},
			})
		case strings.HasSuffix(r.URL.Path, "/embeddings"):
			_ = json.NewEncoder(w).Encode(map[string]any{
				"object": "list",
				"model":  payload["model"],
				"data": []any{map[string]any{
					"object":    "embedding",
					"index":     0,
					"embedding": []float64{0.25, -0.5},
				}},
				"usage": map[string]any{"prompt_tokens": 1, "total_tokens": 1},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestOpenAIServiceGenerate(t *testing.T) {
	srv, requests := newOpenAIServer(t, "Melting")
	svc := NewOpenAIService("test-key", srv.URL, "groq-model", "", 0)

	answer, err := svc.Generate(context.Background(), "system prompt", "user prompt")
	require.NoError(t, err)
	assert.Equal(t, "Melting", answer)

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, "groq-model", req["model"])
	assert.EqualValues(t, 0, req["temperature"])
	messages := req["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "user prompt", messages[1].(map[string]any)["content"])
}

func TestOpenAIServiceGradeBinary(t *testing.T) {
	srv, requests := newOpenAIServer(t, `{"binary_score": "no"}`)
	svc := NewOpenAIService("test-key", srv.URL, "", "", 0)

	grade, err := svc.GradeBinary(context.Background(), "grader", "doc and question")
	require.NoError(t, err)
	assert.False(t, grade)

	req := (*requests)[0]
	assert.Equal(t, DefaultOpenAIChatModel, req["model"])
	assert.Equal(t, "json_object", req["response_format"].(map[string]any)["type"])
}

func TestOpenAIServiceEmbed(t *testing.T) {
	srv, requests := newOpenAIServer(t, "")
	svc := NewOpenAIService("test-key", srv.URL, "", "embed-model", 0)

	vec, err := svc.Embed(context.Background(), "crust")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, -0.5}, vec)
	assert.Equal(t, "embed-model", (*requests)[0]["model"])
	assert.Equal(t, "crust", (*requests)[0]["input"])
}
