package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crustdata.com/support-chatbot/internal/store"
)

func crustDocs() []store.DocumentChunk {
	return []store.DocumentChunk{{ID: "1", Content: "The crust melts at high temperature."}}
}

func TestRespondGroundedAnswer(t *testing.T) {
	p := &stubPipeline{docs: crustDocs(), answer: "Melting", grounded: true}
	chat := NewChatService(p, time.Second)

	assert.Equal(t, "Melting", chat.Respond(context.Background(), "What is the crust?"))
	assert.Equal(t, []string{"retrieve", "filter", "generate", "grounding"}, p.calls)
}

func TestRespondFlagsUngroundedAnswer(t *testing.T) {
	p := &stubPipeline{docs: crustDocs(), answer: "Melting", grounded: false}
	chat := NewChatService(p, 0)

	assert.Equal(t, "Hellucination detected: Melting", chat.Respond(context.Background(), "What is the crust?"))
}

func TestRespondFallsBackOnAnyStageError(t *testing.T) {
	for _, stage := range []string{"retrieve", "filter", "generate", "grounding"} {
		t.Run(stage, func(t *testing.T) {
			p := &stubPipeline{docs: crustDocs(), answer: "Melting", grounded: true, failStage: stage}
			chat := NewChatService(p, 0)
			assert.Equal(t, FallbackAnswer, chat.Respond(context.Background(), "What is the crust?"))
			assert.Equal(t, stage, p.calls[len(p.calls)-1])
		})
	}
}

func TestRespondRecoversFromPanic(t *testing.T) {
	chat := NewChatService(&stubPipeline{panicky: true}, 0)
	assert.Equal(t, FallbackAnswer, chat.Respond(context.Background(), "q"))
}

func TestRespondWithRealPipeline(t *testing.T) {
	ctx := context.Background()
	vs := newTestStore(t)
	embedder := &keywordEmbedder{keywords: []string{"crust"}}
	seedStore(t, vs, embedder, "The crust melts at high temperature.")

	model := &fakeModel{answer: "Melting"}
	rag, err := NewRAGService(ctx, vs, embedder, model, 4)
	require.NoError(t, err)

	chat := NewChatService(rag, time.Second)
	assert.Equal(t, "Melting", chat.Respond(ctx, "What is the crust?"))
	// one relevance grade plus one grounding grade
	assert.Len(t, model.graded, 2)
}

func TestPostMessageAppendsBothTurns(t *testing.T) {
	chat := NewChatService(&stubPipeline{docs: crustDocs(), answer: "Melting", grounded: true}, 0)
	id := chat.NewSession()

	turn, err := chat.PostMessage(context.Background(), id, "What is the crust?")
	require.NoError(t, err)
	assert.Equal(t, RoleBot, turn.Role)
	assert.Equal(t, "Melting", turn.Content)

	turns, err := chat.Transcript(id)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, Turn{Role: RoleUser, Content: "What is the crust?", CreatedAt: turns[0].CreatedAt}, turns[0])
	assert.Equal(t, "Melting", turns[1].Content)
}

func TestPostMessageStoresFallbackReply(t *testing.T) {
	chat := NewChatService(&stubPipeline{failStage: "retrieve"}, 0)
	id := chat.NewSession()

	turn, err := chat.PostMessage(context.Background(), id, "What is the crust?")
	require.NoError(t, err)
	assert.Equal(t, FallbackAnswer, turn.Content)
}

func TestPostMessageIgnoresBlankInput(t *testing.T) {
	p := &stubPipeline{}
	chat := NewChatService(p, 0)
	id := chat.NewSession()

	_, err := chat.PostMessage(context.Background(), id, "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
	turns, err := chat.Transcript(id)
	require.NoError(t, err)
	assert.Empty(t, turns)
	assert.Empty(t, p.calls)
}

func TestUnknownSession(t *testing.T) {
	chat := NewChatService(&stubPipeline{}, 0)

	_, err := chat.PostMessage(context.Background(), "missing", "hi")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = chat.Transcript("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestEnsureSession(t *testing.T) {
	chat := NewChatService(&stubPipeline{}, 0)
	id := chat.NewSession()

	assert.Equal(t, id, chat.EnsureSession(id))
	fresh := chat.EnsureSession("stale-cookie")
	assert.NotEqual(t, "stale-cookie", fresh)
	_, err := chat.Transcript(fresh)
	assert.NoError(t, err)
	assert.NotEmpty(t, chat.EnsureSession(""))
}

func TestSessionsAreIsolated(t *testing.T) {
	chat := NewChatService(&stubPipeline{answer: "ok", grounded: true}, 0)
	a, b := chat.NewSession(), chat.NewSession()

	_, err := chat.PostMessage(context.Background(), a, "first")
	require.NoError(t, err)

	ta, _ := chat.Transcript(a)
	tb, _ := chat.Transcript(b)
	assert.Len(t, ta, 2)
	assert.Empty(t, tb)
}

func TestConcurrentPostMessages(t *testing.T) {
	chat := NewChatService(&stubPipeline{answer: "ok", grounded: true}, 0)
	id := chat.NewSession()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := chat.PostMessage(context.Background(), id, "q")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	turns, err := chat.Transcript(id)
	require.NoError(t, err)
	require.Len(t, turns, 16)
	for i := 0; i < len(turns); i += 2 {
		assert.Equal(t, RoleUser, turns[i].Role)
		assert.Equal(t, RoleBot, turns[i+1].Role)
	}
}

func TestExchangesNewestFirst(t *testing.T) {
	turns := []Turn{
		{Role: RoleUser, Content: "q1"}, {Role: RoleBot, Content: "a1"},
		{Role: RoleUser, Content: "q2"}, {Role: RoleBot, Content: "a2"},
		{Role: RoleUser, Content: "q3"},
	}
	ex := Exchanges(turns)
	require.Len(t, ex, 2)
	assert.Equal(t, "q2", ex[0].Question.Content)
	assert.Equal(t, "a2", ex[0].Answer.Content)
	assert.Equal(t, "q1", ex[1].Question.Content)
	assert.Empty(t, Exchanges(nil))
}
