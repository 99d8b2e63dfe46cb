package core

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"crustdata.com/support-chatbot/internal/store"
)

// keywordEmbedder maps text onto one axis per keyword it contains.
type keywordEmbedder struct {
	keywords []string
	err      error
	calls    int
}

func (e *keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	vec := make([]float32, len(e.keywords)+1)
	vec[len(e.keywords)] = 0.01
	lower := strings.ToLower(text)
	for i, kw := range e.keywords {
		if strings.Contains(lower, kw) {
			vec[i] = 1
		}
	}
	return vec, nil
}

type gradeCall struct {
	system string
	prompt string
}

type fakeModel struct {
	mu        sync.Mutex
	answer    string
	genErr    error
	grade     func(system, prompt string) (bool, error)
	generated []gradeCall
	graded    []gradeCall
}

func (m *fakeModel) Generate(_ context.Context, system, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generated = append(m.generated, gradeCall{system, prompt})
	return m.answer, m.genErr
}

func (m *fakeModel) GradeBinary(_ context.Context, system, prompt string) (bool, error) {
	m.mu.Lock()
	m.graded = append(m.graded, gradeCall{system, prompt})
	m.mu.Unlock()
	if m.grade == nil {
		return true, nil
	}
	return m.grade(system, prompt)
}

// stubPipeline lets chat tests script every stage.
type stubPipeline struct {
	docs      []store.DocumentChunk
	answer    string
	grounded  bool
	failStage string
	panicky   bool
	calls     []string
}

var errStage = errors.New("stage failed")

func (p *stubPipeline) Retrieve(context.Context, string) ([]store.DocumentChunk, error) {
	p.calls = append(p.calls, "retrieve")
	if p.panicky {
		panic("boom")
	}
	if p.failStage == "retrieve" {
		return nil, errStage
	}
	return p.docs, nil
}

func (p *stubPipeline) FilterRelevant(_ context.Context, _ string, docs []store.DocumentChunk) ([]store.DocumentChunk, error) {
	p.calls = append(p.calls, "filter")
	if p.failStage == "filter" {
		return nil, errStage
	}
	return docs, nil
}

func (p *stubPipeline) GenerateAnswer(context.Context, string, []store.DocumentChunk) (string, error) {
	p.calls = append(p.calls, "generate")
	if p.failStage == "generate" {
		return "", errStage
	}
	return p.answer, nil
}

func (p *stubPipeline) CheckGrounding(context.Context, []store.DocumentChunk, string) (bool, error) {
	p.calls = append(p.calls, "grounding")
	if p.failStage == "grounding" {
		return false, errStage
	}
	return p.grounded, nil
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	vs, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "index.db"), "test_docs")
	require.NoError(t, err)
	t.Cleanup(func() { _ = vs.Close() })
	return vs
}
