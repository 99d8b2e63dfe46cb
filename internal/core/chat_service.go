package core

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"crustdata.com/support-chatbot/internal/logging"
)

const (
	FallbackAnswer      = "Error occurred while processing your query. Try different question."
	HallucinationPrefix = "Hellucination detected: "
	RoleUser            = "user"
	RoleBot             = "bot"
)

var ErrSessionNotFound = errors.New("session not found")

type Turn struct {
	Role      string    `json:"role"` // "user" or "bot"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Exchange is one question with the reply it received.
type Exchange struct {
	Question Turn `json:"question"`
	Answer   Turn `json:"answer"`
}

type session struct {
	id        string
	createdAt time.Time
	turns     []Turn
}

// ChatService keeps per-session transcripts in memory and runs one pipeline
// query at a time.
type ChatService struct {
	pipeline Pipeline
	timeout  time.Duration

	runMu sync.Mutex

	mu       sync.RWMutex
	sessions map[string]*session
}

func NewChatService(pipeline Pipeline, timeout time.Duration) *ChatService {
	return &ChatService{
		pipeline: pipeline,
		timeout:  timeout,
		sessions: make(map[string]*session),
	}
}

// NewSession starts an empty transcript and returns its ID.
func (s *ChatService) NewSession() string {
	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = &session{id: id, createdAt: time.Now().UTC()}
	s.mu.Unlock()
	return id
}

// EnsureSession returns id if it names a live session, otherwise a new one.
func (s *ChatService) EnsureSession(id string) string {
	if id != "" {
		s.mu.RLock()
		_, ok := s.sessions[id]
		s.mu.RUnlock()
		if ok {
			return id
		}
	}
	return s.NewSession()
}

func (s *ChatService) Transcript(sessionID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	turns := make([]Turn, len(sess.turns))
	copy(turns, sess.turns)
	return turns, nil
}

// PostMessage appends the user turn, answers it and appends the bot turn.
// Blank input is ignored and leaves the transcript unchanged.
func (s *ChatService) PostMessage(ctx context.Context, sessionID, content string) (*Turn, error) {
	s.mu.RLock()
	_, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyQuery
	}

	userTurn := Turn{Role: RoleUser, Content: content, CreatedAt: time.Now().UTC()}
	answer := s.Respond(ctx, content)
	botTurn := Turn{Role: RoleBot, Content: answer, CreatedAt: time.Now().UTC()}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.turns = append(sess.turns, userTurn, botTurn)
	return &botTurn, nil
}

// Respond runs retrieve, filter, generate and grounding for one query and
// always yields display text. Failures at any stage become FallbackAnswer.
func (s *ChatService) Respond(ctx context.Context, query string) (reply string) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic while answering query: %v", r)
			reply = FallbackAnswer
		}
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	answer, grounded, err := s.answer(ctx, query)
	if err != nil {
		log.Printf("Error processing query %q: %v", logging.Preview(query, 60), err)
		return FallbackAnswer
	}
	if !grounded {
		log.Printf("Answer not grounded in retrieved documents for query %q", logging.Preview(query, 60))
		return HallucinationPrefix + answer
	}
	return answer
}

func (s *ChatService) answer(ctx context.Context, query string) (string, bool, error) {
	docs, err := s.pipeline.Retrieve(ctx, query)
	if err != nil {
		return "", false, err
	}
	relevant, err := s.pipeline.FilterRelevant(ctx, query, docs)
	if err != nil {
		return "", false, err
	}
	answer, err := s.pipeline.GenerateAnswer(ctx, query, relevant)
	if err != nil {
		return "", false, err
	}
	grounded, err := s.pipeline.CheckGrounding(ctx, relevant, answer)
	if err != nil {
		return "", false, err
	}
	return answer, grounded, nil
}

// Exchanges pairs a transcript into question/answer exchanges, newest first.
// A trailing unanswered question is left out.
func Exchanges(turns []Turn) []Exchange {
	var out []Exchange
	for i := 0; i+1 < len(turns); i += 2 {
		out = append(out, Exchange{Question: turns[i], Answer: turns[i+1]})
	}
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}
