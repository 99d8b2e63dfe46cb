package api

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"strings"

	"crustdata.com/support-chatbot/internal/auth"
	"crustdata.com/support-chatbot/internal/core"
)

const (
	PageTitle         = "CrustData API support"
	SessionCookieName = "supportbot_session"
)

type contextKey string

const sessionIDKey contextKey = "sessionID"

type APIHandler struct {
	chatService *core.ChatService
	signer      *auth.SessionSigner
	page        *template.Template
}

func NewAPIHandler(cs *core.ChatService, signer *auth.SessionSigner) *APIHandler {
	return &APIHandler{
		chatService: cs,
		signer:      signer,
		page:        template.Must(template.New("chat").Parse(chatPage)),
	}
}

// SessionMiddleware resolves the chat session from a bearer token or the
// session cookie. A missing, invalid or expired session is replaced with a
// fresh one and the cookie is reissued.
func (h *APIHandler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if tokenString == "" {
			if cookie, err := r.Cookie(SessionCookieName); err == nil {
				tokenString = cookie.Value
			}
		}

		var claimed string
		if tokenString != "" {
			id, err := h.signer.ValidateSessionToken(tokenString)
			if err != nil {
				log.Printf("Discarding session token: %v", err)
			} else {
				claimed = id
			}
		}

		sessionID := h.chatService.EnsureSession(claimed)
		if sessionID != claimed {
			if err := h.issueCookie(w, sessionID); err != nil {
				log.Printf("Error issuing session cookie: %v", err)
				http.Error(w, "Failed to start session", http.StatusInternalServerError)
				return
			}
		}

		ctx := context.WithValue(r.Context(), sessionIDKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *APIHandler) issueCookie(w http.ResponseWriter, sessionID string) error {
	token, err := h.signer.GenerateSessionToken(sessionID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func sessionIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(sessionIDKey).(string)
	return id
}

type pageData struct {
	Title     string
	Exchanges []core.Exchange
}

func (h *APIHandler) ChatPageHandler(w http.ResponseWriter, r *http.Request) {
	turns, err := h.chatService.Transcript(sessionIDFrom(r))
	if err != nil {
		log.Printf("Error loading transcript: %v", err)
		http.Error(w, "Failed to load transcript", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.page.Execute(w, pageData{Title: PageTitle, Exchanges: core.Exchanges(turns)}); err != nil {
		log.Printf("Error rendering chat page: %v", err)
	}
}

// ChatFormHandler takes the form post from the page and redirects back to
// it. Blank questions are ignored.
func (h *APIHandler) ChatFormHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form: "+err.Error(), http.StatusBadRequest)
		return
	}
	question := r.PostFormValue("question")
	if strings.TrimSpace(question) != "" {
		if _, err := h.chatService.PostMessage(r.Context(), sessionIDFrom(r), question); err != nil {
			log.Printf("Error posting message from form: %v", err)
			http.Error(w, "Failed to post message", http.StatusInternalServerError)
			return
		}
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type SessionResponse struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
}

// CreateSessionHandler starts a new session for API clients that do not
// keep cookies.
func (h *APIHandler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := h.chatService.NewSession()
	token, err := h.signer.GenerateSessionToken(sessionID)
	if err != nil {
		log.Printf("Error generating session token: %v", err)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, SessionResponse{SessionID: sessionID, Token: token})
}

type PostMessageRequest struct {
	Content string `json:"content"`
}

func (h *APIHandler) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	botTurn, err := h.chatService.PostMessage(r.Context(), sessionIDFrom(r), req.Content)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrEmptyQuery):
			http.Error(w, "Message content cannot be empty", http.StatusBadRequest)
		case errors.Is(err, core.ErrSessionNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			log.Printf("Error posting message: %v", err)
			http.Error(w, "Failed to post message", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, botTurn)
}

type TranscriptResponse struct {
	SessionID string      `json:"session_id"`
	Turns     []core.Turn `json:"turns"`
}

func (h *APIHandler) TranscriptHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionIDFrom(r)
	turns, err := h.chatService.Transcript(sessionID)
	if err != nil {
		if errors.Is(err, core.ErrSessionNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Printf("Error loading transcript: %v", err)
		http.Error(w, "Failed to load transcript", http.StatusInternalServerError)
		return
	}
	if turns == nil {
		turns = []core.Turn{}
	}
	writeJSON(w, http.StatusOK, TranscriptResponse{SessionID: sessionID, Turns: turns})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

const chatPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; max-width: 48rem; margin: 2rem auto; }
.turn { padding: 0.5rem 0.75rem; margin: 0.25rem 0; border-radius: 0.5rem; white-space: pre-wrap; }
.user { background: #eef2ff; }
.bot { background: #f3f4f6; }
form { display: flex; gap: 0.5rem; margin-bottom: 1.5rem; }
input[type=text] { flex: 1; padding: 0.5rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<form method="post" action="/chat">
<input type="text" name="question" placeholder="Ask a question about the CrustData API" autofocus>
<button type="submit">Send</button>
</form>
{{range .Exchanges}}
<div class="turn user">{{.Question.Content}}</div>
<div class="turn bot">{{.Answer.Content}}</div>
{{end}}
</body>
</html>
`
