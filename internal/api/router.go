package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Post("/api/sessions", apiHandler.CreateSessionHandler)

	r.Group(func(r chi.Router) {
		r.Use(apiHandler.SessionMiddleware)

		r.Get("/", apiHandler.ChatPageHandler)
		r.Post("/chat", apiHandler.ChatFormHandler)
		r.Post("/api/messages", apiHandler.PostMessageHandler)
		r.Get("/api/transcript", apiHandler.TranscriptHandler)
	})

	return r
}
