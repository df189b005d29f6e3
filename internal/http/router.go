package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

func NewRouter(api *API, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Auth-User"},
	})
	r.Use(corsMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Group(func(r chi.Router) {
		r.Use(ExtractUserMiddleware)

		r.Get("/plans", api.ListPlans)
		r.Get("/plans/{id}", api.GetPlan)

		r.Post("/sessions", api.StartSession)
		r.Get("/sessions", api.ListSessions)
		r.Get("/sessions/{id}", api.GetSession)
		r.Post("/sessions/{id}/pause", api.Pause)
		r.Post("/sessions/{id}/resume", api.Resume)
		r.Post("/sessions/{id}/skip-rest", api.SkipRest)
		r.Post("/sessions/{id}/advance", api.Advance)
		r.Post("/sessions/{id}/stop", api.StopSession)
		r.Get("/sessions/{id}/events", StreamSessionEvents(api.manager))
		r.Get("/sessions/{id}/ws", StreamSessionWebSocket(api.manager, allowedOrigins))

		r.Get("/history", api.History)
		r.Get("/history/stats", api.HistoryStats)
	})

	return r
}
