package routes

import (
	"net/http"

	"github.com/chainplay/fantasy-tournaments/handlers"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func SetupRoutes(
	router *chi.Mux,
	allowedOrigins []string,
	tournamentHandler *handlers.TournamentHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	router.Route("/api/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.ListHandler)
		r.Post("/", tournamentHandler.CreateHandler)
		r.Get("/{tournamentID}", tournamentHandler.GetByIDHandler)
		r.Post("/{tournamentID}/join", tournamentHandler.JoinHandler)
		r.Get("/{tournamentID}/participants", tournamentHandler.ListParticipantsHandler)
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}
