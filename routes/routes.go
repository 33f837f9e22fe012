package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pitchside/bracket-manager/handlers"
	"github.com/pitchside/bracket-manager/middleware"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	Tournament *handlers.TournamentHandler
	Player     *handlers.PlayerHandler
	Match      *handlers.MatchHandler
	WebSocket  *handlers.WebSocketHandler
}

func InitRoutes(h Handlers, adminAuth *middleware.AdminAuth) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Post("/auth/login", h.Auth.LoginHandler)

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", h.Tournament.ListHandler)
		r.Get("/{tournamentID}", h.Tournament.GetByIDHandler)
		r.Get("/{tournamentID}/players", h.Player.ListHandler)
		r.Get("/{tournamentID}/matches", h.Match.ListHandler)
		r.Post("/{tournamentID}/players", h.Player.RegisterHandler)

		r.Group(func(r chi.Router) {
			r.Use(adminAuth.RequireAdmin)

			r.Post("/", h.Tournament.CreateHandler)
			r.Post("/{tournamentID}/draw", h.Tournament.DrawHandler)
			r.Post("/{tournamentID}/knockout", h.Tournament.SeedKnockoutHandler)
			r.Post("/{tournamentID}/knockout/advance", h.Tournament.AdvanceKnockoutHandler)
		})
	})

	router.Route("/players", func(r chi.Router) {
		r.Get("/{playerID}", h.Player.GetByIDHandler)

		r.Group(func(r chi.Router) {
			r.Use(adminAuth.RequireAdmin)

			r.Post("/{playerID}/approve", h.Player.ApproveHandler)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", h.Match.GetByIDHandler)
		r.Post("/{matchID}/report", h.Match.ReportHandler)

		r.Group(func(r chi.Router) {
			r.Use(adminAuth.RequireAdmin)

			r.Post("/{matchID}/approve", h.Match.ApproveHandler)
			r.Post("/{matchID}/reject", h.Match.RejectHandler)
		})
	})

	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)

	return router
}
