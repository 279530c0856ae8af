package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/slayergates/esports-arena/handlers"
	"github.com/slayergates/esports-arena/middleware"
	"github.com/slayergates/esports-arena/models"
)

// SetupRoutes собирает все HTTP-маршруты приложения.
func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Auth,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	schoolHandler *handlers.SchoolHandler,
	teamHandler *handlers.TeamHandler,
	membershipHandler *handlers.MembershipHandler,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	leaderboardHandler *handlers.LeaderboardHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Route("/users", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Get("/me", userHandler.GetProfile)
		r.Put("/me/avatar", userHandler.UploadAvatar)
	})

	router.Route("/schools", func(r chi.Router) {
		r.Get("/", schoolHandler.List)
		r.Get("/{schoolID}", schoolHandler.GetByID)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(auth.Authorize(models.RoleAdmin))
			r.Post("/", schoolHandler.Create)
		})
	})

	router.Route("/teams", func(r chi.Router) {
		r.Get("/", teamHandler.List)
		r.Get("/{teamID}", teamHandler.GetByID)
		r.Get("/{teamID}/members", teamHandler.ListMembers)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)

			r.Post("/", teamHandler.Create)
			r.Get("/captain", teamHandler.ListByCaptain)
			r.Put("/{teamID}/logo", teamHandler.UploadLogo)

			r.Get("/{teamID}/membership", membershipHandler.GetStatus)
			r.Post("/{teamID}/join-requests", membershipHandler.RequestJoin)
			r.Get("/{teamID}/join-requests", membershipHandler.ListRequests)
			r.Put("/{teamID}/join-requests/{requestID}", membershipHandler.ResolveRequest)
		})
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.List)
		r.Get("/{tournamentID}", tournamentHandler.GetByID)
		r.Get("/{tournamentID}/registrations", tournamentHandler.ListRegistrations)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Post("/{tournamentID}/registrations", tournamentHandler.RegisterTeam)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(auth.Authorize(models.RoleAdmin))

			r.Post("/", tournamentHandler.Create)
			r.Put("/{tournamentID}", tournamentHandler.Update)
			r.Delete("/{tournamentID}", tournamentHandler.Delete)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/upcoming", matchHandler.ListUpcoming)
		r.Get("/{matchID}", matchHandler.GetByID)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(auth.Authorize(models.RoleAdmin))

			r.Post("/", matchHandler.Schedule)
			r.Put("/{matchID}/result", matchHandler.ReportResult)
		})
	})

	router.Get("/leaderboard", leaderboardHandler.Get)
	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeTournament)
}
