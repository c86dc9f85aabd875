package routes

import (
	"github.com/clubdeck/competition-engine/handlers"
	"github.com/clubdeck/competition-engine/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes собирает все маршруты панели. Всё, кроме регистрации, логина
// и websocket-подключения, требует Bearer-токен.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	allowedOrigins []string,
	authHandler *handlers.AuthHandler,
	tournamentHandler *handlers.TournamentHandler,
	teamHandler *handlers.TeamHandler,
	groupHandler *handlers.GroupHandler,
	matchHandler *handlers.MatchHandler,
	playoffHandler *handlers.PlayoffHandler,
	courtHandler *handlers.CourtHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	// Живые обновления комнаты турнира.
	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)

	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate([]byte(jwtSecret)))

		r.Route("/courts", func(r chi.Router) {
			r.Get("/", courtHandler.List)
			r.Post("/", courtHandler.Create)
			r.Delete("/{courtID}", courtHandler.Delete)
		})

		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/", tournamentHandler.List)
			r.Post("/", tournamentHandler.Create)

			r.Route("/{tournamentID}", func(r chi.Router) {
				r.Get("/", tournamentHandler.GetByID)
				r.Patch("/", tournamentHandler.Update)
				r.Post("/cancel", tournamentHandler.Cancel)
				r.Post("/logo", tournamentHandler.UploadLogo)

				r.Get("/available-schedules", tournamentHandler.ListAvailableSchedules)
				r.Put("/available-schedules", tournamentHandler.ReplaceAvailableSchedules)

				// Статусная машина
				r.Post("/close-registration", tournamentHandler.CloseRegistration)
				r.Post("/close-schedule-review", tournamentHandler.CloseScheduleReview)
				r.Post("/reopen-schedule-review", tournamentHandler.ReopenScheduleReview)

				r.Get("/teams", teamHandler.List)
				r.Post("/teams", teamHandler.Create)
				r.Delete("/teams/{teamID}", teamHandler.Delete)
				r.Put("/teams/{teamID}/restrictions", teamHandler.SetRestrictions)

				r.Get("/groups", groupHandler.List)
				r.Post("/groups", groupHandler.Generate)
				r.Delete("/groups", groupHandler.Delete)
				r.Get("/standings", groupHandler.Standings)
				r.Post("/swap-group-schedules", groupHandler.SwapSchedules)
				r.Post("/swap-teams", groupHandler.SwapTeams)

				r.Get("/matches", matchHandler.List)
				r.Post("/matches/{matchID}/result", matchHandler.SubmitResult)

				r.Get("/playoffs/preview", playoffHandler.Preview)
				r.Get("/playoffs", playoffHandler.Get)
				r.Post("/playoffs", playoffHandler.Generate)
				r.Delete("/playoffs", playoffHandler.Delete)
			})
		})
	})
}
