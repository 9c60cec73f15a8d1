package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/nimven/autotourney/handlers"
)

// SetupRoutes mounts the full HTTP surface. Everything except the login
// redirect sits behind the session cookie.
func SetupRoutes(
	router *chi.Mux,
	verifier handlers.SessionVerifier,
	authHandler *handlers.AuthHandler,
	templateHandler *handlers.TemplateHandler,
	scheduleHandler *handlers.ScheduleHandler,
	statsHandler *handlers.StatsHandler,
	tournamentHandler *handlers.TournamentHandler,
	diplomaHandler *handlers.DiplomaHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/login", authHandler.Login)
	router.Get("/logout", authHandler.Logout)

	router.Group(func(r chi.Router) {
		r.Use(handlers.Authenticate(verifier))

		r.Get("/ws", webSocketHandler.ServeWs)

		r.Route("/api/v1", func(r chi.Router) {
			r.Route("/tournament", func(r chi.Router) {
				r.Get("/", tournamentHandler.Get)
				r.Post("/create", scheduleHandler.CreateBatch)
				r.Get("/stats", statsHandler.Refresh)

				r.Route("/template", func(r chi.Router) {
					r.Get("/", templateHandler.List)
					r.Post("/", templateHandler.Create)
					r.Get("/{id}", templateHandler.Get)
					r.Patch("/{id}", templateHandler.Update)
					r.Delete("/{id}", templateHandler.Delete)
				})
			})

			r.Get("/teams", tournamentHandler.Teams)

			r.Route("/diploma", func(r chi.Router) {
				r.Route("/template", func(r chi.Router) {
					r.Get("/", diplomaHandler.List)
					r.Post("/", diplomaHandler.Save)
					r.Get("/{id}", diplomaHandler.Get)
					r.Patch("/{id}", diplomaHandler.Rename)
					r.Delete("/{id}", diplomaHandler.Delete)
				})
				r.Post("/duplicate/{id}", diplomaHandler.Duplicate)
			})
		})
	})
}
