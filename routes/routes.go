package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/udehnih/review-rating/app"
	"github.com/udehnih/review-rating/auth"
	"github.com/udehnih/review-rating/handlers"
	"github.com/udehnih/review-rating/middleware"
	"github.com/udehnih/review-rating/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	if timeout := deps.Config.Server.RequestTimeout; timeout > 0 {
		r.Use(chimw.Timeout(timeout))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public endpoints
	r.Get("/", handlers.HandleWelcome)
	r.Get("/health", deps.HealthHandler.HandleHealth)
	r.Get("/health/ready", deps.HealthHandler.HandleReadiness)
	if deps.Config.Observability.MetricsEnabled {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	authn := deps.AuthMiddleware

	r.Route("/api", func(r chi.Router) {
		r.Use(authn.Authenticate)
		r.Use(authn.RequireAuth)

		r.Get("/secure", handlers.HandleSecure)

		r.Route("/auth", func(r chi.Router) {
			r.Get("/me", handlers.HandleCurrentUser)
			r.Post("/logout", deps.AuthHandler.HandleLogout)
		})

		r.Route("/reviews", func(r chi.Router) {
			student := authn.RequireAuthority(auth.AuthorityStudent)

			r.With(student).Post("/", deps.ReviewHandler.HandleCreate)
			r.Get("/course/{courseId}", deps.ReviewHandler.HandleListByCourse)
			r.Get("/course/{courseId}/average-rating", deps.ReviewHandler.HandleAverageRating)
			r.Get("/student/{studentId}", deps.ReviewHandler.HandleListByStudent)
			r.Get("/{reviewId}", deps.ReviewHandler.HandleGet)
			r.With(student).Put("/{reviewId}", deps.ReviewHandler.HandleUpdate)
			r.With(student).Delete("/{reviewId}", deps.ReviewHandler.HandleDelete)
		})

		r.Route("/admin/authorities", func(r chi.Router) {
			r.Use(authn.RequireAuthority(auth.AuthorityAdmin))
			r.Get("/{subject}", deps.AuthorityHandler.HandleList)
			r.Put("/{subject}/{authority}", deps.AuthorityHandler.HandleGrant)
			r.Delete("/{subject}/{authority}", deps.AuthorityHandler.HandleRevoke)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteNotFound(w, "endpoint not found")
	})

	return r
}
