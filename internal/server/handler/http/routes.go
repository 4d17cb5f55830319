package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/offersync/offersync/internal/auth"
	"github.com/offersync/offersync/internal/middleware"
)

// NewRouter constructs the HTTP handler serving the offer store API.
//
// Routes:
//
//	GET    /api/health            → Health (public)
//	POST   /api/auth/callback     → AuthHandler.Callback (public)
//	GET    /api/offers            → OfferHandler.List
//	POST   /api/offers            → OfferHandler.Create
//	DELETE /api/offers            → OfferHandler.Clear
//	GET    /api/offers/stats      → OfferHandler.Stats
//	GET    /api/offers/{id}       → OfferHandler.Get
//	PUT    /api/offers/{id}       → OfferHandler.Update
//	DELETE /api/offers/{id}       → OfferHandler.Delete
//
// Every /api/offers route sits behind BearerAuth; CORS is open so the
// browser-extension client can call the API from portal origins.
func NewRouter(
	offerHandler *OfferHandler,
	authHandler *AuthHandler,
	verifier auth.Verifier,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
	r.Use(middleware.WithRequestLogging(logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", Health)
		r.Post("/auth/callback", authHandler.Callback)

		r.Route("/offers", func(r chi.Router) {
			// Reject non-JSON bodies; requests without a body pass through.
			r.Use(chiMiddleware.AllowContentType("application/json"))
			r.Use(middleware.BearerAuth(verifier))

			r.Get("/", offerHandler.List)
			r.Post("/", offerHandler.Create)
			r.Delete("/", offerHandler.Clear)
			r.Get("/stats", offerHandler.Stats)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", offerHandler.Get)
				r.Put("/", offerHandler.Update)
				r.Delete("/", offerHandler.Delete)
			})
		})
	})

	return r
}
