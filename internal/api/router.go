/**
 * @description
 * This file sets up the HTTP router for the profile-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies any
 * necessary middleware, such as for authentication and CORS.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for the public browser endpoints.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// ProfileRoutes creates and returns the router for the profile service.
func ProfileRoutes(h *ProfileHandlers, jwksURL string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// The gate and share views are called from anonymous browser contexts on
	// arbitrary origins, so CORS is open.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Public endpoints: no session, no token; the gate authorizes each call
	// independently.
	r.Post("/profiles/verify-pin", h.VerifyPinHandler)
	r.Get("/profiles/{username}", h.GetProfileHandler)
	r.Get("/payms/{slug}", h.GetPaymHandler)

	// Owner endpoints require a validated Clerk JWT.
	r.Group(func(r chi.Router) {
		r.Use(ClerkAuthMiddleware(jwksURL))

		r.Post("/me/payms", h.CreatePaymHandler)
		r.Get("/me/payms", h.ListPaymsHandler)
		r.Delete("/me/payms/{paymID}", h.DeletePaymHandler)
		r.Get("/me/pin-attempts", h.ListPinAttemptsHandler)
	})

	return r
}
