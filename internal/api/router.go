/**
 * @description
 * This file sets up the HTTP router for the onboarding-service. Webhook sinks
 * are public (they authenticate via HMAC signature on the body); the command
 * endpoint is restricted to internal callers with a service JWT.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS policy for the internal API surface.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Routes creates and returns the service router.
func Routes(h *Handlers, serviceJWTSecret string, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	// Standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type", SignatureHeader},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Webhook sinks authenticate with the HMAC signature, not the service JWT.
	r.Post("/webhooks/{provider}", h.WebhookHandler)

	r.Group(func(r chi.Router) {
		r.Use(ServiceAuthMiddleware(serviceJWTSecret))
		r.Post("/commands", h.CommandHandler)
	})

	return r
}
