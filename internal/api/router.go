/**
 * @description
 * This file sets up the HTTP router for the feed-service. It defines the API
 * endpoints the web client consumes, associates them with their handlers,
 * and applies middleware for logging, panic recovery, timeouts, CORS, and
 * authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for the browser client.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// FeedRoutes creates and returns the router for the feed service.
func FeedRoutes(h *FeedHandlers, jwtSecret string, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints proxied to the upstream.
		r.Post("/auth/login", h.LoginHandler)
		r.Post("/auth/register", h.RegisterHandler)

		// Group routes that require authentication.
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(jwtSecret))

			r.Post("/auth/logout", h.LogoutHandler)
			r.Get("/accounts", h.ListAccountsHandler)
			r.Post("/accounts", h.CreateAccountHandler)
			r.Get("/customers", h.ListCustomersHandler)
			r.Get("/transactions", h.ListTransactionsHandler)
			r.Post("/transactions/transfer", h.TransferHandler)
		})
	})

	return r
}
