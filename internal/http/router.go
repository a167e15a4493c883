package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/payrecon/internal/http/admin"
	"github.com/MrJamesThe3rd/payrecon/internal/http/auth"
	"github.com/MrJamesThe3rd/payrecon/internal/http/records"
	"github.com/MrJamesThe3rd/payrecon/internal/http/webhook"
)

type Options struct {
	AllowedOrigins []string
	Metrics        http.Handler
}

func New(
	webhooks *webhook.Handler,
	recordsV1 *records.Handler,
	adminAPI *admin.Handler,
	authn *auth.Authenticator,
	opts Options,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if opts.Metrics != nil {
		router.Handle("/metrics", opts.Metrics)
	}

	// Providers sign the raw body and pick their own content types.
	router.Route("/webhooks", webhooks.Routes)

	// Any valid token may use the records API; the checkout backend holds one
	// with a service role.
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(authn.Middleware)

		r.Route("/records", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			recordsV1.Routes(r)
		})
	})

	router.Route("/admin", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
		r.Use(authn.Middleware)
		r.Use(auth.AdminOnly)
		r.Use(middleware.AllowContentType("application/json"))

		adminAPI.Routes(r)
	})

	return router
}
