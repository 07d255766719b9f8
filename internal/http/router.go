package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tallyhq/tally/internal/http/blob"
	"github.com/tallyhq/tally/internal/http/event"
	authmw "github.com/tallyhq/tally/internal/http/middleware"
	"github.com/tallyhq/tally/internal/http/report"
	"github.com/tallyhq/tally/internal/http/request"
)

func New(
	authSecret string,
	eventsV1 *event.Handler,
	requestsV1 *request.Handler,
	reportsV1 *report.Handler,
	receiptsV1 *blob.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(authmw.Auth(authSecret))

		r.Route("/events", func(r chi.Router) {
			eventsV1.Routes(r)
		})

		r.Route("/requests", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			requestsV1.Routes(r)
		})

		r.Route("/notifications", requestsV1.NotificationRoutes)

		r.Route("/reports", reportsV1.Routes)

		r.Route("/receipts", receiptsV1.Routes)
	})

	return router
}
