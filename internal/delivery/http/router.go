package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"devevents/internal/delivery/http/controllers"
	"devevents/internal/delivery/http/middleware"
	"devevents/internal/monitoring"
)

// Controllers groups the handlers mounted by NewRouter.
type Controllers struct {
	Events   *controllers.EventController
	Bookings *controllers.BookingController
	Health   *controllers.HealthController
}

// NewRouter initializes the HTTP router with all application routes and wraps it in
// the metrics, logging and CORS middleware.
func NewRouter(logger *slog.Logger, c Controllers, allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()

	// Events
	mux.HandleFunc("GET /api/events", c.Events.ListEvents)
	mux.HandleFunc("POST /api/events", c.Events.CreateEvent)
	mux.HandleFunc("DELETE /api/events", c.Events.DeleteEvent)
	mux.HandleFunc("GET /api/events/{slug}", c.Events.GetEventBySlug)
	mux.HandleFunc("GET /api/events/{slug}/similar", c.Events.ListSimilarEvents)
	mux.HandleFunc("PATCH /api/events/{id}", c.Events.UpdateEvent)

	// Bookings
	mux.HandleFunc("POST /api/bookings", c.Bookings.CreateBooking)

	// Ops
	mux.HandleFunc("GET /healthz", c.Health.Healthz)
	mux.Handle("GET /metrics", monitoring.Handler())
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	var handler http.Handler = mux
	handler = middleware.Metrics(handler)
	handler = middleware.LoggingMiddleware(logger, handler)
	handler = middleware.CORS(allowedOrigins, handler)
	return handler
}
