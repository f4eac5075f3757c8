package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vogiaan1904/ticketbottle-booking/config"
	"github.com/vogiaan1904/ticketbottle-booking/internal/metrics"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

// NewRouter mounts every HTTP route. The rate limiter janitor stops when ctx
// is done.
func NewRouter(ctx context.Context, h *HTTPHandler, m *metrics.Metrics, rlCfg config.RateLimitConfig, l logger.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(l), middleware.Recoverer)

	r.Get("/healthz", h.HealthCheck)
	if m != nil {
		r.Handle("/metrics", m.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		if rlCfg.Enabled {
			rl := newIPRateLimiter(rlCfg)
			rl.startJanitor(ctx)
			r.Use(rl.middleware)
		}

		r.Route("/queue", func(r chi.Router) {
			// the stream outlives any request timeout
			r.Get("/stream/{token}", h.StreamQueueStatus)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(15 * time.Second))
				r.Post("/join", h.JoinQueue)
				r.Get("/status/{token}", h.GetQueueStatus)
				r.Get("/stats", h.GetQueueStats)
				r.Post("/process", h.ProcessQueue)
				r.Delete("/active/{userId}", h.RemoveActiveUser)
				r.Delete("/reset", h.ResetQueue)
			})
		})

		r.Post("/bookings", h.BookSeat)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(15 * time.Second))
			r.Get("/bookings/{id}", h.GetBooking)
			r.Get("/seats", h.ListSeats)
			r.Get("/seats/{seatNumber}/status", h.GetSeatStatus)
			r.Get("/users/{userId}/bookings", h.ListUserBookings)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.respondJSON(w, r, http.StatusNotFound, messageResponse{Message: "Route not found"})
	})

	return r
}
