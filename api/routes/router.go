package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rosewood-events/rosewood-backend/api/controllers"
	"github.com/rosewood-events/rosewood-backend/api/middleware"
	"github.com/rosewood-events/rosewood-backend/internal/audit"
	"github.com/rosewood-events/rosewood-backend/internal/booking"
	"github.com/rosewood-events/rosewood-backend/internal/catalog"
	"github.com/rosewood-events/rosewood-backend/internal/ledger"
	"github.com/rosewood-events/rosewood-backend/internal/payments"
	"github.com/rosewood-events/rosewood-backend/pkg/config"
	"github.com/rosewood-events/rosewood-backend/pkg/db"
	"github.com/rosewood-events/rosewood-backend/pkg/logger"
	pkgredis "github.com/rosewood-events/rosewood-backend/pkg/redis"
)

// NewRouter assembles the HTTP surface: health probes, metrics, and the
// authenticated ledger API.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	ledgerService ledger.Service,
	bookingService booking.Service,
	paymentService payments.Service,
	catalogService catalog.Service,
	auditService audit.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		if redisClient != nil {
			r.Use(middleware.Idempotency(redisClient, logg))
		}

		r.Route("/events", func(r chi.Router) {
			r.Post("/", controllers.CreateEvent(ledgerService, logg))
			r.Get("/", controllers.ListEvents(ledgerService, logg))

			r.Route("/{eventID}", func(r chi.Router) {
				r.Get("/", controllers.GetEvent(ledgerService, logg))
				r.Put("/", controllers.UpdateEvent(ledgerService, logg))
				r.Get("/financials", controllers.EventFinancials(ledgerService, logg))

				r.With(middleware.RequireStaff(logg)).Put("/status", controllers.UpdateEventStatus(ledgerService, logg))
				r.Delete("/", controllers.DeleteEvent(ledgerService, logg))

				r.Route("/services", func(r chi.Router) {
					r.Post("/", controllers.AddEventService(bookingService, logg))
					r.Get("/", controllers.ListEventServices(bookingService, logg))
					r.Delete("/{serviceID}", controllers.CancelEventService(bookingService, logg))
				})
			})
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/", controllers.RecordPayment(paymentService, logg))
			r.Get("/", controllers.ListPayments(paymentService, logg))
			r.Get("/{paymentID}", controllers.GetPayment(paymentService, logg))
			r.Put("/{paymentID}", controllers.UpdatePayment(paymentService, logg))
			r.With(middleware.RequireStaff(logg)).Delete("/{paymentID}", controllers.DeletePayment(paymentService, logg))
		})

		r.Get("/services", controllers.ListCatalogServices(catalogService, logg))

		r.With(middleware.RequireStaff(logg)).Get("/dashboard/upcoming", controllers.UpcomingEvents(ledgerService, logg))

		r.With(middleware.RequireStaff(logg)).Get("/activity", controllers.ListActivity(auditService, logg))
	})

	return r
}
