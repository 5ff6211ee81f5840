package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opsdeskhq/opsdesk-backend/api/controllers"
	"github.com/opsdeskhq/opsdesk-backend/api/middleware"
	"github.com/opsdeskhq/opsdesk-backend/internal/inventory"
	"github.com/opsdeskhq/opsdesk-backend/internal/notifications"
	"github.com/opsdeskhq/opsdesk-backend/internal/recruitment"
	"github.com/opsdeskhq/opsdesk-backend/pkg/config"
	"github.com/opsdeskhq/opsdesk-backend/pkg/enums"
	"github.com/opsdeskhq/opsdesk-backend/pkg/logger"
	"github.com/opsdeskhq/opsdesk-backend/pkg/metrics"
	pkgredis "github.com/opsdeskhq/opsdesk-backend/pkg/redis"
)

// RouterParams carries everything the HTTP surface depends on.
type RouterParams struct {
	Config  *config.Config
	Logger  *logger.Logger
	Metrics *metrics.Metrics

	DBPinger    controllers.Pinger
	RedisPinger controllers.Pinger
	Idempotency pkgredis.IdempotencyStore

	Recruitment   recruitment.Service
	Inventory     inventory.Service
	Notifications notifications.Service

	MetricsGatherer prometheus.Gatherer
}

func NewRouter(p RouterParams) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.Metrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DBPinger, p.RedisPinger))
	})

	if p.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	// Public surface: candidates browse open postings and submit without
	// credentials.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Idempotency(p.Idempotency, logg))
		r.Post("/api/v1/applications", controllers.SubmitApplication(p.Recruitment, logg))
	})
	r.Get("/api/v1/jobs", controllers.ListJobs(p.Recruitment, logg))
	r.Get("/api/v1/jobs/{id}", controllers.GetJob(p.Recruitment, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(p.Idempotency, logg))

		r.Route("/applications", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRoleHR))
			r.Get("/", controllers.ListApplications(p.Recruitment, logg))
			r.Get("/stats", controllers.ApplicationStats(p.Recruitment, logg))
			r.Get("/{id}", controllers.GetApplication(p.Recruitment, logg))
			r.Patch("/{id}/status", controllers.UpdateApplicationStatus(p.Recruitment, logg))
			r.Post("/{id}/reveal", controllers.RevealApplication(p.Recruitment, logg))
			r.Put("/{id}/notes", controllers.SetApplicationNotes(p.Recruitment, logg))
			r.Put("/{id}/rating", controllers.SetApplicationRating(p.Recruitment, logg))
			r.Post("/{id}/interview", controllers.ScheduleApplicationInterview(p.Recruitment, logg))
		})

		r.With(middleware.RequireRole(logg, enums.ActorRoleHR)).
			Post("/jobs", controllers.CreateJob(p.Recruitment, logg))

		r.Route("/inventory", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.ActorRoleWarehouse, enums.ActorRoleViewer, enums.ActorRoleHR))
				r.Get("/items", controllers.ListInventoryItems(p.Inventory, logg))
				r.Get("/items/{sku}", controllers.GetInventoryItem(p.Inventory, logg))
				r.Get("/transactions", controllers.ListInventoryTransactions(p.Inventory, logg))
				r.Get("/summary", controllers.InventorySummary(p.Inventory, logg))
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.ActorRoleWarehouse))
				r.Post("/items", controllers.UpsertInventoryItem(p.Inventory, logg))
				r.Post("/scan-in", controllers.ScanIn(p.Inventory, logg))
				r.Post("/check-out", controllers.CheckOut(p.Inventory, logg))
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(p.Notifications, logg))
			r.Post("/{id}/read", controllers.MarkNotificationRead(p.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(p.Notifications, logg))
		})
	})

	return r
}
