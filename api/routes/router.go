package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmagan/asadmindset-admin/api/controllers"
	"github.com/dmagan/asadmindset-admin/api/middleware"
	"github.com/dmagan/asadmindset-admin/internal/discounts"
	pushsvc "github.com/dmagan/asadmindset-admin/internal/push"
	subsvc "github.com/dmagan/asadmindset-admin/internal/subscriptions"
	"github.com/dmagan/asadmindset-admin/pkg/config"
	"github.com/dmagan/asadmindset-admin/pkg/logger"
)

// RouterParams carries everything the HTTP surface depends on. Pingers may
// be nil in tests; the readiness probe then skips that check.
type RouterParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	DBPinger      controllers.Pinger
	RedisPinger   controllers.Pinger
	Discounts     discounts.Service
	Subscriptions subsvc.Service
	Push          pushsvc.Service
}

// NewRouter mounts the full API surface: public health probes, the
// authenticated user surface, and the admin-gated management surface.
func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.DBPinger, params.RedisPinger))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/subscription", func(r chi.Router) {
			r.Post("/validate-discount", controllers.ValidateDiscount(params.Discounts, logg))
			r.Post("/request", controllers.SubscriptionRequest(params.Subscriptions, logg))
			r.Get("/status", controllers.SubscriptionStatus(params.Subscriptions, logg))
			r.Get("/history", controllers.SubscriptionHistory(params.Subscriptions, logg))
		})

		r.Route("/push", func(r chi.Router) {
			r.Post("/register", controllers.PushRegister(params.Push, logg))
			r.Post("/unregister", controllers.PushUnregister(params.Push, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logg))

			r.Route("/subscriptions", func(r chi.Router) {
				r.Get("/", controllers.AdminSubscriptionsList(params.Subscriptions, logg))
				r.Get("/stats", controllers.AdminSubscriptionsStats(params.Subscriptions, logg))
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", controllers.AdminSubscriptionGet(params.Subscriptions, logg))
					r.Put("/approve", controllers.AdminSubscriptionApprove(params.Subscriptions, logg))
					r.Put("/reject", controllers.AdminSubscriptionReject(params.Subscriptions, logg))
					r.Put("/update-status", controllers.AdminSubscriptionUpdateStatus(params.Subscriptions, logg))
					r.Put("/trash", controllers.AdminSubscriptionTrash(params.Subscriptions, logg))
					r.Put("/restore", controllers.AdminSubscriptionRestore(params.Subscriptions, logg))
					r.Delete("/permanent-delete", controllers.AdminSubscriptionPermanentDelete(params.Subscriptions, logg))
				})
			})

			r.Route("/discount-codes", func(r chi.Router) {
				r.Get("/", controllers.AdminDiscountCodesList(params.Discounts, logg))
				r.Post("/", controllers.AdminDiscountCodeCreate(params.Discounts, logg))
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", controllers.AdminDiscountCodeGet(params.Discounts, logg))
					r.Put("/", controllers.AdminDiscountCodeUpdate(params.Discounts, logg))
					r.Put("/trash", controllers.AdminDiscountCodeTrash(params.Discounts, logg))
					r.Put("/restore", controllers.AdminDiscountCodeRestore(params.Discounts, logg))
					r.Delete("/", controllers.AdminDiscountCodePermanentDelete(params.Discounts, logg))
					r.Get("/stats", controllers.AdminDiscountCodeStats(params.Discounts, logg))
				})
			})
		})
	})

	return r
}
