package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/playabars/playabars-backend/api/controllers"
	webhookcontrollers "github.com/playabars/playabars-backend/api/controllers/webhooks"
	"github.com/playabars/playabars-backend/api/middleware"
	"github.com/playabars/playabars-backend/pkg/config"
	"github.com/playabars/playabars-backend/pkg/logger"
	"github.com/playabars/playabars-backend/pkg/redis"
)

// RouterParams carries everything the HTTP surface depends on.
type RouterParams struct {
	Config         *config.Config
	Logger         *logger.Logger
	Redis          redis.IdempotencyStore
	Probes         map[string]controllers.Pinger
	Connect        controllers.ConnectService
	AccountDeleter controllers.AccountDeleter
	Teardown       controllers.TeardownService
	Payments       controllers.PaymentService
	StripeWebhook  webhookcontrollers.StripeWebhookService
}

// NewRouter assembles the API surface. Webhooks sit outside auth since the
// provider signs its own requests; everything else under /api/v1 requires a
// bearer token.
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
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.Probes))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(params.StripeWebhook, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(params.Redis, logg))

		r.HandleFunc("/stripe-connect", controllers.StripeConnect(params.Connect, logg))
		r.Post("/account-management", controllers.AccountManagement(params.AccountDeleter, params.Teardown, logg))
		r.Post("/checkout/payment-intent", controllers.CreatePaymentIntent(params.Payments, logg))
	})

	return r
}
