package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nearcart/nearcart-backend/api/controllers"
	"github.com/nearcart/nearcart-backend/api/middleware"
	"github.com/nearcart/nearcart-backend/internal/authz"
	"github.com/nearcart/nearcart-backend/internal/commission"
	"github.com/nearcart/nearcart-backend/internal/ledger"
	"github.com/nearcart/nearcart-backend/internal/orders"
	"github.com/nearcart/nearcart-backend/internal/verification"
	"github.com/nearcart/nearcart-backend/internal/withdrawals"
	"github.com/nearcart/nearcart-backend/pkg/config"
	"github.com/nearcart/nearcart-backend/pkg/db"
	"github.com/nearcart/nearcart-backend/pkg/logger"
	"github.com/nearcart/nearcart-backend/pkg/metrics"
	"github.com/nearcart/nearcart-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	matrix authz.Service,
	ordersSvc orders.Service,
	ledgerSvc ledger.Service,
	withdrawalsSvc withdrawals.Service,
	verificationSvc verification.Service,
	commissionSvc commission.Service,
	engineMetrics *metrics.EngineMetrics,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	perm := func(resource, action string) func(http.Handler) http.Handler {
		return middleware.RequirePermission(matrix, resource, action, logg)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, cfg.Engine.IdempotencyTTL, engineMetrics, logg))

		r.Route("/orders", func(r chi.Router) {
			r.With(perm(authz.ResourceOrders, authz.ActionPlace)).Post("/", controllers.PlaceOrder(ordersSvc, logg))
			r.With(perm(authz.ResourceOrders, authz.ActionRead)).Get("/", controllers.ListMyOrders(ordersSvc, logg))
			r.With(perm(authz.ResourceOrders, authz.ActionRead)).Get("/slug/{slug}", controllers.GetOrderBySlug(ordersSvc, logg))
			r.With(perm(authz.ResourceOrders, authz.ActionRead)).Get("/{orderId}", controllers.GetOrder(ordersSvc, logg))
			// The transition grant depends on the event in the body, so the
			// controller consults the matrix itself.
			r.Post("/{orderId}/transitions", controllers.TransitionOrder(ordersSvc, matrix, engineMetrics, logg))
			r.With(perm(authz.ResourceLedger, authz.ActionRead)).Get("/{orderId}/ledger", controllers.OrderLedgerEntries(ledgerSvc, logg))
		})

		r.Route("/ledger", func(r chi.Router) {
			r.With(perm(authz.ResourceLedger, authz.ActionRead)).Get("/balance", controllers.LedgerBalance(ledgerSvc, logg))
			r.With(perm(authz.ResourceLedger, authz.ActionRead)).Get("/history", controllers.LedgerHistory(ledgerSvc, logg))
			r.With(perm(authz.ResourceLedger, authz.ActionRead)).Get("/{partyKind}/{partyId}", controllers.LedgerPartyHistory(ledgerSvc, logg))
			r.With(perm(authz.ResourceLedger, authz.ActionRead)).Get("/{partyKind}/{partyId}/balance", controllers.LedgerPartyBalance(ledgerSvc, logg))
		})

		r.Route("/withdrawals", func(r chi.Router) {
			r.With(perm(authz.ResourceWithdrawals, authz.ActionRequest)).Post("/", controllers.RequestWithdrawal(withdrawalsSvc, logg))
			r.With(perm(authz.ResourceWithdrawals, authz.ActionRead)).Get("/", controllers.ListWithdrawals(withdrawalsSvc, logg))
			r.With(perm(authz.ResourceWithdrawals, authz.ActionDecide)).Get("/pending", controllers.ListPendingWithdrawals(withdrawalsSvc, logg))
			r.With(perm(authz.ResourceWithdrawals, authz.ActionRead)).Get("/{withdrawalId}", controllers.GetWithdrawal(withdrawalsSvc, logg))
			r.With(perm(authz.ResourceWithdrawals, authz.ActionDecide)).Patch("/{withdrawalId}", controllers.DecideWithdrawal(withdrawalsSvc, engineMetrics, logg))
		})

		r.Route("/verification", func(r chi.Router) {
			r.With(perm(authz.ResourceVerification, authz.ActionSubmit)).Post("/submissions", controllers.SubmitVerification(verificationSvc, logg))
			r.With(perm(authz.ResourceVerification, authz.ActionDecide)).Post("/decisions", controllers.DecideVerification(verificationSvc, logg))
			r.With(perm(authz.ResourceVerification, authz.ActionDecide)).Post("/suspensions", controllers.SuspendVerification(verificationSvc, logg))
			r.With(perm(authz.ResourceVerification, authz.ActionRead)).Get("/pending", controllers.ListPendingVerifications(verificationSvc, logg))
			r.With(perm(authz.ResourceVerification, authz.ActionRead)).Get("/{kind}/{subjectId}", controllers.VerificationStatus(verificationSvc, logg))
			r.With(perm(authz.ResourceVerification, authz.ActionDecide)).Post("/{kind}/{subjectId}", controllers.DecideVerificationSubject(verificationSvc, logg))
		})

		r.Route("/commission-policies", func(r chi.Router) {
			r.With(perm(authz.ResourceCommissionPolicies, authz.ActionRead)).Get("/", controllers.ListCommissionPolicies(commissionSvc, logg))
			r.With(perm(authz.ResourceCommissionPolicies, authz.ActionWrite)).Put("/", controllers.UpsertCommissionPolicy(commissionSvc, logg))
		})
	})

	return r
}
