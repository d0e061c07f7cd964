package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lifeline/internal/donation"
	"lifeline/internal/donor"
	"lifeline/internal/inventory"
	"lifeline/internal/ledger"
	"lifeline/internal/matching"
	"lifeline/internal/platform/metrics"
	"lifeline/internal/platform/middleware"
	"lifeline/internal/request"
	"lifeline/internal/stats"
)

// Deps carries everything the HTTP layer delegates to. Handlers stay thin;
// all business rules live in the services.
type Deps struct {
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
	Validator    middleware.Validator
	Donors       *donor.Service
	Requests     *request.Service
	Inventory    *inventory.Service
	Ledger       *ledger.Service
	Coordinator  *donation.Coordinator
	Orchestrator *matching.Orchestrator
	Stats        *stats.Service
}

// NewRouter wires the full API surface behind the standard middleware chain.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	requests := &RequestHandler{
		requests:     d.Requests,
		donors:       d.Donors,
		orchestrator: d.Orchestrator,
		metrics:      d.Metrics,
		logger:       d.Logger,
	}
	donations := &DonationHandler{coordinator: d.Coordinator, logger: d.Logger}
	donors := &DonorHandler{donors: d.Donors, logger: d.Logger}
	inv := &InventoryHandler{inventory: d.Inventory, logger: d.Logger}
	chain := &LedgerHandler{ledger: d.Ledger, logger: d.Logger}
	statistics := &StatsHandler{stats: d.Stats, logger: d.Logger}

	r.Route("/api", func(api chi.Router) {
		// Public reads.
		api.Get("/leaderboard", donors.handleLeaderboard)
		api.Get("/inventory", inv.handleList)

		// Authenticated surface.
		api.Group(func(authed chi.Router) {
			authed.Use(middleware.RequireAuth(d.Validator, d.Logger))

			authed.Post("/requests", requests.handleCreate)
			authed.Get("/requests/active", requests.handleActive)
			authed.Get("/requests/nearby", requests.handleNearby)
			authed.Get("/requests/{id}", requests.handleGet)

			authed.Post("/donations", donations.handleCommit)
			authed.Get("/donations/mine", donations.handleMine)

			authed.Get("/donor/profile", donors.handleProfile)
			authed.Post("/donor/location", donors.handleLocation)
			authed.Post("/donor/availability", donors.handleAvailability)
		})

		// Admin surface.
		api.Group(func(admin chi.Router) {
			admin.Use(middleware.RequireAuth(d.Validator, d.Logger))
			admin.Use(middleware.RequireAdmin(d.Logger))

			admin.Post("/admin/inventory/adjust", inv.handleAdjust)
			admin.Post("/admin/requests/{id}/close", requests.handleClose)
			admin.Get("/admin/statistics", statistics.handleAdminStatistics)
			admin.Get("/ledger", chain.handleList)
			admin.Get("/ledger/verify", chain.handleVerify)
			admin.Get("/stats/snapshot", statistics.handleSnapshot)
		})
	})
	return r
}
