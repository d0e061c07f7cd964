package httptransport

import (
	"log/slog"
	"net/http"

	"lifeline/internal/stats"
)

// StatsHandler serves aggregated platform statistics to admins.
type StatsHandler struct {
	stats  *stats.Service
	logger *slog.Logger
}

func (h *StatsHandler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.stats.Collect(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleAdminStatistics augments the snapshot with outstanding demand per
// blood type so admins can steer inventory.
func (h *StatsHandler) handleAdminStatistics(w http.ResponseWriter, r *http.Request) {
	snap, err := h.stats.Collect(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	demand, err := h.stats.Demand(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"snapshot":       snap,
		"demand_by_type": demand,
	})
}
