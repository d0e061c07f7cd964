package httptransport

import (
	"log/slog"
	"net/http"

	"lifeline/internal/ledger"
)

// LedgerHandler exposes the donation chain for audit.
type LedgerHandler struct {
	ledger *ledger.Service
	logger *slog.Logger
}

func (h *LedgerHandler) handleList(w http.ResponseWriter, r *http.Request) {
	blocks, err := h.ledger.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"blocks": blocks})
}

func (h *LedgerHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	report, err := h.ledger.Verify(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if !report.OK {
		h.logger.ErrorContext(r.Context(), "ledger integrity violation detected",
			"index", report.Violation.Index,
			"kind", string(report.Violation.Kind),
		)
	}
	writeJSON(w, http.StatusOK, report)
}
