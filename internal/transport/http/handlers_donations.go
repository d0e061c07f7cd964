package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"lifeline/internal/donation"
	"lifeline/internal/platform/middleware"
	"lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
)

// DonationHandler serves donation commits and history.
type DonationHandler struct {
	coordinator *donation.Coordinator
	logger      *slog.Logger
}

type commitDonationBody struct {
	RequestID string `json:"request_id"`
	Units     int    `json:"units"`
}

type donationView struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"request_id"`
	BloodType  string    `json:"blood_type"`
	Units      int       `json:"units"`
	DonatedAt  time.Time `json:"donated_at"`
	BlockIndex int64     `json:"block_index"`
	Pending    bool      `json:"ledger_pending"`
}

func toDonationView(d donation.Donation) donationView {
	return donationView{
		ID:         d.ID.String(),
		RequestID:  d.RequestID.String(),
		BloodType:  d.BloodType.String(),
		Units:      d.Units,
		DonatedAt:  d.DonatedAt,
		BlockIndex: d.BlockIndex,
		Pending:    d.Pending(),
	}
}

// handleCommit runs the full donation transaction for the authenticated donor.
func (h *DonationHandler) handleCommit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donorID, err := domain.ParseDonorID(middleware.GetDonorID(ctx))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeForbidden, "donor identity required"))
		return
	}

	var body commitDonationBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	requestID, err := domain.ParseRequestID(body.RequestID)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := h.coordinator.Commit(ctx, donation.CommitParams{
		DonorID:   donorID,
		RequestID: requestID,
		Units:     body.Units,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"donation":          toDonationView(res.Donation),
		"units_applied":     res.AppliedUnits,
		"request_completed": res.RequestCompleted,
		"donor": map[string]any{
			"total_donations": res.Donor.TotalDonations,
			"points":          res.Donor.Points,
			"badges":          res.Donor.Badges,
		},
	})
}

// handleMine returns the authenticated donor's history, newest first.
func (h *DonationHandler) handleMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donorID, err := domain.ParseDonorID(middleware.GetDonorID(ctx))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeForbidden, "donor identity required"))
		return
	}
	history, err := h.coordinator.History(ctx, donorID)
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]donationView, 0, len(history))
	for _, d := range history {
		views = append(views, toDonationView(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{"donations": views})
}
