package httptransport

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"lifeline/internal/donor"
	"lifeline/internal/platform/middleware"
	"lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
)

// DonorHandler serves donor self-service and the public leaderboard.
type DonorHandler struct {
	donors *donor.Service
	logger *slog.Logger
}

type donorView struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	BloodType      string     `json:"blood_type"`
	Latitude       float64    `json:"latitude"`
	Longitude      float64    `json:"longitude"`
	LastDonation   *time.Time `json:"last_donation,omitempty"`
	TotalDonations int        `json:"total_donations"`
	Points         int        `json:"points"`
	Badges         []string   `json:"badges"`
	Available      bool       `json:"available"`
}

func toDonorView(d donor.Donor) donorView {
	return donorView{
		ID:             d.ID.String(),
		Name:           d.Name,
		BloodType:      d.BloodType.String(),
		Latitude:       d.Latitude,
		Longitude:      d.Longitude,
		LastDonation:   d.LastDonation,
		TotalDonations: d.TotalDonations,
		Points:         d.Points,
		Badges:         d.Badges,
		Available:      d.Available,
	}
}

func (h *DonorHandler) selfID(r *http.Request) (domain.DonorID, error) {
	id, err := domain.ParseDonorID(middleware.GetDonorID(r.Context()))
	if err != nil {
		return domain.DonorID{}, dErrors.New(dErrors.CodeForbidden, "donor identity required")
	}
	return id, nil
}

func (h *DonorHandler) handleProfile(w http.ResponseWriter, r *http.Request) {
	id, err := h.selfID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	d, err := h.donors.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDonorView(d))
}

type locationBody struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (h *DonorHandler) handleLocation(w http.ResponseWriter, r *http.Request) {
	id, err := h.selfID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var body locationBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if err := h.donors.UpdateLocation(r.Context(), id, body.Latitude, body.Longitude); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type availabilityBody struct {
	Available bool `json:"available"`
}

func (h *DonorHandler) handleAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := h.selfID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var body availabilityBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if err := h.donors.SetAvailability(r.Context(), id, body.Available); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleLeaderboard serves the public points ranking.
func (h *DonorHandler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid limit"))
			return
		}
		limit = parsed
	}
	entries, err := h.donors.Leaderboard(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": entries})
}
