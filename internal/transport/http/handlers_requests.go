package httptransport

import (
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"lifeline/internal/donor"
	"lifeline/internal/matching"
	"lifeline/internal/platform/metrics"
	"lifeline/internal/platform/middleware"
	"lifeline/internal/request"
	"lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
)

// RequestHandler serves the blood request surface.
type RequestHandler struct {
	requests     *request.Service
	donors       *donor.Service
	orchestrator *matching.Orchestrator
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

type createRequestBody struct {
	HospitalName string  `json:"hospital_name"`
	BloodType    string  `json:"blood_type"`
	UnitsNeeded  int     `json:"units_needed"`
	Urgency      string  `json:"urgency"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

type requestView struct {
	ID             string     `json:"id"`
	HospitalName   string     `json:"hospital_name"`
	BloodType      string     `json:"blood_type"`
	UnitsNeeded    int        `json:"units_needed"`
	UnitsFulfilled int        `json:"units_fulfilled"`
	Urgency        string     `json:"urgency"`
	Latitude       float64    `json:"latitude"`
	Longitude      float64    `json:"longitude"`
	Status         string     `json:"status"`
	Partial        bool       `json:"partially_fulfilled"`
	CreatedAt      time.Time  `json:"created_at"`
	FulfilledAt    *time.Time `json:"fulfilled_at,omitempty"`
	DistanceKm     *float64   `json:"distance_km,omitempty"`
}

func toRequestView(r request.BloodRequest) requestView {
	return requestView{
		ID:             r.ID.String(),
		HospitalName:   r.HospitalName,
		BloodType:      r.BloodType.String(),
		UnitsNeeded:    r.UnitsNeeded,
		UnitsFulfilled: r.UnitsFulfilled,
		Urgency:        r.Urgency.String(),
		Latitude:       r.Latitude,
		Longitude:      r.Longitude,
		Status:         string(r.Status),
		Partial:        r.PartiallyFulfilled(),
		CreatedAt:      r.CreatedAt,
		FulfilledAt:    r.FulfilledAt,
	}
}

// handleCreate opens a request and runs the notification fan-out before
// responding, so the caller learns how many donors were reached.
func (h *RequestHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var body createRequestBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}

	bt, err := domain.ParseBloodType(body.BloodType)
	if err != nil {
		writeError(w, err)
		return
	}
	urgency, err := domain.ParseUrgency(body.Urgency)
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := h.requests.Create(ctx, request.CreateParams{
		HospitalName: body.HospitalName,
		BloodType:    bt,
		UnitsNeeded:  body.UnitsNeeded,
		Urgency:      urgency,
		Latitude:     body.Latitude,
		Longitude:    body.Longitude,
		CreatedBy:    middleware.GetUserID(ctx),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RequestsCreated.Inc()
	}

	notified, failures, err := h.orchestrator.OnRequestCreated(ctx, created)
	if err != nil {
		// The request exists; fan-out trouble is reported, not fatal.
		h.logger.ErrorContext(ctx, "notification fan-out failed",
			"request_id", created.ID.String(),
			"error", err,
		)
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"request":          toRequestView(created),
		"donors_notified":  notified,
		"dispatch_failed":  len(failures),
		"dispatch_details": failures,
	})
}

func (h *RequestHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	req, err := h.requests.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestView(req))
}

func (h *RequestHandler) handleActive(w http.ResponseWriter, r *http.Request) {
	open, err := h.requests.ListOpen(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]requestView, 0, len(open))
	for _, req := range open {
		views = append(views, toRequestView(req))
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": views})
}

// handleNearby lists open requests within the donor's radius, closest first.
func (h *RequestHandler) handleNearby(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donorID, err := domain.ParseDonorID(middleware.GetDonorID(ctx))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeForbidden, "donor identity required"))
		return
	}
	d, err := h.donors.Get(ctx, donorID)
	if err != nil {
		writeError(w, err)
		return
	}

	radius := matching.DefaultRadiusKm
	if raw := r.URL.Query().Get("radius_km"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid radius_km"))
			return
		}
		radius = parsed
	}

	open, err := h.requests.ListOpen(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	var views []requestView
	for _, req := range open {
		dist := matching.HaversineKm(d.Latitude, d.Longitude, req.Latitude, req.Longitude)
		if dist > radius {
			continue
		}
		v := toRequestView(req)
		v.DistanceKm = &dist
		views = append(views, v)
	}
	sortByDistance(views)
	writeJSON(w, http.StatusOK, map[string]any{"requests": views})
}

func (h *RequestHandler) handleClose(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	closed, err := h.requests.Close(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestView(closed))
}

func sortByDistance(views []requestView) {
	sort.Slice(views, func(i, j int) bool {
		return *views[i].DistanceKm < *views[j].DistanceKm
	})
}
