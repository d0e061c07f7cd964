package httptransport

import (
	"log/slog"
	"net/http"

	"lifeline/internal/inventory"
	"lifeline/pkg/domain"
)

// InventoryHandler serves the blood bank stock surface.
type InventoryHandler struct {
	inventory *inventory.Service
	logger    *slog.Logger
}

type inventoryView struct {
	BloodType   string  `json:"blood_type"`
	Units       int     `json:"units"`
	Temperature float64 `json:"temperature"`
	Level       string  `json:"level"`
}

func (h *InventoryHandler) handleList(w http.ResponseWriter, r *http.Request) {
	entries, levels, err := h.inventory.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]inventoryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, inventoryView{
			BloodType:   e.BloodType.String(),
			Units:       e.Units,
			Temperature: e.Temperature,
			Level:       string(levels[e.BloodType]),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"inventory": views})
}

type adjustBody struct {
	BloodType string `json:"blood_type"`
	Delta     int    `json:"delta"`
}

func (h *InventoryHandler) handleAdjust(w http.ResponseWriter, r *http.Request) {
	var body adjustBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	bt, err := domain.ParseBloodType(body.BloodType)
	if err != nil {
		writeError(w, err)
		return
	}
	units, err := h.inventory.Adjust(r.Context(), bt, body.Delta)
	if err != nil {
		writeError(w, err)
		return
	}
	level, err := h.inventory.Classify(r.Context(), bt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"blood_type": bt.String(),
		"units":      units,
		"level":      string(level),
	})
}
