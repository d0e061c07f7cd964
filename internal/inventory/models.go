package inventory

import (
	"time"

	"lifeline/pkg/domain"
)

// Entry is the stock record for one blood type. Units never go negative;
// adjustments on the same type serialize in the store.
type Entry struct {
	BloodType   domain.BloodType `json:"blood_type"`
	Units       int              `json:"units_available"`
	Temperature float64          `json:"temperature"`
	LastUpdated time.Time        `json:"last_updated"`
}

// Level classifies how depleted a blood type's stock is.
type Level string

const (
	LevelCritical Level = "CRITICAL"
	LevelLow      Level = "LOW"
	LevelNormal   Level = "NORMAL"
)

// Thresholds holds the classification cut-offs. Units below Critical classify
// CRITICAL, below Low classify LOW, otherwise NORMAL.
type Thresholds struct {
	Critical int
	Low      int
}

// DefaultThresholds mirrors the production defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{Critical: 10, Low: 20}
}

// Classify maps a unit count onto a level.
func (t Thresholds) Classify(units int) Level {
	switch {
	case units < t.Critical:
		return LevelCritical
	case units < t.Low:
		return LevelLow
	default:
		return LevelNormal
	}
}
