package request

import (
	"time"

	"lifeline/pkg/domain"
)

// Status is the lifecycle state of a blood request. PARTIALLY_FULFILLED is an
// observable substate of OPEN (0 < fulfilled < needed), not a stored status.
type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusFulfilled Status = "FULFILLED" // terminal
	StatusClosed    Status = "CLOSED"    // terminal, admin-initiated
)

// Terminal reports whether no further fulfillment is accepted.
func (s Status) Terminal() bool {
	return s == StatusFulfilled || s == StatusClosed
}

// BloodRequest is a hospital's demand for units of one blood type. Mutated
// only through Service transitions.
type BloodRequest struct {
	ID             domain.RequestID
	HospitalName   string
	BloodType      domain.BloodType
	UnitsNeeded    int
	UnitsFulfilled int
	Urgency        domain.Urgency
	Latitude       float64
	Longitude      float64
	Status         Status
	CreatedBy      string
	CreatedAt      time.Time
	FulfilledAt    *time.Time
}

// PartiallyFulfilled reports the observable OPEN substate.
func (r *BloodRequest) PartiallyFulfilled() bool {
	return r.Status == StatusOpen && r.UnitsFulfilled > 0 && r.UnitsFulfilled < r.UnitsNeeded
}
