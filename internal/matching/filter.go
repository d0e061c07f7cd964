package matching

import (
	"math"
	"sort"
	"time"

	"lifeline/internal/donor"
	"lifeline/internal/request"
)

// Candidate is one donor ranked for a request.
type Candidate struct {
	Donor      donor.Donor
	DistanceKm float64
}

// FilterParams tune the pure matching function. Zero values fall back to the
// production defaults of 50 km and 90 days.
type FilterParams struct {
	RadiusKm float64
	Cooldown time.Duration
}

const (
	// DefaultRadiusKm is the inclusive matching radius.
	DefaultRadiusKm = 50.0
	// DefaultCooldown is the minimum gap between donations.
	DefaultCooldown = 90 * 24 * time.Hour
)

// Match returns donors that are blood-compatible with the request, within the
// radius (inclusive boundary), available, and past cooldown, ordered by
// ascending distance with descending points breaking ties. Pure: no side
// effects, and idempotent for identical inputs.
func Match(req request.BloodRequest, donors []donor.Donor, now time.Time, p FilterParams) []Candidate {
	radius := p.RadiusKm
	if radius <= 0 {
		radius = DefaultRadiusKm
	}
	cooldown := p.Cooldown
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}

	var candidates []Candidate
	for _, d := range donors {
		if !d.Available {
			continue
		}
		if !d.BloodType.CanDonateTo(req.BloodType) {
			continue
		}
		if !d.EligibleAt(now, cooldown) {
			continue
		}
		dist := HaversineKm(d.Latitude, d.Longitude, req.Latitude, req.Longitude)
		if dist > radius {
			continue
		}
		candidates = append(candidates, Candidate{Donor: d, DistanceKm: dist})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].DistanceKm != candidates[j].DistanceKm {
			return candidates[i].DistanceKm < candidates[j].DistanceKm
		}
		return candidates[i].Donor.Points > candidates[j].Donor.Points
	})
	return candidates
}

// earthRadiusKm is the mean Earth radius.
const earthRadiusKm = 6371.0

// HaversineKm computes the great-circle distance between two coordinates.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}
