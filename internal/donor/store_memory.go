package donor

import (
	"context"
	"sort"
	"sync"
	"time"

	"lifeline/pkg/domain"
	"lifeline/pkg/platform/sentinel"
)

// InMemoryStore keeps donors in a map guarded by a RWMutex. Used in tests and
// local development; production uses PostgresStore.
type InMemoryStore struct {
	mu     sync.RWMutex
	donors map[domain.DonorID]Donor
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{donors: make(map[domain.DonorID]Donor)}
}

func (s *InMemoryStore) Save(_ context.Context, d Donor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.donors[d.ID] = cloneDonor(d)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.DonorID) (Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.donors[id]
	if !ok {
		return Donor{}, sentinel.ErrNotFound
	}
	return cloneDonor(d), nil
}

func (s *InMemoryStore) ListAvailable(_ context.Context) ([]Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Donor, 0, len(s.donors))
	for _, d := range s.donors {
		if d.Available {
			out = append(out, cloneDonor(d))
		}
	}
	return out, nil
}

func (s *InMemoryStore) UpdateLocation(_ context.Context, id domain.DonorID, lat, lon float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.donors[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	d.Latitude = lat
	d.Longitude = lon
	s.donors[id] = d
	return nil
}

func (s *InMemoryStore) SetAvailability(_ context.Context, id domain.DonorID, available bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.donors[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	d.Available = available
	s.donors[id] = d
	return nil
}

func (s *InMemoryStore) Credit(_ context.Context, id domain.DonorID, donatedAt time.Time) (Donor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.donors[id]
	if !ok {
		return Donor{}, sentinel.ErrNotFound
	}
	at := donatedAt
	d.LastDonation = &at
	d.TotalDonations++
	d.Points += PointsPerDonation
	d.Badges = earnedBadges(d.TotalDonations)
	s.donors[id] = d
	return cloneDonor(d), nil
}

func (s *InMemoryStore) TopByPoints(_ context.Context, limit int) ([]Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Donor, 0, len(s.donors))
	for _, d := range s.donors {
		out = append(out, cloneDonor(d))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// cloneDonor copies the badge slice so callers cannot mutate stored state.
func cloneDonor(d Donor) Donor {
	if d.LastDonation != nil {
		at := *d.LastDonation
		d.LastDonation = &at
	}
	d.Badges = append([]string(nil), d.Badges...)
	return d
}
