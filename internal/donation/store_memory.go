package donation

import (
	"context"
	"sort"
	"sync"
	"time"

	"lifeline/pkg/domain"
	"lifeline/pkg/platform/sentinel"
)

// InMemoryStore keeps donations in a mutex-guarded map. Used by tests and by
// deployments without Postgres.
type InMemoryStore struct {
	mu        sync.RWMutex
	donations map[domain.DonationID]Donation
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{donations: make(map[domain.DonationID]Donation)}
}

func (s *InMemoryStore) Save(_ context.Context, d Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.donations[d.ID]; ok {
		// Idempotent re-save keeps the original record; only the block
		// binding may change through BindBlock.
		d.BlockIndex = existing.BlockIndex
	}
	s.donations[d.ID] = d
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.DonationID) (Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.donations[id]
	if !ok {
		return Donation{}, sentinel.ErrNotFound
	}
	return d, nil
}

func (s *InMemoryStore) ListByDonor(_ context.Context, donorID domain.DonorID) ([]Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Donation
	for _, d := range s.donations {
		if d.DonorID == donorID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DonatedAt.After(out[j].DonatedAt) })
	return out, nil
}

func (s *InMemoryStore) ListPendingLedger(_ context.Context) ([]Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Donation
	for _, d := range s.donations {
		if d.Pending() {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DonatedAt.Before(out[j].DonatedAt) })
	return out, nil
}

func (s *InMemoryStore) BindBlock(_ context.Context, id domain.DonationID, blockIndex int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.donations[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	d.BlockIndex = blockIndex
	s.donations[id] = d
	return nil
}

func (s *InMemoryStore) ListSince(_ context.Context, since time.Time) ([]Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Donation
	for _, d := range s.donations {
		if !d.DonatedAt.Before(since) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DonatedAt.Before(out[j].DonatedAt) })
	return out, nil
}

func (s *InMemoryStore) Totals(_ context.Context) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count, units := 0, 0
	for _, d := range s.donations {
		count++
		units += d.Units
	}
	return count, units, nil
}
