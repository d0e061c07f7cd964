package inventory

import (
	"context"
	"sync"
	"time"

	"lifeline/pkg/domain"
	"lifeline/pkg/platform/sentinel"
)

// defaultTemperature is the simulated cold-chain storage temperature.
const defaultTemperature = 4.0

// InMemoryStore holds one guarded entry per blood type. Each type has its own
// mutex so adjustments to different types never contend.
type InMemoryStore struct {
	entries map[domain.BloodType]*guardedEntry
}

type guardedEntry struct {
	mu    sync.Mutex
	entry Entry
}

// NewInMemoryStore seeds all eight blood types at zero units.
func NewInMemoryStore() *InMemoryStore {
	entries := make(map[domain.BloodType]*guardedEntry, 8)
	now := time.Now()
	for _, bt := range domain.AllBloodTypes() {
		entries[bt] = &guardedEntry{entry: Entry{
			BloodType:   bt,
			Units:       0,
			Temperature: defaultTemperature,
			LastUpdated: now,
		}}
	}
	return &InMemoryStore{entries: entries}
}

func (s *InMemoryStore) Adjust(_ context.Context, bt domain.BloodType, delta int) (int, error) {
	g, ok := s.entries[bt]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	next := g.entry.Units + delta
	if next < 0 {
		return g.entry.Units, sentinel.ErrConflict
	}
	g.entry.Units = next
	g.entry.LastUpdated = time.Now()
	return next, nil
}

func (s *InMemoryStore) Get(_ context.Context, bt domain.BloodType) (Entry, error) {
	g, ok := s.entries[bt]
	if !ok {
		return Entry{}, sentinel.ErrNotFound
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.entry, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]Entry, error) {
	out := make([]Entry, 0, len(s.entries))
	for _, bt := range domain.AllBloodTypes() {
		g := s.entries[bt]
		g.mu.Lock()
		out = append(out, g.entry)
		g.mu.Unlock()
	}
	return out, nil
}
