package request

import (
	"context"
	"sort"
	"sync"

	"lifeline/pkg/domain"
	"lifeline/pkg/platform/sentinel"
)

// InMemoryStore keeps requests in a map guarded by a RWMutex.
type InMemoryStore struct {
	mu       sync.RWMutex
	requests map[domain.RequestID]BloodRequest
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{requests: make(map[domain.RequestID]BloodRequest)}
}

func (s *InMemoryStore) Save(_ context.Context, r BloodRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[r.ID] = cloneRequest(r)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.RequestID) (BloodRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return BloodRequest{}, sentinel.ErrNotFound
	}
	return cloneRequest(r), nil
}

func (s *InMemoryStore) ListByStatus(_ context.Context, status Status) ([]BloodRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []BloodRequest
	for _, r := range s.requests {
		if r.Status == status {
			out = append(out, cloneRequest(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.requests), nil
}

func cloneRequest(r BloodRequest) BloodRequest {
	if r.FulfilledAt != nil {
		at := *r.FulfilledAt
		r.FulfilledAt = &at
	}
	return r
}
