package ledger

import (
	"context"
	"sync"

	"lifeline/pkg/platform/sentinel"
)

// InMemoryStore keeps the chain as a slice guarded by a RWMutex.
type InMemoryStore struct {
	mu     sync.RWMutex
	blocks []Block
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) AppendAfter(_ context.Context, b Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.blocks) == 0 {
		if b.PrevHash != GenesisPrevHash {
			return sentinel.ErrStaleTail
		}
	} else {
		tail := s.blocks[len(s.blocks)-1]
		if b.PrevHash != tail.Hash || b.Index != tail.Index+1 {
			return sentinel.ErrStaleTail
		}
	}
	s.blocks = append(s.blocks, b)
	return nil
}

func (s *InMemoryStore) Tail(_ context.Context) (Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.blocks) == 0 {
		return Block{}, sentinel.ErrNotFound
	}
	return s.blocks[len(s.blocks)-1], nil
}

func (s *InMemoryStore) Get(_ context.Context, index int64) (Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= int64(len(s.blocks)) {
		return Block{}, sentinel.ErrNotFound
	}
	return s.blocks[index], nil
}

func (s *InMemoryStore) List(_ context.Context) ([]Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Block(nil), s.blocks...), nil
}

func (s *InMemoryStore) Length(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.blocks)), nil
}

// tamper overwrites a stored block. Only reachable from tests in this package;
// the public API is append-only.
func (s *InMemoryStore) tamper(index int64, b Block) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks[index] = b
}
