package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/platform/sentinel"

	"lifeline/internal/platform/metrics"
)

// Service owns the chain. Mining runs without any lock against a snapshot of
// the tail; commits go through the store's conditional append, and a tail that
// advanced while mining triggers a bounded re-mine before surfacing as a
// conflict. No other component's lock is ever held during mining.
type Service struct {
	store      Store
	difficulty int
	maxRetries int
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithDifficulty sets the required number of leading zero hex digits.
func WithDifficulty(d int) Option {
	return func(s *Service) { s.difficulty = d }
}

// WithMaxRetries bounds re-mines after a stale tail.
func WithMaxRetries(n int) Option {
	return func(s *Service) { s.maxRetries = n }
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:      store,
		difficulty: 3,
		maxRetries: 5,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init creates the genesis block if the chain is empty. Idempotent: a genesis
// raced in by another replica is treated as success.
func (s *Service) Init(ctx context.Context) error {
	_, err := s.store.Tail(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read ledger tail")
	}
	genesis := NewGenesisBlock(time.Now())
	err = s.store.AppendAfter(ctx, genesis)
	if errors.Is(err, sentinel.ErrStaleTail) {
		return nil
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create genesis block")
	}
	s.logger.InfoContext(ctx, "ledger genesis created", "hash", genesis.Hash)
	return nil
}

// Append mines a block for payload onto the current tail and commits it.
// Returns CodeConflict once stale-tail retries are exhausted.
func (s *Service) Append(ctx context.Context, payload string) (Block, error) {
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		tail, err := s.store.Tail(ctx)
		if err != nil {
			return Block{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read ledger tail")
		}

		start := time.Now()
		block, err := mine(ctx, tail, payload, s.difficulty)
		if err != nil {
			return Block{}, dErrors.Wrap(err, dErrors.CodeInternal, "mining aborted")
		}

		err = s.store.AppendAfter(ctx, block)
		if errors.Is(err, sentinel.ErrStaleTail) {
			if s.metrics != nil {
				s.metrics.StaleTailRetries.Inc()
			}
			s.logger.InfoContext(ctx, "ledger tail advanced during mining, retrying",
				"attempt", attempt+1,
				"index", block.Index,
			)
			continue
		}
		if err != nil {
			return Block{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit block")
		}
		if s.metrics != nil {
			s.metrics.ObserveMining(time.Since(start))
		}
		s.logger.InfoContext(ctx, "ledger block committed",
			"index", block.Index,
			"hash", block.Hash,
			"nonce", block.Nonce,
			"mining_ms", time.Since(start).Milliseconds(),
		)
		return block, nil
	}
	return Block{}, dErrors.New(dErrors.CodeConflict, "ledger append contention exhausted")
}

// Get returns the block at index.
func (s *Service) Get(ctx context.Context, index int64) (Block, error) {
	b, err := s.store.Get(ctx, index)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Block{}, dErrors.New(dErrors.CodeNotFound, "block not found")
	}
	if err != nil {
		return Block{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read block")
	}
	return b, nil
}

// List returns the whole chain in index order.
func (s *Service) List(ctx context.Context) ([]Block, error) {
	blocks, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list blocks")
	}
	return blocks, nil
}
