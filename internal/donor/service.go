package donor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/platform/sentinel"
)

// Service owns donor self-service operations and the reward projection.
// Commit-time crediting is invoked by the donation coordinator; everything
// else is donor-initiated.
type Service struct {
	store  Store
	cache  LeaderboardCache
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithLeaderboardCache enables the Redis-backed leaderboard cache.
func WithLeaderboardCache(cache LeaderboardCache) Option {
	return func(s *Service) { s.cache = cache }
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Get(ctx context.Context, id domain.DonorID) (Donor, error) {
	d, err := s.store.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Donor{}, dErrors.New(dErrors.CodeNotFound, "donor not found")
	}
	if err != nil {
		return Donor{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donor")
	}
	return d, nil
}

func (s *Service) ListAvailable(ctx context.Context) ([]Donor, error) {
	donors, err := s.store.ListAvailable(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list donors")
	}
	return donors, nil
}

func (s *Service) UpdateLocation(ctx context.Context, id domain.DonorID, lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return dErrors.New(dErrors.CodeBadRequest, "coordinates out of range")
	}
	err := s.store.UpdateLocation(ctx, id, lat, lon)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "donor not found")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update location")
	}
	return nil
}

func (s *Service) SetAvailability(ctx context.Context, id domain.DonorID, available bool) error {
	err := s.store.SetAvailability(ctx, id, available)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "donor not found")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update availability")
	}
	return nil
}

// Credit applies the per-donation reward and invalidates the cached
// leaderboard so the projection reflects the new points on next read.
func (s *Service) Credit(ctx context.Context, id domain.DonorID, donatedAt time.Time) (Donor, error) {
	d, err := s.store.Credit(ctx, id, donatedAt)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Donor{}, dErrors.New(dErrors.CodeNotFound, "donor not found")
	}
	if err != nil {
		return Donor{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit donor")
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.WarnContext(ctx, "leaderboard cache invalidation failed", "error", err)
		}
	}
	s.logger.InfoContext(ctx, "donor credited",
		"donor_id", id.String(),
		"total_donations", d.TotalDonations,
		"points", d.Points,
	)
	return d, nil
}
