package inventory

import (
	"context"
	"errors"
	"log/slog"

	"lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/platform/sentinel"
)

// Service wraps the store with domain-error translation and threshold
// classification.
type Service struct {
	store      Store
	thresholds Thresholds
	logger     *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithThresholds(t Thresholds) Option {
	return func(s *Service) { s.thresholds = t }
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:      store,
		thresholds: DefaultThresholds(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Adjust changes the unit count for a blood type by delta and returns the new
// total. Withdrawals that would underflow fail with CodeInsufficientInventory.
func (s *Service) Adjust(ctx context.Context, bt domain.BloodType, delta int) (int, error) {
	if !bt.IsValid() {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid blood type")
	}
	units, err := s.store.Adjust(ctx, bt, delta)
	if errors.Is(err, sentinel.ErrConflict) {
		return 0, dErrors.New(dErrors.CodeInsufficientInventory, "insufficient inventory")
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return 0, dErrors.New(dErrors.CodeNotFound, "unknown blood type")
	}
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to adjust inventory")
	}
	if level := s.thresholds.Classify(units); level != LevelNormal {
		s.logger.WarnContext(ctx, "inventory below threshold",
			"blood_type", bt.String(),
			"units", units,
			"level", string(level),
		)
	}
	return units, nil
}

// Classify reports the stock level for a blood type.
func (s *Service) Classify(ctx context.Context, bt domain.BloodType) (Level, error) {
	if !bt.IsValid() {
		return "", dErrors.New(dErrors.CodeBadRequest, "invalid blood type")
	}
	entry, err := s.store.Get(ctx, bt)
	if errors.Is(err, sentinel.ErrNotFound) {
		return "", dErrors.New(dErrors.CodeNotFound, "unknown blood type")
	}
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to read inventory")
	}
	return s.thresholds.Classify(entry.Units), nil
}

// List returns every blood type's entry with its level.
func (s *Service) List(ctx context.Context) ([]Entry, map[domain.BloodType]Level, error) {
	entries, err := s.store.List(ctx)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list inventory")
	}
	levels := make(map[domain.BloodType]Level, len(entries))
	for _, e := range entries {
		levels[e.BloodType] = s.thresholds.Classify(e.Units)
	}
	return entries, levels, nil
}
