package request

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/platform/sentinel"
)

// Service is the request state machine. All transitions on one request are
// serialized through a per-request lock so concurrent donors can never
// overshoot units_needed; different requests proceed independently.
type Service struct {
	store  Store
	logger *slog.Logger

	mu    sync.Mutex
	locks map[domain.RequestID]*sync.Mutex
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
		locks:  make(map[domain.RequestID]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lockFor returns the mutex serializing transitions for one request. Locks are
// never removed; a request's lock outlives its terminal state, which keeps
// late commit attempts ordered behind the transition that closed it.
func (s *Service) lockFor(id domain.RequestID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// CreateParams are supplied by the external requester collaborator.
type CreateParams struct {
	HospitalName string
	BloodType    domain.BloodType
	UnitsNeeded  int
	Urgency      domain.Urgency
	Latitude     float64
	Longitude    float64
	CreatedBy    string
}

// Create opens a new request with zero fulfillment.
func (s *Service) Create(ctx context.Context, p CreateParams) (BloodRequest, error) {
	if !p.BloodType.IsValid() {
		return BloodRequest{}, dErrors.New(dErrors.CodeBadRequest, "invalid blood type")
	}
	if !p.Urgency.IsValid() {
		return BloodRequest{}, dErrors.New(dErrors.CodeBadRequest, "invalid urgency")
	}
	if p.UnitsNeeded <= 0 {
		return BloodRequest{}, dErrors.New(dErrors.CodeBadRequest, "units needed must be positive")
	}

	r := BloodRequest{
		ID:           domain.NewRequestID(),
		HospitalName: p.HospitalName,
		BloodType:    p.BloodType,
		UnitsNeeded:  p.UnitsNeeded,
		Urgency:      p.Urgency,
		Latitude:     p.Latitude,
		Longitude:    p.Longitude,
		Status:       StatusOpen,
		CreatedBy:    p.CreatedBy,
		CreatedAt:    time.Now(),
	}
	if err := s.store.Save(ctx, r); err != nil {
		return BloodRequest{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save request")
	}
	s.logger.InfoContext(ctx, "blood request created",
		"request_id", r.ID.String(),
		"blood_type", r.BloodType.String(),
		"units_needed", r.UnitsNeeded,
		"urgency", r.Urgency.String(),
	)
	return r, nil
}

// Get loads a request.
func (s *Service) Get(ctx context.Context, id domain.RequestID) (BloodRequest, error) {
	r, err := s.store.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return BloodRequest{}, dErrors.New(dErrors.CodeNotFound, "request not found")
	}
	if err != nil {
		return BloodRequest{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load request")
	}
	return r, nil
}

// ListOpen returns requests still accepting donors, newest first.
func (s *Service) ListOpen(ctx context.Context) ([]BloodRequest, error) {
	out, err := s.store.ListByStatus(ctx, StatusOpen)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list requests")
	}
	return out, nil
}

// CountAll returns the total number of requests ever created.
func (s *Service) CountAll(ctx context.Context) (int, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count requests")
	}
	return n, nil
}

// RecordFulfillment increments the fulfilled count by up to units, clamped at
// units_needed, and transitions to FULFILLED when the target is reached.
// Returns the units actually applied and whether this call completed the
// request. Fails with CodeInvalidTransition on terminal states.
func (s *Service) RecordFulfillment(ctx context.Context, id domain.RequestID, units int) (applied int, completed bool, err error) {
	if units <= 0 {
		return 0, false, dErrors.New(dErrors.CodeBadRequest, "units must be positive")
	}

	l := s.lockFor(id)
	l.Lock()
	defer l.Unlock()

	r, err := s.Get(ctx, id)
	if err != nil {
		return 0, false, err
	}
	if r.Status.Terminal() {
		return 0, false, dErrors.New(dErrors.CodeInvalidTransition,
			"request no longer accepts fulfillment")
	}

	remaining := r.UnitsNeeded - r.UnitsFulfilled
	applied = units
	if applied > remaining {
		applied = remaining
	}
	r.UnitsFulfilled += applied
	if r.UnitsFulfilled == r.UnitsNeeded {
		now := time.Now()
		r.Status = StatusFulfilled
		r.FulfilledAt = &now
		completed = true
	}
	if err := s.store.Save(ctx, r); err != nil {
		return 0, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save request")
	}
	s.logger.InfoContext(ctx, "fulfillment recorded",
		"request_id", id.String(),
		"applied", applied,
		"fulfilled", r.UnitsFulfilled,
		"needed", r.UnitsNeeded,
		"completed", completed,
	)
	return applied, completed, nil
}

// Close moves a non-terminal request to CLOSED. Fails with
// CodeInvalidTransition on already-terminal requests.
func (s *Service) Close(ctx context.Context, id domain.RequestID) (BloodRequest, error) {
	l := s.lockFor(id)
	l.Lock()
	defer l.Unlock()

	r, err := s.Get(ctx, id)
	if err != nil {
		return BloodRequest{}, err
	}
	if r.Status.Terminal() {
		return BloodRequest{}, dErrors.New(dErrors.CodeInvalidTransition,
			"request already terminal")
	}
	r.Status = StatusClosed
	if err := s.store.Save(ctx, r); err != nil {
		return BloodRequest{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save request")
	}
	s.logger.InfoContext(ctx, "blood request closed", "request_id", id.String())
	return r, nil
}
