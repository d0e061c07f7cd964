package matching

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"lifeline/internal/donor"
	"lifeline/internal/notify"
	"lifeline/internal/platform/metrics"
	"lifeline/internal/request"
	dErrors "lifeline/pkg/domain-errors"
)

// maxConcurrentDispatch bounds parallel sink sends per request.
const maxConcurrentDispatch = 16

// DispatchFailure records one candidate the sink could not reach. A failed
// dispatch never aborts the batch.
type DispatchFailure struct {
	DonorID string `json:"donor_id"`
	Reason  string `json:"reason"`
}

// Orchestrator runs the match-and-notify fan-out when a request is created.
type Orchestrator struct {
	donors  donor.Store
	sink    notify.Sink
	logger  *slog.Logger
	metrics *metrics.Metrics

	radiusKm  float64
	cooldown  time.Duration
	fanoutCap int
	timeout   time.Duration
}

type OrchestratorOption func(*Orchestrator)

func WithLogger(l *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.logger = l }
}

func WithMetrics(m *metrics.Metrics) OrchestratorOption {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithRadius overrides the matching radius in kilometers.
func WithRadius(km float64) OrchestratorOption {
	return func(o *Orchestrator) { o.radiusKm = km }
}

// WithCooldown overrides the donor cooldown window.
func WithCooldown(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.cooldown = d }
}

// WithFanoutCap limits how many candidates are notified per request.
// Zero means notify all matches.
func WithFanoutCap(n int) OrchestratorOption {
	return func(o *Orchestrator) { o.fanoutCap = n }
}

// WithDispatchTimeout bounds each individual sink send.
func WithDispatchTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.timeout = d }
}

func NewOrchestrator(donors donor.Store, sink notify.Sink, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		donors:   donors,
		sink:     sink,
		logger:   slog.Default(),
		radiusKm: DefaultRadiusKm,
		cooldown: DefaultCooldown,
		timeout:  5 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// OnRequestCreated matches donors against a freshly created request and
// dispatches one notification per candidate. It returns the number of
// successful dispatches and the failures it collected along the way.
func (o *Orchestrator) OnRequestCreated(ctx context.Context, req request.BloodRequest) (int, []DispatchFailure, error) {
	donors, err := o.donors.ListAvailable(ctx)
	if err != nil {
		return 0, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list available donors")
	}

	candidates := Match(req, donors, time.Now().UTC(), FilterParams{
		RadiusKm: o.radiusKm,
		Cooldown: o.cooldown,
	})
	if o.fanoutCap > 0 && len(candidates) > o.fanoutCap {
		candidates = candidates[:o.fanoutCap]
	}
	if len(candidates) == 0 {
		o.logger.InfoContext(ctx, "no eligible donors matched",
			"request_id", req.ID.String(),
			"blood_type", req.BloodType.String())
		return 0, nil, nil
	}

	msg := notify.Message{
		Title: fmt.Sprintf("Urgent: %s blood needed", req.BloodType),
		Body: fmt.Sprintf("%s needs %d unit(s) of %s blood (urgency: %s).",
			req.HospitalName, req.UnitsNeeded, req.BloodType, req.Urgency),
	}

	var (
		mu       sync.Mutex
		notified int
		failures []DispatchFailure
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDispatch)
	for _, c := range candidates {
		c := c
		g.Go(func() error {
			sendCtx, cancel := context.WithTimeout(gctx, o.timeout)
			defer cancel()

			contact := notify.Contact{
				DonorID: c.Donor.ID.String(),
				Email:   c.Donor.Email,
				Phone:   c.Donor.Phone,
			}
			err := o.sink.Send(sendCtx, contact, msg)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, DispatchFailure{
					DonorID: c.Donor.ID.String(),
					Reason:  err.Error(),
				})
				if o.metrics != nil {
					o.metrics.NotificationsFailed.Inc()
				}
				return nil
			}
			notified++
			if o.metrics != nil {
				o.metrics.NotificationsSent.Inc()
			}
			return nil
		})
	}
	// Workers never return errors; Wait only drains the group.
	_ = g.Wait()

	o.logger.InfoContext(ctx, "notification fan-out complete",
		"request_id", req.ID.String(),
		"candidates", len(candidates),
		"notified", notified,
		"failed", len(failures))
	return notified, failures, nil
}
