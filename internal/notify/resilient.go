package notify

import (
	"context"
	"log/slog"
	"sync/atomic"

	"lifeline/pkg/platform/circuit"
)

// probeEvery is how often an open circuit lets a send through to the primary
// so a recovered broker can close the circuit again.
const probeEvery = 10

// ResilientSink sends through a primary sink and falls back to a secondary
// one when the primary trips its circuit breaker. A notification is never
// lost to a broker outage; it degrades to the fallback channel instead.
type ResilientSink struct {
	primary  Sink
	fallback Sink
	breaker  *circuit.Breaker
	logger   *slog.Logger

	sendsWhileOpen atomic.Int64
}

func NewResilientSink(primary, fallback Sink, logger *slog.Logger) *ResilientSink {
	return &ResilientSink{
		primary:  primary,
		fallback: fallback,
		breaker:  circuit.New("notify-primary", circuit.WithFailureThreshold(3)),
		logger:   logger,
	}
}

func (s *ResilientSink) Send(ctx context.Context, contact Contact, msg Message) error {
	if s.breaker.IsOpen() && s.sendsWhileOpen.Add(1)%probeEvery != 0 {
		return s.fallback.Send(ctx, contact, msg)
	}

	err := s.primary.Send(ctx, contact, msg)
	if err == nil {
		if _, change := s.breaker.RecordSuccess(); change.Closed {
			s.logger.Info("notification primary recovered", "breaker", s.breaker.Name())
		}
		return nil
	}

	_, change := s.breaker.RecordFailure()
	if change.Opened {
		s.logger.Warn("notification primary unavailable, switching to fallback",
			"breaker", s.breaker.Name(),
			"error", err,
		)
	}
	return s.fallback.Send(ctx, contact, msg)
}
