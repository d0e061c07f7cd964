package notify

import (
	"context"
	"log/slog"
)

// LogSink writes notifications to the structured log. Used in development when
// no Kafka brokers are configured.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Send(ctx context.Context, contact Contact, msg Message) error {
	s.logger.InfoContext(ctx, "notification dispatched",
		"donor_id", contact.DonorID,
		"title", msg.Title,
	)
	return nil
}
