package audit

import (
	"context"
	"errors"
	"log/slog"
)

// LogSink writes each event as a structured log line and keeps nothing.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Append(ctx context.Context, event Event) error {
	s.logger.InfoContext(ctx, "audit event",
		"event_id", event.ID,
		"action", event.Action,
		"id_hash", event.IDHash,
		"is_new_user", event.IsNewUser,
		"search_count", event.SearchCount,
		"holiday_count", event.HolidayCount,
		"holidays_degraded", event.HolidaysDegraded,
		"request_id", event.RequestID,
	)
	return nil
}

// MultiSink appends to every sink in order and joins their errors.
type MultiSink []Sink

func (m MultiSink) Append(ctx context.Context, event Event) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Append(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
