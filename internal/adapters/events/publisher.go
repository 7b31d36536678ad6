package events

import (
	"context"
	"log/slog"
)

// LoggingPublisher is the fallback used when no broker is configured:
// events land in the structured log instead of disappearing.
type LoggingPublisher struct {
	logger *slog.Logger
}

func NewLoggingPublisher(logger *slog.Logger) *LoggingPublisher {
	return &LoggingPublisher{logger: logger}
}

func (p *LoggingPublisher) Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error {
	p.logger.InfoContext(ctx, "event published",
		"module", "events",
		"layer", "adapter",
		"operation", "publish",
		"outcome", "success",
		"event_type", eventType,
		"partition_key", partitionKey,
		"payload", string(payload),
	)
	return nil
}
