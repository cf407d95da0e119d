package eventbus

import (
	"context"
	"log/slog"
)

// LogConsumer logs every record change.
type LogConsumer struct {
	logger *slog.Logger
}

func NewLogConsumer(logger *slog.Logger) *LogConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogConsumer{logger: logger}
}

func (c *LogConsumer) HandleEvent(ctx context.Context, evt Event) error {
	c.logger.LogAttrs(ctx, slog.LevelInfo, "record "+string(evt.Kind),
		slog.String("event_id", evt.ID),
		slog.String("type", string(evt.RecordType)),
		slog.String("id", evt.RecordID),
		slog.Int64("count", evt.Count),
	)
	return nil
}
