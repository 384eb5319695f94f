package notify

import (
	"context"
	"log/slog"

	"github.com/kirinyoku/shareway-go/internal/domain"
)

// LogSink writes notifications to the log instead of delivering them.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Notify(ctx context.Context, n domain.Notification) error {
	s.logger.InfoContext(ctx, "notification",
		slog.Group("notification",
			slog.String("id", n.ID),
			slog.String("recipient_id", n.RecipientID),
			slog.String("kind", n.Kind),
			slog.String("subject", n.Subject),
		),
	)
	return nil
}
