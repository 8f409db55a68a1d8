package notify

import (
	"context"
	"log/slog"

	"github.com/jbarros93/dws-challenge/internal/domain"
)

// Log writes one structured log line per notification.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a log sink; a nil logger means slog.Default().
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

func (l *Log) Notify(ctx context.Context, n domain.Notification) error {
	l.logger.InfoContext(ctx, "transfer notification",
		slog.String("notification_id", n.ID),
		slog.String("transfer_id", n.TransferID),
		slog.String("account_id", n.AccountID),
		slog.String("direction", string(n.Direction)),
		slog.String("amount", n.Amount.String()),
	)
	return nil
}
