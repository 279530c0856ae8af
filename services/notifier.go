package services

import (
	"context"
	"log/slog"
)

// Notifier доставляет пользователю уведомление о событии членства.
// Семантика fire-and-forget / at-least-once: вызывается ПОСЛЕ коммита
// транзакции и никогда не влияет на её исход.
type Notifier interface {
	Notify(ctx context.Context, recipientID int, message string)
}

type slogNotifier struct {
	logger *slog.Logger
}

func NewSlogNotifier(logger *slog.Logger) Notifier {
	return &slogNotifier{logger: logger}
}

func (n *slogNotifier) Notify(ctx context.Context, recipientID int, message string) {
	n.logger.InfoContext(ctx, "notification dispatched",
		slog.Int("recipient_id", recipientID),
		slog.String("message", message),
	)
}
