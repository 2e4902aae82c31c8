package notify

import (
	"context"
	"log/slog"

	"staymarket/internal/app/policies"
)

// LogNotifier writes notifications to the application log. It stands in for
// a mail or push provider in development and test environments.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, msg policies.Notification) error {
	if n.Logger != nil {
		n.Logger.Info("notification", "user_id", msg.UserID, "subject", msg.Subject, "body", msg.Body)
	}
	return nil
}

var _ policies.Notifier = LogNotifier{}
