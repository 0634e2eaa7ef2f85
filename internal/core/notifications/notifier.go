package notifications

import (
	"context"
	"log/slog"

	"github.com/brokendeveloper/banking-app/internal/core/domain"
)

// LogNotifier writes notifications to the structured log. Default sink when
// neither redis nor the webhook outbox is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, account *domain.Account, title, body string) error {
	slog.Info("notification", "user_id", account.UserID, "title", title, "body", body)
	return nil
}
