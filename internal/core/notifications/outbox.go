package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brokendeveloper/banking-app/internal/core/domain"
)

// OutboxNotifier queues notifications as webhook jobs in Postgres. The
// dispatch worker picks them up and delivers with retries, so a down
// subscriber endpoint never slows the financial operation that produced the
// notification.
type OutboxNotifier struct {
	db  *pgxpool.Pool
	url string
}

func NewOutboxNotifier(db *pgxpool.Pool, webhookURL string) *OutboxNotifier {
	return &OutboxNotifier{db: db, url: webhookURL}
}

func (n *OutboxNotifier) Notify(ctx context.Context, account *domain.Account, title, body string) error {
	payload, err := json.Marshal(NotificationEvent{
		AccountID: account.ID.String(),
		UserID:    account.UserID,
		Title:     title,
		Body:      body,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	_, err = n.db.Exec(ctx, `INSERT INTO webhook_jobs (url, payload) VALUES ($1, $2)`, n.url, payload)
	if err != nil {
		return fmt.Errorf("failed to queue notification: %w", err)
	}
	return nil
}
