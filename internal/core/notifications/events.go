package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/brokendeveloper/banking-app/internal/core/domain"
)

const NotificationEventsChannel = "notification_events"

// EventPublisher fans notifications out over redis pub/sub so downstream
// consumers (push, email, in-app feed) can pick them up. Delivery is best
// effort: a failed publish is the caller's to log, never to propagate.
type EventPublisher struct {
	rdb *redis.Client
}

func NewEventPublisher(rdb *redis.Client) *EventPublisher {
	return &EventPublisher{rdb: rdb}
}

type NotificationEvent struct {
	AccountID string    `json:"account_id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

func (p *EventPublisher) Notify(ctx context.Context, account *domain.Account, title, body string) error {
	event := NotificationEvent{
		AccountID: account.ID.String(),
		UserID:    account.UserID,
		Title:     title,
		Body:      body,
		Timestamp: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.rdb.Publish(ctx, NotificationEventsChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
