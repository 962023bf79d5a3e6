package notifications

import (
	"context"
	"encoding/json"
	"time"

	"backlog/internal/models"

	"github.com/redis/go-redis/v9"
)

// EventsChannel is the Redis pub/sub channel lifecycle events are fanned
// out on for other services (bots, dashboards) to consume.
const EventsChannel = "backlog:events:requests"

// Event is the wire format published to Redis.
type Event struct {
	Type      string               `json:"type"`
	Request   *models.GameRequest  `json:"request"`
	Requester models.RequesterInfo `json:"requester"`
	At        time.Time            `json:"at"`
}

const (
	EventTypeRequestCreated       = "request.created"
	EventTypeRequestStatusChanged = "request.status_changed"
)

// Publisher fans events out over Redis pub/sub. A nil Publisher is a no-op.
type Publisher struct {
	client *redis.Client
}

// NewPublisher wraps a Redis client. Returns nil when client is nil.
func NewPublisher(client *redis.Client) *Publisher {
	if client == nil {
		return nil
	}
	return &Publisher{client: client}
}

// Publish sends the event on the shared channel.
func (p *Publisher) Publish(ctx context.Context, event Event) error {
	if p == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, EventsChannel, payload).Err()
}
