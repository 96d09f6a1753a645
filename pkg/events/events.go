package events

import (
	"context"
	"encoding/json"
	"time"
)

// Envelope is the wire format published to notification channels.
type Envelope struct {
	EventType     string          `json:"event_type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}
