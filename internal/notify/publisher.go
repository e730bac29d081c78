package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Publisher pushes a payload to whoever is listening on topic. Delivery is
// best effort; callers never wait for a subscriber.
type Publisher interface {
	Publish(ctx context.Context, topic Topic, payload []byte) error
}

// Sink receives payloads that arrived on a subscribed topic.
type Sink interface {
	Deliver(topic Topic, payload []byte)
}

type Envelope struct {
	EventID string    `json:"event_id"`
	Type    string    `json:"type"`
	Data    any       `json:"data"`
	SentAt  time.Time `json:"sent_at"`
}

// Encode wraps data in an envelope with a fresh event id.
func Encode(eventType string, data any) ([]byte, error) {
	return json.Marshal(Envelope{
		EventID: uuid.NewString(),
		Type:    eventType,
		Data:    data,
		SentAt:  time.Now().UTC(),
	})
}
