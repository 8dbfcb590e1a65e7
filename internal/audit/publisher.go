package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/enums"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/logger"
)

const defaultPublishTimeout = 5 * time.Second

// Event describes a mutation applied to a sheet tab.
type Event struct {
	ID        string               `json:"event_id"`
	Type      enums.AuditEventType `json:"event_type"`
	Tab       string               `json:"tab"`
	RowNumber int                  `json:"row_number,omitempty"`
	RowID     string               `json:"row_id,omitempty"`
	Actor     string               `json:"actor"`
	Columns   []string             `json:"columns,omitempty"`
	At        time.Time            `json:"occurred_at"`
}

// Publisher emits audit events. Implementations must not block the caller
// beyond their own publish timeout.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

// PubSubPublisher sends events to a Pub/Sub topic as JSON messages.
type PubSubPublisher struct {
	pub     publisher
	logg    *logger.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewPubSubPublisher wraps a topic publisher. A nil topic yields a nil publisher.
func NewPubSubPublisher(topic *gcppubsub.Publisher, logg *logger.Logger) *PubSubPublisher {
	if topic == nil {
		return nil
	}
	return newPublisher(&gcpPublisher{Publisher: topic}, logg)
}

func newPublisher(pub publisher, logg *logger.Logger) *PubSubPublisher {
	return &PubSubPublisher{
		pub:     pub,
		logg:    logg,
		timeout: defaultPublishTimeout,
		now:     time.Now,
	}
}

func (p *PubSubPublisher) Publish(ctx context.Context, event Event) error {
	if p == nil || p.pub == nil {
		return errors.New("audit publisher not configured")
	}
	if !event.Type.IsValid() {
		return fmt.Errorf("invalid audit event type %q", event.Type)
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.At.IsZero() {
		event.At = p.now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding audit event: %w", err)
	}

	msg := &gcppubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event_id":   event.ID,
			"event_type": string(event.Type),
			"tab":        event.Tab,
			"actor":      event.Actor,
			"created_at": event.At.Format(time.RFC3339Nano),
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	result := p.pub.Publish(publishCtx, msg)
	if result == nil {
		return errors.New("publisher returned nil result")
	}
	serverID, err := result.Get(publishCtx)
	if err != nil {
		return fmt.Errorf("publishing %s: %w", event.Type, err)
	}

	if p.logg != nil {
		logCtx := p.logg.WithFields(ctx, map[string]any{
			"event_id":   event.ID,
			"event_type": event.Type,
			"message_id": serverID,
		})
		p.logg.Debug(logCtx, "audit event published")
	}
	return nil
}

// NoopPublisher discards events. It is used when Pub/Sub is not configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return &gcpPublishResult{PublishResult: p.Publisher.Publish(ctx, msg)}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	return r.PublishResult.Get(ctx)
}
