// Package events publishes domain events to an AMQP topic exchange so
// downstream consumers (analytics, coaching workers) can react to pipeline
// movement without polling the API.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"github.com/talentgrid/talentgrid/pkg/models"
)

const stageChangedRoutingKey = "application.stage_changed"

// StageChanged is emitted after a pipeline transition has been persisted.
type StageChanged struct {
	ApplicationID uuid.UUID    `json:"application_id"`
	JobID         uuid.UUID    `json:"job_id"`
	TalentID      uuid.UUID    `json:"talent_id"`
	FromStage     models.Stage `json:"from_stage"`
	ToStage       models.Stage `json:"to_stage"`
	ActorID       string       `json:"actor_id,omitempty"`
	OccurredAt    time.Time    `json:"occurred_at"`
}

// Publisher emits domain events. Implementations must be safe for concurrent use.
type Publisher interface {
	PublishStageChanged(ctx context.Context, ev StageChanged) error
	Close() error
}

// AMQPPublisher publishes events to a RabbitMQ topic exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewAMQPPublisher dials the broker and declares the topic exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPPublisher{conn: conn, channel: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) PublishStageChanged(_ context.Context, ev StageChanged) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = p.channel.Publish(p.exchange, stageChangedRoutingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   ev.OccurredAt,
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishStageChanged(context.Context, StageChanged) error { return nil }
func (NoopPublisher) Close() error                                            { return nil }
