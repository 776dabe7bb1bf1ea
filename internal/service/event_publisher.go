package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"procedure-scheduler/internal/domain/entity"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Slot event types
const (
	EventProcedureScheduled   = "procedure.scheduled"
	EventProcedureRescheduled = "procedure.rescheduled"
	EventProcedureReleased    = "procedure.released"
)

// SlotEvent is published after a slot change is committed
type SlotEvent struct {
	Type          string          `json:"type"`
	ProcedureID   uuid.UUID       `json:"procedure_id"`
	PatientName   string          `json:"patient_name"`
	ProcedureName string          `json:"procedure_name"`
	Priority      entity.Priority `json:"priority"`
	Time          string          `json:"time,omitempty"`
	Room          string          `json:"room,omitempty"`
	PreviousTime  string          `json:"previous_time,omitempty"`
	PreviousRoom  string          `json:"previous_room,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// NewSlotEvent builds an event for p. current and previous are optional.
func NewSlotEvent(eventType string, p entity.Procedure, current, previous *entity.Slot, at time.Time) SlotEvent {
	event := SlotEvent{
		Type:          eventType,
		ProcedureID:   p.ID,
		PatientName:   p.PatientName,
		ProcedureName: p.ProcedureName,
		Priority:      p.Priority,
		OccurredAt:    at.UTC(),
	}
	if current != nil {
		event.Time = current.Time()
		event.Room = current.Room
	}
	if previous != nil {
		event.PreviousTime = previous.Time()
		event.PreviousRoom = previous.Room
	}
	return event
}

// EventPublisher delivers slot events. Callers log failures and carry on.
type EventPublisher interface {
	Publish(ctx context.Context, event SlotEvent) error
}

// =============================================================================
// RabbitMQ
// =============================================================================

type amqpEventPublisher struct {
	conn  *amqp.Connection
	queue string
	log   *logrus.Logger
}

// NewAMQPEventPublisher publishes persistent JSON messages to queue through
// the default exchange.
func NewAMQPEventPublisher(conn *amqp.Connection, queue string, log *logrus.Logger) EventPublisher {
	return &amqpEventPublisher{
		conn:  conn,
		queue: queue,
		log:   log,
	}
}

func (p *amqpEventPublisher) Publish(ctx context.Context, event SlotEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		Type:         event.Type,
		MessageId:    uuid.NewString(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		pub,
	); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}

	p.log.Debugf("Published %s for procedure %s", event.Type, event.ProcedureID)
	return nil
}

// =============================================================================
// Disabled
// =============================================================================

type noopEventPublisher struct {
	log *logrus.Logger
}

// NewNoopEventPublisher is used when events are disabled
func NewNoopEventPublisher(log *logrus.Logger) EventPublisher {
	return &noopEventPublisher{log: log}
}

func (p *noopEventPublisher) Publish(ctx context.Context, event SlotEvent) error {
	p.log.Debugf("Events disabled, dropping %s for procedure %s", event.Type, event.ProcedureID)
	return nil
}
