package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"coffeepos/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishTransactionRecorded publishes TransactionRecorded event
func (ep *EventPublisher) PublishTransactionRecorded(ctx context.Context, event *models.TransactionRecordedEvent) error {
	key := fmt.Sprintf("trx-%s", event.TransactionCode)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishTransactionRefunded publishes TransactionRefunded event
func (ep *EventPublisher) PublishTransactionRefunded(ctx context.Context, event *models.TransactionRefundedEvent) error {
	key := fmt.Sprintf("trx-%s", event.TransactionCode)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishDayClosed publishes DayClosed event
func (ep *EventPublisher) PublishDayClosed(ctx context.Context, event *models.DayClosedEvent) error {
	key := fmt.Sprintf("closing-%s", event.Date)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming events to registered callbacks
type EventHandler struct {
	onTransactionRecorded func(context.Context, *models.TransactionRecordedEvent) error
	onTransactionRefunded func(context.Context, *models.TransactionRefundedEvent) error
	onDayClosed           func(context.Context, *models.DayClosedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnTransactionRecorded registers a handler for TransactionRecorded events
func (eh *EventHandler) OnTransactionRecorded(handler func(context.Context, *models.TransactionRecordedEvent) error) {
	eh.onTransactionRecorded = handler
}

// OnTransactionRefunded registers a handler for TransactionRefunded events
func (eh *EventHandler) OnTransactionRefunded(handler func(context.Context, *models.TransactionRefundedEvent) error) {
	eh.onTransactionRefunded = handler
}

// OnDayClosed registers a handler for DayClosed events
func (eh *EventHandler) OnDayClosed(handler func(context.Context, *models.DayClosedEvent) error) {
	eh.onDayClosed = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	log.Printf("Handling event: type=%s, id=%s", baseEvent.EventType, baseEvent.EventID)

	switch baseEvent.EventType {
	case models.EventTypeTransactionRecorded:
		if eh.onTransactionRecorded != nil {
			var event models.TransactionRecordedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal TransactionRecorded event: %w", err)
			}
			return eh.onTransactionRecorded(ctx, &event)
		}

	case models.EventTypeTransactionRefunded:
		if eh.onTransactionRefunded != nil {
			var event models.TransactionRefundedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal TransactionRefunded event: %w", err)
			}
			return eh.onTransactionRefunded(ctx, &event)
		}

	case models.EventTypeDayClosed:
		if eh.onDayClosed != nil {
			var event models.DayClosedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal DayClosed event: %w", err)
			}
			return eh.onDayClosed(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
