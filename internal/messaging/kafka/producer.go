package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"github.com/sparktechagency/Mobile-Repair/internal/platform/errors"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/observability/logging"
)

const eventSource = "mobile-repair-backend"

// Producer publishes notification and order lifecycle events
type Producer struct {
	producer           sarama.SyncProducer
	notificationsTopic string
	orderEventsTopic   string
	logger             logging.Logger
}

// NewProducer creates a Kafka producer configured for reliable, ordered delivery
func NewProducer(brokers []string, notificationsTopic, orderEventsTopic string, retries int, logger logging.Logger) (*Producer, error) {
	config := sarama.NewConfig()

	// Producer configuration for reliability
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = retries
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	// Performance
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 500 * time.Millisecond
	config.Producer.Flush.Messages = 100

	// Idempotent delivery
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1 // Required for idempotent producer

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Kafka producer")
	}

	logger.Info(nil, "Kafka producer created successfully", map[string]interface{}{
		"brokers":             brokers,
		"notifications_topic": notificationsTopic,
		"order_events_topic":  orderEventsTopic,
	})

	return &Producer{
		producer:           producer,
		notificationsTopic: notificationsTopic,
		orderEventsTopic:   orderEventsTopic,
		logger:             logger,
	}, nil
}

// PublishNotificationEvent publishes a notification-created event, keyed by
// receiver so one user's notifications stay ordered
func (p *Producer) PublishNotificationEvent(ctx context.Context, event NotificationEvent) error {
	message := NotificationEventMessage{
		NotificationEvent: event,
		EventMetadata:     newMetadata(NotificationCreatedEventType),
	}

	data, err := json.Marshal(message)
	if err != nil {
		return errors.Wrap(err, "failed to marshal notification event")
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic:     p.notificationsTopic,
		Key:       sarama.StringEncoder(event.ReceiverID),
		Value:     sarama.ByteEncoder(data),
		Timestamp: message.EventMetadata.EventTime,
		Headers:   eventHeaders(message.EventMetadata),
	})
	if err != nil {
		p.logger.Error(ctx, "Failed to publish notification event", err, map[string]interface{}{
			"receiver_id": event.ReceiverID,
			"event_id":    message.EventMetadata.EventID,
			"topic":       p.notificationsTopic,
		})
		return errors.Wrap(err, "failed to publish notification event")
	}

	p.logger.Debug(ctx, "Notification event published", map[string]interface{}{
		"receiver_id": event.ReceiverID,
		"event_id":    message.EventMetadata.EventID,
		"partition":   partition,
		"offset":      offset,
	})

	return nil
}

// PublishOrderStatusEvent publishes a lifecycle transition, keyed by order id
func (p *Producer) PublishOrderStatusEvent(ctx context.Context, event OrderStatusEvent) error {
	message := OrderStatusEventMessage{
		OrderStatusEvent: event,
		EventMetadata:    newMetadata(OrderStatusChangedEventType),
	}

	data, err := json.Marshal(message)
	if err != nil {
		return errors.Wrap(err, "failed to marshal order status event")
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic:     p.orderEventsTopic,
		Key:       sarama.StringEncoder(event.OrderID),
		Value:     sarama.ByteEncoder(data),
		Timestamp: message.EventMetadata.EventTime,
		Headers:   eventHeaders(message.EventMetadata),
	})
	if err != nil {
		p.logger.Error(ctx, "Failed to publish order status event", err, map[string]interface{}{
			"order_id": event.OrderID,
			"event_id": message.EventMetadata.EventID,
			"topic":    p.orderEventsTopic,
		})
		return errors.Wrap(err, "failed to publish order status event")
	}

	p.logger.Debug(ctx, "Order status event published", map[string]interface{}{
		"order_id":   event.OrderID,
		"event_id":   message.EventMetadata.EventID,
		"old_status": event.OldStatus,
		"new_status": event.NewStatus,
		"partition":  partition,
		"offset":     offset,
	})

	return nil
}

// Close shuts the underlying producer down
func (p *Producer) Close() error {
	if err := p.producer.Close(); err != nil {
		p.logger.Error(nil, "Failed to close Kafka producer", err)
		return errors.Wrap(err, "failed to close Kafka producer")
	}
	p.logger.Info(nil, "Kafka producer closed")
	return nil
}

func newMetadata(eventType string) EventMetadata {
	return EventMetadata{
		EventID:   uuid.New().String(),
		EventType: eventType,
		EventTime: time.Now().UTC(),
		Version:   "1.0",
		Source:    eventSource,
	}
}

func eventHeaders(meta EventMetadata) []sarama.RecordHeader {
	return []sarama.RecordHeader{
		{Key: []byte("event-type"), Value: []byte(meta.EventType)},
		{Key: []byte("event-id"), Value: []byte(meta.EventID)},
		{Key: []byte("event-version"), Value: []byte(meta.Version)},
		{Key: []byte("source-service"), Value: []byte(meta.Source)},
	}
}
