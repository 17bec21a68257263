package kafka

import (
	"time"

	"github.com/sparktechagency/Mobile-Repair/internal/domain"
)

// Topic names
const (
	NotificationEventsTopic = "notification-events"
	OrderEventsTopic        = "order-events"
)

// Event types
const (
	NotificationCreatedEventType = "notification.created"
	OrderCreatedEventType        = "order.created"
	OrderStatusChangedEventType  = "order.status.changed"
)

// EventMetadata carries traceability fields attached to every published event
type EventMetadata struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	EventTime time.Time `json:"event_time"`
	Version   string    `json:"version"`
	Source    string    `json:"source"`
}

// NotificationEvent is the payload published when an in-app notification is
// created, so push/socket delivery services can fan it out
type NotificationEvent struct {
	NotificationID string                     `json:"notification_id"`
	ReceiverID     string                     `json:"receiver_id"`
	SenderID       string                     `json:"sender_id"`
	Type           domain.NotificationType    `json:"type"`
	Message        domain.NotificationMessage `json:"message"`
	UnreadCount    int64                      `json:"unread_count"`
}

// NotificationEventMessage is the wire format for notification events
type NotificationEventMessage struct {
	NotificationEvent
	EventMetadata EventMetadata `json:"metadata"`
}

// OrderStatusEvent is the payload published on every lifecycle transition
type OrderStatusEvent struct {
	OrderID      string             `json:"order_id"`
	OldStatus    domain.OrderStatus `json:"old_status"`
	NewStatus    domain.OrderStatus `json:"new_status"`
	TechnicianID string             `json:"technician_id,omitempty"`
}

// OrderStatusEventMessage is the wire format for order status events
type OrderStatusEventMessage struct {
	OrderStatusEvent
	EventMetadata EventMetadata `json:"metadata"`
}
