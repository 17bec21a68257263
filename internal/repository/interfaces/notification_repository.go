package interfaces

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sparktechagency/Mobile-Repair/internal/domain"
	"github.com/sparktechagency/Mobile-Repair/internal/query"
)

// NotificationRepository defines data access for in-app notifications
type NotificationRepository interface {
	// Create inserts a notification and returns it with its generated id
	Create(ctx context.Context, notification *domain.Notification) (*domain.Notification, error)

	// ListByReceiver runs the accumulated query scoped to one receiver
	ListByReceiver(ctx context.Context, receiverID primitive.ObjectID, qb *query.Builder) ([]domain.Notification, query.Meta, error)

	// MarkRead flags a single notification of the receiver as read
	MarkRead(ctx context.Context, id, receiverID primitive.ObjectID, at time.Time) error

	// MarkAllRead flags every unread notification of the receiver as read
	// and returns the number updated
	MarkAllRead(ctx context.Context, receiverID primitive.ObjectID, at time.Time) (int64, error)

	// Delete removes a notification belonging to the receiver
	Delete(ctx context.Context, id, receiverID primitive.ObjectID) error

	// CountUnread counts the receiver's unread notifications
	CountUnread(ctx context.Context, receiverID primitive.ObjectID) (int64, error)
}
