package service

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/trace"

	"github.com/sparktechagency/Mobile-Repair/internal/domain"
	"github.com/sparktechagency/Mobile-Repair/internal/messaging/kafka"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/observability/logging"
	"github.com/sparktechagency/Mobile-Repair/internal/query"
	"github.com/sparktechagency/Mobile-Repair/internal/repository/interfaces"
)

// NotificationPublisher publishes notification events for the external
// delivery services (push, sockets) to fan out
type NotificationPublisher interface {
	PublishNotificationEvent(ctx context.Context, event kafka.NotificationEvent) error
}

// NotificationService persists in-app notifications and fans them out.
// Persistence failures surface to the caller; counter and publish failures
// are logged and swallowed so a notification never breaks a primary flow.
type NotificationService struct {
	repo      interfaces.NotificationRepository
	unread    interfaces.UnreadCounterStore
	publisher NotificationPublisher
	logger    logging.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewNotificationService creates the notification service
func NewNotificationService(repo interfaces.NotificationRepository, unread interfaces.UnreadCounterStore, publisher NotificationPublisher, logger logging.Logger, tracer trace.Tracer) *NotificationService {
	return &NotificationService{
		repo:      repo,
		unread:    unread,
		publisher: publisher,
		logger:    logger,
		tracer:    tracer,
		now:       time.Now,
	}
}

// Emit persists a notification, bumps the receiver's unread counter and
// publishes a delivery event
func (s *NotificationService) Emit(ctx context.Context, senderID, receiverID primitive.ObjectID, message domain.NotificationMessage, notificationType domain.NotificationType) (*domain.Notification, error) {
	ctx, span := s.tracer.Start(ctx, "NotificationService.Emit")
	defer span.End()

	now := s.now()
	notification := &domain.Notification{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Message:    message,
		Type:       notificationType,
		IsRead:     false,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	notification, err := s.repo.Create(ctx, notification)
	if err != nil {
		return nil, err
	}

	unreadCount, err := s.unread.Increment(ctx, receiverID.Hex())
	if err != nil {
		s.logger.Warn(ctx, "Failed to increment unread counter", map[string]interface{}{
			"receiverId": receiverID.Hex(),
			"error":      err.Error(),
		})
	}

	event := kafka.NotificationEvent{
		NotificationID: notification.ID.Hex(),
		ReceiverID:     receiverID.Hex(),
		SenderID:       senderID.Hex(),
		Type:           notificationType,
		Message:        message,
		UnreadCount:    unreadCount,
	}
	if err := s.publisher.PublishNotificationEvent(ctx, event); err != nil {
		s.logger.Warn(ctx, "Failed to publish notification event", map[string]interface{}{
			"receiverId": receiverID.Hex(),
			"type":       string(notificationType),
			"error":      err.Error(),
		})
	}

	return notification, nil
}

// ListMine returns the receiver's notifications through the query builder,
// newest first by default
func (s *NotificationService) ListMine(ctx context.Context, receiverID primitive.ObjectID, raw map[string]string) ([]domain.Notification, query.Meta, error) {
	ctx, span := s.tracer.Start(ctx, "NotificationService.ListMine")
	defer span.End()

	qb := query.NewBuilder(bson.M{"receiverId": receiverID}, raw, s.logger).
		Filter().Sort().Paginate().Fields()

	return s.repo.ListByReceiver(ctx, receiverID, qb)
}

// UnreadCount returns the receiver's unread counter, falling back to a
// direct count when the cache is unavailable
func (s *NotificationService) UnreadCount(ctx context.Context, receiverID primitive.ObjectID) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "NotificationService.UnreadCount")
	defer span.End()

	count, err := s.unread.Get(ctx, receiverID.Hex())
	if err == nil {
		return count, nil
	}

	s.logger.Warn(ctx, "Unread counter unavailable, counting directly", map[string]interface{}{
		"receiverId": receiverID.Hex(),
		"error":      err.Error(),
	})
	return s.repo.CountUnread(ctx, receiverID)
}

// MarkRead flags one notification read and resyncs the unread counter
func (s *NotificationService) MarkRead(ctx context.Context, id, receiverID primitive.ObjectID) error {
	ctx, span := s.tracer.Start(ctx, "NotificationService.MarkRead")
	defer span.End()

	if err := s.repo.MarkRead(ctx, id, receiverID, s.now()); err != nil {
		return err
	}

	s.resyncUnread(ctx, receiverID)
	return nil
}

// MarkAllRead flags every unread notification read and clears the counter
func (s *NotificationService) MarkAllRead(ctx context.Context, receiverID primitive.ObjectID) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "NotificationService.MarkAllRead")
	defer span.End()

	updated, err := s.repo.MarkAllRead(ctx, receiverID, s.now())
	if err != nil {
		return 0, err
	}

	if err := s.unread.Clear(ctx, receiverID.Hex()); err != nil {
		s.logger.Warn(ctx, "Failed to clear unread counter", map[string]interface{}{
			"receiverId": receiverID.Hex(),
			"error":      err.Error(),
		})
	}

	return updated, nil
}

// Delete removes one of the receiver's notifications
func (s *NotificationService) Delete(ctx context.Context, id, receiverID primitive.ObjectID) error {
	ctx, span := s.tracer.Start(ctx, "NotificationService.Delete")
	defer span.End()

	if err := s.repo.Delete(ctx, id, receiverID); err != nil {
		return err
	}

	s.resyncUnread(ctx, receiverID)
	return nil
}

// resyncUnread rewrites the cached counter from the store. Best effort.
func (s *NotificationService) resyncUnread(ctx context.Context, receiverID primitive.ObjectID) {
	count, err := s.repo.CountUnread(ctx, receiverID)
	if err != nil {
		s.logger.Warn(ctx, "Failed to recount unread notifications", map[string]interface{}{
			"receiverId": receiverID.Hex(),
			"error":      err.Error(),
		})
		return
	}

	if err := s.unread.Set(ctx, receiverID.Hex(), count); err != nil {
		s.logger.Warn(ctx, "Failed to resync unread counter", map[string]interface{}{
			"receiverId": receiverID.Hex(),
			"error":      err.Error(),
		})
	}
}
