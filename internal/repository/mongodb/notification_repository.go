package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sparktechagency/Mobile-Repair/internal/domain"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/database/mongodb"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/errors"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/observability/logging"
	"github.com/sparktechagency/Mobile-Repair/internal/query"
)

const notificationsCollection = "notifications"

// NotificationRepository implements interfaces.NotificationRepository on MongoDB
type NotificationRepository struct {
	collection *mongo.Collection
	timeout    time.Duration
	logger     logging.Logger
}

// NewNotificationRepository creates a MongoDB-backed notification repository
func NewNotificationRepository(conn *mongodb.Connection, logger logging.Logger) *NotificationRepository {
	return &NotificationRepository{
		collection: conn.Collection(notificationsCollection),
		timeout:    conn.QueryTimeout(),
		logger:     logger,
	}
}

// EnsureIndexes creates the indexes the notification queries rely on
func (r *NotificationRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "receiverId", Value: 1}, {Key: "isRead", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, models)
	if err != nil {
		return errors.Wrap(err, "failed to create notification indexes")
	}
	return nil
}

// Create inserts a notification
func (r *NotificationRepository) Create(ctx context.Context, notification *domain.Notification) (*domain.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, notification)
	if err != nil {
		r.logger.Error(ctx, "Failed to insert notification", err)
		return nil, errors.Wrap(err, "failed to insert notification")
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		notification.ID = oid
	}

	return notification, nil
}

// ListByReceiver runs the accumulated query scoped to one receiver
func (r *NotificationRepository) ListByReceiver(ctx context.Context, receiverID primitive.ObjectID, qb *query.Builder) ([]domain.Notification, query.Meta, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := qb.Criteria()

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, query.Meta{}, errors.Wrap(err, "failed to count notifications")
	}

	cursor, err := r.collection.Find(ctx, filter, qb.FindOptions())
	if err != nil {
		return nil, query.Meta{}, errors.Wrap(err, "failed to list notifications")
	}
	defer cursor.Close(ctx)

	notifications := []domain.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, query.Meta{}, errors.Wrap(err, "failed to decode notifications")
	}

	return notifications, qb.MetaFor(total), nil
}

// MarkRead flags one notification of the receiver as read
func (r *NotificationRepository) MarkRead(ctx context.Context, id, receiverID primitive.ObjectID, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{"_id": id, "receiverId": receiverID}
	update := bson.M{"$set": bson.M{"isRead": true, "updatedAt": at}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return errors.Wrap(err, "failed to mark notification read")
	}
	if result.MatchedCount == 0 {
		return errors.NewNotFound("notification not found")
	}

	return nil
}

// MarkAllRead flags every unread notification of the receiver as read
func (r *NotificationRepository) MarkAllRead(ctx context.Context, receiverID primitive.ObjectID, at time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{"receiverId": receiverID, "isRead": false}
	update := bson.M{"$set": bson.M{"isRead": true, "updatedAt": at}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, errors.Wrap(err, "failed to mark notifications read")
	}

	return result.ModifiedCount, nil
}

// Delete removes a notification belonging to the receiver
func (r *NotificationRepository) Delete(ctx context.Context, id, receiverID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "receiverId": receiverID})
	if err != nil {
		return errors.Wrap(err, "failed to delete notification")
	}
	if result.DeletedCount == 0 {
		return errors.NewNotFound("notification not found")
	}

	return nil
}

// CountUnread counts the receiver's unread notifications
func (r *NotificationRepository) CountUnread(ctx context.Context, receiverID primitive.ObjectID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"receiverId": receiverID, "isRead": false})
	if err != nil {
		return 0, errors.Wrap(err, "failed to count unread notifications")
	}

	return count, nil
}
