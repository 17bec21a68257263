package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sparktechagency/Mobile-Repair/internal/domain"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/database/mongodb"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/errors"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/observability/logging"
	"github.com/sparktechagency/Mobile-Repair/internal/query"
	"github.com/sparktechagency/Mobile-Repair/internal/repository/interfaces"
)

const ordersCollection = "serviceorders"

// OrderRepository implements interfaces.OrderRepository on MongoDB.
// Deletion is a flag, never a document removal, and every read composes the
// live-documents scope into its filter explicitly.
type OrderRepository struct {
	collection *mongo.Collection
	timeout    time.Duration
	logger     logging.Logger
}

// NewOrderRepository creates a MongoDB-backed order repository
func NewOrderRepository(conn *mongodb.Connection, logger logging.Logger) *OrderRepository {
	return &OrderRepository{
		collection: conn.Collection(ordersCollection),
		timeout:    conn.QueryTimeout(),
		logger:     logger,
	}
}

// liveOrders is the base scope every order read starts from
func liveOrders() bson.M {
	return bson.M{"isDeleted": false}
}

// EnsureIndexes creates the indexes the order queries rely on
func (r *OrderRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "isDeleted", Value: 1}}},
		{Keys: bson.D{{Key: "serviceProviderId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "statusHistory.timestamp", Value: 1}}},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, models)
	if err != nil {
		return errors.Wrap(err, "failed to create order indexes")
	}
	return nil
}

// Create inserts a new order
func (r *OrderRepository) Create(ctx context.Context, order *domain.ServiceOrder) (*domain.ServiceOrder, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, order)
	if err != nil {
		r.logger.Error(ctx, "Failed to insert order", err)
		return nil, errors.Wrap(err, "failed to insert order")
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		order.ID = oid
	}

	return order, nil
}

// GetByID returns a live order by id
func (r *OrderRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ServiceOrder, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := liveOrders()
	filter["_id"] = id

	var order domain.ServiceOrder
	if err := r.collection.FindOne(ctx, filter).Decode(&order); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.NewNotFound("order not found")
		}
		r.logger.Error(ctx, "Failed to find order", err, map[string]interface{}{"orderId": id.Hex()})
		return nil, errors.Wrap(err, "failed to find order")
	}

	return &order, nil
}

// GetByIDAny returns an order by id regardless of its deletion flag
func (r *OrderRepository) GetByIDAny(ctx context.Context, id primitive.ObjectID) (*domain.ServiceOrder, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var order domain.ServiceOrder
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.NewNotFound("order not found")
		}
		return nil, errors.Wrap(err, "failed to find order")
	}

	return &order, nil
}

// List runs the accumulated query and returns the page with its metadata.
// The count runs against the same filter but ignores pagination.
func (r *OrderRepository) List(ctx context.Context, qb *query.Builder) ([]domain.ServiceOrder, query.Meta, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := qb.Criteria()

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, query.Meta{}, errors.Wrap(err, "failed to count orders")
	}

	cursor, err := r.collection.Find(ctx, filter, qb.FindOptions())
	if err != nil {
		return nil, query.Meta{}, errors.Wrap(err, "failed to list orders")
	}
	defer cursor.Close(ctx)

	orders := []domain.ServiceOrder{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, query.Meta{}, errors.Wrap(err, "failed to decode orders")
	}

	return orders, qb.MetaFor(total), nil
}

// AcceptPending atomically claims a pending order for a technician. The
// status guard lives in the filter, so of two concurrent accepts exactly one
// matches and the other returns nil.
func (r *OrderRepository) AcceptPending(ctx context.Context, orderID, technicianID primitive.ObjectID, at time.Time) (*domain.ServiceOrder, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := liveOrders()
	filter["_id"] = orderID
	filter["status"] = domain.StatusPending

	update := bson.M{
		"$set": bson.M{
			"status":            domain.StatusInProgress,
			"serviceProviderId": technicianID,
			"updatedAt":         at,
		},
		"$push": bson.M{
			"statusHistory": domain.StatusHistoryEntry{Status: domain.StatusInProgress, Timestamp: at},
		},
		"$inc": bson.M{"version": 1},
	}

	return r.findOneAndUpdate(ctx, filter, update)
}

// CompleteAssigned atomically completes an inprogress order held by the
// given technician
func (r *OrderRepository) CompleteAssigned(ctx context.Context, orderID, technicianID primitive.ObjectID, at time.Time) (*domain.ServiceOrder, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := liveOrders()
	filter["_id"] = orderID
	filter["status"] = domain.StatusInProgress
	filter["serviceProviderId"] = technicianID

	update := bson.M{
		"$set": bson.M{
			"status":    domain.StatusCompleted,
			"updatedAt": at,
		},
		"$push": bson.M{
			"statusHistory": domain.StatusHistoryEntry{Status: domain.StatusCompleted, Timestamp: at},
		},
		"$inc": bson.M{"version": 1},
	}

	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *OrderRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*domain.ServiceOrder, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order domain.ServiceOrder
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // No matching document; caller classifies why
		}
		r.logger.Error(ctx, "Failed to update order", err)
		return nil, errors.Wrap(err, "failed to update order")
	}

	return &order, nil
}

// SoftDelete marks an order deleted
func (r *OrderRepository) SoftDelete(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := liveOrders()
	filter["_id"] = id

	update := bson.M{
		"$set": bson.M{"isDeleted": true, "updatedAt": at},
		"$inc": bson.M{"version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return errors.Wrap(err, "failed to delete order")
	}
	if result.MatchedCount == 0 {
		return errors.NewNotFound("order not found")
	}

	return nil
}

// StatusCounts groups live orders by status, optionally scoped to one technician
func (r *OrderRepository) StatusCounts(ctx context.Context, technicianID *primitive.ObjectID) (map[domain.OrderStatus]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	match := liveOrders()
	if technicianID != nil {
		match["serviceProviderId"] = *technicianID
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrap(err, "failed to aggregate status counts")
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status domain.OrderStatus `bson:"_id"`
		Count  int64              `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, errors.Wrap(err, "failed to decode status counts")
	}

	counts := make(map[domain.OrderStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}

	return counts, nil
}

// LatestStatusCountsBetween groups the technician's live orders by the status
// of their most recent history entry, restricted to orders whose latest entry
// timestamp falls in [from, to). The latest history entry drives the
// bucketing, not the order's status field.
func (r *OrderRepository) LatestStatusCountsBetween(ctx context.Context, technicianID primitive.ObjectID, from, to time.Time) (map[domain.OrderStatus]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	match := liveOrders()
	match["serviceProviderId"] = technicianID

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$addFields", Value: bson.M{
			"latestEntry": bson.M{"$arrayElemAt": bson.A{"$statusHistory", -1}},
		}}},
		{{Key: "$match", Value: bson.M{
			"latestEntry.timestamp": bson.M{"$gte": from, "$lt": to},
		}}},
		{{Key: "$group", Value: bson.M{"_id": "$latestEntry.status", "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrap(err, "failed to aggregate latest status counts")
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status domain.OrderStatus `bson:"_id"`
		Count  int64              `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, errors.Wrap(err, "failed to decode latest status counts")
	}

	counts := make(map[domain.OrderStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}

	return counts, nil
}

// MonthlyHistoryCounts unwinds the technician's status history and buckets
// inprogress/completed entries of the given year by calendar month. Months
// without activity are absent from the result.
func (r *OrderRepository) MonthlyHistoryCounts(ctx context.Context, technicianID primitive.ObjectID, year int) ([]interfaces.MonthlyStatusCounts, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := yearStart.AddDate(1, 0, 0)

	match := liveOrders()
	match["serviceProviderId"] = technicianID

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$unwind", Value: "$statusHistory"}},
		{{Key: "$match", Value: bson.M{
			"statusHistory.status":    bson.M{"$in": bson.A{domain.StatusInProgress, domain.StatusCompleted}},
			"statusHistory.timestamp": bson.M{"$gte": yearStart, "$lt": yearEnd},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"month":  bson.M{"$month": "$statusHistory.timestamp"},
				"status": "$statusHistory.status",
			},
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrap(err, "failed to aggregate monthly history counts")
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID struct {
			Month  int                `bson:"month"`
			Status domain.OrderStatus `bson:"status"`
		} `bson:"_id"`
		Count int64 `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, errors.Wrap(err, "failed to decode monthly history counts")
	}

	byMonth := map[int]*interfaces.MonthlyStatusCounts{}
	for _, row := range rows {
		entry, ok := byMonth[row.ID.Month]
		if !ok {
			entry = &interfaces.MonthlyStatusCounts{Month: row.ID.Month}
			byMonth[row.ID.Month] = entry
		}
		switch row.ID.Status {
		case domain.StatusInProgress:
			entry.InProgress = row.Count
		case domain.StatusCompleted:
			entry.Completed = row.Count
		}
	}

	counts := make([]interfaces.MonthlyStatusCounts, 0, len(byMonth))
	for _, entry := range byMonth {
		counts = append(counts, *entry)
	}

	return counts, nil
}

// MonthlyCreatedCounts buckets platform-wide order creations of the given
// year by calendar month
func (r *OrderRepository) MonthlyCreatedCounts(ctx context.Context, year int) (map[int]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := yearStart.AddDate(1, 0, 0)

	match := liveOrders()
	match["createdAt"] = bson.M{"$gte": yearStart, "$lt": yearEnd}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"$month": "$createdAt"},
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrap(err, "failed to aggregate monthly created counts")
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Month int   `bson:"_id"`
		Count int64 `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, errors.Wrap(err, "failed to decode monthly created counts")
	}

	counts := make(map[int]int64, len(rows))
	for _, row := range rows {
		counts[row.Month] = row.Count
	}

	return counts, nil
}

// CountAll returns the number of live orders
func (r *OrderRepository) CountAll(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, liveOrders())
	if err != nil {
		return 0, errors.Wrap(err, "failed to count orders")
	}

	return count, nil
}
