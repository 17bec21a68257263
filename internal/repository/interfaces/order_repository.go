package interfaces

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sparktechagency/Mobile-Repair/internal/domain"
	"github.com/sparktechagency/Mobile-Repair/internal/query"
)

// MonthlyStatusCounts is the per-month breakdown used by the yearly chart
type MonthlyStatusCounts struct {
	Month      int
	InProgress int64
	Completed  int64
}

// OrderRepository defines data access for service orders. Soft-deleted
// documents are excluded by every read unless stated otherwise.
type OrderRepository interface {
	// Create inserts a new order and returns it with its generated id
	Create(ctx context.Context, order *domain.ServiceOrder) (*domain.ServiceOrder, error)

	// GetByID returns a live order by id
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ServiceOrder, error)

	// GetByIDAny returns an order by id regardless of its deletion flag
	GetByIDAny(ctx context.Context, id primitive.ObjectID) (*domain.ServiceOrder, error)

	// List runs the accumulated query against live orders and returns the
	// page plus its pagination metadata
	List(ctx context.Context, qb *query.Builder) ([]domain.ServiceOrder, query.Meta, error)

	// AcceptPending atomically assigns a pending order to a technician and
	// moves it to inprogress. Returns nil when no pending document matched.
	AcceptPending(ctx context.Context, orderID, technicianID primitive.ObjectID, at time.Time) (*domain.ServiceOrder, error)

	// CompleteAssigned atomically completes an inprogress order assigned to
	// the given technician. Returns nil when no such document matched.
	CompleteAssigned(ctx context.Context, orderID, technicianID primitive.ObjectID, at time.Time) (*domain.ServiceOrder, error)

	// SoftDelete marks an order deleted without removing the document
	SoftDelete(ctx context.Context, id primitive.ObjectID, at time.Time) error

	// StatusCounts returns the live order count per status for the given
	// technician, or platform-wide when technicianID is nil
	StatusCounts(ctx context.Context, technicianID *primitive.ObjectID) (map[domain.OrderStatus]int64, error)

	// LatestStatusCountsBetween groups the technician's live orders by the
	// status of their most recent history entry, counting only orders whose
	// latest entry timestamp falls in [from, to)
	LatestStatusCountsBetween(ctx context.Context, technicianID primitive.ObjectID, from, to time.Time) (map[domain.OrderStatus]int64, error)

	// MonthlyHistoryCounts buckets the technician's status history entries for
	// the given year by calendar month
	MonthlyHistoryCounts(ctx context.Context, technicianID primitive.ObjectID, year int) ([]MonthlyStatusCounts, error)

	// MonthlyCreatedCounts buckets platform-wide order creations for the
	// given year by calendar month
	MonthlyCreatedCounts(ctx context.Context, year int) (map[int]int64, error)

	// CountAll returns the total number of live orders
	CountAll(ctx context.Context) (int64, error)
}
