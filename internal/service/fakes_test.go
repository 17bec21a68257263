package service

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/trace"

	"github.com/sparktechagency/Mobile-Repair/internal/domain"
	"github.com/sparktechagency/Mobile-Repair/internal/messaging/kafka"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/errors"
	"github.com/sparktechagency/Mobile-Repair/internal/query"
	"github.com/sparktechagency/Mobile-Repair/internal/repository/interfaces"
)

func testTracer() trace.Tracer {
	return trace.NewNoopTracerProvider().Tracer("test")
}

// fakeOrderRepo emulates the store's per-document atomicity with a mutex so
// conditional updates behave like the real compare-and-swap
type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[primitive.ObjectID]*domain.ServiceOrder
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[primitive.ObjectID]*domain.ServiceOrder{}}
}

func (f *fakeOrderRepo) put(order *domain.ServiceOrder) *domain.ServiceOrder {
	f.mu.Lock()
	defer f.mu.Unlock()
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	clone := cloneOrder(order)
	f.orders[order.ID] = clone
	return cloneOrder(clone)
}

func cloneOrder(o *domain.ServiceOrder) *domain.ServiceOrder {
	clone := *o
	clone.StatusHistory = append([]domain.StatusHistoryEntry(nil), o.StatusHistory...)
	if o.ServiceProviderID != nil {
		id := *o.ServiceProviderID
		clone.ServiceProviderID = &id
	}
	return &clone
}

func (f *fakeOrderRepo) Create(ctx context.Context, order *domain.ServiceOrder) (*domain.ServiceOrder, error) {
	return f.put(order), nil
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ServiceOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok || order.IsDeleted {
		return nil, errors.NewNotFound("order not found")
	}
	return cloneOrder(order), nil
}

func (f *fakeOrderRepo) GetByIDAny(ctx context.Context, id primitive.ObjectID) (*domain.ServiceOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return nil, errors.NewNotFound("order not found")
	}
	return cloneOrder(order), nil
}

func (f *fakeOrderRepo) List(ctx context.Context, qb *query.Builder) ([]domain.ServiceOrder, query.Meta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []domain.ServiceOrder{}
	for _, order := range f.orders {
		if !order.IsDeleted {
			result = append(result, *cloneOrder(order))
		}
	}
	return result, qb.MetaFor(int64(len(result))), nil
}

func (f *fakeOrderRepo) AcceptPending(ctx context.Context, orderID, technicianID primitive.ObjectID, at time.Time) (*domain.ServiceOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok || order.IsDeleted || order.Status != domain.StatusPending {
		return nil, nil
	}
	order.Status = domain.StatusInProgress
	order.ServiceProviderID = &technicianID
	order.StatusHistory = append(order.StatusHistory, domain.StatusHistoryEntry{Status: domain.StatusInProgress, Timestamp: at})
	order.UpdatedAt = at
	order.Version++
	return cloneOrder(order), nil
}

func (f *fakeOrderRepo) CompleteAssigned(ctx context.Context, orderID, technicianID primitive.ObjectID, at time.Time) (*domain.ServiceOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok || order.IsDeleted || order.Status != domain.StatusInProgress {
		return nil, nil
	}
	if order.ServiceProviderID == nil || *order.ServiceProviderID != technicianID {
		return nil, nil
	}
	order.Status = domain.StatusCompleted
	order.StatusHistory = append(order.StatusHistory, domain.StatusHistoryEntry{Status: domain.StatusCompleted, Timestamp: at})
	order.UpdatedAt = at
	order.Version++
	return cloneOrder(order), nil
}

func (f *fakeOrderRepo) SoftDelete(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok || order.IsDeleted {
		return errors.NewNotFound("order not found")
	}
	order.IsDeleted = true
	order.UpdatedAt = at
	return nil
}

func (f *fakeOrderRepo) StatusCounts(ctx context.Context, technicianID *primitive.ObjectID) (map[domain.OrderStatus]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[domain.OrderStatus]int64{}
	for _, order := range f.orders {
		if order.IsDeleted {
			continue
		}
		if technicianID != nil && (order.ServiceProviderID == nil || *order.ServiceProviderID != *technicianID) {
			continue
		}
		counts[order.Status]++
	}
	return counts, nil
}

func (f *fakeOrderRepo) LatestStatusCountsBetween(ctx context.Context, technicianID primitive.ObjectID, from, to time.Time) (map[domain.OrderStatus]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[domain.OrderStatus]int64{}
	for _, order := range f.orders {
		if order.IsDeleted || order.ServiceProviderID == nil || *order.ServiceProviderID != technicianID {
			continue
		}
		if len(order.StatusHistory) == 0 {
			continue
		}
		latest := order.StatusHistory[len(order.StatusHistory)-1]
		if !latest.Timestamp.Before(from) && latest.Timestamp.Before(to) {
			counts[latest.Status]++
		}
	}
	return counts, nil
}

func (f *fakeOrderRepo) MonthlyHistoryCounts(ctx context.Context, technicianID primitive.ObjectID, year int) ([]interfaces.MonthlyStatusCounts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byMonth := map[int]*interfaces.MonthlyStatusCounts{}
	for _, order := range f.orders {
		if order.IsDeleted || order.ServiceProviderID == nil || *order.ServiceProviderID != technicianID {
			continue
		}
		for _, entry := range order.StatusHistory {
			if entry.Timestamp.Year() != year {
				continue
			}
			month := int(entry.Timestamp.Month())
			counts, ok := byMonth[month]
			if !ok {
				counts = &interfaces.MonthlyStatusCounts{Month: month}
				byMonth[month] = counts
			}
			switch entry.Status {
			case domain.StatusInProgress:
				counts.InProgress++
			case domain.StatusCompleted:
				counts.Completed++
			}
		}
	}
	result := []interfaces.MonthlyStatusCounts{}
	for _, counts := range byMonth {
		result = append(result, *counts)
	}
	return result, nil
}

func (f *fakeOrderRepo) MonthlyCreatedCounts(ctx context.Context, year int) (map[int]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[int]int64{}
	for _, order := range f.orders {
		if !order.IsDeleted && order.CreatedAt.Year() == year {
			counts[int(order.CreatedAt.Month())]++
		}
	}
	return counts, nil
}

func (f *fakeOrderRepo) CountAll(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, order := range f.orders {
		if !order.IsDeleted {
			count++
		}
	}
	return count, nil
}

// fakeUserRepo serves technicians and admins from a map
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[primitive.ObjectID]*domain.User{}}
}

func (f *fakeUserRepo) put(user *domain.User) *domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	clone := *user
	f.users[user.ID] = &clone
	copied := clone
	return &copied
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	f.mu.Lock()
	for _, existing := range f.users {
		if existing.Email == user.Email && !existing.IsDeleted {
			f.mu.Unlock()
			return nil, errors.NewConflict("email already registered")
		}
	}
	f.mu.Unlock()
	return f.put(user), nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok || user.IsDeleted {
		return nil, errors.NewNotFound("user not found")
	}
	clone := *user
	return &clone, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email && !user.IsDeleted {
			clone := *user
			return &clone, nil
		}
	}
	return nil, errors.NewNotFound("user not found")
}

func (f *fakeUserRepo) List(ctx context.Context, qb *query.Builder) ([]domain.User, query.Meta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []domain.User{}
	for _, user := range f.users {
		if !user.IsDeleted {
			result = append(result, *user)
		}
	}
	return result, qb.MetaFor(int64(len(result))), nil
}

func (f *fakeUserRepo) SetVerification(ctx context.Context, id primitive.ObjectID, status domain.VerificationStatus, at time.Time) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok || user.IsDeleted {
		return nil, errors.NewNotFound("user not found")
	}
	user.AdminVerified = status
	user.UpdatedAt = at
	clone := *user
	return &clone, nil
}

func (f *fakeUserRepo) SetBlocked(ctx context.Context, id primitive.ObjectID, blocked bool, at time.Time) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok || user.IsDeleted {
		return nil, errors.NewNotFound("user not found")
	}
	user.IsBlocked = blocked
	user.UpdatedAt = at
	clone := *user
	return &clone, nil
}

func (f *fakeUserRepo) SoftDelete(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok || user.IsDeleted {
		return errors.NewNotFound("user not found")
	}
	user.IsDeleted = true
	user.UpdatedAt = at
	return nil
}

func (f *fakeUserRepo) EligibleTechnicians(ctx context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []domain.User{}
	for _, user := range f.users {
		if user.EligibleForBroadcast() {
			result = append(result, *user)
		}
	}
	return result, nil
}

func (f *fakeUserRepo) Admins(ctx context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []domain.User{}
	for _, user := range f.users {
		if !user.IsDeleted && (user.Role == domain.RoleAdmin || user.Role == domain.RoleSuperAdmin) {
			result = append(result, *user)
		}
	}
	return result, nil
}

func (f *fakeUserRepo) CountTechniciansByVerification(ctx context.Context, status domain.VerificationStatus) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, user := range f.users {
		if !user.IsDeleted && user.Role == domain.RoleTechnician && user.AdminVerified == status {
			count++
		}
	}
	return count, nil
}

// fakeNotifier records emissions and can fail for chosen receivers
type fakeNotifier struct {
	mu      sync.Mutex
	emitted []domain.Notification
	failFor map[primitive.ObjectID]bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{failFor: map[primitive.ObjectID]bool{}}
}

func (f *fakeNotifier) Emit(ctx context.Context, senderID, receiverID primitive.ObjectID, message domain.NotificationMessage, notificationType domain.NotificationType) (*domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[receiverID] {
		return nil, errors.NewExternal("delivery failed")
	}
	notification := domain.Notification{
		ID:         primitive.NewObjectID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Message:    message,
		Type:       notificationType,
	}
	f.emitted = append(f.emitted, notification)
	return &notification, nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.emitted)
}

// fakeMailer records sends and can be told to fail
type fakeMailer struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.NewExternal("smtp unavailable")
	}
	f.sent = append(f.sent, to)
	return nil
}

// fakePublisher records events and can be told to fail
type fakePublisher struct {
	mu                 sync.Mutex
	notificationEvents []kafka.NotificationEvent
	statusEvents       []kafka.OrderStatusEvent
	fail               bool
}

func (f *fakePublisher) PublishNotificationEvent(ctx context.Context, event kafka.NotificationEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.NewExternal("broker unavailable")
	}
	f.notificationEvents = append(f.notificationEvents, event)
	return nil
}

func (f *fakePublisher) PublishOrderStatusEvent(ctx context.Context, event kafka.OrderStatusEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.NewExternal("broker unavailable")
	}
	f.statusEvents = append(f.statusEvents, event)
	return nil
}

// fakeNotificationRepo stores notifications in a map
type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications map[primitive.ObjectID]*domain.Notification
	createErr     error
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{notifications: map[primitive.ObjectID]*domain.Notification{}}
}

func (f *fakeNotificationRepo) Create(ctx context.Context, notification *domain.Notification) (*domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if notification.ID.IsZero() {
		notification.ID = primitive.NewObjectID()
	}
	clone := *notification
	f.notifications[notification.ID] = &clone
	copied := clone
	return &copied, nil
}

func (f *fakeNotificationRepo) ListByReceiver(ctx context.Context, receiverID primitive.ObjectID, qb *query.Builder) ([]domain.Notification, query.Meta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []domain.Notification{}
	for _, notification := range f.notifications {
		if notification.ReceiverID == receiverID {
			result = append(result, *notification)
		}
	}
	return result, qb.MetaFor(int64(len(result))), nil
}

func (f *fakeNotificationRepo) MarkRead(ctx context.Context, id, receiverID primitive.ObjectID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	notification, ok := f.notifications[id]
	if !ok || notification.ReceiverID != receiverID {
		return errors.NewNotFound("notification not found")
	}
	notification.IsRead = true
	notification.UpdatedAt = at
	return nil
}

func (f *fakeNotificationRepo) MarkAllRead(ctx context.Context, receiverID primitive.ObjectID, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var updated int64
	for _, notification := range f.notifications {
		if notification.ReceiverID == receiverID && !notification.IsRead {
			notification.IsRead = true
			notification.UpdatedAt = at
			updated++
		}
	}
	return updated, nil
}

func (f *fakeNotificationRepo) Delete(ctx context.Context, id, receiverID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	notification, ok := f.notifications[id]
	if !ok || notification.ReceiverID != receiverID {
		return errors.NewNotFound("notification not found")
	}
	delete(f.notifications, id)
	return nil
}

func (f *fakeNotificationRepo) CountUnread(ctx context.Context, receiverID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, notification := range f.notifications {
		if notification.ReceiverID == receiverID && !notification.IsRead {
			count++
		}
	}
	return count, nil
}

// fakeUnreadCounter keeps counters in memory and can be told to fail
type fakeUnreadCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	fail   bool
}

func newFakeUnreadCounter() *fakeUnreadCounter {
	return &fakeUnreadCounter{counts: map[string]int64{}}
}

func (f *fakeUnreadCounter) Increment(ctx context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return 0, errors.NewExternal("cache unavailable")
	}
	f.counts[userID]++
	return f.counts[userID], nil
}

func (f *fakeUnreadCounter) Set(ctx context.Context, userID string, count int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.NewExternal("cache unavailable")
	}
	f.counts[userID] = count
	return nil
}

func (f *fakeUnreadCounter) Get(ctx context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return 0, errors.NewExternal("cache unavailable")
	}
	return f.counts[userID], nil
}

func (f *fakeUnreadCounter) Clear(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.NewExternal("cache unavailable")
	}
	delete(f.counts, userID)
	return nil
}
