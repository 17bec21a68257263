package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/trace"

	"github.com/sparktechagency/Mobile-Repair/internal/domain"
	"github.com/sparktechagency/Mobile-Repair/internal/messaging/kafka"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/errors"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/observability/logging"
	"github.com/sparktechagency/Mobile-Repair/internal/query"
	"github.com/sparktechagency/Mobile-Repair/internal/repository/interfaces"
)

// Notifier emits an in-app notification. Satisfied by NotificationService.
type Notifier interface {
	Emit(ctx context.Context, senderID, receiverID primitive.ObjectID, message domain.NotificationMessage, notificationType domain.NotificationType) (*domain.Notification, error)
}

// Mailer sends a best-effort email
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// OrderPublisher publishes order lifecycle events
type OrderPublisher interface {
	PublishOrderStatusEvent(ctx context.Context, event kafka.OrderStatusEvent) error
}

// OrderService drives the pending -> inprogress -> completed lifecycle.
// Every transition is a single conditional update guarded on the expected
// status, and every notification or email around a transition is best-effort.
type OrderService struct {
	orders    interfaces.OrderRepository
	users     interfaces.UserRepository
	notifier  Notifier
	mailer    Mailer
	publisher OrderPublisher
	logger    logging.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewOrderService creates the order lifecycle service
func NewOrderService(orders interfaces.OrderRepository, users interfaces.UserRepository, notifier Notifier, mailer Mailer, publisher OrderPublisher, logger logging.Logger, tracer trace.Tracer) *OrderService {
	return &OrderService{
		orders:    orders,
		users:     users,
		notifier:  notifier,
		mailer:    mailer,
		publisher: publisher,
		logger:    logger,
		tracer:    tracer,
		now:       time.Now,
	}
}

// Create validates and persists a client submission as a pending order, then
// broadcasts its availability to every eligible technician in the background
func (s *OrderService) Create(ctx context.Context, req domain.CreateOrderRequest) (*domain.ServiceOrder, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Create")
	defer span.End()

	if err := validateCreateOrder(req); err != nil {
		return nil, err
	}

	now := s.now()
	order := &domain.ServiceOrder{
		ClientName:       strings.TrimSpace(req.ClientName),
		PhoneNumber:      strings.TrimSpace(req.PhoneNumber),
		Email:            strings.TrimSpace(req.Email),
		ServiceAddress:   strings.TrimSpace(req.ServiceAddress),
		Location:         req.Location,
		Brand:            req.Brand,
		Productline:      req.Productline,
		Model:            req.Model,
		Variant:          req.Variant,
		IssueType:        req.IssueType,
		IssueDescription: req.IssueDescription,
		PreferedDate:     req.PreferedDate,
		PreferedTime:     req.PreferedTime,
		IsAllAgreement:   req.IsAllAgreement,
		Status:           domain.StatusPending,
		StatusHistory: []domain.StatusHistoryEntry{
			{Status: domain.StatusPending, Timestamp: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	order, err := s.orders.Create(ctx, order)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "Service order created", map[string]interface{}{
		"orderId":    order.ID.Hex(),
		"clientName": order.ClientName,
	})

	// The broadcast must not delay or fail the submission
	go s.broadcastNewOrder(order)

	return order, nil
}

func validateCreateOrder(req domain.CreateOrderRequest) error {
	switch {
	case strings.TrimSpace(req.ClientName) == "":
		return errors.NewValidation("clientName is required")
	case strings.TrimSpace(req.PhoneNumber) == "":
		return errors.NewValidation("phoneNumber is required")
	case strings.TrimSpace(req.Email) == "":
		return errors.NewValidation("email is required")
	case strings.TrimSpace(req.ServiceAddress) == "":
		return errors.NewValidation("serviceAddress is required")
	case req.IssueType == "":
		return errors.NewValidation("issueType is required")
	case !req.Location.Valid():
		return errors.NewValidation("location coordinates are out of range")
	case !req.IsAllAgreement:
		return errors.NewValidation("service agreement must be accepted")
	}
	return nil
}

// broadcastNewOrder notifies every eligible technician. Runs detached from
// the request; per-recipient failures are logged and do not stop the fan-out.
func (s *OrderService) broadcastNewOrder(order *domain.ServiceOrder) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	technicians, err := s.users.EligibleTechnicians(ctx)
	if err != nil {
		s.logger.Error(ctx, "Failed to load technicians for broadcast", err, map[string]interface{}{
			"orderId": order.ID.Hex(),
		})
		return
	}

	message := domain.NotificationMessage{
		FullName: order.ClientName,
		Text:     fmt.Sprintf("New service order available: %s %s (%s)", order.Brand, order.Model, order.IssueType),
	}

	delivered := 0
	for _, technician := range technicians {
		if _, err := s.notifier.Emit(ctx, primitive.NilObjectID, technician.ID, message, domain.NotificationNewOrderAvailable); err != nil {
			s.logger.Warn(ctx, "Failed to notify technician about new order", map[string]interface{}{
				"orderId":      order.ID.Hex(),
				"technicianId": technician.ID.Hex(),
				"error":        err.Error(),
			})
			continue
		}
		delivered++
	}

	s.logger.Info(ctx, "New order broadcast finished", map[string]interface{}{
		"orderId":    order.ID.Hex(),
		"recipients": len(technicians),
		"delivered":  delivered,
	})
}

// Accept assigns a pending order to a technician. The pending guard and the
// write are one conditional update, so of two concurrent accepts exactly one
// wins and the loser gets InvalidState.
func (s *OrderService) Accept(ctx context.Context, orderID, technicianID primitive.ObjectID) (*domain.ServiceOrder, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Accept")
	defer span.End()

	technician, err := s.users.GetByID(ctx, technicianID)
	if err != nil {
		return nil, err
	}
	if !technician.EligibleForBroadcast() {
		return nil, errors.NewForbidden("technician is not verified to accept orders")
	}

	order, err := s.orders.AcceptPending(ctx, orderID, technicianID, s.now())
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, s.classifyFailedTransition(ctx, orderID, technicianID, domain.StatusPending)
	}

	s.logger.Info(ctx, "Service order accepted", map[string]interface{}{
		"orderId":      order.ID.Hex(),
		"technicianId": technicianID.Hex(),
	})

	s.publishStatusEvent(ctx, order, domain.StatusPending, technicianID)
	s.sendClientEmail(ctx, order, "Your service order was accepted",
		fmt.Sprintf("Hi %s, technician %s accepted your service order and will contact you shortly.", order.ClientName, technician.Name))

	return order, nil
}

// Complete finishes an inprogress order held by the calling technician
func (s *OrderService) Complete(ctx context.Context, orderID, technicianID primitive.ObjectID) (*domain.ServiceOrder, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Complete")
	defer span.End()

	order, err := s.orders.CompleteAssigned(ctx, orderID, technicianID, s.now())
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, s.classifyFailedTransition(ctx, orderID, technicianID, domain.StatusInProgress)
	}

	s.logger.Info(ctx, "Service order completed", map[string]interface{}{
		"orderId":      order.ID.Hex(),
		"technicianId": technicianID.Hex(),
	})

	s.publishStatusEvent(ctx, order, domain.StatusInProgress, technicianID)
	s.sendClientEmail(ctx, order, "Your service order is complete",
		fmt.Sprintf("Hi %s, your service order has been completed. Thank you for choosing us.", order.ClientName))

	return order, nil
}

// classifyFailedTransition explains why a conditional update matched nothing:
// the order is gone, in the wrong state, or held by someone else
func (s *OrderService) classifyFailedTransition(ctx context.Context, orderID, technicianID primitive.ObjectID, expected domain.OrderStatus) error {
	order, err := s.orders.GetByIDAny(ctx, orderID)
	if err != nil {
		return err
	}

	switch {
	case order.IsDeleted:
		return errors.NewNotFound("order not found")
	case order.Status != expected:
		return errors.NewInvalidState(fmt.Sprintf("order is %s, expected %s", order.Status, expected))
	case expected == domain.StatusInProgress && (order.ServiceProviderID == nil || *order.ServiceProviderID != technicianID):
		return errors.NewForbidden("order is assigned to another technician")
	default:
		return errors.NewInternal("order update matched no document")
	}
}

// SoftDelete marks an order deleted; status and history are untouched
func (s *OrderService) SoftDelete(ctx context.Context, orderID primitive.ObjectID) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.SoftDelete")
	defer span.End()

	if err := s.orders.SoftDelete(ctx, orderID, s.now()); err != nil {
		return err
	}

	s.logger.Info(ctx, "Service order deleted", map[string]interface{}{
		"orderId": orderID.Hex(),
	})
	return nil
}

// GetByID returns a live order
func (s *OrderService) GetByID(ctx context.Context, orderID primitive.ObjectID) (*domain.ServiceOrder, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetByID")
	defer span.End()

	return s.orders.GetByID(ctx, orderID)
}

// Order list search fields
var orderSearchFields = []string{"clientName", "email", "phoneNumber"}

// ListAll lists live orders through the query builder
func (s *OrderService) ListAll(ctx context.Context, raw map[string]string) ([]domain.ServiceOrder, query.Meta, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListAll")
	defer span.End()

	return s.list(ctx, bson.M{"isDeleted": false}, raw)
}

// ListPending lists live pending orders
func (s *OrderService) ListPending(ctx context.Context, raw map[string]string) ([]domain.ServiceOrder, query.Meta, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListPending")
	defer span.End()

	return s.list(ctx, bson.M{"isDeleted": false, "status": domain.StatusPending}, raw)
}

// ListByTechnician lists the technician's live orders
func (s *OrderService) ListByTechnician(ctx context.Context, technicianID primitive.ObjectID, raw map[string]string) ([]domain.ServiceOrder, query.Meta, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListByTechnician")
	defer span.End()

	return s.list(ctx, bson.M{"isDeleted": false, "serviceProviderId": technicianID}, raw)
}

func (s *OrderService) list(ctx context.Context, base bson.M, raw map[string]string) ([]domain.ServiceOrder, query.Meta, error) {
	qb := query.NewBuilder(base, raw, s.logger).
		Search(orderSearchFields...).
		Filter().Sort().Paginate().Fields()

	return s.orders.List(ctx, qb)
}

// publishStatusEvent is best-effort; the transition already committed
func (s *OrderService) publishStatusEvent(ctx context.Context, order *domain.ServiceOrder, oldStatus domain.OrderStatus, technicianID primitive.ObjectID) {
	event := kafka.OrderStatusEvent{
		OrderID:      order.ID.Hex(),
		OldStatus:    oldStatus,
		NewStatus:    order.Status,
		TechnicianID: technicianID.Hex(),
	}
	if err := s.publisher.PublishOrderStatusEvent(ctx, event); err != nil {
		s.logger.Warn(ctx, "Failed to publish order status event", map[string]interface{}{
			"orderId": order.ID.Hex(),
			"error":   err.Error(),
		})
	}
}

// sendClientEmail is best-effort; failures are logged, never surfaced
func (s *OrderService) sendClientEmail(ctx context.Context, order *domain.ServiceOrder, subject, body string) {
	if err := s.mailer.Send(ctx, order.Email, subject, body); err != nil {
		s.logger.Warn(ctx, "Failed to send client email", map[string]interface{}{
			"orderId": order.ID.Hex(),
			"email":   order.Email,
			"error":   err.Error(),
		})
	}
}
