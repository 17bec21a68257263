package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sparktechagency/Mobile-Repair/internal/domain"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/errors"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/observability/logging"
)

type orderServiceFixture struct {
	svc       *OrderService
	orders    *fakeOrderRepo
	users     *fakeUserRepo
	notifier  *fakeNotifier
	mailer    *fakeMailer
	publisher *fakePublisher
}

func newOrderServiceFixture() *orderServiceFixture {
	f := &orderServiceFixture{
		orders:    newFakeOrderRepo(),
		users:     newFakeUserRepo(),
		notifier:  newFakeNotifier(),
		mailer:    &fakeMailer{},
		publisher: &fakePublisher{},
	}
	f.svc = NewOrderService(f.orders, f.users, f.notifier, f.mailer, f.publisher, logging.NewNoOpLogger(), testTracer())
	return f
}

func (f *orderServiceFixture) seedTechnician(verified bool) *domain.User {
	status := domain.VerificationPending
	if verified {
		status = domain.VerificationVerified
	}
	return f.users.put(&domain.User{
		Name:          "Tech",
		Email:         primitive.NewObjectID().Hex() + "@example.com",
		Role:          domain.RoleTechnician,
		AdminVerified: status,
	})
}

func validOrderRequest() domain.CreateOrderRequest {
	return domain.CreateOrderRequest{
		ClientName:     "Jordan Lee",
		PhoneNumber:    "+8801712345678",
		Email:          "jordan@example.com",
		ServiceAddress: "12 Gulshan Ave, Dhaka",
		Location:       domain.GeoLocation{Latitude: 23.78, Longitude: 90.41},
		Brand:          "Samsung",
		Model:          "S24",
		IssueType:      "screen",
		IsAllAgreement: true,
	}
}

// waitFor polls until the condition holds or the deadline passes
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

func TestCreateOrderValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.CreateOrderRequest)
	}{
		{"missing client name", func(r *domain.CreateOrderRequest) { r.ClientName = "  " }},
		{"missing phone", func(r *domain.CreateOrderRequest) { r.PhoneNumber = "" }},
		{"missing email", func(r *domain.CreateOrderRequest) { r.Email = "" }},
		{"missing address", func(r *domain.CreateOrderRequest) { r.ServiceAddress = "" }},
		{"missing issue type", func(r *domain.CreateOrderRequest) { r.IssueType = "" }},
		{"latitude out of range", func(r *domain.CreateOrderRequest) { r.Location.Latitude = 91 }},
		{"agreement not accepted", func(r *domain.CreateOrderRequest) { r.IsAllAgreement = false }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderServiceFixture()
			req := validOrderRequest()
			tt.mutate(&req)

			_, err := f.svc.Create(context.Background(), req)
			if !errors.IsValidation(err) {
				t.Errorf("Create() error = %v, want validation error", err)
			}
		})
	}
}

func TestCreateOrderStartsPendingWithHistory(t *testing.T) {
	f := newOrderServiceFixture()
	f.seedTechnician(true)

	order, err := f.svc.Create(context.Background(), validOrderRequest())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if order.Status != domain.StatusPending {
		t.Errorf("Status = %q, want %q", order.Status, domain.StatusPending)
	}
	if len(order.StatusHistory) != 1 || order.StatusHistory[0].Status != domain.StatusPending {
		t.Errorf("StatusHistory = %+v, want single pending entry", order.StatusHistory)
	}
	if order.ServiceProviderID != nil {
		t.Errorf("ServiceProviderID = %v, want nil", order.ServiceProviderID)
	}

	waitFor(t, func() bool { return f.notifier.count() == 1 })
}

func TestCreateOrderBroadcastSkipsFailedRecipients(t *testing.T) {
	f := newOrderServiceFixture()
	techA := f.seedTechnician(true)
	techB := f.seedTechnician(true)
	techC := f.seedTechnician(true)
	f.seedTechnician(false) // unverified, never notified
	f.notifier.failFor[techB.ID] = true

	if _, err := f.svc.Create(context.Background(), validOrderRequest()); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	waitFor(t, func() bool { return f.notifier.count() == 2 })

	f.notifier.mu.Lock()
	defer f.notifier.mu.Unlock()
	for _, n := range f.notifier.emitted {
		if n.ReceiverID != techA.ID && n.ReceiverID != techC.ID {
			t.Errorf("unexpected recipient %s", n.ReceiverID.Hex())
		}
		if n.Type != domain.NotificationNewOrderAvailable {
			t.Errorf("Type = %q, want %q", n.Type, domain.NotificationNewOrderAvailable)
		}
	}
}

func TestAcceptAssignsAndNotifies(t *testing.T) {
	f := newOrderServiceFixture()
	technician := f.seedTechnician(true)
	created, err := f.svc.Create(context.Background(), validOrderRequest())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	order, err := f.svc.Accept(context.Background(), created.ID, technician.ID)
	if err != nil {
		t.Fatalf("Accept() error = %v", err)
	}

	if order.Status != domain.StatusInProgress {
		t.Errorf("Status = %q, want %q", order.Status, domain.StatusInProgress)
	}
	if order.ServiceProviderID == nil || *order.ServiceProviderID != technician.ID {
		t.Errorf("ServiceProviderID = %v, want %s", order.ServiceProviderID, technician.ID.Hex())
	}
	if len(order.StatusHistory) != 2 || order.StatusHistory[1].Status != domain.StatusInProgress {
		t.Errorf("StatusHistory = %+v, want pending then inprogress", order.StatusHistory)
	}

	f.publisher.mu.Lock()
	events := len(f.publisher.statusEvents)
	f.publisher.mu.Unlock()
	if events != 1 {
		t.Errorf("status events published = %d, want 1", events)
	}

	f.mailer.mu.Lock()
	defer f.mailer.mu.Unlock()
	if len(f.mailer.sent) != 1 || f.mailer.sent[0] != created.Email {
		t.Errorf("emails sent = %v, want [%s]", f.mailer.sent, created.Email)
	}
}

func TestAcceptRequiresVerifiedTechnician(t *testing.T) {
	f := newOrderServiceFixture()
	technician := f.seedTechnician(false)
	created, err := f.svc.Create(context.Background(), validOrderRequest())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err = f.svc.Accept(context.Background(), created.ID, technician.ID)
	if !errors.IsForbidden(err) {
		t.Errorf("Accept() error = %v, want forbidden", err)
	}
}

func TestAcceptConcurrentExactlyOneWins(t *testing.T) {
	f := newOrderServiceFixture()
	techA := f.seedTechnician(true)
	techB := f.seedTechnician(true)
	created, err := f.svc.Create(context.Background(), validOrderRequest())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	results := make([]error, 2)
	var wg sync.WaitGroup
	for i, id := range []primitive.ObjectID{techA.ID, techB.ID} {
		wg.Add(1)
		go func(i int, technicianID primitive.ObjectID) {
			defer wg.Done()
			_, results[i] = f.svc.Accept(context.Background(), created.ID, technicianID)
		}(i, id)
	}
	wg.Wait()

	var wins, losses int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.IsInvalidState(err):
			losses++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 || losses != 1 {
		t.Errorf("wins = %d, losses = %d, want exactly one of each", wins, losses)
	}

	order, err := f.orders.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if order.Status != domain.StatusInProgress {
		t.Errorf("Status = %q, want %q", order.Status, domain.StatusInProgress)
	}
	if len(order.StatusHistory) != 2 {
		t.Errorf("len(StatusHistory) = %d, want 2", len(order.StatusHistory))
	}
}

func TestAcceptDeletedOrder(t *testing.T) {
	f := newOrderServiceFixture()
	technician := f.seedTechnician(true)
	created, err := f.svc.Create(context.Background(), validOrderRequest())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := f.svc.SoftDelete(context.Background(), created.ID); err != nil {
		t.Fatalf("SoftDelete() error = %v", err)
	}

	_, err = f.svc.Accept(context.Background(), created.ID, technician.ID)
	if !errors.IsNotFound(err) {
		t.Errorf("Accept() error = %v, want not found", err)
	}
}

func TestCompleteLifecycle(t *testing.T) {
	f := newOrderServiceFixture()
	technician := f.seedTechnician(true)
	created, err := f.svc.Create(context.Background(), validOrderRequest())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := f.svc.Accept(context.Background(), created.ID, technician.ID); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}

	order, err := f.svc.Complete(context.Background(), created.ID, technician.ID)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if order.Status != domain.StatusCompleted {
		t.Errorf("Status = %q, want %q", order.Status, domain.StatusCompleted)
	}
	want := []domain.OrderStatus{domain.StatusPending, domain.StatusInProgress, domain.StatusCompleted}
	if len(order.StatusHistory) != len(want) {
		t.Fatalf("len(StatusHistory) = %d, want %d", len(order.StatusHistory), len(want))
	}
	for i, status := range want {
		if order.StatusHistory[i].Status != status {
			t.Errorf("StatusHistory[%d].Status = %q, want %q", i, order.StatusHistory[i].Status, status)
		}
	}
}

func TestCompleteByAnotherTechnician(t *testing.T) {
	f := newOrderServiceFixture()
	owner := f.seedTechnician(true)
	other := f.seedTechnician(true)
	created, err := f.svc.Create(context.Background(), validOrderRequest())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := f.svc.Accept(context.Background(), created.ID, owner.ID); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}

	_, err = f.svc.Complete(context.Background(), created.ID, other.ID)
	if !errors.IsForbidden(err) {
		t.Errorf("Complete() error = %v, want forbidden", err)
	}

	order, err := f.orders.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if order.Status != domain.StatusInProgress {
		t.Errorf("Status = %q, want unchanged %q", order.Status, domain.StatusInProgress)
	}
}

func TestCompletePendingOrder(t *testing.T) {
	f := newOrderServiceFixture()
	technician := f.seedTechnician(true)
	created, err := f.svc.Create(context.Background(), validOrderRequest())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err = f.svc.Complete(context.Background(), created.ID, technician.ID)
	if !errors.IsInvalidState(err) {
		t.Errorf("Complete() error = %v, want invalid state", err)
	}
}

func TestAcceptSucceedsWhenSideEffectsFail(t *testing.T) {
	f := newOrderServiceFixture()
	f.mailer.fail = true
	f.publisher.fail = true
	technician := f.seedTechnician(true)
	created, err := f.svc.Create(context.Background(), validOrderRequest())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	order, err := f.svc.Accept(context.Background(), created.ID, technician.ID)
	if err != nil {
		t.Fatalf("Accept() error = %v, want success despite failing side effects", err)
	}
	if order.Status != domain.StatusInProgress {
		t.Errorf("Status = %q, want %q", order.Status, domain.StatusInProgress)
	}
}

func TestGetByIDExcludesDeleted(t *testing.T) {
	f := newOrderServiceFixture()
	created, err := f.svc.Create(context.Background(), validOrderRequest())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := f.svc.SoftDelete(context.Background(), created.ID); err != nil {
		t.Fatalf("SoftDelete() error = %v", err)
	}

	_, err = f.svc.GetByID(context.Background(), created.ID)
	if !errors.IsNotFound(err) {
		t.Errorf("GetByID() error = %v, want not found", err)
	}
}
