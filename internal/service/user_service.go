package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/sparktechagency/Mobile-Repair/internal/domain"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/errors"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/observability/logging"
	"github.com/sparktechagency/Mobile-Repair/internal/query"
	"github.com/sparktechagency/Mobile-Repair/internal/repository/interfaces"
)

const minPasswordLength = 8

// UserService manages technician accounts and their admin review flow
type UserService struct {
	users    interfaces.UserRepository
	notifier Notifier
	mailer   Mailer
	logger   logging.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewUserService creates the user service
func NewUserService(users interfaces.UserRepository, notifier Notifier, mailer Mailer, logger logging.Logger, tracer trace.Tracer) *UserService {
	return &UserService{
		users:    users,
		notifier: notifier,
		mailer:   mailer,
		logger:   logger,
		tracer:   tracer,
		now:      time.Now,
	}
}

// RegisterTechnician creates a technician account pending admin review and
// alerts the admins in the background
func (s *UserService) RegisterTechnician(ctx context.Context, req domain.RegisterTechnicianRequest) (*domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.RegisterTechnician")
	defer span.End()

	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	now := s.now()
	user := &domain.User{
		Name:             strings.TrimSpace(req.Name),
		Email:            strings.ToLower(strings.TrimSpace(req.Email)),
		Password:         string(hash),
		Role:             domain.RoleTechnician,
		Phone:            strings.TrimSpace(req.Phone),
		Address:          req.Address,
		YearOfExperience: req.YearOfExperience,
		Specialties:      req.Specialties,
		AdminVerified:    domain.VerificationPending,
		AcceptTerms:      req.AcceptTerms,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	user, err = s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "Technician registered", map[string]interface{}{
		"userId": user.ID.Hex(),
		"email":  user.Email,
	})

	go s.notifyAdminsOfRegistration(user)

	return user, nil
}

func validateRegistration(req domain.RegisterTechnicianRequest) error {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return errors.NewValidation("name is required")
	case strings.TrimSpace(req.Email) == "" || !strings.Contains(req.Email, "@"):
		return errors.NewValidation("a valid email is required")
	case len(req.Password) < minPasswordLength:
		return errors.NewValidation(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	case !req.AcceptTerms:
		return errors.NewValidation("terms must be accepted")
	}
	return nil
}

// notifyAdminsOfRegistration alerts every admin about a pending technician.
// Per-recipient failures are logged and do not stop the fan-out.
func (s *UserService) notifyAdminsOfRegistration(technician *domain.User) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	admins, err := s.users.Admins(ctx)
	if err != nil {
		s.logger.Error(ctx, "Failed to load admins for registration alert", err)
		return
	}

	message := domain.NotificationMessage{
		FullName: technician.Name,
		Image:    technician.ProfileImage,
		Text:     fmt.Sprintf("%s registered as a technician and is awaiting approval.", technician.Name),
	}

	for _, admin := range admins {
		if _, err := s.notifier.Emit(ctx, technician.ID, admin.ID, message, domain.NotificationTechnicianPending); err != nil {
			s.logger.Warn(ctx, "Failed to notify admin of registration", map[string]interface{}{
				"adminId": admin.ID.Hex(),
				"error":   err.Error(),
			})
		}

		if err := s.mailer.Send(ctx, admin.Email, "Technician approval needed",
			fmt.Sprintf("%s (%s) registered as a technician and is awaiting your review.", technician.Name, technician.Email)); err != nil {
			s.logger.Warn(ctx, "Failed to email admin about registration", map[string]interface{}{
				"adminId": admin.ID.Hex(),
				"error":   err.Error(),
			})
		}
	}
}

// Verify approves a pending technician
func (s *UserService) Verify(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Verify")
	defer span.End()

	user, err := s.users.SetVerification(ctx, id, domain.VerificationVerified, s.now())
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "Technician verified", map[string]interface{}{"userId": id.Hex()})

	s.tellTechnician(ctx, user, domain.NotificationTechnicianVerified,
		"Your account was approved", "Your technician account has been approved. You can now accept service orders.")

	return user, nil
}

// Decline rejects a pending technician and retires the account
func (s *UserService) Decline(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Decline")
	defer span.End()

	user, err := s.users.SetVerification(ctx, id, domain.VerificationDeclined, s.now())
	if err != nil {
		return nil, err
	}

	s.tellTechnician(ctx, user, domain.NotificationTechnicianDeclined,
		"Your application was declined", "Unfortunately your technician application was declined.")

	if err := s.users.SoftDelete(ctx, id, s.now()); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "Technician declined", map[string]interface{}{"userId": id.Hex()})

	return user, nil
}

// SetBlocked toggles the account's block flag
func (s *UserService) SetBlocked(ctx context.Context, id primitive.ObjectID, blocked bool) (*domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.SetBlocked")
	defer span.End()

	user, err := s.users.SetBlocked(ctx, id, blocked, s.now())
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "User block flag updated", map[string]interface{}{
		"userId":  id.Hex(),
		"blocked": blocked,
	})

	return user, nil
}

// SoftDelete marks a user deleted
func (s *UserService) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	ctx, span := s.tracer.Start(ctx, "UserService.SoftDelete")
	defer span.End()

	return s.users.SoftDelete(ctx, id, s.now())
}

// GetByID returns a live user
func (s *UserService) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.GetByID")
	defer span.End()

	return s.users.GetByID(ctx, id)
}

var userSearchFields = []string{"name", "email", "phone"}

// ListTechnicians lists verified technicians through the query builder
func (s *UserService) ListTechnicians(ctx context.Context, raw map[string]string) ([]domain.User, query.Meta, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.ListTechnicians")
	defer span.End()

	return s.list(ctx, bson.M{
		"isDeleted":     false,
		"role":          domain.RoleTechnician,
		"adminVerified": domain.VerificationVerified,
	}, raw)
}

// ListPendingTechnicians lists technicians awaiting review
func (s *UserService) ListPendingTechnicians(ctx context.Context, raw map[string]string) ([]domain.User, query.Meta, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.ListPendingTechnicians")
	defer span.End()

	return s.list(ctx, bson.M{
		"isDeleted":     false,
		"role":          domain.RoleTechnician,
		"adminVerified": domain.VerificationPending,
	}, raw)
}

func (s *UserService) list(ctx context.Context, base bson.M, raw map[string]string) ([]domain.User, query.Meta, error) {
	qb := query.NewBuilder(base, raw, s.logger).
		Search(userSearchFields...).
		Filter().Sort().Paginate().Fields()

	return s.users.List(ctx, qb)
}

// tellTechnician sends the review outcome as notification and email, best effort
func (s *UserService) tellTechnician(ctx context.Context, user *domain.User, notificationType domain.NotificationType, subject, text string) {
	message := domain.NotificationMessage{
		FullName: user.Name,
		Text:     text,
	}
	if _, err := s.notifier.Emit(ctx, primitive.NilObjectID, user.ID, message, notificationType); err != nil {
		s.logger.Warn(ctx, "Failed to notify technician of review outcome", map[string]interface{}{
			"userId": user.ID.Hex(),
			"error":  err.Error(),
		})
	}

	if err := s.mailer.Send(ctx, user.Email, subject, fmt.Sprintf("Hi %s, %s", user.Name, text)); err != nil {
		s.logger.Warn(ctx, "Failed to email technician", map[string]interface{}{
			"userId": user.ID.Hex(),
			"error":  err.Error(),
		})
	}
}
