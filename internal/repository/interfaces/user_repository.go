package interfaces

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sparktechagency/Mobile-Repair/internal/domain"
	"github.com/sparktechagency/Mobile-Repair/internal/query"
)

// UserRepository defines data access for platform accounts
type UserRepository interface {
	// Create inserts a new user and returns it with its generated id
	Create(ctx context.Context, user *domain.User) (*domain.User, error)

	// GetByID returns a live user by id
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)

	// GetByEmail returns a live user by email, including the password hash
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List runs the accumulated query against live users
	List(ctx context.Context, qb *query.Builder) ([]domain.User, query.Meta, error)

	// SetVerification updates a technician's review state
	SetVerification(ctx context.Context, id primitive.ObjectID, status domain.VerificationStatus, at time.Time) (*domain.User, error)

	// SetBlocked toggles the block flag
	SetBlocked(ctx context.Context, id primitive.ObjectID, blocked bool, at time.Time) (*domain.User, error)

	// SoftDelete marks a user deleted without removing the document
	SoftDelete(ctx context.Context, id primitive.ObjectID, at time.Time) error

	// EligibleTechnicians returns every verified, unblocked, live technician
	EligibleTechnicians(ctx context.Context) ([]domain.User, error)

	// Admins returns every live admin and super admin account
	Admins(ctx context.Context) ([]domain.User, error)

	// CountTechniciansByVerification counts live technicians in the given
	// review state
	CountTechniciansByVerification(ctx context.Context, status domain.VerificationStatus) (int64, error)
}
