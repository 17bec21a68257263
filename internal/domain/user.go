package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRole represents the role of a platform user
type UserRole string

const (
	RoleTechnician UserRole = "technician"
	RoleAdmin      UserRole = "admin"
	RoleSuperAdmin UserRole = "superAdmin"
)

// VerificationStatus represents the admin review state of a technician
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationDeclined VerificationStatus = "declined"
)

// User represents a technician, admin or super admin account
type User struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name             string             `json:"name" bson:"name"`
	Email            string             `json:"email" bson:"email"`
	Password         string             `json:"-" bson:"password"`
	ProfileImage     string             `json:"profileImage" bson:"profileImage"`
	Role             UserRole           `json:"role" bson:"role"`
	Phone            string             `json:"phone" bson:"phone"`
	Address          string             `json:"address" bson:"address"`
	YearOfExperience int                `json:"yearOfExperience" bson:"yearOfExperience"`
	Specialties      string             `json:"specialties" bson:"specialties"`
	AdminVerified    VerificationStatus `json:"adminVerified" bson:"adminVerified"`
	IsBlocked        bool               `json:"isBlocked" bson:"isBlocked"`
	IsDeleted        bool               `json:"isDeleted" bson:"isDeleted"`
	AcceptTerms      bool               `json:"acceptTerms" bson:"acceptTerms"`
	CreatedAt        time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// EligibleForBroadcast reports whether the user should receive new-order
// broadcasts and count toward active technician statistics
func (u *User) EligibleForBroadcast() bool {
	return u.Role == RoleTechnician &&
		u.AdminVerified == VerificationVerified &&
		!u.IsBlocked && !u.IsDeleted
}

// RegisterTechnicianRequest carries a technician sign-up into the service layer
type RegisterTechnicianRequest struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	Phone            string `json:"phone"`
	Address          string `json:"address"`
	YearOfExperience int    `json:"yearOfExperience"`
	Specialties      string `json:"specialties"`
	AcceptTerms      bool   `json:"acceptTerms"`
}
