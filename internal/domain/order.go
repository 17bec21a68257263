package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus represents the current status of a service order
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusInProgress OrderStatus = "inprogress"
	StatusCompleted  OrderStatus = "completed"
)

// StatusHistoryEntry is a single entry in an order's append-only status log
type StatusHistoryEntry struct {
	Status    OrderStatus `json:"status" bson:"status"`
	Timestamp time.Time   `json:"timestamp" bson:"timestamp"`
}

// GeoLocation is the free-form location submitted with a service order
type GeoLocation struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
}

// Valid reports whether the coordinates are within range
func (g GeoLocation) Valid() bool {
	return g.Latitude >= -90 && g.Latitude <= 90 &&
		g.Longitude >= -180 && g.Longitude <= 180
}

// ServiceOrder represents a client's repair/service request tracked through
// the pending -> inprogress -> completed lifecycle
type ServiceOrder struct {
	ID                primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	ClientName        string               `json:"clientName" bson:"clientName"`
	PhoneNumber       string               `json:"phoneNumber" bson:"phoneNumber"`
	Email             string               `json:"email" bson:"email"`
	ServiceAddress    string               `json:"serviceAddress" bson:"serviceAddress"`
	Location          GeoLocation          `json:"location" bson:"location"`
	Brand             string               `json:"brand" bson:"brand"`
	Productline       string               `json:"productline" bson:"productline"`
	Model             string               `json:"model" bson:"model"`
	Variant           string               `json:"variant" bson:"variant"`
	IssueType         string               `json:"issueType" bson:"issueType"`
	IssueDescription  string               `json:"issueDescription,omitempty" bson:"issueDescription,omitempty"`
	PreferedDate      time.Time            `json:"preferedDate" bson:"preferedDate"`
	PreferedTime      string               `json:"preferedTime" bson:"preferedTime"`
	IsAllAgreement    bool                 `json:"isAllAgreement" bson:"isAllAgreement"`
	Status            OrderStatus          `json:"status" bson:"status"`
	ServiceProviderID *primitive.ObjectID  `json:"serviceProviderId" bson:"serviceProviderId"`
	StatusHistory     []StatusHistoryEntry `json:"statusHistory" bson:"statusHistory"`
	IsDeleted         bool                 `json:"isDeleted" bson:"isDeleted"`
	CreatedAt         time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time            `json:"updatedAt" bson:"updatedAt"`
	Version           int                  `json:"-" bson:"version"`
}

// CreateOrderRequest carries a client submission into the service layer
type CreateOrderRequest struct {
	ClientName       string      `json:"clientName"`
	PhoneNumber      string      `json:"phoneNumber"`
	Email            string      `json:"email"`
	ServiceAddress   string      `json:"serviceAddress"`
	Location         GeoLocation `json:"location"`
	Brand            string      `json:"brand"`
	Productline      string      `json:"productline"`
	Model            string      `json:"model"`
	Variant          string      `json:"variant"`
	IssueType        string      `json:"issueType"`
	IssueDescription string      `json:"issueDescription"`
	PreferedDate     time.Time   `json:"preferedDate"`
	PreferedTime     string      `json:"preferedTime"`
	IsAllAgreement   bool        `json:"isAllAgreement"`
}

// CanTransition reports whether the order may advance to the new status.
// Transitions are forward-only: pending -> inprogress -> completed.
func (o *ServiceOrder) CanTransition(newStatus OrderStatus) bool {
	switch o.Status {
	case StatusPending:
		return newStatus == StatusInProgress
	case StatusInProgress:
		return newStatus == StatusCompleted
	case StatusCompleted:
		return false // Terminal state
	default:
		return false
	}
}

// CurrentHistoryStatus returns the status of the most recent history entry
func (o *ServiceOrder) CurrentHistoryStatus() (OrderStatus, bool) {
	if len(o.StatusHistory) == 0 {
		return "", false
	}
	return o.StatusHistory[len(o.StatusHistory)-1].Status, true
}
