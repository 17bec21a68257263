package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType labels the event a notification was emitted for
type NotificationType string

const (
	NotificationNewOrderAvailable      NotificationType = "newOrderAvailable"
	NotificationOrderAccepted          NotificationType = "orderAccepted"
	NotificationOrderCompleted         NotificationType = "orderCompleted"
	NotificationTechnicianPending      NotificationType = "technicianPendingApproval"
	NotificationTechnicianVerified     NotificationType = "technicianVerified"
	NotificationTechnicianDeclined     NotificationType = "technicianDeclined"
	NotificationAdminNotice            NotificationType = "adminNotice"
)

// NotificationMessage is the display payload carried by a notification
type NotificationMessage struct {
	FullName string   `json:"fullName" bson:"fullName"`
	Image    string   `json:"image" bson:"image"`
	Text     string   `json:"text" bson:"text"`
	Photos   []string `json:"photos" bson:"photos"`
}

// Notification is a persisted in-app notification
type Notification struct {
	ID         primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	SenderID   primitive.ObjectID  `json:"senderId" bson:"senderId"`
	ReceiverID primitive.ObjectID  `json:"receiverId" bson:"receiverId"`
	Message    NotificationMessage `json:"message" bson:"message"`
	Type       NotificationType    `json:"type" bson:"type"`
	IsRead     bool                `json:"isRead" bson:"isRead"`
	CreatedAt  time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time           `json:"updatedAt" bson:"updatedAt"`
}
