package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sparktechagency/Mobile-Repair/internal/platform/observability/logging"
	"github.com/sparktechagency/Mobile-Repair/internal/service"
)

// NotificationHandler exposes the caller's in-app notifications
type NotificationHandler struct {
	notifications *service.NotificationService
	logger        logging.Logger
}

// NewNotificationHandler creates the notification handler
func NewNotificationHandler(notifications *service.NotificationService, logger logging.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, logger: logger}
}

// ListMine handles GET /notifications/me
func (h *NotificationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	receiverID, ok := callerID(w, r)
	if !ok {
		return
	}

	notifications, meta, err := h.notifications.ListMine(r.Context(), receiverID, queryParams(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, ListResponse{Meta: meta, Result: notifications})
}

// UnreadCount handles GET /notifications/me/unread
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	receiverID, ok := callerID(w, r)
	if !ok {
		return
	}

	count, err := h.notifications.UnreadCount(r.Context(), receiverID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, UnreadCountResponse{Unread: count})
}

// MarkRead handles PATCH /notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	receiverID, ok := callerID(w, r)
	if !ok {
		return
	}

	notificationID, err := parseObjectID(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := h.notifications.MarkRead(r.Context(), notificationID, receiverID); err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, MessageResponse{Message: "notification marked read"})
}

// MarkAllRead handles PATCH /notifications/read-all
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	receiverID, ok := callerID(w, r)
	if !ok {
		return
	}

	updated, err := h.notifications.MarkAllRead(r.Context(), receiverID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, MarkAllReadResponse{Updated: updated})
}

// Delete handles DELETE /notifications/{id}
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	receiverID, ok := callerID(w, r)
	if !ok {
		return
	}

	notificationID, err := parseObjectID(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := h.notifications.Delete(r.Context(), notificationID, receiverID); err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, MessageResponse{Message: "notification deleted"})
}
