package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sparktechagency/Mobile-Repair/internal/platform/observability/logging"
	"github.com/sparktechagency/Mobile-Repair/internal/service"
)

// UserHandler exposes technician accounts and the admin review flow
type UserHandler struct {
	users  *service.UserService
	logger logging.Logger
}

// NewUserHandler creates the user handler
func NewUserHandler(users *service.UserService, logger logging.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// ListTechnicians handles GET /technicians
func (h *UserHandler) ListTechnicians(w http.ResponseWriter, r *http.Request) {
	users, meta, err := h.users.ListTechnicians(r.Context(), queryParams(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, ListResponse{Meta: meta, Result: users})
}

// ListPendingTechnicians handles GET /technicians/pending
func (h *UserHandler) ListPendingTechnicians(w http.ResponseWriter, r *http.Request) {
	users, meta, err := h.users.ListPendingTechnicians(r.Context(), queryParams(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, ListResponse{Meta: meta, Result: users})
}

// Me handles GET /users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, user)
}

// Verify handles PATCH /users/{id}/verify
func (h *UserHandler) Verify(w http.ResponseWriter, r *http.Request) {
	userID, err := parseObjectID(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	user, err := h.users.Verify(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, user)
}

// Decline handles PATCH /users/{id}/decline
func (h *UserHandler) Decline(w http.ResponseWriter, r *http.Request) {
	userID, err := parseObjectID(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	user, err := h.users.Decline(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, user)
}

// Block handles PATCH /users/{id}/block
func (h *UserHandler) Block(w http.ResponseWriter, r *http.Request) {
	userID, err := parseObjectID(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var req BlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.SetBlocked(r.Context(), userID, req.Blocked)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, user)
}

// Delete handles DELETE /users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := parseObjectID(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := h.users.SoftDelete(r.Context(), userID); err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, MessageResponse{Message: "user deleted"})
}
