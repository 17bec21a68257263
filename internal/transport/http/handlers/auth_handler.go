package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sparktechagency/Mobile-Repair/internal/domain"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/observability/logging"
	"github.com/sparktechagency/Mobile-Repair/internal/service"
)

// AuthHandler exposes registration and login
type AuthHandler struct {
	auth   *service.AuthService
	users  *service.UserService
	logger logging.Logger
}

// NewAuthHandler creates the auth handler
func NewAuthHandler(auth *service.AuthService, users *service.UserService, logger logging.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, users: users, logger: logger}
}

// Register handles POST /auth/register — technician sign-up
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterTechnicianRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.RegisterTechnician(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSONWithStatus(w, http.StatusCreated, user)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, user, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, LoginResponse{Token: token, User: user})
}
