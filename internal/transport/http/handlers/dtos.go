package handlers

import (
	"github.com/sparktechagency/Mobile-Repair/internal/domain"
	"github.com/sparktechagency/Mobile-Repair/internal/query"
)

// ErrorResponse is the uniform error envelope
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// ListResponse is the uniform listing envelope
type ListResponse struct {
	Meta   query.Meta  `json:"meta"`
	Result interface{} `json:"result"`
}

// MessageResponse is a minimal acknowledgment body
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginRequest carries credentials
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token and the account it belongs to
type LoginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// BlockRequest toggles an account's block flag
type BlockRequest struct {
	Blocked bool `json:"blocked"`
}

// MarkAllReadResponse reports how many notifications were flagged
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

// UnreadCountResponse carries the receiver's unread counter
type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}
