package dto

import "kanban-sync/internal/domain"

// LoginRequest represents the roster user to sign in as
type LoginRequest struct {
	UserID int `json:"userId" binding:"required,min=1"`
}

// UserResponse represents a roster entry with its liveness
type UserResponse struct {
	domain.User
	Online  bool `json:"online"`
	Current bool `json:"current"`
}

// SessionResponse represents the active session
type SessionResponse struct {
	User domain.User `json:"user"`
}
