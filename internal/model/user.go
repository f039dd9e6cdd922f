package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is the capability tag attached to every engine call. The JWT middleware
// enforces it at the HTTP boundary and the engine re-checks it on entry.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleProfessor Role = "professor"
	RoleStudent   Role = "student"
)

// CanAuthorExams reports whether the role may create or modify exam drafts.
func (r Role) CanAuthorExams() bool {
	return r == RoleAdmin || r == RoleProfessor
}

// User represents a platform account.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// LoginRequest is the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}
