package core

import (
	"time"

	"github.com/google/uuid"
)

// User is an API user. Lockout state lives here; the per-IP rate counters
// live in the external counter store, never in process memory.
type User struct {
	ID                  uuid.UUID  `json:"id"`
	Username            string     `json:"username"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"`
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	IsActive            bool       `json:"is_active"`
	IsLocked            bool       `json:"is_locked"`
	FailedLoginAttempts int        `json:"failed_login_attempts"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
	LockedUntil         *time.Time `json:"locked_until,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// FullName joins first and last name for display.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
