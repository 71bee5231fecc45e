// Package identity manages user accounts and therapist records:
// self-service registration, per-persona login, password changes and
// resets, and the admin-facing therapist CRUD.
package identity

import (
	"time"

	"github.com/google/uuid"
)

// User is an account for any of the three personas.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Phone        string    `db:"phone" json:"phone,omitempty"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	TempPassword bool      `db:"temp_password" json:"temp_password"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Therapist is a staff member who treats patients. The optional user id
// links the record to a login account.
type Therapist struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	UserID    *uuid.UUID `db:"user_id" json:"user_id,omitempty"`
	FullName  string     `db:"full_name" json:"full_name"`
	Specialty string     `db:"specialty" json:"specialty,omitempty"`
	Active    bool       `db:"active" json:"active"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// PasswordReset is a single-use reset token.
type PasswordReset struct {
	Token     string    `db:"token"`
	UserID    uuid.UUID `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
}
