package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepo persists user accounts.
type UserRepo interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	// GetByEmail returns (nil, nil) when no account exists.
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string, temp bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*User, int, error)
}

// TherapistRepo persists therapist records.
type TherapistRepo interface {
	Create(ctx context.Context, t *Therapist) error
	GetByID(ctx context.Context, id uuid.UUID) (*Therapist, error)
	// GetByUser returns (nil, nil) when the account has no therapist record.
	GetByUser(ctx context.Context, userID uuid.UUID) (*Therapist, error)
	Update(ctx context.Context, t *Therapist) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Therapist, int, error)
}

// ResetRepo persists password reset tokens.
type ResetRepo interface {
	Create(ctx context.Context, r *PasswordReset) error
	// Get returns (nil, nil) for unknown tokens.
	Get(ctx context.Context, token string) (*PasswordReset, error)
	Delete(ctx context.Context, token string) error
}
