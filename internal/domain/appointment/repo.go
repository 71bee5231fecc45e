package appointment

import (
	"context"

	"github.com/google/uuid"

	"github.com/fisiocare/fisiocare/internal/domain/codepool"
)

// AppointmentRepo persists appointments.
type AppointmentRepo interface {
	Create(ctx context.Context, a *Appointment) error
	GetByCode(ctx context.Context, code string) (*Appointment, error)
	UpdateStatus(ctx context.Context, code, status string) error
	Delete(ctx context.Context, code string) error
	List(ctx context.Context, limit, offset int) ([]*Appointment, int, error)
	ListByTherapist(ctx context.Context, therapistID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByEmail(ctx context.Context, email string, limit, offset int) ([]*Appointment, int, error)
}

// EscortRepo persists escort rows.
type EscortRepo interface {
	Create(ctx context.Context, e *Escort) error
	GetByAppointment(ctx context.Context, code string) (*Escort, error)
	DeleteByAppointment(ctx context.Context, code string) error
}

// PatientRepo persists patient rows.
type PatientRepo interface {
	Create(ctx context.Context, p *Patient) error
	GetByAppointment(ctx context.Context, code string) (*Patient, error)
	DeleteByAppointment(ctx context.Context, code string) error
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
}

// CodeAllocator reserves and releases appointment codes.
type CodeAllocator interface {
	Reserve(ctx context.Context, actor codepool.Actor) (string, error)
	Release(ctx context.Context, code string) error
}

// ServicePricer resolves the current price of a service by its code.
// Implemented by the catalog service. Returns (0, nil) when the service
// is unknown; store failures propagate.
type ServicePricer interface {
	ServicePrice(ctx context.Context, serviceCode string) (float64, error)
}

// UserRef is the slice of a user account the appointment flow needs.
type UserRef struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// UserDirectory is implemented by the identity service. Confirmation
// resolves or creates the backing account through it, and cancellation
// removes accounts that no longer back any patient.
type UserDirectory interface {
	// FindByEmail returns (nil, nil) when no account exists.
	FindByEmail(ctx context.Context, email string) (*UserRef, error)

	// CreateWithTempPassword creates a patient account with a hashed
	// random temporary password and returns it alongside the plaintext
	// password for the welcome email.
	CreateWithTempPassword(ctx context.Context, name, email, phone string) (*UserRef, string, error)

	Delete(ctx context.Context, id uuid.UUID) error
}
