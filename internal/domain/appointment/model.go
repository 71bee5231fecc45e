// Package appointment implements the appointment lifecycle: booking
// with pool-allocated codes, staff confirmation with patient record and
// account creation, cancellation with full cleanup and reason-specific
// notification, and completion.
package appointment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Appointment statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// Cancellation reasons.
const (
	ReasonOverlap          = "overlap"
	ReasonForceMajeure     = "force_majeure"
	ReasonTherapyCompleted = "therapy_completed"
)

var validStatuses = map[string]bool{
	StatusPending: true, StatusConfirmed: true,
	StatusCancelled: true, StatusCompleted: true,
}

var validCancelReasons = map[string]bool{
	ReasonOverlap: true, ReasonForceMajeure: true, ReasonTherapyCompleted: true,
}

// Appointment is a booked session. The code is the primary key and is
// drawn from the per-actor number pools. Contact and escort data are
// carried on the row itself; the Escort and Patient rows are created
// from it during booking and confirmation.
type Appointment struct {
	Code           string     `db:"code" json:"code"`
	PatientName    string     `db:"patient_name" json:"patient_name"`
	ServiceCode    string     `db:"service_code" json:"service_code"`
	ServiceName    string     `db:"service_name" json:"service_name"`
	TherapistID    *uuid.UUID `db:"therapist_id" json:"therapist_id,omitempty"`
	Email          string     `db:"email" json:"email"`
	Phone          string     `db:"phone" json:"phone,omitempty"`
	Date           string     `db:"date" json:"date"`
	Time           string     `db:"time" json:"time"`
	Notes          string     `db:"notes" json:"notes,omitempty"`
	PaymentType    string     `db:"payment_type" json:"payment_type,omitempty"`
	Status         string     `db:"status" json:"status"`
	EscortName     string     `db:"escort_name" json:"escort_name,omitempty"`
	EscortRelation string     `db:"escort_relation" json:"escort_relation,omitempty"`
	EscortPhone    string     `db:"escort_phone" json:"escort_phone,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// HasEscort reports whether escort data was supplied at booking.
func (a *Appointment) HasEscort() bool { return a.EscortName != "" }

// ScheduledAt combines the date and time columns into a single instant
// in the given location.
func (a *Appointment) ScheduledAt(loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", a.Date+" "+a.Time, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed appointment date/time %q %q", a.Date, a.Time)
	}
	return t, nil
}

// Escort is the person accompanying a patient to their sessions.
type Escort struct {
	ID              uuid.UUID `db:"id" json:"id"`
	AppointmentCode string    `db:"appointment_code" json:"appointment_code"`
	Name            string    `db:"name" json:"name"`
	Relation        string    `db:"relation" json:"relation,omitempty"`
	Phone           string    `db:"phone" json:"phone,omitempty"`
}

// Patient is the clinical record created when an appointment is
// confirmed. It is keyed 1:1 by the appointment code and links the
// appointment to the backing user account.
type Patient struct {
	AppointmentCode string     `db:"appointment_code" json:"appointment_code"`
	UserID          uuid.UUID  `db:"user_id" json:"user_id"`
	TherapistID     *uuid.UUID `db:"therapist_id" json:"therapist_id,omitempty"`
	PlanType        string     `db:"plan_type" json:"plan_type,omitempty"`
	PlanPrice       float64    `db:"plan_price" json:"plan_price,omitempty"`
	EscortID        *uuid.UUID `db:"escort_id" json:"escort_id,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// BookingRequest carries the booking form fields.
type BookingRequest struct {
	PatientName     string     `json:"patient_name"`
	ServiceCode     string     `json:"service_code"`
	ServiceName     string     `json:"service_name"`
	TherapistID     *uuid.UUID `json:"therapist_id,omitempty"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	Date            string     `json:"date"`
	Time            string     `json:"time"`
	Notes           string     `json:"notes"`
	PaymentType     string     `json:"payment_type"`
	EscortName      string     `json:"escort_name"`
	EscortRelation  string     `json:"escort_relation"`
	EscortPhone     string     `json:"escort_phone"`
	ExtraRecipients []string   `json:"extra_recipients"`
}
