package appointment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fisiocare/fisiocare/internal/domain/codepool"
	"github.com/fisiocare/fisiocare/internal/platform/db"
	"github.com/fisiocare/fisiocare/internal/platform/mail"
)

// ValidationError marks rejected input so handlers can answer 400.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

var (
	ErrPastDate          = errors.New("appointment date is in the past")
	ErrPatientExists     = errors.New("appointment already has a patient record")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotOwner          = errors.New("appointment belongs to another therapist")
	ErrInvalidReason     = errors.New("invalid cancellation reason")
)

// Service drives the appointment lifecycle.
type Service struct {
	appointments AppointmentRepo
	escorts      EscortRepo
	patients     PatientRepo
	codes        CodeAllocator
	users        UserDirectory
	prices       ServicePricer
	tx           db.TxRunner
	mailer       mail.Sender
	templates    *mail.TemplateEngine
	logger       zerolog.Logger
	now          func() time.Time
	loc          *time.Location
}

func NewService(
	appointments AppointmentRepo,
	escorts EscortRepo,
	patients PatientRepo,
	codes CodeAllocator,
	users UserDirectory,
	prices ServicePricer,
	tx db.TxRunner,
	mailer mail.Sender,
	templates *mail.TemplateEngine,
	logger zerolog.Logger,
) *Service {
	return &Service{
		appointments: appointments,
		escorts:      escorts,
		patients:     patients,
		codes:        codes,
		users:        users,
		prices:       prices,
		tx:           tx,
		mailer:       mailer,
		templates:    templates,
		logger:       logger.With().Str("component", "appointment").Logger(),
		now:          time.Now,
		loc:          time.Local,
	}
}

// Book validates the request, reserves a code and creates the
// appointment. Self-service bookings start pending; staff bookings are
// confirmed on creation. The confirmation email goes out after the
// write and never fails the booking.
func (s *Service) Book(ctx context.Context, req BookingRequest, actor codepool.Actor) (*Appointment, error) {
	if err := s.validateBooking(req); err != nil {
		return nil, err
	}
	if !codepool.ValidActor(actor) {
		return nil, codepool.ErrUnknownActor
	}

	code, err := s.codes.Reserve(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("reserving appointment code: %w", err)
	}

	status := StatusConfirmed
	if actor == codepool.ActorSelfService {
		status = StatusPending
	}
	now := s.now().UTC()
	appt := &Appointment{
		Code:           code,
		PatientName:    req.PatientName,
		ServiceCode:    req.ServiceCode,
		ServiceName:    req.ServiceName,
		TherapistID:    req.TherapistID,
		Email:          req.Email,
		Phone:          req.Phone,
		Date:           req.Date,
		Time:           req.Time,
		Notes:          req.Notes,
		PaymentType:    req.PaymentType,
		Status:         status,
		EscortName:     req.EscortName,
		EscortRelation: req.EscortRelation,
		EscortPhone:    req.EscortPhone,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.tx(ctx, func(ctx context.Context) error {
		if err := s.appointments.Create(ctx, appt); err != nil {
			return err
		}
		if appt.HasEscort() {
			return s.escorts.Create(ctx, &Escort{
				AppointmentCode: code,
				Name:            req.EscortName,
				Relation:        req.EscortRelation,
				Phone:           req.EscortPhone,
			})
		}
		return nil
	})
	if err != nil {
		if relErr := s.codes.Release(ctx, code); relErr != nil {
			s.logger.Error().Err(relErr).Str("code", code).Msg("failed to release code after aborted booking")
		}
		return nil, err
	}

	s.sendBookingMail(ctx, appt, req.ExtraRecipients)
	return appt, nil
}

func (s *Service) validateBooking(req BookingRequest) error {
	if req.PatientName == "" {
		return ValidationError("patient_name is required")
	}
	if req.ServiceCode == "" {
		return ValidationError("service_code is required")
	}
	if req.Email == "" {
		return ValidationError("email is required")
	}
	if req.Date == "" || req.Time == "" {
		return ValidationError("date and time are required")
	}

	scheduled, err := time.ParseInLocation("2006-01-02 15:04", req.Date+" "+req.Time, s.loc)
	if err != nil {
		return ValidationError("invalid date/time, expected YYYY-MM-DD and HH:MM")
	}
	if scheduled.Before(s.now().In(s.loc)) {
		return ErrPastDate
	}
	return nil
}

// Confirm runs the confirmation transaction: ownership check, patient
// idempotency guard, account resolution or creation, escort creation
// when pending, patient insert priced at the service's current rate,
// and the status flip. Any failure rolls
// the whole transaction back so no orphan account survives.
func (s *Service) Confirm(ctx context.Context, code string, therapistID uuid.UUID) error {
	var tempPassword string
	var mailTo string
	var mailName string

	err := s.tx(ctx, func(ctx context.Context) error {
		appt, err := s.appointments.GetByCode(ctx, code)
		if err != nil {
			return err
		}
		if therapistID != uuid.Nil {
			if appt.TherapistID == nil || *appt.TherapistID != therapistID {
				return ErrNotOwner
			}
		}

		existing, err := s.patients.GetByAppointment(ctx, code)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrPatientExists
		}

		user, err := s.users.FindByEmail(ctx, appt.Email)
		if err != nil {
			return err
		}
		if user == nil {
			created, plain, err := s.users.CreateWithTempPassword(ctx, appt.PatientName, appt.Email, appt.Phone)
			if err != nil {
				return err
			}
			user = created
			tempPassword = plain
			mailTo = appt.Email
			mailName = appt.PatientName
		}

		var escortID *uuid.UUID
		if appt.HasEscort() {
			escort, err := s.escorts.GetByAppointment(ctx, code)
			if err != nil {
				return err
			}
			if escort == nil {
				escort = &Escort{
					AppointmentCode: code,
					Name:            appt.EscortName,
					Relation:        appt.EscortRelation,
					Phone:           appt.EscortPhone,
				}
				if err := s.escorts.Create(ctx, escort); err != nil {
					return err
				}
			}
			escortID = &escort.ID
		}

		price, err := s.prices.ServicePrice(ctx, appt.ServiceCode)
		if err != nil {
			return err
		}

		if err := s.patients.Create(ctx, &Patient{
			AppointmentCode: code,
			UserID:          user.ID,
			TherapistID:     appt.TherapistID,
			PlanType:        appt.ServiceCode,
			PlanPrice:       price,
			EscortID:        escortID,
			CreatedAt:       s.now().UTC(),
		}); err != nil {
			return err
		}
		return s.appointments.UpdateStatus(ctx, code, StatusConfirmed)
	})
	if err != nil {
		return err
	}

	if tempPassword != "" {
		s.sendTemplateMail(ctx, mail.TemplateTempPassword, []string{mailTo}, map[string]string{
			"patient_name":  mailName,
			"temp_password": tempPassword,
		})
	}
	return nil
}

// Cancel tears an appointment down inside one transaction: patient,
// then escort, then the appointment row, then the code reservation, and the
// backing user account when no other patient row references it. The
// reason-specific email goes out only after the commit.
func (s *Service) Cancel(ctx context.Context, code, reason, details string) error {
	if !validCancelReasons[reason] {
		return fmt.Errorf("%w: %s", ErrInvalidReason, reason)
	}

	var appt *Appointment
	err := s.tx(ctx, func(ctx context.Context) error {
		var err error
		appt, err = s.appointments.GetByCode(ctx, code)
		if err != nil {
			return err
		}

		patient, err := s.patients.GetByAppointment(ctx, code)
		if err != nil {
			return err
		}

		// The patient row references the escort, so it must go first.
		if err := s.patients.DeleteByAppointment(ctx, code); err != nil {
			return err
		}
		if err := s.escorts.DeleteByAppointment(ctx, code); err != nil {
			return err
		}
		if err := s.appointments.Delete(ctx, code); err != nil {
			return err
		}
		if err := s.codes.Release(ctx, code); err != nil {
			return err
		}

		if patient != nil {
			remaining, err := s.patients.CountByUser(ctx, patient.UserID)
			if err != nil {
				return err
			}
			if remaining == 0 {
				if err := s.users.Delete(ctx, patient.UserID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.sendCancellationMail(ctx, appt, reason, details)
	return nil
}

// Complete moves a confirmed appointment to completed.
func (s *Service) Complete(ctx context.Context, code string, therapistID uuid.UUID) error {
	appt, err := s.appointments.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	if therapistID != uuid.Nil {
		if appt.TherapistID == nil || *appt.TherapistID != therapistID {
			return ErrNotOwner
		}
	}
	if appt.Status != StatusConfirmed {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appt.Status, StatusCompleted)
	}
	return s.appointments.UpdateStatus(ctx, code, StatusCompleted)
}

func (s *Service) Get(ctx context.Context, code string) (*Appointment, error) {
	return s.appointments.GetByCode(ctx, code)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.List(ctx, limit, offset)
}

func (s *Service) ListByTherapist(ctx context.Context, therapistID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByTherapist(ctx, therapistID, limit, offset)
}

func (s *Service) ListByEmail(ctx context.Context, email string, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByEmail(ctx, email, limit, offset)
}

// -- notifications --

func (s *Service) sendBookingMail(ctx context.Context, appt *Appointment, extra []string) {
	therapist := ""
	if appt.TherapistID != nil {
		therapist = appt.TherapistID.String()
	}
	data := map[string]string{
		"patient_name": appt.PatientName,
		"code":         appt.Code,
		"service":      appt.ServiceName,
		"date":         appt.Date,
		"time":         appt.Time,
		"therapist":    therapist,
	}
	to := append([]string{appt.Email}, extra...)
	s.sendTemplateMail(ctx, mail.TemplateBookingConfirmed, to, data)
}

func (s *Service) sendCancellationMail(ctx context.Context, appt *Appointment, reason, details string) {
	data := map[string]string{
		"patient_name": appt.PatientName,
		"code":         appt.Code,
		"service":      appt.ServiceName,
		"details":      details,
		"discount":     strconv.Itoa(mail.OverlapDiscountPercent),
	}

	var templateID string
	switch reason {
	case ReasonTherapyCompleted:
		templateID = s.templates.CongratsTemplateID(appt.ServiceCode)
	case ReasonOverlap:
		templateID = mail.TemplateCancelOverlap
	case ReasonForceMajeure:
		templateID = mail.TemplateCancelForceMajeure
	}
	s.sendTemplateMail(ctx, templateID, []string{appt.Email}, data)
}

// sendTemplateMail renders and sends a templated message. Failures are
// logged and swallowed: mail never undoes a committed state change.
func (s *Service) sendTemplateMail(ctx context.Context, templateID string, to []string, data map[string]string) {
	subject, body, err := s.templates.Render(templateID, data)
	if err != nil {
		s.logger.Error().Err(err).Str("template", templateID).Msg("failed to render mail template")
		return
	}
	if err := s.mailer.Send(ctx, to, subject, body); err != nil {
		s.logger.Error().Err(err).Str("template", templateID).Strs("to", to).Msg("failed to send mail")
	}
}
