package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fisiocare/fisiocare/internal/domain/appointment"
	"github.com/fisiocare/fisiocare/internal/platform/auth"
	"github.com/fisiocare/fisiocare/internal/platform/mail"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrResetExpired       = errors.New("reset token expired or unknown")
)

const resetTokenTTL = time.Hour

// Service implements registration, login and account management. It
// also backs the appointment flow as its UserDirectory and
// TherapistResolver.
type Service struct {
	users      UserRepo
	therapists TherapistRepo
	resets     ResetRepo
	mailer     mail.Sender
	templates  *mail.TemplateEngine
	jwtSecret  []byte
	resetBase  string
	logger     zerolog.Logger
	now        func() time.Time
}

func NewService(
	users UserRepo,
	therapists TherapistRepo,
	resets ResetRepo,
	mailer mail.Sender,
	templates *mail.TemplateEngine,
	jwtSecret []byte,
	resetBaseURL string,
	logger zerolog.Logger,
) *Service {
	return &Service{
		users:      users,
		therapists: therapists,
		resets:     resets,
		mailer:     mailer,
		templates:  templates,
		jwtSecret:  jwtSecret,
		resetBase:  resetBaseURL,
		logger:     logger.With().Str("component", "identity").Logger(),
		now:        time.Now,
	}
}

// RegisterRequest carries the self-signup form.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Register creates a patient account from self-signup.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if req.Email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if len(req.Password) < 6 {
		return nil, fmt.Errorf("password must be at least 6 characters")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u := &User{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
		Role:         auth.RolePatient,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login checks credentials and issues a role-scoped session token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if u == nil || !auth.CheckPassword(u.PasswordHash, password) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := auth.IssueToken(s.jwtSecret, u.ID.String(), u.Email, u.Role)
	if err != nil {
		return "", nil, fmt.Errorf("issuing token: %w", err)
	}
	return token, u, nil
}

// ChangePassword verifies the current password and stores a new hash,
// clearing the temp-password flag.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, current, newPassword string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(u.PasswordHash, current) {
		return ErrInvalidCredentials
	}
	if len(newPassword) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash, false)
}

// RequestPasswordReset issues a reset token and mails the link. Unknown
// emails are answered silently so the endpoint does not leak accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		s.logger.Debug().Str("email", email).Msg("password reset requested for unknown email")
		return nil
	}

	token, err := auth.RandomToken()
	if err != nil {
		return err
	}
	if err := s.resets.Create(ctx, &PasswordReset{
		Token:     token,
		UserID:    u.ID,
		ExpiresAt: s.now().Add(resetTokenTTL),
	}); err != nil {
		return err
	}

	subject, body, err := s.templates.Render(mail.TemplatePasswordReset, map[string]string{
		"reset_link": s.resetBase + "?token=" + token,
	})
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, []string{u.Email}, subject, body); err != nil {
		s.logger.Error().Err(err).Str("email", u.Email).Msg("failed to send reset mail")
	}
	return nil
}

// ResetPassword consumes a reset token and stores the new password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	pr, err := s.resets.Get(ctx, token)
	if err != nil {
		return err
	}
	if pr == nil || s.now().After(pr.ExpiresAt) {
		return ErrResetExpired
	}
	if len(newPassword) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, pr.UserID, hash, false); err != nil {
		return err
	}
	return s.resets.Delete(ctx, token)
}

// GetUser and ListUsers back the admin user views.

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.users.List(ctx, limit, offset)
}

// -- therapists --

func (s *Service) CreateTherapist(ctx context.Context, t *Therapist) error {
	if t.FullName == "" {
		return fmt.Errorf("full_name is required")
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.Active = true
	t.CreatedAt = s.now().UTC()
	return s.therapists.Create(ctx, t)
}

func (s *Service) GetTherapist(ctx context.Context, id uuid.UUID) (*Therapist, error) {
	return s.therapists.GetByID(ctx, id)
}

func (s *Service) UpdateTherapist(ctx context.Context, t *Therapist) error {
	if t.FullName == "" {
		return fmt.Errorf("full_name is required")
	}
	return s.therapists.Update(ctx, t)
}

func (s *Service) DeleteTherapist(ctx context.Context, id uuid.UUID) error {
	return s.therapists.Delete(ctx, id)
}

func (s *Service) ListTherapists(ctx context.Context, limit, offset int) ([]*Therapist, int, error) {
	return s.therapists.List(ctx, limit, offset)
}

// -- appointment flow integration --

// FindByEmail implements appointment.UserDirectory.
func (s *Service) FindByEmail(ctx context.Context, email string) (*appointment.UserRef, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil || u == nil {
		return nil, err
	}
	return &appointment.UserRef{ID: u.ID, Name: u.Name, Email: u.Email}, nil
}

// CreateWithTempPassword implements appointment.UserDirectory: the
// account created on confirmation carries a hashed random 6-digit
// temporary password that the patient is asked to change.
func (s *Service) CreateWithTempPassword(ctx context.Context, name, email, phone string) (*appointment.UserRef, string, error) {
	plain, err := auth.RandomTempPassword()
	if err != nil {
		return nil, "", err
	}
	hash, err := auth.HashPassword(plain)
	if err != nil {
		return nil, "", err
	}
	u := &User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		Role:         auth.RolePatient,
		TempPassword: true,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, "", err
	}
	return &appointment.UserRef{ID: u.ID, Name: u.Name, Email: u.Email}, plain, nil
}

// Delete implements appointment.UserDirectory.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.users.Delete(ctx, id)
}

// TherapistIDForUser implements appointment.TherapistResolver.
func (s *Service) TherapistIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	t, err := s.therapists.GetByUser(ctx, userID)
	if err != nil {
		return uuid.Nil, err
	}
	if t == nil {
		return uuid.Nil, ErrTherapistNotFound
	}
	return t.ID, nil
}
