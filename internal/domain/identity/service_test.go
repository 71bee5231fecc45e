package identity

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fisiocare/fisiocare/internal/platform/auth"
	"github.com/fisiocare/fisiocare/internal/platform/mail"
)

type mockUserRepo struct {
	users map[uuid.UUID]*User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrEmailTaken
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string, temp bool) error {
	u, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = hash
	u.TempPassword = temp
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) List(_ context.Context, limit, offset int) ([]*User, int, error) {
	var out []*User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

type mockTherapistRepo struct {
	therapists map[uuid.UUID]*Therapist
}

func newMockTherapistRepo() *mockTherapistRepo {
	return &mockTherapistRepo{therapists: make(map[uuid.UUID]*Therapist)}
}

func (m *mockTherapistRepo) Create(_ context.Context, t *Therapist) error {
	cp := *t
	m.therapists[t.ID] = &cp
	return nil
}

func (m *mockTherapistRepo) GetByID(_ context.Context, id uuid.UUID) (*Therapist, error) {
	t, ok := m.therapists[id]
	if !ok {
		return nil, ErrTherapistNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *mockTherapistRepo) GetByUser(_ context.Context, userID uuid.UUID) (*Therapist, error) {
	for _, t := range m.therapists {
		if t.UserID != nil && *t.UserID == userID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockTherapistRepo) Update(_ context.Context, t *Therapist) error {
	if _, ok := m.therapists[t.ID]; !ok {
		return ErrTherapistNotFound
	}
	cp := *t
	m.therapists[t.ID] = &cp
	return nil
}

func (m *mockTherapistRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.therapists[id]; !ok {
		return ErrTherapistNotFound
	}
	delete(m.therapists, id)
	return nil
}

func (m *mockTherapistRepo) List(_ context.Context, limit, offset int) ([]*Therapist, int, error) {
	var out []*Therapist
	for _, t := range m.therapists {
		out = append(out, t)
	}
	return out, len(out), nil
}

type mockResetRepo struct {
	resets map[string]*PasswordReset
}

func newMockResetRepo() *mockResetRepo {
	return &mockResetRepo{resets: make(map[string]*PasswordReset)}
}

func (m *mockResetRepo) Create(_ context.Context, r *PasswordReset) error {
	cp := *r
	m.resets[r.Token] = &cp
	return nil
}

func (m *mockResetRepo) Get(_ context.Context, token string) (*PasswordReset, error) {
	r, ok := m.resets[token]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *mockResetRepo) Delete(_ context.Context, token string) error {
	delete(m.resets, token)
	return nil
}

type fixture struct {
	svc        *Service
	users      *mockUserRepo
	therapists *mockTherapistRepo
	resets     *mockResetRepo
	mailer     *mail.MockSender
}

func newFixture() *fixture {
	f := &fixture{
		users:      newMockUserRepo(),
		therapists: newMockTherapistRepo(),
		resets:     newMockResetRepo(),
		mailer:     &mail.MockSender{},
	}
	f.svc = NewService(f.users, f.therapists, f.resets, f.mailer,
		mail.NewTemplateEngine(), []byte("test-secret"),
		"https://clinic.example/reset", zerolog.Nop())
	return f
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture()
	u, err := f.svc.Register(context.Background(), RegisterRequest{
		Name: "Ana Ruiz", Email: "ana@example.com", Password: "secret1",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if u.Role != auth.RolePatient {
		t.Errorf("expected patient role, got %s", u.Role)
	}
	if u.PasswordHash == "" || u.PasswordHash == "secret1" {
		t.Error("expected hashed password")
	}

	token, logged, err := f.svc.Login(context.Background(), "ana@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if token == "" {
		t.Error("expected a session token")
	}
	if logged.ID != u.ID {
		t.Error("login returned the wrong user")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture()
	req := RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "secret1"}
	if _, err := f.svc.Register(context.Background(), req); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	_, err := f.svc.Register(context.Background(), req)
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture()
	cases := []RegisterRequest{
		{Email: "a@b.com", Password: "secret1"},
		{Name: "Ana", Password: "secret1"},
		{Name: "Ana", Email: "a@b.com", Password: "123"},
	}
	for _, req := range cases {
		if _, err := f.svc.Register(context.Background(), req); err == nil {
			t.Errorf("expected validation error for %+v", req)
		}
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Register(context.Background(), RegisterRequest{
		Name: "Ana", Email: "ana@example.com", Password: "secret1",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	_, _, err = f.svc.Login(context.Background(), "ana@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	_, _, err = f.svc.Login(context.Background(), "nobody@example.com", "secret1")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	f := newFixture()
	u, err := f.svc.Register(context.Background(), RegisterRequest{
		Name: "Ana", Email: "ana@example.com", Password: "secret1",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := f.svc.ChangePassword(context.Background(), u.ID, "wrong", "newpass1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := f.svc.ChangePassword(context.Background(), u.ID, "secret1", "newpass1"); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}
	if _, _, err := f.svc.Login(context.Background(), "ana@example.com", "newpass1"); err != nil {
		t.Errorf("login with new password failed: %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Register(context.Background(), RegisterRequest{
		Name: "Ana", Email: "ana@example.com", Password: "secret1",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := f.svc.RequestPasswordReset(context.Background(), "ana@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}
	sent := f.mailer.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 reset mail, got %d", len(sent))
	}
	if !strings.Contains(sent[0].Body, "token=") {
		t.Errorf("expected reset link in body, got %q", sent[0].Body)
	}

	var token string
	for tok := range f.resets.resets {
		token = tok
	}
	if err := f.svc.ResetPassword(context.Background(), token, "brandnew1"); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}
	if _, _, err := f.svc.Login(context.Background(), "ana@example.com", "brandnew1"); err != nil {
		t.Errorf("login with reset password failed: %v", err)
	}
	if err := f.svc.ResetPassword(context.Background(), token, "again123"); !errors.Is(err, ErrResetExpired) {
		t.Errorf("expected consumed token to be rejected, got %v", err)
	}
}

func TestPasswordReset_UnknownEmailIsSilent(t *testing.T) {
	f := newFixture()
	if err := f.svc.RequestPasswordReset(context.Background(), "ghost@example.com"); err != nil {
		t.Fatalf("expected silent success, got %v", err)
	}
	if len(f.mailer.Sent()) != 0 {
		t.Error("expected no mail for unknown email")
	}
}

func TestPasswordReset_ExpiredToken(t *testing.T) {
	f := newFixture()
	u, err := f.svc.Register(context.Background(), RegisterRequest{
		Name: "Ana", Email: "ana@example.com", Password: "secret1",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	f.resets.resets["old"] = &PasswordReset{
		Token: "old", UserID: u.ID, ExpiresAt: time.Now().Add(-time.Minute),
	}

	if err := f.svc.ResetPassword(context.Background(), "old", "newpass1"); !errors.Is(err, ErrResetExpired) {
		t.Errorf("expected ErrResetExpired, got %v", err)
	}
}

func TestCreateWithTempPassword(t *testing.T) {
	f := newFixture()
	ref, plain, err := f.svc.CreateWithTempPassword(context.Background(), "Laura", "laura@example.com", "555")
	if err != nil {
		t.Fatalf("CreateWithTempPassword failed: %v", err)
	}
	if len(plain) != 6 {
		t.Errorf("expected 6-digit temp password, got %q", plain)
	}
	u := f.users.users[ref.ID]
	if u == nil {
		t.Fatal("expected stored user")
	}
	if !u.TempPassword {
		t.Error("expected temp password flag")
	}
	if u.PasswordHash == "" || u.PasswordHash == plain {
		t.Error("expected hashed temp password")
	}

	if _, _, err := f.svc.Login(context.Background(), "laura@example.com", plain); err != nil {
		t.Errorf("login with temp password failed: %v", err)
	}
}

func TestTherapistCRUDAndResolver(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	th := &Therapist{UserID: &userID, FullName: "Dr. Soto", Specialty: "sports"}
	if err := f.svc.CreateTherapist(context.Background(), th); err != nil {
		t.Fatalf("CreateTherapist failed: %v", err)
	}
	if !th.Active {
		t.Error("new therapist should be active")
	}

	got, err := f.svc.TherapistIDForUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("TherapistIDForUser failed: %v", err)
	}
	if got != th.ID {
		t.Error("resolver returned wrong therapist")
	}
	if _, err := f.svc.TherapistIDForUser(context.Background(), uuid.New()); !errors.Is(err, ErrTherapistNotFound) {
		t.Errorf("expected ErrTherapistNotFound, got %v", err)
	}

	th.Specialty = "neuro"
	if err := f.svc.UpdateTherapist(context.Background(), th); err != nil {
		t.Fatalf("UpdateTherapist failed: %v", err)
	}
	stored, _ := f.svc.GetTherapist(context.Background(), th.ID)
	if stored.Specialty != "neuro" {
		t.Errorf("expected updated specialty, got %s", stored.Specialty)
	}

	if err := f.svc.DeleteTherapist(context.Background(), th.ID); err != nil {
		t.Fatalf("DeleteTherapist failed: %v", err)
	}
	if _, err := f.svc.GetTherapist(context.Background(), th.ID); !errors.Is(err, ErrTherapistNotFound) {
		t.Errorf("expected ErrTherapistNotFound after delete, got %v", err)
	}
}
