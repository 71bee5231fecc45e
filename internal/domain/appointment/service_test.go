package appointment

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fisiocare/fisiocare/internal/domain/codepool"
	"github.com/fisiocare/fisiocare/internal/platform/mail"
)

// -- mocks --

type mockAppointmentRepo struct {
	appointments map[string]*Appointment
	createErr    error
}

func newMockAppointmentRepo() *mockAppointmentRepo {
	return &mockAppointmentRepo{appointments: make(map[string]*Appointment)}
}

func (m *mockAppointmentRepo) Create(_ context.Context, a *Appointment) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.appointments[a.Code]; exists {
		return errors.New("duplicate code")
	}
	cp := *a
	m.appointments[a.Code] = &cp
	return nil
}

func (m *mockAppointmentRepo) GetByCode(_ context.Context, code string) (*Appointment, error) {
	a, ok := m.appointments[code]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockAppointmentRepo) UpdateStatus(_ context.Context, code, status string) error {
	a, ok := m.appointments[code]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	return nil
}

func (m *mockAppointmentRepo) Delete(_ context.Context, code string) error {
	if _, ok := m.appointments[code]; !ok {
		return ErrNotFound
	}
	delete(m.appointments, code)
	return nil
}

func (m *mockAppointmentRepo) List(_ context.Context, limit, offset int) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.appointments {
		out = append(out, a)
	}
	return out, len(out), nil
}

func (m *mockAppointmentRepo) ListByTherapist(_ context.Context, id uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.appointments {
		if a.TherapistID != nil && *a.TherapistID == id {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (m *mockAppointmentRepo) ListByEmail(_ context.Context, email string, limit, offset int) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.appointments {
		if a.Email == email {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

// mockEscortRepo mirrors the patients.escort_id foreign key: an escort
// cannot be deleted while a patient row still references it.
type mockEscortRepo struct {
	escorts map[string]*Escort
	pats    *mockPatientRepo
}

func newMockEscortRepo(pats *mockPatientRepo) *mockEscortRepo {
	return &mockEscortRepo{escorts: make(map[string]*Escort), pats: pats}
}

func (m *mockEscortRepo) Create(_ context.Context, e *Escort) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	cp := *e
	m.escorts[e.AppointmentCode] = &cp
	return nil
}

func (m *mockEscortRepo) GetByAppointment(_ context.Context, code string) (*Escort, error) {
	e, ok := m.escorts[code]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (m *mockEscortRepo) DeleteByAppointment(_ context.Context, code string) error {
	e, ok := m.escorts[code]
	if !ok {
		return nil
	}
	for _, p := range m.pats.patients {
		if p.EscortID != nil && *p.EscortID == e.ID {
			return errors.New("escort is still referenced by a patient row")
		}
	}
	delete(m.escorts, code)
	return nil
}

type mockPatientRepo struct {
	patients  map[string]*Patient
	createErr error
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[string]*Patient)}
}

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.patients[p.AppointmentCode]; exists {
		return errors.New("duplicate patient")
	}
	cp := *p
	m.patients[p.AppointmentCode] = &cp
	return nil
}

func (m *mockPatientRepo) GetByAppointment(_ context.Context, code string) (*Patient, error) {
	p, ok := m.patients[code]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockPatientRepo) DeleteByAppointment(_ context.Context, code string) error {
	delete(m.patients, code)
	return nil
}

func (m *mockPatientRepo) CountByUser(_ context.Context, userID uuid.UUID) (int, error) {
	n := 0
	for _, p := range m.patients {
		if p.UserID == userID {
			n++
		}
	}
	return n, nil
}

type mockAllocator struct {
	next       int
	reserved   map[string]bool
	released   []string
	reserveErr error
}

func newMockAllocator() *mockAllocator {
	return &mockAllocator{next: 1, reserved: make(map[string]bool)}
}

func (m *mockAllocator) Reserve(_ context.Context, actor codepool.Actor) (string, error) {
	if m.reserveErr != nil {
		return "", m.reserveErr
	}
	code := codepool.FormatCode(m.next)
	m.next++
	m.reserved[code] = true
	return code, nil
}

func (m *mockAllocator) Release(_ context.Context, code string) error {
	delete(m.reserved, code)
	m.released = append(m.released, code)
	return nil
}

type mockPricer struct {
	prices map[string]float64
}

func (m *mockPricer) ServicePrice(_ context.Context, code string) (float64, error) {
	return m.prices[code], nil
}

type mockUser struct {
	ref  UserRef
	hash string
}

type mockUsers struct {
	byEmail map[string]*mockUser
	created int
	deleted []uuid.UUID
}

func newMockUsers() *mockUsers {
	return &mockUsers{byEmail: make(map[string]*mockUser)}
}

func (m *mockUsers) FindByEmail(_ context.Context, email string) (*UserRef, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, nil
	}
	ref := u.ref
	return &ref, nil
}

func (m *mockUsers) CreateWithTempPassword(_ context.Context, name, email, phone string) (*UserRef, string, error) {
	m.created++
	u := &mockUser{
		ref:  UserRef{ID: uuid.New(), Name: name, Email: email},
		hash: "$2a$10$fakehash",
	}
	m.byEmail[email] = u
	ref := u.ref
	return &ref, "123456", nil
}

func (m *mockUsers) Delete(_ context.Context, id uuid.UUID) error {
	m.deleted = append(m.deleted, id)
	for email, u := range m.byEmail {
		if u.ref.ID == id {
			delete(m.byEmail, email)
		}
	}
	return nil
}

// -- fixture --

type fixture struct {
	svc     *Service
	appts   *mockAppointmentRepo
	escorts *mockEscortRepo
	pats    *mockPatientRepo
	codes   *mockAllocator
	users   *mockUsers
	prices  *mockPricer
	mailer  *mail.MockSender
	tpl     *mail.TemplateEngine
}

func newFixture() *fixture {
	pats := newMockPatientRepo()
	f := &fixture{
		appts:   newMockAppointmentRepo(),
		escorts: newMockEscortRepo(pats),
		pats:    pats,
		codes:   newMockAllocator(),
		users:   newMockUsers(),
		prices:  &mockPricer{prices: map[string]float64{"MAS-01": 45}},
		mailer:  &mail.MockSender{},
		tpl:     mail.NewTemplateEngine(),
	}
	passthrough := func(ctx context.Context, fn func(context.Context) error) error {
		return fn(ctx)
	}
	f.svc = NewService(f.appts, f.escorts, f.pats, f.codes, f.users,
		f.prices, passthrough, f.mailer, f.tpl, zerolog.Nop())
	f.svc.now = func() time.Time {
		return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	}
	f.svc.loc = time.UTC
	return f
}

func validBooking() BookingRequest {
	return BookingRequest{
		PatientName: "Laura Mendez",
		ServiceCode: "MAS-01",
		ServiceName: "Massage Therapy",
		Email:       "laura@example.com",
		Phone:       "555-0101",
		Date:        "2024-06-10",
		Time:        "11:00",
		PaymentType: "card",
	}
}

// -- Book --

func TestBook_SelfServiceStartsPending(t *testing.T) {
	f := newFixture()
	appt, err := f.svc.Book(context.Background(), validBooking(), codepool.ActorSelfService)
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if appt.Status != StatusPending {
		t.Errorf("expected pending, got %s", appt.Status)
	}
	if appt.Code != "CITA-0001" {
		t.Errorf("expected CITA-0001, got %s", appt.Code)
	}
}

func TestBook_StaffStartsConfirmed(t *testing.T) {
	f := newFixture()
	appt, err := f.svc.Book(context.Background(), validBooking(), codepool.ActorAdmin)
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if appt.Status != StatusConfirmed {
		t.Errorf("expected confirmed, got %s", appt.Status)
	}
}

func TestBook_PastDateRejectedBeforeAnyWrite(t *testing.T) {
	f := newFixture()
	req := validBooking()
	req.Date = "2024-04-30"

	_, err := f.svc.Book(context.Background(), req, codepool.ActorSelfService)
	if !errors.Is(err, ErrPastDate) {
		t.Fatalf("expected ErrPastDate, got %v", err)
	}
	if len(f.codes.reserved) != 0 {
		t.Error("expected no code reservation for a rejected booking")
	}
	if len(f.appts.appointments) != 0 {
		t.Error("expected no appointment row for a rejected booking")
	}
}

func TestBook_ValidationErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*BookingRequest)
	}{
		{"missing patient name", func(r *BookingRequest) { r.PatientName = "" }},
		{"missing service", func(r *BookingRequest) { r.ServiceCode = "" }},
		{"missing email", func(r *BookingRequest) { r.Email = "" }},
		{"missing date", func(r *BookingRequest) { r.Date = "" }},
		{"malformed time", func(r *BookingRequest) { r.Time = "eleven" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			req := validBooking()
			tc.mutate(&req)
			_, err := f.svc.Book(context.Background(), req, codepool.ActorSelfService)
			var vErr ValidationError
			if !errors.As(err, &vErr) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestBook_CreatesEscortRow(t *testing.T) {
	f := newFixture()
	req := validBooking()
	req.EscortName = "Pedro Mendez"
	req.EscortRelation = "brother"
	req.EscortPhone = "555-0102"

	appt, err := f.svc.Book(context.Background(), req, codepool.ActorSelfService)
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	escort, _ := f.escorts.GetByAppointment(context.Background(), appt.Code)
	if escort == nil {
		t.Fatal("expected escort row")
	}
	if escort.Name != "Pedro Mendez" || escort.Relation != "brother" {
		t.Errorf("unexpected escort data: %+v", escort)
	}
}

func TestBook_SendsConfirmationToContactAndExtras(t *testing.T) {
	f := newFixture()
	req := validBooking()
	req.ExtraRecipients = []string{"familia@example.com"}

	appt, err := f.svc.Book(context.Background(), req, codepool.ActorSelfService)
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	sent := f.mailer.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 mail, got %d", len(sent))
	}
	if sent[0].To[0] != "laura@example.com" || sent[0].To[1] != "familia@example.com" {
		t.Errorf("unexpected recipients: %v", sent[0].To)
	}
	if !strings.Contains(sent[0].Subject, appt.Code) {
		t.Errorf("expected code in subject, got %q", sent[0].Subject)
	}
}

func TestBook_MailFailureDoesNotFailBooking(t *testing.T) {
	f := newFixture()
	f.mailer.ShouldFail = true

	if _, err := f.svc.Book(context.Background(), validBooking(), codepool.ActorSelfService); err != nil {
		t.Fatalf("expected booking to succeed despite mail failure, got %v", err)
	}
}

func TestBook_ReleasesCodeWhenInsertFails(t *testing.T) {
	f := newFixture()
	f.appts.createErr = errors.New("disk full")

	_, err := f.svc.Book(context.Background(), validBooking(), codepool.ActorSelfService)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(f.codes.released) != 1 {
		t.Errorf("expected reserved code to be released, released=%v", f.codes.released)
	}
}

// -- Confirm --

func bookConfirmed(t *testing.T, f *fixture, therapistID *uuid.UUID) *Appointment {
	t.Helper()
	req := validBooking()
	req.TherapistID = therapistID
	appt, err := f.svc.Book(context.Background(), req, codepool.ActorSelfService)
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	return appt
}

func TestConfirm_CreatesExactlyOneUserWithHash(t *testing.T) {
	f := newFixture()
	appt := bookConfirmed(t, f, nil)

	if err := f.svc.Confirm(context.Background(), appt.Code, uuid.Nil); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if f.users.created != 1 {
		t.Errorf("expected exactly 1 user created, got %d", f.users.created)
	}
	u := f.users.byEmail["laura@example.com"]
	if u == nil || u.hash == "" {
		t.Error("expected created user with non-empty password hash")
	}

	patient, _ := f.pats.GetByAppointment(context.Background(), appt.Code)
	if patient == nil {
		t.Fatal("expected patient row")
	}
	if patient.UserID != u.ref.ID {
		t.Error("patient row not linked to the created user")
	}

	got, _ := f.appts.GetByCode(context.Background(), appt.Code)
	if got.Status != StatusConfirmed {
		t.Errorf("expected confirmed, got %s", got.Status)
	}
}

func TestConfirm_SendsTempPasswordMailForNewUser(t *testing.T) {
	f := newFixture()
	appt := bookConfirmed(t, f, nil)

	if err := f.svc.Confirm(context.Background(), appt.Code, uuid.Nil); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	sent := f.mailer.Sent()
	last := sent[len(sent)-1]
	if !strings.Contains(last.Body, "123456") {
		t.Errorf("expected temp password in mail body, got %q", last.Body)
	}
}

func TestConfirm_ReusesExistingUser(t *testing.T) {
	f := newFixture()
	existing := UserRef{ID: uuid.New(), Name: "Laura", Email: "laura@example.com"}
	f.users.byEmail["laura@example.com"] = &mockUser{ref: existing, hash: "$2a$10$existing"}
	appt := bookConfirmed(t, f, nil)
	mailsBefore := len(f.mailer.Sent())

	if err := f.svc.Confirm(context.Background(), appt.Code, uuid.Nil); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if f.users.created != 0 {
		t.Errorf("expected no user creation, got %d", f.users.created)
	}
	if len(f.mailer.Sent()) != mailsBefore {
		t.Error("expected no temp password mail for existing user")
	}
	patient, _ := f.pats.GetByAppointment(context.Background(), appt.Code)
	if patient.UserID != existing.ID {
		t.Error("patient row not linked to the existing user")
	}
}

func TestConfirm_DuplicatePatientRowRejected(t *testing.T) {
	f := newFixture()
	appt := bookConfirmed(t, f, nil)

	if err := f.svc.Confirm(context.Background(), appt.Code, uuid.Nil); err != nil {
		t.Fatalf("first Confirm failed: %v", err)
	}
	err := f.svc.Confirm(context.Background(), appt.Code, uuid.Nil)
	if !errors.Is(err, ErrPatientExists) {
		t.Errorf("expected ErrPatientExists, got %v", err)
	}
	if f.users.created != 1 {
		t.Errorf("second confirm must not create another user, got %d", f.users.created)
	}
}

func TestConfirm_OwnershipEnforcedForTherapists(t *testing.T) {
	f := newFixture()
	owner := uuid.New()
	appt := bookConfirmed(t, f, &owner)

	err := f.svc.Confirm(context.Background(), appt.Code, uuid.New())
	if !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
	if err := f.svc.Confirm(context.Background(), appt.Code, owner); err != nil {
		t.Errorf("owner confirm failed: %v", err)
	}
}

func TestConfirm_LinksEscort(t *testing.T) {
	f := newFixture()
	req := validBooking()
	req.EscortName = "Pedro Mendez"
	appt, err := f.svc.Book(context.Background(), req, codepool.ActorSelfService)
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	if err := f.svc.Confirm(context.Background(), appt.Code, uuid.Nil); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	patient, _ := f.pats.GetByAppointment(context.Background(), appt.Code)
	if patient.EscortID == nil {
		t.Error("expected patient row linked to escort")
	}
}

func TestConfirm_PricesPlanFromService(t *testing.T) {
	f := newFixture()
	appt := bookConfirmed(t, f, nil)

	if err := f.svc.Confirm(context.Background(), appt.Code, uuid.Nil); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	patient, _ := f.pats.GetByAppointment(context.Background(), appt.Code)
	if patient.PlanType != "MAS-01" {
		t.Errorf("expected plan type MAS-01, got %s", patient.PlanType)
	}
	if patient.PlanPrice != 45 {
		t.Errorf("expected plan priced at the service rate 45, got %v", patient.PlanPrice)
	}
}

func TestConfirm_UnknownServicePricesPlanAtZero(t *testing.T) {
	f := newFixture()
	req := validBooking()
	req.ServiceCode = "GONE-99"
	appt, err := f.svc.Book(context.Background(), req, codepool.ActorSelfService)
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	if err := f.svc.Confirm(context.Background(), appt.Code, uuid.Nil); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	patient, _ := f.pats.GetByAppointment(context.Background(), appt.Code)
	if patient.PlanPrice != 0 {
		t.Errorf("expected zero price for a retired service, got %v", patient.PlanPrice)
	}
}

func TestConfirm_UnknownCode(t *testing.T) {
	f := newFixture()
	err := f.svc.Confirm(context.Background(), "CITA-9999", uuid.Nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// -- Cancel --

func confirmedAppointment(t *testing.T, f *fixture, escort bool) *Appointment {
	t.Helper()
	req := validBooking()
	if escort {
		req.EscortName = "Pedro Mendez"
	}
	appt, err := f.svc.Book(context.Background(), req, codepool.ActorSelfService)
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if err := f.svc.Confirm(context.Background(), appt.Code, uuid.Nil); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	return appt
}

func TestCancel_CascadeRemovesEverything(t *testing.T) {
	f := newFixture()
	appt := confirmedAppointment(t, f, true)

	if err := f.svc.Cancel(context.Background(), appt.Code, ReasonForceMajeure, "flooding"); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	if _, err := f.appts.GetByCode(context.Background(), appt.Code); !errors.Is(err, ErrNotFound) {
		t.Error("expected appointment removed")
	}
	if e, _ := f.escorts.GetByAppointment(context.Background(), appt.Code); e != nil {
		t.Error("expected escort removed")
	}
	if p, _ := f.pats.GetByAppointment(context.Background(), appt.Code); p != nil {
		t.Error("expected patient removed")
	}
	if f.codes.reserved[appt.Code] {
		t.Error("expected code reservation released")
	}
}

func TestCancel_DeletesOrphanedUserOnly(t *testing.T) {
	f := newFixture()
	first := confirmedAppointment(t, f, false)

	// Second appointment for the same contact shares the user.
	second, err := f.svc.Book(context.Background(), validBooking(), codepool.ActorSelfService)
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if err := f.svc.Confirm(context.Background(), second.Code, uuid.Nil); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}

	if err := f.svc.Cancel(context.Background(), first.Code, ReasonOverlap, ""); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if len(f.users.deleted) != 0 {
		t.Error("user still referenced by another patient must not be deleted")
	}

	if err := f.svc.Cancel(context.Background(), second.Code, ReasonOverlap, ""); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if len(f.users.deleted) != 1 {
		t.Errorf("expected orphaned user to be deleted, deleted=%v", f.users.deleted)
	}
}

func TestCancel_TherapyCompletedSendsCongratsForService(t *testing.T) {
	f := newFixture()
	f.tpl.RegisterCongrats("MAS-01", mail.Template{
		ID:      "congrats-massage",
		Subject: "You finished your massage plan!",
		Body:    "<p>Well done {{patient_name}}, enjoy your recovery.</p>",
	})
	appt := confirmedAppointment(t, f, false)

	if err := f.svc.Cancel(context.Background(), appt.Code, ReasonTherapyCompleted, ""); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	sent := f.mailer.Sent()
	last := sent[len(sent)-1]
	if last.Subject != "You finished your massage plan!" {
		t.Errorf("expected service-specific congrats, got %q", last.Subject)
	}
}

func TestCancel_TherapyCompletedFallsBackToGenericCongrats(t *testing.T) {
	f := newFixture()
	appt := confirmedAppointment(t, f, false)

	if err := f.svc.Cancel(context.Background(), appt.Code, ReasonTherapyCompleted, ""); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	sent := f.mailer.Sent()
	last := sent[len(sent)-1]
	if !strings.Contains(last.Subject, "Congratulations") {
		t.Errorf("expected generic congrats subject, got %q", last.Subject)
	}
}

func TestCancel_OverlapMentionsDiscount(t *testing.T) {
	f := newFixture()
	appt := confirmedAppointment(t, f, false)

	if err := f.svc.Cancel(context.Background(), appt.Code, ReasonOverlap, ""); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	sent := f.mailer.Sent()
	last := sent[len(sent)-1]
	if !strings.Contains(last.Body, "20%") {
		t.Errorf("expected 20%% discount in body, got %q", last.Body)
	}
}

func TestCancel_ForceMajeureIncludesDetails(t *testing.T) {
	f := newFixture()
	appt := confirmedAppointment(t, f, false)

	if err := f.svc.Cancel(context.Background(), appt.Code, ReasonForceMajeure, "building works"); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	sent := f.mailer.Sent()
	last := sent[len(sent)-1]
	if !strings.Contains(last.Body, "building works") {
		t.Errorf("expected details in body, got %q", last.Body)
	}
}

func TestCancel_InvalidReason(t *testing.T) {
	f := newFixture()
	appt := confirmedAppointment(t, f, false)

	err := f.svc.Cancel(context.Background(), appt.Code, "changed_my_mind", "")
	if !errors.Is(err, ErrInvalidReason) {
		t.Errorf("expected ErrInvalidReason, got %v", err)
	}
	if _, err := f.appts.GetByCode(context.Background(), appt.Code); err != nil {
		t.Error("appointment must survive an invalid cancellation")
	}
}

func TestCancel_MailFailureDoesNotUndoDeletes(t *testing.T) {
	f := newFixture()
	appt := confirmedAppointment(t, f, false)
	f.mailer.ShouldFail = true

	if err := f.svc.Cancel(context.Background(), appt.Code, ReasonOverlap, ""); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if _, err := f.appts.GetByCode(context.Background(), appt.Code); !errors.Is(err, ErrNotFound) {
		t.Error("expected appointment removed despite mail failure")
	}
}

// -- Complete --

func TestComplete_FromConfirmed(t *testing.T) {
	f := newFixture()
	appt := confirmedAppointment(t, f, false)

	if err := f.svc.Complete(context.Background(), appt.Code, uuid.Nil); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	got, _ := f.appts.GetByCode(context.Background(), appt.Code)
	if got.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", got.Status)
	}
}

func TestComplete_RejectsPending(t *testing.T) {
	f := newFixture()
	appt, err := f.svc.Book(context.Background(), validBooking(), codepool.ActorSelfService)
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	err = f.svc.Complete(context.Background(), appt.Code, uuid.Nil)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}
