package exercise

import (
	"context"
	"errors"
	"testing"
)

type mockExerciseRepo struct {
	exercises map[string]*Exercise
}

func newMockExerciseRepo() *mockExerciseRepo {
	return &mockExerciseRepo{exercises: make(map[string]*Exercise)}
}

func (m *mockExerciseRepo) Create(_ context.Context, e *Exercise) error {
	if _, exists := m.exercises[e.Code]; exists {
		return errors.New("duplicate exercise code")
	}
	cp := *e
	m.exercises[e.Code] = &cp
	return nil
}

func (m *mockExerciseRepo) GetByCode(_ context.Context, code string) (*Exercise, error) {
	e, ok := m.exercises[code]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *mockExerciseRepo) Update(_ context.Context, e *Exercise) error {
	if _, ok := m.exercises[e.Code]; !ok {
		return ErrNotFound
	}
	cp := *e
	m.exercises[e.Code] = &cp
	return nil
}

func (m *mockExerciseRepo) Delete(_ context.Context, code string) error {
	if _, ok := m.exercises[code]; !ok {
		return ErrNotFound
	}
	delete(m.exercises, code)
	return nil
}

func (m *mockExerciseRepo) List(_ context.Context, limit, offset int) ([]*Exercise, int, error) {
	var out []*Exercise
	for _, e := range m.exercises {
		out = append(out, e)
	}
	return out, len(out), nil
}

type assignKey struct {
	patient  string
	exercise string
}

type mockAssignmentRepo struct {
	exercises   *mockExerciseRepo
	assignments map[assignKey]*Assignment
}

func newMockAssignmentRepo(ex *mockExerciseRepo) *mockAssignmentRepo {
	return &mockAssignmentRepo{exercises: ex, assignments: make(map[assignKey]*Assignment)}
}

func (m *mockAssignmentRepo) Create(_ context.Context, a *Assignment) error {
	k := assignKey{a.PatientCode, a.ExerciseCode}
	if _, exists := m.assignments[k]; exists {
		return ErrAlreadyAssigned
	}
	cp := *a
	m.assignments[k] = &cp
	return nil
}

func (m *mockAssignmentRepo) Get(_ context.Context, patientCode, exerciseCode string) (*Assignment, error) {
	a, ok := m.assignments[assignKey{patientCode, exerciseCode}]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *mockAssignmentRepo) Delete(_ context.Context, patientCode, exerciseCode string) error {
	k := assignKey{patientCode, exerciseCode}
	if _, ok := m.assignments[k]; !ok {
		return ErrNotAssigned
	}
	delete(m.assignments, k)
	return nil
}

func (m *mockAssignmentRepo) UpdateStatus(_ context.Context, patientCode, exerciseCode, status string) error {
	a, ok := m.assignments[assignKey{patientCode, exerciseCode}]
	if !ok {
		return ErrNotAssigned
	}
	a.Status = status
	return nil
}

func (m *mockAssignmentRepo) ListForPatient(_ context.Context, patientCode string) ([]*AssignedExercise, error) {
	var out []*AssignedExercise
	for k, a := range m.assignments {
		if k.patient != patientCode {
			continue
		}
		e := m.exercises.exercises[k.exercise]
		out = append(out, &AssignedExercise{
			Exercise:   *e,
			AssignedAt: a.AssignedAt,
			Status:     a.Status,
			Notes:      a.Notes,
		})
	}
	return out, nil
}

func newTestService() (*Service, *mockExerciseRepo) {
	ex := newMockExerciseRepo()
	return NewService(ex, newMockAssignmentRepo(ex)), ex
}

func seedExercise(t *testing.T, svc *Service, code string) {
	t.Helper()
	err := svc.CreateExercise(context.Background(), &Exercise{
		Code: code, Name: "Shoulder stretch", Difficulty: DifficultyEasy,
	})
	if err != nil {
		t.Fatalf("CreateExercise failed: %v", err)
	}
}

func TestCreateExercise(t *testing.T) {
	svc, _ := newTestService()
	e := &Exercise{Code: "EX-01", Name: "Squat"}
	if err := svc.CreateExercise(context.Background(), e); err != nil {
		t.Fatalf("CreateExercise failed: %v", err)
	}
	if e.Difficulty != DifficultyMedium {
		t.Errorf("expected default medium difficulty, got %s", e.Difficulty)
	}
}

func TestCreateExercise_Validation(t *testing.T) {
	svc, _ := newTestService()
	cases := []*Exercise{
		{Name: "X"},
		{Code: "X"},
		{Code: "X", Name: "X", Difficulty: "impossible"},
	}
	for _, e := range cases {
		if err := svc.CreateExercise(context.Background(), e); err == nil {
			t.Errorf("expected validation error for %+v", e)
		}
	}
}

func TestAssignAndListForPatient(t *testing.T) {
	svc, _ := newTestService()
	seedExercise(t, svc, "EX-01")
	ctx := context.Background()

	if err := svc.Assign(ctx, "CITA-0001", "EX-01", "3x10 daily"); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}

	items, err := svc.ListForPatient(ctx, "CITA-0001")
	if err != nil {
		t.Fatalf("ListForPatient failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 assigned exercise, got %d", len(items))
	}
	if items[0].Status != StatusAssigned {
		t.Errorf("expected assigned status, got %s", items[0].Status)
	}
	if items[0].Notes != "3x10 daily" {
		t.Errorf("expected notes, got %q", items[0].Notes)
	}
}

func TestAssign_DuplicateRejected(t *testing.T) {
	svc, _ := newTestService()
	seedExercise(t, svc, "EX-01")
	ctx := context.Background()

	if err := svc.Assign(ctx, "CITA-0001", "EX-01", ""); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if err := svc.Assign(ctx, "CITA-0001", "EX-01", ""); !errors.Is(err, ErrAlreadyAssigned) {
		t.Errorf("expected ErrAlreadyAssigned, got %v", err)
	}
}

func TestAssign_UnknownExercise(t *testing.T) {
	svc, _ := newTestService()
	err := svc.Assign(context.Background(), "CITA-0001", "EX-99", "")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMarkDone(t *testing.T) {
	svc, _ := newTestService()
	seedExercise(t, svc, "EX-01")
	ctx := context.Background()

	if err := svc.Assign(ctx, "CITA-0001", "EX-01", ""); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if err := svc.MarkDone(ctx, "CITA-0001", "EX-01"); err != nil {
		t.Fatalf("MarkDone failed: %v", err)
	}

	items, _ := svc.ListForPatient(ctx, "CITA-0001")
	if items[0].Status != StatusDone {
		t.Errorf("expected done, got %s", items[0].Status)
	}

	if err := svc.MarkDone(ctx, "CITA-0001", "EX-99"); !errors.Is(err, ErrNotAssigned) {
		t.Errorf("expected ErrNotAssigned, got %v", err)
	}
}

func TestUnassign(t *testing.T) {
	svc, _ := newTestService()
	seedExercise(t, svc, "EX-01")
	ctx := context.Background()

	if err := svc.Assign(ctx, "CITA-0001", "EX-01", ""); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if err := svc.Unassign(ctx, "CITA-0001", "EX-01"); err != nil {
		t.Fatalf("Unassign failed: %v", err)
	}
	items, _ := svc.ListForPatient(ctx, "CITA-0001")
	if len(items) != 0 {
		t.Errorf("expected empty plan, got %d items", len(items))
	}
}
