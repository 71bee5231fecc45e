package exercise

import (
	"context"
	"fmt"
	"time"
)

// Service implements the exercise library and assignment operations.
type Service struct {
	exercises   ExerciseRepo
	assignments AssignmentRepo
	now         func() time.Time
}

func NewService(exercises ExerciseRepo, assignments AssignmentRepo) *Service {
	return &Service{exercises: exercises, assignments: assignments, now: time.Now}
}

func (s *Service) CreateExercise(ctx context.Context, e *Exercise) error {
	if e.Code == "" {
		return fmt.Errorf("code is required")
	}
	if e.Name == "" {
		return fmt.Errorf("name is required")
	}
	if e.Difficulty == "" {
		e.Difficulty = DifficultyMedium
	}
	if !validDifficulties[e.Difficulty] {
		return fmt.Errorf("invalid difficulty: %s", e.Difficulty)
	}
	e.CreatedAt = s.now().UTC()
	return s.exercises.Create(ctx, e)
}

func (s *Service) GetExercise(ctx context.Context, code string) (*Exercise, error) {
	return s.exercises.GetByCode(ctx, code)
}

func (s *Service) UpdateExercise(ctx context.Context, e *Exercise) error {
	if e.Difficulty != "" && !validDifficulties[e.Difficulty] {
		return fmt.Errorf("invalid difficulty: %s", e.Difficulty)
	}
	return s.exercises.Update(ctx, e)
}

func (s *Service) DeleteExercise(ctx context.Context, code string) error {
	return s.exercises.Delete(ctx, code)
}

func (s *Service) ListExercises(ctx context.Context, limit, offset int) ([]*Exercise, int, error) {
	return s.exercises.List(ctx, limit, offset)
}

// Assign adds an exercise to a patient's plan. Assigning the same
// exercise twice is a business-rule error.
func (s *Service) Assign(ctx context.Context, patientCode, exerciseCode, notes string) error {
	if patientCode == "" {
		return fmt.Errorf("patient_code is required")
	}
	if _, err := s.exercises.GetByCode(ctx, exerciseCode); err != nil {
		return err
	}
	existing, err := s.assignments.Get(ctx, patientCode, exerciseCode)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrAlreadyAssigned
	}
	return s.assignments.Create(ctx, &Assignment{
		PatientCode:  patientCode,
		ExerciseCode: exerciseCode,
		AssignedAt:   s.now().UTC(),
		Status:       StatusAssigned,
		Notes:        notes,
	})
}

func (s *Service) Unassign(ctx context.Context, patientCode, exerciseCode string) error {
	return s.assignments.Delete(ctx, patientCode, exerciseCode)
}

func (s *Service) ListForPatient(ctx context.Context, patientCode string) ([]*AssignedExercise, error) {
	return s.assignments.ListForPatient(ctx, patientCode)
}

// MarkDone flips an assignment to done.
func (s *Service) MarkDone(ctx context.Context, patientCode, exerciseCode string) error {
	return s.assignments.UpdateStatus(ctx, patientCode, exerciseCode, StatusDone)
}
