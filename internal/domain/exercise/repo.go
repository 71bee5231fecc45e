package exercise

import "context"

// ExerciseRepo persists the exercise library.
type ExerciseRepo interface {
	Create(ctx context.Context, e *Exercise) error
	GetByCode(ctx context.Context, code string) (*Exercise, error)
	Update(ctx context.Context, e *Exercise) error
	Delete(ctx context.Context, code string) error
	List(ctx context.Context, limit, offset int) ([]*Exercise, int, error)
}

// AssignmentRepo persists patient assignments.
type AssignmentRepo interface {
	Create(ctx context.Context, a *Assignment) error
	// Get returns (nil, nil) when the pair is not assigned.
	Get(ctx context.Context, patientCode, exerciseCode string) (*Assignment, error)
	Delete(ctx context.Context, patientCode, exerciseCode string) error
	UpdateStatus(ctx context.Context, patientCode, exerciseCode, status string) error
	ListForPatient(ctx context.Context, patientCode string) ([]*AssignedExercise, error)
}
