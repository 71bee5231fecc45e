package exercise

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fisiocare/fisiocare/internal/platform/db"
)

var (
	ErrNotFound        = errors.New("exercise not found")
	ErrAlreadyAssigned = errors.New("exercise already assigned to patient")
	ErrNotAssigned     = errors.New("exercise not assigned to patient")
)

// PGExerciseRepo is the PostgreSQL ExerciseRepo.
type PGExerciseRepo struct {
	pool *pgxpool.Pool
}

func NewPGExerciseRepo(pool *pgxpool.Pool) *PGExerciseRepo {
	return &PGExerciseRepo{pool: pool}
}

func (r *PGExerciseRepo) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const exerciseColumns = `code, name, description, video_url, difficulty, created_at`

func (r *PGExerciseRepo) Create(ctx context.Context, e *Exercise) error {
	const q = `
		INSERT INTO exercises (` + exerciseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.conn(ctx).Exec(ctx, q,
		e.Code, e.Name, e.Description, e.VideoURL, e.Difficulty, e.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("exercise %s already exists", e.Code)
		}
		return fmt.Errorf("inserting exercise: %w", err)
	}
	return nil
}

func (r *PGExerciseRepo) GetByCode(ctx context.Context, code string) (*Exercise, error) {
	var e Exercise
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+exerciseColumns+` FROM exercises WHERE code = $1`, code).
		Scan(&e.Code, &e.Name, &e.Description, &e.VideoURL, &e.Difficulty, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching exercise: %w", err)
	}
	return &e, nil
}

func (r *PGExerciseRepo) Update(ctx context.Context, e *Exercise) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE exercises SET name = $2, description = $3, video_url = $4, difficulty = $5 WHERE code = $1`,
		e.Code, e.Name, e.Description, e.VideoURL, e.Difficulty)
	if err != nil {
		return fmt.Errorf("updating exercise: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGExerciseRepo) Delete(ctx context.Context, code string) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM exercises WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("deleting exercise: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGExerciseRepo) List(ctx context.Context, limit, offset int) ([]*Exercise, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM exercises`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting exercises: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+exerciseColumns+` FROM exercises ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing exercises: %w", err)
	}
	defer rows.Close()

	var out []*Exercise
	for rows.Next() {
		var e Exercise
		if err := rows.Scan(&e.Code, &e.Name, &e.Description, &e.VideoURL, &e.Difficulty, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning exercise: %w", err)
		}
		out = append(out, &e)
	}
	return out, total, rows.Err()
}

// PGAssignmentRepo is the PostgreSQL AssignmentRepo.
type PGAssignmentRepo struct {
	pool *pgxpool.Pool
}

func NewPGAssignmentRepo(pool *pgxpool.Pool) *PGAssignmentRepo {
	return &PGAssignmentRepo{pool: pool}
}

func (r *PGAssignmentRepo) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *PGAssignmentRepo) Create(ctx context.Context, a *Assignment) error {
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO exercise_assignments (patient_code, exercise_code, assigned_at, status, notes)
		 VALUES ($1, $2, $3, $4, $5)`,
		a.PatientCode, a.ExerciseCode, a.AssignedAt, a.Status, a.Notes)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrAlreadyAssigned
		}
		return fmt.Errorf("inserting assignment: %w", err)
	}
	return nil
}

func (r *PGAssignmentRepo) Get(ctx context.Context, patientCode, exerciseCode string) (*Assignment, error) {
	var a Assignment
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT patient_code, exercise_code, assigned_at, status, notes
		 FROM exercise_assignments WHERE patient_code = $1 AND exercise_code = $2`,
		patientCode, exerciseCode).
		Scan(&a.PatientCode, &a.ExerciseCode, &a.AssignedAt, &a.Status, &a.Notes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching assignment: %w", err)
	}
	return &a, nil
}

func (r *PGAssignmentRepo) Delete(ctx context.Context, patientCode, exerciseCode string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM exercise_assignments WHERE patient_code = $1 AND exercise_code = $2`,
		patientCode, exerciseCode)
	if err != nil {
		return fmt.Errorf("deleting assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotAssigned
	}
	return nil
}

func (r *PGAssignmentRepo) UpdateStatus(ctx context.Context, patientCode, exerciseCode, status string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE exercise_assignments SET status = $3 WHERE patient_code = $1 AND exercise_code = $2`,
		patientCode, exerciseCode, status)
	if err != nil {
		return fmt.Errorf("updating assignment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotAssigned
	}
	return nil
}

func (r *PGAssignmentRepo) ListForPatient(ctx context.Context, patientCode string) ([]*AssignedExercise, error) {
	const q = `
		SELECT e.code, e.name, e.description, e.video_url, e.difficulty, e.created_at,
		       a.assigned_at, a.status, a.notes
		FROM exercise_assignments a
		JOIN exercises e ON e.code = a.exercise_code
		WHERE a.patient_code = $1
		ORDER BY a.assigned_at`
	rows, err := r.conn(ctx).Query(ctx, q, patientCode)
	if err != nil {
		return nil, fmt.Errorf("listing assignments: %w", err)
	}
	defer rows.Close()

	var out []*AssignedExercise
	for rows.Next() {
		var ae AssignedExercise
		if err := rows.Scan(&ae.Code, &ae.Name, &ae.Description, &ae.VideoURL, &ae.Difficulty,
			&ae.CreatedAt, &ae.AssignedAt, &ae.Status, &ae.Notes); err != nil {
			return nil, fmt.Errorf("scanning assignment: %w", err)
		}
		out = append(out, &ae)
	}
	return out, rows.Err()
}
