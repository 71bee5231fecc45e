package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fisiocare/fisiocare/internal/platform/db"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrTherapistNotFound = errors.New("therapist not found")
	ErrEmailTaken        = errors.New("email already registered")
)

// PGUserRepo is the PostgreSQL UserRepo.
type PGUserRepo struct {
	pool *pgxpool.Pool
}

func NewPGUserRepo(pool *pgxpool.Pool) *PGUserRepo {
	return &PGUserRepo{pool: pool}
}

func (r *PGUserRepo) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const userColumns = `id, name, email, phone, password_hash, role, temp_password, created_at`

func (r *PGUserRepo) Create(ctx context.Context, u *User) error {
	const q = `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.conn(ctx).Exec(ctx, q,
		u.ID, u.Name, u.Email, u.Phone, u.PasswordHash, u.Role, u.TempPassword, u.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash,
		&u.Role, &u.TempPassword, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PGUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := scanUser(r.conn(ctx).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("fetching user: %w", err)
	}
	return u, nil
}

func (r *PGUserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(r.conn(ctx).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching user by email: %w", err)
	}
	return u, nil
}

func (r *PGUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string, temp bool) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE users SET password_hash = $2, temp_password = $3 WHERE id = $1`, id, hash, temp)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *PGUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *PGUserRepo) List(ctx context.Context, limit, offset int) ([]*User, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting users: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var out []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning user: %w", err)
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

// PGTherapistRepo is the PostgreSQL TherapistRepo.
type PGTherapistRepo struct {
	pool *pgxpool.Pool
}

func NewPGTherapistRepo(pool *pgxpool.Pool) *PGTherapistRepo {
	return &PGTherapistRepo{pool: pool}
}

func (r *PGTherapistRepo) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const therapistColumns = `id, user_id, full_name, specialty, active, created_at`

func (r *PGTherapistRepo) Create(ctx context.Context, t *Therapist) error {
	const q = `
		INSERT INTO therapists (` + therapistColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.conn(ctx).Exec(ctx, q,
		t.ID, t.UserID, t.FullName, t.Specialty, t.Active, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting therapist: %w", err)
	}
	return nil
}

func scanTherapist(row pgx.Row) (*Therapist, error) {
	var t Therapist
	err := row.Scan(&t.ID, &t.UserID, &t.FullName, &t.Specialty, &t.Active, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PGTherapistRepo) GetByID(ctx context.Context, id uuid.UUID) (*Therapist, error) {
	t, err := scanTherapist(r.conn(ctx).QueryRow(ctx,
		`SELECT `+therapistColumns+` FROM therapists WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTherapistNotFound
		}
		return nil, fmt.Errorf("fetching therapist: %w", err)
	}
	return t, nil
}

func (r *PGTherapistRepo) GetByUser(ctx context.Context, userID uuid.UUID) (*Therapist, error) {
	t, err := scanTherapist(r.conn(ctx).QueryRow(ctx,
		`SELECT `+therapistColumns+` FROM therapists WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching therapist by user: %w", err)
	}
	return t, nil
}

func (r *PGTherapistRepo) Update(ctx context.Context, t *Therapist) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE therapists SET full_name = $2, specialty = $3, active = $4, user_id = $5 WHERE id = $1`,
		t.ID, t.FullName, t.Specialty, t.Active, t.UserID)
	if err != nil {
		return fmt.Errorf("updating therapist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTherapistNotFound
	}
	return nil
}

func (r *PGTherapistRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM therapists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting therapist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTherapistNotFound
	}
	return nil
}

func (r *PGTherapistRepo) List(ctx context.Context, limit, offset int) ([]*Therapist, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM therapists`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting therapists: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+therapistColumns+` FROM therapists ORDER BY full_name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing therapists: %w", err)
	}
	defer rows.Close()

	var out []*Therapist
	for rows.Next() {
		t, err := scanTherapist(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning therapist: %w", err)
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

// PGResetRepo is the PostgreSQL ResetRepo.
type PGResetRepo struct {
	pool *pgxpool.Pool
}

func NewPGResetRepo(pool *pgxpool.Pool) *PGResetRepo {
	return &PGResetRepo{pool: pool}
}

func (r *PGResetRepo) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *PGResetRepo) Create(ctx context.Context, pr *PasswordReset) error {
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO password_resets (token, user_id, expires_at) VALUES ($1, $2, $3)`,
		pr.Token, pr.UserID, pr.ExpiresAt)
	if err != nil {
		return fmt.Errorf("inserting password reset: %w", err)
	}
	return nil
}

func (r *PGResetRepo) Get(ctx context.Context, token string) (*PasswordReset, error) {
	var pr PasswordReset
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT token, user_id, expires_at FROM password_resets WHERE token = $1`, token).
		Scan(&pr.Token, &pr.UserID, &pr.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching password reset: %w", err)
	}
	return &pr, nil
}

func (r *PGResetRepo) Delete(ctx context.Context, token string) error {
	if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM password_resets WHERE token = $1`, token); err != nil {
		return fmt.Errorf("deleting password reset: %w", err)
	}
	return nil
}
