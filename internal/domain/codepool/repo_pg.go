package codepool

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fisiocare/fisiocare/internal/platform/db"
)

// PGRepo stores reservations in the cita_code table. The UNIQUE
// constraint on the code column is what makes concurrent allocation
// safe: two bookings racing for the same number see one insert succeed
// and one fail with a unique violation.
type PGRepo struct {
	pool *pgxpool.Pool
}

func NewPGRepo(pool *pgxpool.Pool) *PGRepo {
	return &PGRepo{pool: pool}
}

func (r *PGRepo) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *PGRepo) UsedNumbers(ctx context.Context) (map[int]bool, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT num FROM cita_code`)
	if err != nil {
		return nil, fmt.Errorf("fetching reserved code numbers: %w", err)
	}
	defer rows.Close()

	used := make(map[int]bool)
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scanning reserved code number: %w", err)
		}
		used[n] = true
	}
	return used, rows.Err()
}

func (r *PGRepo) TryReserve(ctx context.Context, code string, num int, actor Actor) error {
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO cita_code (code, num, actor, reserved_at) VALUES ($1, $2, $3, $4)`,
		code, num, string(actor), time.Now().UTC())
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrCodeTaken
		}
		return fmt.Errorf("reserving code %s: %w", code, err)
	}
	return nil
}

func (r *PGRepo) Release(ctx context.Context, code string) error {
	if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM cita_code WHERE code = $1`, code); err != nil {
		return fmt.Errorf("releasing code %s: %w", code, err)
	}
	return nil
}
