package catalog

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
	ErrServiceNotFound = errors.New("service not found")
	ErrProductNotFound = errors.New("product not found")
	ErrCodeTaken       = errors.New("service code already in use")
	ErrInsufficient    = errors.New("insufficient stock")
)

// PGServiceRepo is the PostgreSQL ServiceRepo.
type PGServiceRepo struct {
	pool *pgxpool.Pool
}

func NewPGServiceRepo(pool *pgxpool.Pool) *PGServiceRepo {
	return &PGServiceRepo{pool: pool}
}

func (r *PGServiceRepo) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const serviceColumns = `id, code, name, category, price, duration_minutes, active, created_at`

func (r *PGServiceRepo) Create(ctx context.Context, s *Service) error {
	const q = `
		INSERT INTO services (` + serviceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.conn(ctx).Exec(ctx, q,
		s.ID, s.Code, s.Name, s.Category, s.Price, s.DurationMinutes, s.Active, s.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrCodeTaken
		}
		return fmt.Errorf("inserting service: %w", err)
	}
	return nil
}

func scanService(row pgx.Row) (*Service, error) {
	var s Service
	err := row.Scan(&s.ID, &s.Code, &s.Name, &s.Category, &s.Price,
		&s.DurationMinutes, &s.Active, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PGServiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*Service, error) {
	s, err := scanService(r.conn(ctx).QueryRow(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("fetching service: %w", err)
	}
	return s, nil
}

func (r *PGServiceRepo) GetByCode(ctx context.Context, code string) (*Service, error) {
	s, err := scanService(r.conn(ctx).QueryRow(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE code = $1`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching service by code: %w", err)
	}
	return s, nil
}

func (r *PGServiceRepo) Update(ctx context.Context, s *Service) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE services SET name = $2, category = $3, price = $4, duration_minutes = $5, active = $6
		 WHERE id = $1`,
		s.ID, s.Name, s.Category, s.Price, s.DurationMinutes, s.Active)
	if err != nil {
		return fmt.Errorf("updating service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrServiceNotFound
	}
	return nil
}

func (r *PGServiceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrServiceNotFound
	}
	return nil
}

func (r *PGServiceRepo) List(ctx context.Context, category string, limit, offset int) ([]*Service, int, error) {
	where := ""
	countArgs := []interface{}{}
	args := []interface{}{}
	if category != "" {
		where = `WHERE category = $1`
		countArgs = append(countArgs, category)
		args = append(args, category)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM services `+where, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting services: %w", err)
	}

	q := `SELECT ` + serviceColumns + ` FROM services ` + where +
		fmt.Sprintf(` ORDER BY name LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing services: %w", err)
	}
	defer rows.Close()

	var out []*Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning service: %w", err)
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// PGProductRepo is the PostgreSQL ProductRepo.
type PGProductRepo struct {
	pool *pgxpool.Pool
}

func NewPGProductRepo(pool *pgxpool.Pool) *PGProductRepo {
	return &PGProductRepo{pool: pool}
}

func (r *PGProductRepo) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const productColumns = `id, name, description, price, stock, active, created_at`

func (r *PGProductRepo) Create(ctx context.Context, p *Product) error {
	const q = `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.conn(ctx).Exec(ctx, q,
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.Active, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting product: %w", err)
	}
	return nil
}

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.Active, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PGProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	p, err := scanProduct(r.conn(ctx).QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("fetching product: %w", err)
	}
	return p, nil
}

func (r *PGProductRepo) Update(ctx context.Context, p *Product) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE products SET name = $2, description = $3, price = $4, stock = $5, active = $6
		 WHERE id = $1`,
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.Active)
	if err != nil {
		return fmt.Errorf("updating product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *PGProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *PGProductRepo) List(ctx context.Context, limit, offset int) ([]*Product, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting products: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var out []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning product: %w", err)
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// AdjustStock decrements or increments stock atomically. The WHERE
// guard refuses decrements past zero.
func (r *PGProductRepo) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE products SET stock = stock + $2 WHERE id = $1 AND stock + $2 >= 0`, id, delta)
	if err != nil {
		return fmt.Errorf("adjusting stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrInsufficient
	}
	return nil
}
