package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fisiocare/fisiocare/internal/platform/db"
)

var ErrItemNotFound = errors.New("cart item not found")

// PGCartRepo is the PostgreSQL CartRepo.
type PGCartRepo struct {
	pool *pgxpool.Pool
}

func NewPGCartRepo(pool *pgxpool.Pool) *PGCartRepo {
	return &PGCartRepo{pool: pool}
}

func (r *PGCartRepo) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *PGCartRepo) Upsert(ctx context.Context, item *Item) error {
	const q = `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`
	if _, err := r.conn(ctx).Exec(ctx, q, item.UserID, item.ProductID, item.Quantity); err != nil {
		return fmt.Errorf("upserting cart item: %w", err)
	}
	return nil
}

func (r *PGCartRepo) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE cart_items SET quantity = $3 WHERE user_id = $1 AND product_id = $2`,
		userID, productID, quantity)
	if err != nil {
		return fmt.Errorf("updating cart quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *PGCartRepo) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return fmt.Errorf("removing cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *PGCartRepo) List(ctx context.Context, userID uuid.UUID) ([]*Item, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT user_id, product_id, quantity FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing cart: %w", err)
	}
	defer rows.Close()

	var out []*Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.UserID, &it.ProductID, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scanning cart item: %w", err)
		}
		out = append(out, &it)
	}
	return out, rows.Err()
}

func (r *PGCartRepo) Clear(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}
	return nil
}

// PGPurchaseRepo is the PostgreSQL PurchaseRepo.
type PGPurchaseRepo struct {
	pool *pgxpool.Pool
}

func NewPGPurchaseRepo(pool *pgxpool.Pool) *PGPurchaseRepo {
	return &PGPurchaseRepo{pool: pool}
}

func (r *PGPurchaseRepo) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *PGPurchaseRepo) Create(ctx context.Context, p *Purchase) error {
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO purchases (id, user_id, total, created_at) VALUES ($1, $2, $3, $4)`,
		p.ID, p.UserID, p.Total, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting purchase: %w", err)
	}
	for _, item := range p.Items {
		_, err := r.conn(ctx).Exec(ctx,
			`INSERT INTO purchase_items (purchase_id, product_id, quantity, unit_price) VALUES ($1, $2, $3, $4)`,
			p.ID, item.ProductID, item.Quantity, item.UnitPrice)
		if err != nil {
			return fmt.Errorf("inserting purchase item: %w", err)
		}
	}
	return nil
}

func (r *PGPurchaseRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Purchase, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM purchases WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting purchases: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, user_id, total, created_at FROM purchases
		 WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing purchases: %w", err)
	}
	defer rows.Close()

	var out []*Purchase
	for rows.Next() {
		var p Purchase
		if err := rows.Scan(&p.ID, &p.UserID, &p.Total, &p.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning purchase: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for _, p := range out {
		itemRows, err := r.conn(ctx).Query(ctx,
			`SELECT purchase_id, product_id, quantity, unit_price FROM purchase_items WHERE purchase_id = $1`,
			p.ID)
		if err != nil {
			return nil, 0, fmt.Errorf("listing purchase items: %w", err)
		}
		for itemRows.Next() {
			var it PurchaseItem
			if err := itemRows.Scan(&it.PurchaseID, &it.ProductID, &it.Quantity, &it.UnitPrice); err != nil {
				itemRows.Close()
				return nil, 0, fmt.Errorf("scanning purchase item: %w", err)
			}
			p.Items = append(p.Items, it)
		}
		itemRows.Close()
		if err := itemRows.Err(); err != nil {
			return nil, 0, err
		}
	}
	return out, total, nil
}
