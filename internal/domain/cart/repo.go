package cart

import (
	"context"

	"github.com/google/uuid"
)

// CartRepo persists cart lines.
type CartRepo interface {
	// Upsert sets the quantity for a product, adding the line when
	// absent.
	Upsert(ctx context.Context, item *Item) error
	UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]*Item, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

// PurchaseRepo persists completed purchases.
type PurchaseRepo interface {
	Create(ctx context.Context, p *Purchase) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Purchase, int, error)
}
