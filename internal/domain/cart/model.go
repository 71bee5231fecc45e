// Package cart implements the product cart and checkout: per-user cart
// lines, and the purchase records written when the cart is checked out
// in a single stock-validating transaction.
package cart

import (
	"time"

	"github.com/google/uuid"
)

// Item is one cart line.
type Item struct {
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	ProductID uuid.UUID `db:"product_id" json:"product_id"`
	Quantity  int       `db:"quantity" json:"quantity"`
}

// Line is a cart item joined with its product data for display.
type Line struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	UnitPrice   float64   `json:"unit_price"`
	Quantity    int       `json:"quantity"`
	LineTotal   float64   `json:"line_total"`
	Stock       int       `json:"stock"`
}

// Purchase is a completed checkout.
type Purchase struct {
	ID        uuid.UUID      `db:"id" json:"id"`
	UserID    uuid.UUID      `db:"user_id" json:"user_id"`
	Total     float64        `db:"total" json:"total"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	Items     []PurchaseItem `json:"items,omitempty"`
}

// PurchaseItem is one line of a completed purchase, priced at checkout
// time.
type PurchaseItem struct {
	PurchaseID uuid.UUID `db:"purchase_id" json:"purchase_id"`
	ProductID  uuid.UUID `db:"product_id" json:"product_id"`
	Quantity   int       `db:"quantity" json:"quantity"`
	UnitPrice  float64   `db:"unit_price" json:"unit_price"`
}
