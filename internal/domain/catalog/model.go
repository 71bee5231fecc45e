// Package catalog holds the clinic's offering: treatment services
// bookable as appointments, and physical products sold through the cart.
package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Service categories.
const (
	CategoryMassage        = "massage"
	CategoryTherapy        = "therapy"
	CategoryRehabilitation = "rehabilitation"
)

var validCategories = map[string]bool{
	CategoryMassage: true, CategoryTherapy: true, CategoryRehabilitation: true,
}

// Service is a bookable treatment.
type Service struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Code            string    `db:"code" json:"code"`
	Name            string    `db:"name" json:"name"`
	Category        string    `db:"category" json:"category"`
	Price           float64   `db:"price" json:"price"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	Active          bool      `db:"active" json:"active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Product is a physical item sold at the clinic.
type Product struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	Price       float64   `db:"price" json:"price"`
	Stock       int       `db:"stock" json:"stock"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
