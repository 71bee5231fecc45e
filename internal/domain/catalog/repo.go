package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ServiceRepo persists treatment services.
type ServiceRepo interface {
	Create(ctx context.Context, s *Service) error
	GetByID(ctx context.Context, id uuid.UUID) (*Service, error)
	// GetByCode returns (nil, nil) when no service carries the code.
	GetByCode(ctx context.Context, code string) (*Service, error)
	Update(ctx context.Context, s *Service) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, category string, limit, offset int) ([]*Service, int, error)
}

// ProductRepo persists products.
type ProductRepo interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Product, int, error)
	// AdjustStock adds delta to the stock, failing when it would go
	// negative.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) error
}
