package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Catalog implements the service and product operations.
type Catalog struct {
	services ServiceRepo
	products ProductRepo
}

func NewCatalog(services ServiceRepo, products ProductRepo) *Catalog {
	return &Catalog{services: services, products: products}
}

func (c *Catalog) CreateService(ctx context.Context, s *Service) error {
	if s.Code == "" {
		return fmt.Errorf("code is required")
	}
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !validCategories[s.Category] {
		return fmt.Errorf("invalid category: %s", s.Category)
	}
	if s.Price < 0 {
		return fmt.Errorf("price cannot be negative")
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.Active = true
	return c.services.Create(ctx, s)
}

func (c *Catalog) GetService(ctx context.Context, id uuid.UUID) (*Service, error) {
	return c.services.GetByID(ctx, id)
}

func (c *Catalog) GetServiceByCode(ctx context.Context, code string) (*Service, error) {
	return c.services.GetByCode(ctx, code)
}

// ServicePrice returns the current price of the service with the given
// code, or 0 when no such service exists.
func (c *Catalog) ServicePrice(ctx context.Context, code string) (float64, error) {
	s, err := c.services.GetByCode(ctx, code)
	if err != nil {
		return 0, err
	}
	if s == nil {
		return 0, nil
	}
	return s.Price, nil
}

func (c *Catalog) UpdateService(ctx context.Context, s *Service) error {
	if s.Category != "" && !validCategories[s.Category] {
		return fmt.Errorf("invalid category: %s", s.Category)
	}
	return c.services.Update(ctx, s)
}

func (c *Catalog) DeleteService(ctx context.Context, id uuid.UUID) error {
	return c.services.Delete(ctx, id)
}

func (c *Catalog) ListServices(ctx context.Context, category string, limit, offset int) ([]*Service, int, error) {
	if category != "" && !validCategories[category] {
		return nil, 0, fmt.Errorf("invalid category: %s", category)
	}
	return c.services.List(ctx, category, limit, offset)
}

func (c *Catalog) CreateProduct(ctx context.Context, p *Product) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Price < 0 {
		return fmt.Errorf("price cannot be negative")
	}
	if p.Stock < 0 {
		return fmt.Errorf("stock cannot be negative")
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Active = true
	return c.products.Create(ctx, p)
}

func (c *Catalog) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	return c.products.GetByID(ctx, id)
}

func (c *Catalog) UpdateProduct(ctx context.Context, p *Product) error {
	if p.Price < 0 {
		return fmt.Errorf("price cannot be negative")
	}
	return c.products.Update(ctx, p)
}

func (c *Catalog) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return c.products.Delete(ctx, id)
}

func (c *Catalog) ListProducts(ctx context.Context, limit, offset int) ([]*Product, int, error) {
	return c.products.List(ctx, limit, offset)
}
