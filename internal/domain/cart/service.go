package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fisiocare/fisiocare/internal/domain/catalog"
	"github.com/fisiocare/fisiocare/internal/platform/db"
)

var (
	ErrEmptyCart    = errors.New("cart is empty")
	ErrOutOfStock   = errors.New("not enough stock")
	ErrBadQuantity  = errors.New("quantity must be positive")
	ErrInactiveItem = errors.New("product is not available")
)

// Service implements cart operations and checkout.
type Service struct {
	items     CartRepo
	purchases PurchaseRepo
	products  catalog.ProductRepo
	tx        db.TxRunner
	now       func() time.Time
}

func NewService(items CartRepo, purchases PurchaseRepo, products catalog.ProductRepo, tx db.TxRunner) *Service {
	return &Service{
		items:     items,
		purchases: purchases,
		products:  products,
		tx:        tx,
		now:       time.Now,
	}
}

// AddItem adds quantity of a product to the cart, merging with an
// existing line.
func (s *Service) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return ErrBadQuantity
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if !product.Active {
		return ErrInactiveItem
	}
	return s.items.Upsert(ctx, &Item{UserID: userID, ProductID: productID, Quantity: quantity})
}

// UpdateQuantity sets the line quantity; zero removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	if quantity < 0 {
		return ErrBadQuantity
	}
	if quantity == 0 {
		return s.items.Remove(ctx, userID, productID)
	}
	return s.items.UpdateQuantity(ctx, userID, productID, quantity)
}

func (s *Service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	return s.items.Remove(ctx, userID, productID)
}

// ListCart returns the cart joined with current product data.
func (s *Service) ListCart(ctx context.Context, userID uuid.UUID) ([]*Line, float64, error) {
	items, err := s.items.List(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	var lines []*Line
	var total float64
	for _, it := range items {
		product, err := s.products.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, 0, err
		}
		line := &Line{
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    it.Quantity,
			LineTotal:   product.Price * float64(it.Quantity),
			Stock:       product.Stock,
		}
		lines = append(lines, line)
		total += line.LineTotal
	}
	return lines, total, nil
}

// Checkout converts the cart into a purchase inside one transaction:
// every line's stock is validated and decremented, the purchase and its
// items are written, and the cart is cleared. Any failure rolls the
// whole checkout back.
func (s *Service) Checkout(ctx context.Context, userID uuid.UUID) (*Purchase, error) {
	var purchase *Purchase
	err := s.tx(ctx, func(ctx context.Context) error {
		items, err := s.items.List(ctx, userID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		p := &Purchase{
			ID:        uuid.New(),
			UserID:    userID,
			CreatedAt: s.now().UTC(),
		}
		for _, it := range items {
			product, err := s.products.GetByID(ctx, it.ProductID)
			if err != nil {
				return err
			}
			if product.Stock < it.Quantity {
				return fmt.Errorf("%w: %s has %d left, %d requested",
					ErrOutOfStock, product.Name, product.Stock, it.Quantity)
			}
			if err := s.products.AdjustStock(ctx, it.ProductID, -it.Quantity); err != nil {
				return err
			}
			p.Items = append(p.Items, PurchaseItem{
				PurchaseID: p.ID,
				ProductID:  it.ProductID,
				Quantity:   it.Quantity,
				UnitPrice:  product.Price,
			})
			p.Total += product.Price * float64(it.Quantity)
		}

		if err := s.purchases.Create(ctx, p); err != nil {
			return err
		}
		if err := s.items.Clear(ctx, userID); err != nil {
			return err
		}
		purchase = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

// ListPurchases returns a user's purchase history.
func (s *Service) ListPurchases(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Purchase, int, error) {
	return s.purchases.ListByUser(ctx, userID, limit, offset)
}
