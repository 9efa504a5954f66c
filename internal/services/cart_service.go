package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"eclub/internal/domain"
	"eclub/internal/repos"
	"eclub/internal/store"
)

type CartService struct {
	State    *SessionState
	Prods    *repos.ProductRepo
	Currency currency.Unit
}

func NewCartService(state *SessionState, prods *repos.ProductRepo, cur currency.Unit) *CartService {
	return &CartService{State: state, Prods: prods, Currency: cur}
}

type CartLine struct {
	domain.CartItem
	Subtotal decimal.Decimal `json:"subtotal"`
}

type CartView struct {
	Items      []CartLine   `json:"items"`
	TotalItems int          `json:"totalItems"`
	TotalPrice domain.Money `json:"totalPrice"`
}

func (s *CartService) view(c *store.Cart) CartView {
	items := c.Items()
	lines := make([]CartLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, CartLine{CartItem: it, Subtotal: it.Subtotal()})
	}
	return CartView{
		Items:      lines,
		TotalItems: c.TotalItems(),
		TotalPrice: domain.Money{Amount: c.TotalPrice(), Currency: s.Currency},
	}
}

func lookupProduct(ctx context.Context, prods *repos.ProductRepo, productID int64) (domain.Product, error) {
	p, err := prods.Get(ctx, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("%w: %d", ErrProductNotFound, productID)
	}
	return p, err
}

// mutate runs fn against the session cart and reports persistence failures.
func (s *CartService) mutate(ctx context.Context, sessionID string, fn func(c *store.Cart) error) (CartView, error) {
	c, b, err := s.State.Cart(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	defer b.Close()
	if err := fn(c); err != nil {
		return CartView{}, err
	}
	if err := b.Err(); err != nil {
		return CartView{}, err
	}
	return s.view(c), nil
}

// Add puts qty units of a catalog product into the cart. Name, price and
// image always come from the catalog, never from the client.
func (s *CartService) Add(ctx context.Context, sessionID string, productID int64, qty int) (CartView, error) {
	p, err := lookupProduct(ctx, s.Prods, productID)
	if err != nil {
		return CartView{}, err
	}
	return s.mutate(ctx, sessionID, func(c *store.Cart) error {
		c.AddItem(domain.CartItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.EffectivePrice(),
			Image:     p.Image,
			Quantity:  qty,
		})
		return nil
	})
}

func (s *CartService) UpdateQuantity(ctx context.Context, sessionID string, productID int64, qty int) (CartView, error) {
	return s.mutate(ctx, sessionID, func(c *store.Cart) error {
		if !c.UpdateQuantity(productID, qty) {
			return store.ErrNotFound
		}
		return nil
	})
}

// Remove is a no-op for products that are not in the cart.
func (s *CartService) Remove(ctx context.Context, sessionID string, productID int64) (CartView, error) {
	return s.mutate(ctx, sessionID, func(c *store.Cart) error {
		c.RemoveItem(productID)
		return nil
	})
}

func (s *CartService) Clear(ctx context.Context, sessionID string) (CartView, error) {
	return s.mutate(ctx, sessionID, func(c *store.Cart) error {
		c.Clear()
		return nil
	})
}

func (s *CartService) View(ctx context.Context, sessionID string) (CartView, error) {
	return s.mutate(ctx, sessionID, func(*store.Cart) error { return nil })
}
