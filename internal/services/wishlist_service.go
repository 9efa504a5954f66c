package services

import (
	"context"

	"eclub/internal/domain"
	"eclub/internal/repos"
	"eclub/internal/store"
)

type WishlistService struct {
	State *SessionState
	Prods *repos.ProductRepo
}

func NewWishlistService(state *SessionState, prods *repos.ProductRepo) *WishlistService {
	return &WishlistService{State: state, Prods: prods}
}

func (s *WishlistService) mutate(ctx context.Context, sessionID string, fn func(w *store.Wishlist) error) ([]domain.WishlistItem, error) {
	w, b, err := s.State.Wishlist(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer b.Close()
	if err := fn(w); err != nil {
		return nil, err
	}
	if err := b.Err(); err != nil {
		return nil, err
	}
	return w.Items(), nil
}

func (s *WishlistService) Save(ctx context.Context, sessionID string, productID int64) ([]domain.WishlistItem, error) {
	p, err := lookupProduct(ctx, s.Prods, productID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, sessionID, func(w *store.Wishlist) error {
		w.Add(wishlistItem(p))
		return nil
	})
}

func wishlistItem(p domain.Product) domain.WishlistItem {
	return domain.WishlistItem{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		SalePrice: p.SalePrice,
		Image:     p.Image,
		Slug:      p.Slug,
	}
}

func (s *WishlistService) Unsave(ctx context.Context, sessionID string, productID int64) ([]domain.WishlistItem, error) {
	return s.mutate(ctx, sessionID, func(w *store.Wishlist) error {
		w.Remove(productID)
		return nil
	})
}

// Toggle saves an unsaved product or unsaves a saved one and reports whether
// it is on the list afterwards. Only saving needs the catalog.
func (s *WishlistService) Toggle(ctx context.Context, sessionID string, productID int64) (bool, error) {
	var saved bool
	_, err := s.mutate(ctx, sessionID, func(w *store.Wishlist) error {
		item := domain.WishlistItem{ProductID: productID}
		if !w.Contains(productID) {
			p, err := lookupProduct(ctx, s.Prods, productID)
			if err != nil {
				return err
			}
			item = wishlistItem(p)
		}
		saved = w.Toggle(item)
		return nil
	})
	return saved, err
}

func (s *WishlistService) Clear(ctx context.Context, sessionID string) ([]domain.WishlistItem, error) {
	return s.mutate(ctx, sessionID, func(w *store.Wishlist) error {
		w.Clear()
		return nil
	})
}

func (s *WishlistService) List(ctx context.Context, sessionID string) ([]domain.WishlistItem, error) {
	return s.mutate(ctx, sessionID, func(*store.Wishlist) error { return nil })
}
