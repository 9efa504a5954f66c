package store

import (
	"encoding/json"
	"slices"
	"sync"

	"eclub/internal/domain"
)

// Wishlist has the same shape as Cart without quantities.
type Wishlist struct {
	mu    sync.Mutex
	items []domain.WishlistItem
	hub   hub[[]domain.WishlistItem]
}

func NewWishlist() *Wishlist { return &Wishlist{} }

func (w *Wishlist) Subscribe(fn func(items []domain.WishlistItem)) func() {
	return w.hub.subscribe(fn)
}

func (w *Wishlist) index(productID int64) int {
	return slices.IndexFunc(w.items, func(it domain.WishlistItem) bool { return it.ProductID == productID })
}

func (w *Wishlist) commit() {
	snap := slices.Clone(w.items)
	w.mu.Unlock()
	w.hub.notify(snap)
}

// Add stores item, replacing an existing entry for the same product in place.
func (w *Wishlist) Add(item domain.WishlistItem) bool {
	if item.ProductID <= 0 {
		return false
	}
	w.mu.Lock()
	if i := w.index(item.ProductID); i >= 0 {
		w.items[i] = item
	} else {
		w.items = append(w.items, item)
	}
	w.commit()
	return true
}

func (w *Wishlist) Remove(productID int64) bool {
	w.mu.Lock()
	i := w.index(productID)
	if i < 0 {
		w.mu.Unlock()
		return false
	}
	w.items = slices.Delete(w.items, i, i+1)
	w.commit()
	return true
}

// Toggle adds item when absent and removes it otherwise. It reports whether
// the product is on the list afterwards.
func (w *Wishlist) Toggle(item domain.WishlistItem) bool {
	if item.ProductID <= 0 {
		return false
	}
	w.mu.Lock()
	i := w.index(item.ProductID)
	if i >= 0 {
		w.items = slices.Delete(w.items, i, i+1)
	} else {
		w.items = append(w.items, item)
	}
	w.commit()
	return i < 0
}

func (w *Wishlist) Clear() {
	w.mu.Lock()
	if len(w.items) == 0 {
		w.mu.Unlock()
		return
	}
	w.items = nil
	w.commit()
}

func (w *Wishlist) Contains(productID int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.index(productID) >= 0
}

func (w *Wishlist) Items() []domain.WishlistItem {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.items)
}

func (w *Wishlist) namespace() string { return NSWishlist }

func (w *Wishlist) encode() ([]byte, error) { return json.Marshal(w.Items()) }

func (w *Wishlist) restore(b []byte) error {
	var items []domain.WishlistItem
	if err := json.Unmarshal(b, &items); err != nil {
		return err
	}
	clean := items[:0]
	for _, it := range items {
		if it.ProductID <= 0 || slices.ContainsFunc(clean, func(x domain.WishlistItem) bool { return x.ProductID == it.ProductID }) {
			continue
		}
		clean = append(clean, it)
	}
	w.mu.Lock()
	w.items = clean
	w.mu.Unlock()
	return nil
}

func (w *Wishlist) onChange(fn func()) func() {
	return w.Subscribe(func([]domain.WishlistItem) { fn() })
}
