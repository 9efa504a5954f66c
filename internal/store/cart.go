package store

import (
	"encoding/json"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"eclub/internal/domain"
)

// Cart is the line-item list of one session. Lines are unique by product id
// and always carry a quantity of at least 1.
type Cart struct {
	mu    sync.Mutex
	items []domain.CartItem
	hub   hub[[]domain.CartItem]
}

func NewCart() *Cart { return &Cart{} }

// Subscribe registers fn for every state change and returns its cancel func.
func (c *Cart) Subscribe(fn func(items []domain.CartItem)) func() {
	return c.hub.subscribe(fn)
}

func (c *Cart) index(productID int64) int {
	return slices.IndexFunc(c.items, func(it domain.CartItem) bool { return it.ProductID == productID })
}

func (c *Cart) commit() {
	snap := slices.Clone(c.items)
	c.mu.Unlock()
	c.hub.notify(snap)
}

// AddItem merges item into the cart. An existing line grows by item.Quantity
// (1 when unset); a new line starts at that quantity. Items without a product
// id are ignored.
func (c *Cart) AddItem(item domain.CartItem) (domain.CartItem, bool) {
	if item.ProductID <= 0 {
		return domain.CartItem{}, false
	}
	qty := item.Quantity
	if qty < 1 {
		qty = 1
	}
	c.mu.Lock()
	var line domain.CartItem
	if i := c.index(item.ProductID); i >= 0 {
		c.items[i].Quantity += qty
		line = c.items[i]
	} else {
		item.Quantity = qty
		c.items = append(c.items, item)
		line = item
	}
	c.commit()
	return line, true
}

// UpdateQuantity sets the quantity of a line. Values below 1 are floored to 1;
// lines are only removed through RemoveItem.
func (c *Cart) UpdateQuantity(productID int64, quantity int) bool {
	if quantity < 1 {
		quantity = 1
	}
	c.mu.Lock()
	i := c.index(productID)
	if i < 0 {
		c.mu.Unlock()
		return false
	}
	if c.items[i].Quantity == quantity {
		c.mu.Unlock()
		return true
	}
	c.items[i].Quantity = quantity
	c.commit()
	return true
}

func (c *Cart) RemoveItem(productID int64) bool {
	c.mu.Lock()
	i := c.index(productID)
	if i < 0 {
		c.mu.Unlock()
		return false
	}
	c.items = slices.Delete(c.items, i, i+1)
	c.commit()
	return true
}

func (c *Cart) Clear() {
	c.mu.Lock()
	if len(c.items) == 0 {
		c.mu.Unlock()
		return
	}
	c.items = nil
	c.commit()
}

func (c *Cart) Items() []domain.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

func (c *Cart) Item(productID int64) (domain.CartItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(productID); i >= 0 {
		return c.items[i], true
	}
	return domain.CartItem{}, false
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// TotalItems is the sum of all line quantities.
func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// TotalPrice is the sum of price x quantity over all lines.
func (c *Cart) TotalPrice() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func (c *Cart) namespace() string { return NSCart }

func (c *Cart) encode() ([]byte, error) {
	return json.Marshal(c.Items())
}

func (c *Cart) restore(b []byte) error {
	var items []domain.CartItem
	if err := json.Unmarshal(b, &items); err != nil {
		return err
	}
	// drop anything a previous version may have stored that breaks the invariants
	clean := items[:0]
	for _, it := range items {
		if it.ProductID <= 0 || slices.ContainsFunc(clean, func(x domain.CartItem) bool { return x.ProductID == it.ProductID }) {
			continue
		}
		if it.Quantity < 1 {
			it.Quantity = 1
		}
		clean = append(clean, it)
	}
	c.mu.Lock()
	c.items = clean
	c.mu.Unlock()
	return nil
}

func (c *Cart) onChange(fn func()) func() {
	return c.Subscribe(func([]domain.CartItem) { fn() })
}
