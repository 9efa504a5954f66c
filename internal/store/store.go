// Package store holds the per-session state containers: cart, wishlist,
// address book and payment draft.
//
// Every exported mutation is a single transition observed by subscribers in
// exactly one notification. Calls that change nothing do not notify.
package store

import (
	"errors"
	"sync"
)

var ErrNotFound = errors.New("store: not found")

// Fixed persistence namespaces.
const (
	NSCart         = "cart"
	NSAddresses    = "addresses"
	NSWishlist     = "wishlist"
	NSPaymentDraft = "payment-draft"
)

type hub[S any] struct {
	mu   sync.Mutex
	next int
	subs map[int]func(S)
}

func (h *hub[S]) subscribe(fn func(S)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs == nil {
		h.subs = map[int]func(S){}
	}
	id := h.next
	h.next++
	h.subs[id] = fn
	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

func (h *hub[S]) notify(s S) {
	h.mu.Lock()
	fns := make([]func(S), 0, len(h.subs))
	for i := 0; i < h.next; i++ {
		if fn, ok := h.subs[i]; ok {
			fns = append(fns, fn)
		}
	}
	h.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}
