package services

import (
	"context"
	"sync"

	"eclub/internal/repos"
	"eclub/internal/store"
)

// SessionState opens the state containers of one request. Each container is
// loaded from the persister and written back on every change until the
// returned binding is closed. Opening a container holds a lock on its
// (owner, namespace) pair until then, so concurrent requests of one session
// apply their changes one after another.
type SessionState struct {
	Persister store.Persister

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewSessionState(p store.Persister) *SessionState { return &SessionState{Persister: p} }

func (s *SessionState) lock(owner, ns string) func() {
	key := ns + "|" + owner
	s.mu.Lock()
	if s.locks == nil {
		s.locks = map[string]*sync.Mutex{}
	}
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (s *SessionState) open(owner, ns string, bind func() (*store.Binding, error)) (*store.Binding, error) {
	unlock := s.lock(owner, ns)
	b, err := bind()
	if err != nil {
		unlock()
		return nil, err
	}
	b.OnClose(unlock)
	return b, nil
}

func (s *SessionState) Cart(ctx context.Context, sessionID string) (*store.Cart, *store.Binding, error) {
	c := store.NewCart()
	b, err := s.open(sessionID, store.NSCart, func() (*store.Binding, error) {
		return store.Bind(ctx, c, s.Persister, sessionID)
	})
	return c, b, err
}

func (s *SessionState) Wishlist(ctx context.Context, sessionID string) (*store.Wishlist, *store.Binding, error) {
	w := store.NewWishlist()
	b, err := s.open(sessionID, store.NSWishlist, func() (*store.Binding, error) {
		return store.Bind(ctx, w, s.Persister, sessionID)
	})
	return w, b, err
}

// Addresses are keyed by user so they follow the account across sessions.
func (s *SessionState) Addresses(ctx context.Context, userID string) (*store.AddressBook, *store.Binding, error) {
	a := store.NewAddressBook()
	owner := repos.UserStateKey(userID)
	b, err := s.open(owner, store.NSAddresses, func() (*store.Binding, error) {
		return store.Bind(ctx, a, s.Persister, owner)
	})
	return a, b, err
}

func (s *SessionState) PaymentDraft(ctx context.Context, sessionID string) (*store.PaymentDraft, *store.Binding, error) {
	d := store.NewPaymentDraft()
	b, err := s.open(sessionID, store.NSPaymentDraft, func() (*store.Binding, error) {
		return store.Bind(ctx, d, s.Persister, sessionID)
	})
	return d, b, err
}
