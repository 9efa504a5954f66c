package services

import (
	"context"

	"eclub/internal/domain"
	"eclub/internal/store"
)

type AddressService struct {
	State *SessionState
}

func NewAddressService(state *SessionState) *AddressService { return &AddressService{State: state} }

type AddressBookView struct {
	Addresses []domain.Address `json:"addresses"`
	DefaultID string           `json:"defaultId"`
}

func bookView(b *store.AddressBook) AddressBookView {
	v := AddressBookView{Addresses: b.List()}
	if d, ok := b.Default(); ok {
		v.DefaultID = d.ID
	}
	return v
}

func (s *AddressService) mutate(ctx context.Context, userID string, fn func(b *store.AddressBook) error) (AddressBookView, error) {
	book, bind, err := s.State.Addresses(ctx, userID)
	if err != nil {
		return AddressBookView{}, err
	}
	defer bind.Close()
	if err := fn(book); err != nil {
		return AddressBookView{}, err
	}
	if err := bind.Err(); err != nil {
		return AddressBookView{}, err
	}
	return bookView(book), nil
}

func (s *AddressService) List(ctx context.Context, userID string) (AddressBookView, error) {
	return s.mutate(ctx, userID, func(*store.AddressBook) error { return nil })
}

func (s *AddressService) Add(ctx context.Context, userID string, a domain.Address) (domain.Address, AddressBookView, error) {
	var added domain.Address
	v, err := s.mutate(ctx, userID, func(b *store.AddressBook) error {
		added = b.AddAddress(a)
		return nil
	})
	return added, v, err
}

func (s *AddressService) Update(ctx context.Context, userID, id string, patch domain.AddressPatch) (AddressBookView, error) {
	return s.mutate(ctx, userID, func(b *store.AddressBook) error {
		if _, ok := b.UpdateAddress(id, patch); !ok {
			return store.ErrNotFound
		}
		return nil
	})
}

// Remove deletes an address. Removing the default leaves the book without one.
func (s *AddressService) Remove(ctx context.Context, userID, id string) (AddressBookView, error) {
	return s.mutate(ctx, userID, func(b *store.AddressBook) error {
		if !b.RemoveAddress(id) {
			return store.ErrNotFound
		}
		return nil
	})
}

func (s *AddressService) SetDefault(ctx context.Context, userID, id string) (AddressBookView, error) {
	return s.mutate(ctx, userID, func(b *store.AddressBook) error {
		if !b.SetDefaultAddress(id) {
			return store.ErrNotFound
		}
		return nil
	})
}
