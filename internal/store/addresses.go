package store

import (
	"encoding/json"
	"slices"
	"sync"

	"github.com/google/uuid"

	"eclub/internal/domain"
)

// AddressBook keeps the saved addresses of a signed-in session. At most one
// address is the default at any time. Removing the default does not promote
// another one; callers must pick a new default with SetDefaultAddress.
type AddressBook struct {
	mu    sync.Mutex
	items []domain.Address
	hub   hub[[]domain.Address]
	newID func() string
}

func NewAddressBook() *AddressBook {
	return &AddressBook{newID: uuid.NewString}
}

func (b *AddressBook) Subscribe(fn func(addrs []domain.Address)) func() {
	return b.hub.subscribe(fn)
}

func (b *AddressBook) index(id string) int {
	return slices.IndexFunc(b.items, func(a domain.Address) bool { return a.ID == id })
}

func (b *AddressBook) commit() {
	snap := slices.Clone(b.items)
	b.mu.Unlock()
	b.hub.notify(snap)
}

// makeDefault must be called with b.mu held.
func (b *AddressBook) makeDefault(i int) {
	for j := range b.items {
		b.items[j].IsDefault = j == i
	}
}

// AddAddress stores fields under a fresh id. A default address replaces the
// previous default.
func (b *AddressBook) AddAddress(fields domain.Address) domain.Address {
	fields.ID = b.newID()
	fields.Label = domain.ParseAddressLabel(string(fields.Label))
	b.mu.Lock()
	b.items = append(b.items, fields)
	if fields.IsDefault {
		b.makeDefault(len(b.items) - 1)
	}
	b.commit()
	return fields
}

// UpdateAddress merges patch into the address with the given id.
func (b *AddressBook) UpdateAddress(id string, patch domain.AddressPatch) (domain.Address, bool) {
	b.mu.Lock()
	i := b.index(id)
	if i < 0 {
		b.mu.Unlock()
		return domain.Address{}, false
	}
	a := patch.Apply(b.items[i])
	a.ID = id
	a.Label = domain.ParseAddressLabel(string(a.Label))
	b.items[i] = a
	if a.IsDefault {
		b.makeDefault(i)
	}
	b.commit()
	return a, true
}

func (b *AddressBook) RemoveAddress(id string) bool {
	b.mu.Lock()
	i := b.index(id)
	if i < 0 {
		b.mu.Unlock()
		return false
	}
	b.items = slices.Delete(b.items, i, i+1)
	b.commit()
	return true
}

// SetDefaultAddress flags id as the default and clears every other flag in
// one transition.
func (b *AddressBook) SetDefaultAddress(id string) bool {
	b.mu.Lock()
	i := b.index(id)
	if i < 0 {
		b.mu.Unlock()
		return false
	}
	b.makeDefault(i)
	b.commit()
	return true
}

func (b *AddressBook) Default() (domain.Address, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range b.items {
		if a.IsDefault {
			return a, true
		}
	}
	return domain.Address{}, false
}

func (b *AddressBook) Get(id string) (domain.Address, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.index(id); i >= 0 {
		return b.items[i], true
	}
	return domain.Address{}, false
}

func (b *AddressBook) List() []domain.Address {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.items)
}

func (b *AddressBook) namespace() string { return NSAddresses }

func (b *AddressBook) encode() ([]byte, error) { return json.Marshal(b.List()) }

func (b *AddressBook) restore(data []byte) error {
	var items []domain.Address
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	seenDefault := false
	for i := range items {
		if items[i].IsDefault {
			if seenDefault {
				items[i].IsDefault = false
			}
			seenDefault = true
		}
	}
	b.mu.Lock()
	b.items = items
	b.mu.Unlock()
	return nil
}

func (b *AddressBook) onChange(fn func()) func() {
	return b.Subscribe(func([]domain.Address) { fn() })
}
