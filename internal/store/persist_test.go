package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eclub/internal/domain"
	"eclub/internal/store"
)

func TestBind_SurvivesReload(t *testing.T) {
	ctx := context.Background()
	p := store.NewMemoryPersister()

	cart := store.NewCart()
	bind, err := store.Bind(ctx, cart, p, "sid-1")
	require.NoError(t, err)
	item := randomItem(11)
	cart.AddItem(item)
	cart.AddItem(item)
	require.NoError(t, bind.Err())
	bind.Close()

	reloaded := store.NewCart()
	_, err = store.Bind(ctx, reloaded, p, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.TotalItems())
	got, ok := reloaded.Item(11)
	require.True(t, ok)
	assert.True(t, item.Price.Equal(got.Price))

	other := store.NewCart()
	_, err = store.Bind(ctx, other, p, "sid-2")
	require.NoError(t, err)
	assert.Zero(t, other.Len(), "sessions must not share state")
}

func TestBind_AddressesAndDraft(t *testing.T) {
	ctx := context.Background()
	p := store.NewMemoryPersister()

	book := store.NewAddressBook()
	_, err := store.Bind(ctx, book, p, "sid")
	require.NoError(t, err)
	def := book.AddAddress(randomAddress(true))

	draft := store.NewPaymentDraft()
	_, err = store.Bind(ctx, draft, p, "sid")
	require.NoError(t, err)
	draft.Save(domain.CardDetails{CardNumber: "4111111111111111", CardHolderName: "J Doe", ExpiryMonth: "5", ExpiryYear: "30", CVV: "999"})

	raw, err := p.Load(ctx, "sid", store.NSPaymentDraft)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "4111111111111111")
	assert.NotContains(t, string(raw), "999")

	book2 := store.NewAddressBook()
	_, err = store.Bind(ctx, book2, p, "sid")
	require.NoError(t, err)
	got, ok := book2.Default()
	require.True(t, ok)
	assert.Equal(t, def.ID, got.ID)

	draft2 := store.NewPaymentDraft()
	_, err = store.Bind(ctx, draft2, p, "sid")
	require.NoError(t, err)
	d, ok := draft2.Get()
	require.True(t, ok)
	assert.Equal(t, "1111", d.Last4)
	assert.Equal(t, domain.CardVisa, d.Brand)
	assert.Equal(t, "05", d.ExpiryMonth)

	draft2.Clear()
	draft3 := store.NewPaymentDraft()
	_, err = store.Bind(ctx, draft3, p, "sid")
	require.NoError(t, err)
	_, ok = draft3.Get()
	assert.False(t, ok)
}

func TestBind_CorruptSnapshotStartsEmpty(t *testing.T) {
	ctx := context.Background()
	p := store.NewMemoryPersister()
	require.NoError(t, p.Save(ctx, "sid", store.NSWishlist, []byte("{not json")))

	w := store.NewWishlist()
	_, err := store.Bind(ctx, w, p, "sid")
	require.NoError(t, err)
	assert.Empty(t, w.Items())
}

type failingPersister struct{}

func (f *failingPersister) Load(context.Context, string, string) ([]byte, error) { return nil, nil }
func (f *failingPersister) Save(context.Context, string, string, []byte) error {
	return errors.New("disk full")
}

func TestBind_SaveErrorIsReported(t *testing.T) {
	c := store.NewCart()
	b, err := store.Bind(context.Background(), c, &failingPersister{}, "sid")
	require.NoError(t, err)
	c.AddItem(randomItem(1))
	require.Error(t, b.Err())
	assert.Contains(t, b.Err().Error(), "disk full")
}

func TestBinding_CloseRunsHooksOnce(t *testing.T) {
	c := store.NewCart()
	b, err := store.Bind(context.Background(), c, store.NewMemoryPersister(), "sid")
	require.NoError(t, err)

	calls := 0
	b.OnClose(func() { calls++ })
	b.Close()
	b.Close()
	assert.Equal(t, 1, calls)
}
