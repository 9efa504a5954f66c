package store

import (
	"context"
	"fmt"
	"sync"

	applog "eclub/internal/log"
)

// Persister stores serialized container state per session and namespace.
// Load returns nil data when nothing has been saved yet.
type Persister interface {
	Load(ctx context.Context, sessionID, namespace string) ([]byte, error)
	Save(ctx context.Context, sessionID, namespace string, data []byte) error
}

// persistable is implemented by every container in this package.
type persistable interface {
	namespace() string
	encode() ([]byte, error)
	restore([]byte) error
	onChange(func()) func()
}

// Binding ties a container to its persisted copy until Close is called.
type Binding struct {
	cancel func()
	once   sync.Once
	after  []func()

	mu  sync.Mutex
	err error
}

// Err returns the first save error seen since the binding was created.
func (b *Binding) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Close stops persisting and runs the OnClose hooks. It is safe to call twice.
func (b *Binding) Close() {
	b.once.Do(func() {
		b.cancel()
		for _, fn := range b.after {
			fn()
		}
	})
}

// OnClose registers fn to run after the binding is closed.
func (b *Binding) OnClose(fn func()) { b.after = append(b.after, fn) }

// Bind loads the saved state of c for sessionID and then writes c back on
// every change.
func Bind(ctx context.Context, c persistable, p Persister, sessionID string) (*Binding, error) {
	ns := c.namespace()
	data, err := p.Load(ctx, sessionID, ns)
	if err != nil {
		return nil, fmt.Errorf("store: load %s: %w", ns, err)
	}
	if len(data) > 0 {
		if err := c.restore(data); err != nil {
			// corrupt snapshots start over empty instead of locking the session out
			applog.Event("store.restore.fail", err, map[string]any{"namespace": ns})
		}
	}
	b := &Binding{}
	b.cancel = c.onChange(func() {
		data, err := c.encode()
		if err == nil {
			err = p.Save(ctx, sessionID, ns, data)
		}
		if err != nil {
			applog.Event("store.save.fail", err, map[string]any{"namespace": ns})
			b.mu.Lock()
			if b.err == nil {
				b.err = fmt.Errorf("store: save %s: %w", ns, err)
			}
			b.mu.Unlock()
		}
	})
	return b, nil
}

// MemoryPersister keeps snapshots in a map. It backs tests and sessions that
// run without a database.
type MemoryPersister struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{data: map[string][]byte{}}
}

func (m *MemoryPersister) key(sessionID, namespace string) string {
	return sessionID + "\x00" + namespace
}

func (m *MemoryPersister) Load(_ context.Context, sessionID, namespace string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[m.key(sessionID, namespace)]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), b...), nil
}

func (m *MemoryPersister) Save(_ context.Context, sessionID, namespace string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[m.key(sessionID, namespace)] = append([]byte(nil), data...)
	return nil
}
