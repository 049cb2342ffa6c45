package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aretw0/promptflow/internal/logging"
	"github.com/aretw0/promptflow/pkg/domain"
	"github.com/aretw0/promptflow/pkg/observability"
	"github.com/aretw0/promptflow/pkg/ports"
	"github.com/aretw0/promptflow/pkg/schema"
	"github.com/aretw0/promptflow/pkg/store"
)

const (
	// DefaultCacheSize is the number of editors kept open.
	DefaultCacheSize = 64
	// DefaultLockTTL bounds how long a distributed lock outlives a crashed holder.
	DefaultLockTTL = 30 * time.Second
)

// Listener receives the changes of every open flow.
type Listener func(name string, ev domain.ChangeEvent)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// editorEntry is an open editor and the document last read from the
// document store for it. stored is nil while the flow is not persisted.
// The stored form can differ from the editor's own export when middlewares
// rewrite documents on save.
type editorEntry struct {
	store  *store.Store
	stored *schema.Document
}

type listenerEntry struct {
	id int
	fn Listener
}

// Manager orchestrates flow access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	docs    ports.DocumentStore
	editors *lru.Cache[string, *editorEntry]

	mu    sync.Mutex            // Global lock for the maps below
	locks map[string]*lockEntry // Map of active locks

	listeners  []listenerEntry
	nextListen int

	cacheSize int
	storeOpts []store.Option
	locker    ports.DistributedLocker // Optional distributed locker
	lockTTL   time.Duration
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithCacheSize sets how many editors stay open. Non-positive values are ignored.
func WithCacheSize(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.cacheSize = n
		}
	}
}

// WithStoreOptions configures every editor the Manager opens.
func WithStoreOptions(opts ...store.Option) Option {
	return func(m *Manager) {
		m.storeOpts = append(m.storeOpts, opts...)
	}
}

// WithMetrics reports the number of open editors.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// NewManager creates a new Manager on top of the given document store.
func NewManager(docs ports.DocumentStore, opts ...Option) *Manager {
	m := &Manager{
		docs:      docs,
		locks:     make(map[string]*lockEntry),
		cacheSize: DefaultCacheSize,
		lockTTL:   DefaultLockTTL,
		logger:    logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}

	// lru.New only fails for a non-positive size, which the options rule out.
	m.editors, _ = lru.NewWithEvict(m.cacheSize, func(name string, _ *editorEntry) {
		m.logger.Debug("Editor evicted", "flow", name)
	})
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(name) after unlocking.
func (m *Manager) acquire(name string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[name]
	if !exists {
		entry = &lockEntry{}
		m.locks[name] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[name]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, name)
	}
}

// WithLock executes a function while holding the lock for the flow.
func (m *Manager) WithLock(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := domain.ValidateFlowName(name); err != nil {
		return err
	}

	entry := m.acquire(name)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(name)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, name, m.lockTTL)
		if err != nil {
			if errors.Is(err, domain.ErrLockNotAcquired) {
				return err
			}
			return fmt.Errorf("%w: %w", domain.ErrLockNotAcquired, err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"flow", name,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// editor returns the open editor of a flow, restoring it from the document
// store when it is not cached. Missing flows start empty. Must be called under
// the flow lock.
func (m *Manager) editor(ctx context.Context, name string) (*editorEntry, error) {
	if entry, ok := m.editors.Get(name); ok {
		if m.locker == nil {
			return entry, nil
		}
		// Another replica may have saved the flow since it was cached.
		doc, err := m.docs.Load(ctx, name)
		switch {
		case errors.Is(err, domain.ErrFlowNotFound):
			return entry, nil
		case err != nil:
			return nil, err
		case entry.stored != nil && sameDocument(doc, *entry.stored):
			return entry, nil
		}
		m.logger.Debug("Editor is stale, reloading", "flow", name)
		if err := entry.store.Restore(ctx, doc); err != nil {
			return nil, err
		}
		entry.stored = &doc
		return entry, nil
	}

	entry := &editorEntry{
		store: store.New(append([]store.Option{store.WithLogger(m.logger.With("flow", name))}, m.storeOpts...)...),
	}
	doc, err := m.docs.Load(ctx, name)
	switch {
	case errors.Is(err, domain.ErrFlowNotFound):
	case err != nil:
		return nil, fmt.Errorf("failed to load flow %q: %w", name, err)
	default:
		if err := entry.store.Restore(ctx, doc); err != nil {
			return nil, fmt.Errorf("failed to restore flow %q: %w", name, err)
		}
		entry.stored = &doc
	}
	entry.store.Subscribe(func(ev domain.ChangeEvent) { m.notify(name, ev) })

	m.editors.Add(name, entry)
	m.metrics.SetOpenFlows(m.editors.Len())
	return entry, nil
}

// save persists the editor's document. With a distributed locker the stored
// form is read back so later staleness checks compare like with like.
func (m *Manager) save(ctx context.Context, name string, entry *editorEntry) error {
	if err := m.docs.Save(ctx, name, entry.store.Document()); err != nil {
		return fmt.Errorf("failed to save flow %q: %w", name, err)
	}
	if m.locker == nil {
		return nil
	}
	doc, err := m.docs.Load(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to reload flow %q: %w", name, err)
	}
	entry.stored = &doc
	return nil
}

func sameDocument(a, b schema.Document) bool {
	return cmp.Equal(a, b, cmpopts.EquateEmpty())
}

// Update runs fn on the editor of a flow and persists the document when fn
// changed it. The document is persisted even if fn fails after a change.
func (m *Manager) Update(ctx context.Context, name string, fn func(*store.Store) error) error {
	return m.WithLock(ctx, name, func(ctx context.Context) error {
		entry, err := m.editor(ctx, name)
		if err != nil {
			return err
		}

		revision := entry.store.Revision()
		fnErr := fn(entry.store)
		if entry.store.Revision() != revision {
			if err := m.save(ctx, name, entry); err != nil {
				return errors.Join(fnErr, err)
			}
		}
		return fnErr
	})
}

// View runs fn on the editor of a flow without persisting anything.
func (m *Manager) View(ctx context.Context, name string, fn func(*store.Store) error) error {
	return m.WithLock(ctx, name, func(ctx context.Context) error {
		entry, err := m.editor(ctx, name)
		if err != nil {
			return err
		}
		return fn(entry.store)
	})
}

// Open returns a snapshot of a flow, opening its editor if needed.
func (m *Manager) Open(ctx context.Context, name string) (store.Snapshot, error) {
	var snap store.Snapshot
	err := m.View(ctx, name, func(s *store.Store) error {
		snap = s.Snapshot()
		return nil
	})
	return snap, err
}

// Exists reports whether a flow is persisted.
func (m *Manager) Exists(ctx context.Context, name string) (bool, error) {
	_, err := m.docs.Load(ctx, name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrFlowNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Delete removes a flow from the document store and closes its editor.
func (m *Manager) Delete(ctx context.Context, name string) error {
	return m.WithLock(ctx, name, func(ctx context.Context) error {
		if err := m.docs.Delete(ctx, name); err != nil {
			return err
		}
		m.editors.Remove(name)
		m.metrics.SetOpenFlows(m.editors.Len())
		return nil
	})
}

// List delegates to the document store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.docs.List(ctx)
}

// Store returns the underlying document store.
func (m *Manager) Store() ports.DocumentStore {
	return m.docs
}

// Watch registers fn for the changes of every flow. Listeners run under the
// flow lock and must not block.
func (m *Manager) Watch(fn Listener) (unwatch func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextListen
	m.nextListen++
	m.listeners = append(m.listeners, listenerEntry{id: id, fn: fn})

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, l := range m.listeners {
			if l.id == id {
				m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

func (m *Manager) notify(name string, ev domain.ChangeEvent) {
	m.mu.Lock()
	listeners := m.listeners
	m.mu.Unlock()

	for _, l := range listeners {
		l.fn(name, ev)
	}
}
