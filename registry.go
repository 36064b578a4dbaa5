package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// StoreFactory builds the store for a client key. nav evicts the store from
// the registry, so the next request starts from a fresh session.
type StoreFactory func(key string, nav Navigator) *Store

// RegistryOption customizes a Registry
type RegistryOption func(*Registry)

// WithIdleTTL sets after how long an unused store is swept
func WithIdleTTL(ttl time.Duration) RegistryOption {
	return func(r *Registry) {
		if ttl > 0 {
			r.idleTTL = ttl
		}
	}
}

// WithRegistryClock injects a custom clock (useful for tests)
func WithRegistryClock(clock func() time.Time) RegistryOption {
	return func(r *Registry) {
		if clock != nil {
			r.now = clock
		}
	}
}

// WithRegistryLogger overrides the registry logger
func WithRegistryLogger(logger Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

type registryEntry struct {
	store    *Store
	lastSeen time.Time
}

// Registry holds one Store per browser client
type Registry struct {
	mu      sync.Mutex
	stores  map[string]*registryEntry
	factory StoreFactory
	idleTTL time.Duration
	now     func() time.Time
	logger  Logger
}

// NewRegistry creates a registry that builds stores with factory
func NewRegistry(factory StoreFactory, opts ...RegistryOption) *Registry {
	r := &Registry{
		stores:  make(map[string]*registryEntry),
		factory: factory,
		idleTTL: 30 * time.Minute,
		now:     time.Now,
		logger:  defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

// NewClientKey generates a key for a new browser client
func NewClientKey() string {
	return uuid.NewString()
}

// Get returns the store for key, creating it on first use
func (r *Registry) Get(key string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.stores[key]; ok {
		entry.lastSeen = r.now()
		return entry.store
	}

	nav := NavigatorFunc(func(target string) {
		r.logger.Info("hard redirect, dropping client session", "client", key, "target", target)
		r.Remove(key)
	})

	store := r.factory(key, nav)
	r.stores[key] = &registryEntry{store: store, lastSeen: r.now()}
	return store
}

// Lookup returns the store for key without creating it
func (r *Registry) Lookup(key string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.stores[key]
	if !ok {
		return nil, false
	}
	entry.lastSeen = r.now()
	return entry.store, true
}

// Remove drops the store for key
func (r *Registry) Remove(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, key)
}

// Len returns how many client stores are held
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Sweep removes stores idle for longer than the configured TTL. Stores with
// live subscribers are kept.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idleTTL)
	removed := 0
	for key, entry := range r.stores {
		if entry.lastSeen.After(cutoff) || entry.store.SubscriberCount() > 0 {
			continue
		}
		delete(r.stores, key)
		removed++
	}

	if removed > 0 {
		r.logger.Debug("swept idle client sessions", "count", removed)
	}

	return removed
}
