package auth

import (
	"context"
	"slices"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const verifyFlightKey = "verify"

// Listener receives the post mutation state
type Listener func(State)

// StoreOption customizes store construction
type StoreOption func(*Store)

// WithLogger overrides the logger used by the store
func WithLogger(logger Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHintStore sets where the last known role is persisted
func WithHintStore(hints HintStore) StoreOption {
	return func(s *Store) {
		if hints != nil {
			s.hints = hints
		}
	}
}

// WithNavigator sets the navigator used for hard redirects
func WithNavigator(nav Navigator) StoreOption {
	return func(s *Store) {
		if nav != nil {
			s.navigator = nav
		}
	}
}

// WithRoutes overrides the entry routes used for redirects
func WithRoutes(routes Routes) StoreOption {
	return func(s *Store) {
		s.routes = routes.WithDefaults()
	}
}

type subscriber struct {
	id       string
	listener Listener
}

// Store is the single source of truth for who is logged in for one client.
// Verification happens at most once, concurrent callers share the in-flight
// request, and every mutation is fanned out to all subscribers before the
// mutating call returns.
type Store struct {
	api       IdentityAPI
	hints     HintStore
	navigator Navigator
	routes    Routes
	logger    Logger

	flight singleflight.Group

	// emitMu serializes mutation plus notification
	emitMu sync.Mutex

	mu          sync.RWMutex
	state       State
	initialized bool
	version     uint64
	subscribers []subscriber
}

// NewStore returns a store in the unknown (loading) state
func NewStore(api IdentityAPI, opts ...StoreOption) *Store {
	s := &Store{
		api:    api,
		hints:  NewMemoryHintStore(),
		routes: DefaultRoutes(),
		logger: defLogger{},
		state:  unknownState(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if s.navigator == nil {
		s.navigator = NavigatorFunc(func(target string) {
			s.logger.Warn("hard redirect requested without navigator", "target", target)
		})
	}

	return s
}

// Routes returns the entry routes configured for the store
func (s *Store) Routes() Routes {
	return s.routes
}

// API returns the identity service the store talks to
func (s *Store) API() IdentityAPI {
	return s.api
}

// GetState returns the current snapshot
func (s *Store) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Initialized reports whether a verification attempt or login has completed
func (s *Store) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// Subscription identifies a registered listener
type Subscription struct {
	id    string
	store *Store
}

// ID returns the subscription identifier
func (sub Subscription) ID() string {
	return sub.id
}

// Cancel removes the listener from the store
func (sub Subscription) Cancel() {
	if sub.store == nil {
		return
	}
	sub.store.Unsubscribe(sub.id)
}

// Subscribe registers listener to be called with the new state on every
// mutation. Listeners run synchronously and must not mutate the store.
func (s *Store) Subscribe(listener Listener) Subscription {
	if listener == nil {
		return Subscription{}
	}

	id := uuid.NewString()

	s.mu.Lock()
	s.subscribers = append(s.subscribers, subscriber{id: id, listener: listener})
	s.mu.Unlock()

	return Subscription{id: id, store: s}
}

// Unsubscribe removes the listener registered under id
func (s *Store) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = slices.DeleteFunc(s.subscribers, func(sub subscriber) bool {
		return sub.id == id
	})
}

// SubscriberCount returns the number of registered listeners
func (s *Store) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}

// EnsureInitialized verifies the identity with the remote service if no
// attempt was made before. Concurrent callers share a single request. The
// request is detached from ctx: a caller whose context ends stops waiting
// but the request still completes and updates the store.
func (s *Store) EnsureInitialized(ctx context.Context) State {
	if s.Initialized() {
		return s.GetState()
	}

	ch := s.flight.DoChan(verifyFlightKey, func() (any, error) {
		if s.Initialized() {
			return nil, nil
		}
		s.verify(context.WithoutCancel(ctx))
		return nil, nil
	})

	select {
	case <-ch:
	case <-ctx.Done():
		s.logger.Debug("stopped waiting for identity verification", "error", ctx.Err())
	}

	return s.GetState()
}

func (s *Store) verify(ctx context.Context) {
	s.mu.RLock()
	version := s.version
	s.mu.RUnlock()

	user, err := s.api.Verify(ctx)

	switch {
	case err != nil && IsSupersededError(err):
		// stays loading until the client reloads
		s.mu.Lock()
		s.initialized = true
		s.mu.Unlock()
		s.logger.Warn("session superseded by another device", "error", err)
		return
	case err != nil:
		s.logger.Info("identity verification failed", "error", err)
		s.applyIfCurrent(version, anonymousState())
		return
	case user == nil:
		s.logger.Info("identity verification returned no identity")
		s.applyIfCurrent(version, anonymousState())
		return
	}

	if s.applyIfCurrent(version, authenticatedState(user)) {
		s.recordRole(ctx, user.Role)
	}
}

// Login overwrites the session with user. A nil user is treated as a fatal
// client error and triggers a hard redirect to the login entry point
// without touching the store.
func (s *Store) Login(ctx context.Context, user *User) {
	if user == nil {
		s.logger.Error("login called without identity, redirecting", "target", s.routes.Login)
		s.navigator.HardRedirect(s.routes.Login)
		return
	}

	s.apply(authenticatedState(user))
	s.recordRole(ctx, user.Role)
}

// LoginWithCredentials authenticates against the remote service and logs
// the returned identity in. On failure the store is left unchanged.
func (s *Store) LoginWithCredentials(ctx context.Context, creds Credentials) (*User, error) {
	if err := creds.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid login payload").
			WithCode(goerrors.CodeBadRequest)
	}

	user, err := s.api.Login(ctx, creds)
	if err != nil {
		s.logger.Info("login rejected", "role", creds.Role, "error", err)
		return nil, err
	}

	if user == nil {
		return nil, ErrMissingIdentity
	}

	s.Login(ctx, user)
	return user, nil
}

// Logout notifies the remote service (best effort), then clears the local
// session regardless of the outcome. It returns the entry route the client
// should be sent to, picked from the last known role.
func (s *Store) Logout(ctx context.Context) string {
	target := s.logoutTarget(ctx)

	if err := s.api.Logout(ctx); err != nil {
		s.logger.Warn("remote logout failed, clearing local session", "error", err)
	}

	s.api.ClearSession()

	if err := s.hints.ClearRole(ctx); err != nil {
		s.logger.Warn("unable to clear role hint", "error", err)
	}

	s.apply(anonymousState())

	return target
}

func (s *Store) logoutTarget(ctx context.Context) string {
	role, err := s.hints.GetRole(ctx)
	if err != nil {
		s.logger.Debug("unable to read role hint", "error", err)
	}

	if role == RoleUnknown {
		role = s.GetState().Role()
	}

	return role.EntryRoute(s.routes)
}

func (s *Store) recordRole(ctx context.Context, role Role) {
	if err := s.hints.SetRole(ctx, role); err != nil {
		s.logger.Warn("unable to persist role hint", "role", role, "error", err)
	}
}

func (s *Store) apply(next State) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	s.commit(next)
	subs := slices.Clone(s.subscribers)
	s.mu.Unlock()

	s.notify(subs, next)
}

// applyIfCurrent applies next only if no other mutation happened since
// version was read.
func (s *Store) applyIfCurrent(version uint64, next State) bool {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.version != version {
		s.initialized = true
		s.mu.Unlock()
		s.logger.Debug("discarding stale verification result")
		return false
	}
	s.commit(next)
	subs := slices.Clone(s.subscribers)
	s.mu.Unlock()

	s.notify(subs, next)
	return true
}

// commit must be called with mu held
func (s *Store) commit(next State) {
	s.state = next
	s.initialized = true
	s.version++
}

func (s *Store) notify(subs []subscriber, state State) {
	for _, sub := range subs {
		sub.listener(state)
	}
}
