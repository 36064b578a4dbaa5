// Package redishint keeps role hints in redis so every instance behind a
// load balancer picks the same post logout redirect.
package redishint

import (
	"context"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	auth "github.com/goliatone/go-wallet-auth"
	"github.com/redis/go-redis/v9"
)

const (
	defaultPrefix = "wallet:role_hint:"
	defaultTTL    = 30 * 24 * time.Hour
)

// Option customizes the Store
type Option func(*Store)

// WithPrefix sets the key prefix
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithTTL sets how long a hint lives without being refreshed
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// Store reads and writes role hints in redis
type Store struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// New creates a redis backed hint store
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		redis:  client,
		prefix: defaultPrefix,
		ttl:    defaultTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Store) key(clientKey string) string {
	return s.prefix + clientKey
}

// Get returns the stored role for clientKey, RoleUnknown when missing
func (s *Store) Get(ctx context.Context, clientKey string) (auth.Role, error) {
	raw, err := s.redis.Get(ctx, s.key(clientKey)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return auth.RoleUnknown, nil
		}
		return auth.RoleUnknown, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read role hint")
	}
	return auth.ParseRole(raw), nil
}

// Set stores role for clientKey and refreshes its TTL
func (s *Store) Set(ctx context.Context, clientKey string, role auth.Role) error {
	if !role.IsValid() {
		return s.Clear(ctx, clientKey)
	}
	if err := s.redis.Set(ctx, s.key(clientKey), string(role), s.ttl).Err(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to save role hint")
	}
	return nil
}

// Clear removes the hint for clientKey
func (s *Store) Clear(ctx context.Context, clientKey string) error {
	if err := s.redis.Del(ctx, s.key(clientKey)).Err(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to clear role hint")
	}
	return nil
}

// ForClient binds the store to one client key
func (s *Store) ForClient(clientKey string) auth.HintStore {
	return clientHints{store: s, key: clientKey}
}

type clientHints struct {
	store *Store
	key   string
}

func (c clientHints) GetRole(ctx context.Context) (auth.Role, error) {
	return c.store.Get(ctx, c.key)
}

func (c clientHints) SetRole(ctx context.Context, role auth.Role) error {
	return c.store.Set(ctx, c.key, role)
}

func (c clientHints) ClearRole(ctx context.Context) error {
	return c.store.Clear(ctx, c.key)
}
