package auth

import (
	"context"
)

var storeCtxKey = &contextKey{"session_store"}
var stateCtxKey = &contextKey{"session_state"}

type contextKey struct {
	name string
}

// WithStore sets the Store in the given context
func WithStore(ctx context.Context, store *Store) context.Context {
	return context.WithValue(ctx, storeCtxKey, store)
}

// StoreFromContext finds the Store in the context
func StoreFromContext(ctx context.Context) (*Store, bool) {
	raw, ok := ctx.Value(storeCtxKey).(*Store)
	return raw, ok && raw != nil
}

// WithState sets the State a guard granted access with
func WithState(ctx context.Context, state State) context.Context {
	return context.WithValue(ctx, stateCtxKey, state)
}

// StateFromContext finds the State in the context
func StateFromContext(ctx context.Context) (State, bool) {
	raw, ok := ctx.Value(stateCtxKey).(State)
	return raw, ok
}

// UserFromContext returns the user of the granted State, if any
func UserFromContext(ctx context.Context) (*User, bool) {
	state, ok := StateFromContext(ctx)
	if !ok || state.User == nil {
		return nil, false
	}
	return state.User, true
}
