package auth_test

import (
	"context"
	"sync"

	auth "github.com/goliatone/go-wallet-auth"
	"github.com/stretchr/testify/mock"
)

// MockIdentityAPI implements auth.IdentityAPI
type MockIdentityAPI struct {
	mock.Mock
}

func (m *MockIdentityAPI) Verify(ctx context.Context) (*auth.User, error) {
	args := m.Called(ctx)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockIdentityAPI) Login(ctx context.Context, creds auth.Credentials) (*auth.User, error) {
	args := m.Called(ctx, creds)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockIdentityAPI) Logout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockIdentityAPI) ClearSession() {
	m.Called()
}

// MockNavigator records hard redirects
type MockNavigator struct {
	mu      sync.Mutex
	targets []string
}

func (m *MockNavigator) HardRedirect(target string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.targets = append(m.targets, target)
}

func (m *MockNavigator) Targets() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.targets...)
}

// stateRecorder collects every state a listener receives
type stateRecorder struct {
	mu     sync.Mutex
	states []auth.State
}

func (r *stateRecorder) listen(state auth.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func (r *stateRecorder) all() []auth.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]auth.State(nil), r.states...)
}

func newUser(id string, role auth.Role) *auth.User {
	return &auth.User{ID: id, Username: "user-" + id, Role: role}
}
