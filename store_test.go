package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	auth "github.com/goliatone/go-wallet-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestStore(api auth.IdentityAPI, opts ...auth.StoreOption) *auth.Store {
	opts = append([]auth.StoreOption{auth.WithLogger(auth.NopLogger{})}, opts...)
	return auth.NewStore(api, opts...)
}

func TestStore_InitialStateIsLoading(t *testing.T) {
	store := newTestStore(new(MockIdentityAPI))

	state := store.GetState()
	assert.Nil(t, state.User)
	assert.False(t, state.IsAuthenticated)
	assert.True(t, state.Loading)
	assert.False(t, store.Initialized())
}

func TestStore_EnsureInitialized_SingleFlight(t *testing.T) {
	api := new(MockIdentityAPI)
	release := make(chan struct{})
	user := newUser("u1", auth.RoleUser)

	api.On("Verify", mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(user, nil).
		Once()

	store := newTestStore(api)

	const callers = 20
	var wg sync.WaitGroup
	results := make([]auth.State, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = store.EnsureInitialized(context.Background())
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	api.AssertNumberOfCalls(t, "Verify", 1)
	for _, state := range results {
		assert.True(t, state.IsAuthenticated)
		assert.False(t, state.Loading)
		assert.Equal(t, user, state.User)
	}

	// later calls reuse the outcome
	store.EnsureInitialized(context.Background())
	api.AssertNumberOfCalls(t, "Verify", 1)
}

func TestStore_EnsureInitialized_GenericFailureFailsClosed(t *testing.T) {
	api := new(MockIdentityAPI)
	api.On("Verify", mock.Anything).Return(nil, errors.New("connection refused")).Once()

	store := newTestStore(api)
	state := store.EnsureInitialized(context.Background())

	assert.Nil(t, state.User)
	assert.False(t, state.IsAuthenticated)
	assert.False(t, state.Loading)
	assert.True(t, store.Initialized())
}

func TestStore_EnsureInitialized_MissingIdentityFailsClosed(t *testing.T) {
	api := new(MockIdentityAPI)
	api.On("Verify", mock.Anything).Return(nil, nil).Once()

	store := newTestStore(api)
	state := store.EnsureInitialized(context.Background())

	assert.Equal(t, auth.State{}, state)
}

func TestStore_EnsureInitialized_SupersededStaysLoading(t *testing.T) {
	api := new(MockIdentityAPI)
	api.On("Verify", mock.Anything).Return(nil, auth.ErrSessionSuperseded).Once()

	recorder := &stateRecorder{}
	store := newTestStore(api)
	store.Subscribe(recorder.listen)

	state := store.EnsureInitialized(context.Background())
	assert.Nil(t, state.User)
	assert.False(t, state.IsAuthenticated)
	assert.True(t, state.Loading)

	// no retry, no notification
	state = store.EnsureInitialized(context.Background())
	assert.True(t, state.Loading)
	api.AssertNumberOfCalls(t, "Verify", 1)
	assert.Empty(t, recorder.all())
}

func TestStore_EnsureInitialized_SupersededPlainMessage(t *testing.T) {
	api := new(MockIdentityAPI)
	api.On("Verify", mock.Anything).
		Return(nil, errors.New("You have been Logged in from another device")).
		Once()

	store := newTestStore(api)
	state := store.EnsureInitialized(context.Background())

	assert.True(t, state.Loading)
	assert.False(t, state.IsAuthenticated)
}

func TestStore_EnsureInitialized_CallerCancellation(t *testing.T) {
	api := new(MockIdentityAPI)
	release := make(chan struct{})
	user := newUser("u1", auth.RolePeer)

	api.On("Verify", mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(user, nil).
		Once()

	store := newTestStore(api)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	state := store.EnsureInitialized(ctx)
	assert.True(t, state.Loading)

	close(release)

	assert.Eventually(t, func() bool {
		return store.GetState().IsAuthenticated
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, user, store.GetState().User)
}

func TestStore_LoginDuringVerificationWins(t *testing.T) {
	api := new(MockIdentityAPI)
	started := make(chan struct{})
	release := make(chan struct{})
	stale := newUser("stale", auth.RoleUser)
	fresh := newUser("fresh", auth.RoleSA)

	api.On("Verify", mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(stale, nil).
		Once()

	store := newTestStore(api)

	done := make(chan auth.State)
	go func() {
		done <- store.EnsureInitialized(context.Background())
	}()

	<-started
	store.Login(context.Background(), fresh)
	close(release)

	state := <-done
	assert.Equal(t, fresh, state.User)
	assert.Equal(t, fresh, store.GetState().User)
}

func TestStore_Login_IsSynchronous(t *testing.T) {
	store := newTestStore(new(MockIdentityAPI))
	recorder := &stateRecorder{}
	store.Subscribe(recorder.listen)

	user := newUser("u1", auth.RoleUser)
	store.Login(context.Background(), user)

	state := store.GetState()
	assert.True(t, state.IsAuthenticated)
	assert.False(t, state.Loading)
	assert.Equal(t, user, state.User)
	assert.True(t, store.Initialized())

	states := recorder.all()
	require.Len(t, states, 1)
	assert.Equal(t, state, states[0])
}

func TestStore_Login_SkipsLaterVerification(t *testing.T) {
	api := new(MockIdentityAPI)
	store := newTestStore(api)

	store.Login(context.Background(), newUser("u1", auth.RoleUser))
	state := store.EnsureInitialized(context.Background())

	assert.True(t, state.IsAuthenticated)
	api.AssertNotCalled(t, "Verify", mock.Anything)
}

func TestStore_Login_NilUserHardRedirects(t *testing.T) {
	nav := &MockNavigator{}
	store := newTestStore(new(MockIdentityAPI), auth.WithNavigator(nav))
	recorder := &stateRecorder{}
	store.Subscribe(recorder.listen)

	store.Login(context.Background(), nil)

	assert.Equal(t, []string{"/login"}, nav.Targets())
	assert.True(t, store.GetState().Loading)
	assert.False(t, store.Initialized())
	assert.Empty(t, recorder.all())
}

func TestStore_Login_RecordsRoleHint(t *testing.T) {
	hints := auth.NewMemoryHintStore()
	store := newTestStore(new(MockIdentityAPI), auth.WithHintStore(hints))

	store.Login(context.Background(), newUser("u1", auth.RolePeer))

	role, err := hints.GetRole(context.Background())
	require.NoError(t, err)
	assert.Equal(t, auth.RolePeer, role)
}

func TestStore_LoginWithCredentials(t *testing.T) {
	user := newUser("u1", auth.RoleUser)
	creds := auth.Credentials{Role: auth.RoleUser, Identifier: "player1", Password: "secret"}

	api := new(MockIdentityAPI)
	api.On("Login", mock.Anything, creds).Return(user, nil).Once()

	store := newTestStore(api)
	got, err := store.LoginWithCredentials(context.Background(), creds)

	require.NoError(t, err)
	assert.Equal(t, user, got)
	assert.Equal(t, user, store.GetState().User)
	api.AssertExpectations(t)
}

func TestStore_LoginWithCredentials_InvalidPayload(t *testing.T) {
	api := new(MockIdentityAPI)
	store := newTestStore(api)

	_, err := store.LoginWithCredentials(context.Background(), auth.Credentials{
		Role:       auth.RoleUser,
		Identifier: "player1",
		Password:   "",
	})

	require.Error(t, err)
	api.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
	assert.True(t, store.GetState().Loading)
}

func TestStore_LoginWithCredentials_RejectedLeavesStoreUnchanged(t *testing.T) {
	creds := auth.Credentials{Role: auth.RoleSA, Identifier: "admin", Password: "wrong-pass"}

	api := new(MockIdentityAPI)
	api.On("Login", mock.Anything, creds).Return(nil, auth.ErrInvalidCredentials).Once()

	store := newTestStore(api)
	recorder := &stateRecorder{}
	store.Subscribe(recorder.listen)

	_, err := store.LoginWithCredentials(context.Background(), creds)

	require.Error(t, err)
	assert.True(t, auth.IsInvalidCredentialsError(err))
	assert.True(t, store.GetState().Loading)
	assert.Empty(t, recorder.all())
}

func TestStore_Logout(t *testing.T) {
	tests := []struct {
		name      string
		role      auth.Role
		remoteErr error
		want      string
	}{
		{name: "user after remote success", role: auth.RoleUser, want: "/login"},
		{name: "peer after remote success", role: auth.RolePeer, want: "/peer/login"},
		{name: "super admin after remote failure", role: auth.RoleSA, remoteErr: errors.New("timeout"), want: "/admin/login"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(MockIdentityAPI)
			api.On("Logout", mock.Anything).Return(tt.remoteErr).Once()
			api.On("ClearSession").Return().Once()

			hints := auth.NewMemoryHintStore()
			store := newTestStore(api, auth.WithHintStore(hints))
			store.Login(context.Background(), newUser("u1", tt.role))

			recorder := &stateRecorder{}
			store.Subscribe(recorder.listen)

			target := store.Logout(context.Background())

			assert.Equal(t, tt.want, target)

			state := store.GetState()
			assert.Nil(t, state.User)
			assert.False(t, state.IsAuthenticated)
			assert.False(t, state.Loading)

			role, err := hints.GetRole(context.Background())
			require.NoError(t, err)
			assert.Equal(t, auth.RoleUnknown, role)

			require.Len(t, recorder.all(), 1)
			api.AssertExpectations(t)
		})
	}
}

func TestStore_Logout_UsesHintWhenStateIsEmpty(t *testing.T) {
	api := new(MockIdentityAPI)
	api.On("Logout", mock.Anything).Return(nil)
	api.On("ClearSession").Return()

	hints := auth.NewMemoryHintStore()
	require.NoError(t, hints.SetRole(context.Background(), auth.RoleSA))

	store := newTestStore(api, auth.WithHintStore(hints))

	assert.Equal(t, "/admin/login", store.Logout(context.Background()))
}

func TestStore_Subscribe(t *testing.T) {
	store := newTestStore(new(MockIdentityAPI))

	first := &stateRecorder{}
	second := &stateRecorder{}
	subFirst := store.Subscribe(first.listen)
	store.Subscribe(second.listen)
	assert.Equal(t, 2, store.SubscriberCount())

	store.Login(context.Background(), newUser("u1", auth.RoleUser))

	subFirst.Cancel()
	assert.Equal(t, 1, store.SubscriberCount())

	store.Login(context.Background(), newUser("u2", auth.RoleUser))

	require.Len(t, first.all(), 1)
	assert.Equal(t, "u1", first.all()[0].User.ID)

	require.Len(t, second.all(), 2)
	assert.Equal(t, "u2", second.all()[1].User.ID)
}

func TestStore_Subscribe_NilListener(t *testing.T) {
	store := newTestStore(new(MockIdentityAPI))

	sub := store.Subscribe(nil)
	assert.Empty(t, sub.ID())
	assert.Equal(t, 0, store.SubscriberCount())

	sub.Cancel()
}

func TestStore_Unsubscribe_Unknown(t *testing.T) {
	store := newTestStore(new(MockIdentityAPI))
	store.Subscribe(func(auth.State) {})

	store.Unsubscribe("missing")
	assert.Equal(t, 1, store.SubscriberCount())
}
