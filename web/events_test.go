package web_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	auth "github.com/goliatone/go-wallet-auth"
	"github.com/goliatone/go-wallet-auth/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// warnCounter counts warnings, the event stream logs one per dropped event
type warnCounter struct {
	auth.NopLogger
	warns atomic.Int32
}

func (w *warnCounter) Warn(string, ...any) { w.warns.Add(1) }

// serve runs the harness app on a loopback listener and returns its base URL
func (h *harness) serve() string {
	h.t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(h.t, err)

	go func() { _ = h.app.Listener(ln) }()
	h.t.Cleanup(func() { _ = h.app.ShutdownWithTimeout(time.Second) })

	return "http://" + ln.Addr().String()
}

func (h *harness) openEvents(baseURL string) *http.Response {
	h.t.Helper()
	req, err := http.NewRequest(http.MethodGet, baseURL+"/session/events", nil)
	require.NoError(h.t, err)
	req.AddCookie(&http.Cookie{Name: clientCookie, Value: h.cookie})

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	require.NoError(h.t, err)
	h.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// nextSession reads frames until the next session event, skipping keep
// alive comments
func nextSession(t *testing.T, r *bufio.Reader) auth.State {
	t.Helper()

	var event, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")

		switch {
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && data != "":
			require.Equal(t, "session", event)
			var state auth.State
			require.NoError(t, json.Unmarshal([]byte(data), &state), data)
			return state
		}
	}
}

func TestSessionEvents_StreamsLogin(t *testing.T) {
	h := newHarness(t, web.WithHeartbeat(50*time.Millisecond))
	h.get("/session")
	require.NotEmpty(t, h.cookie)

	resp := h.openEvents(h.serve())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)

	initial := nextSession(t, reader)
	assert.False(t, initial.IsAuthenticated)
	assert.False(t, initial.Loading)

	store, ok := h.registry.Lookup(h.cookie)
	require.True(t, ok)
	assert.Eventually(t, func() bool { return store.SubscriberCount() == 1 }, time.Second, 10*time.Millisecond)

	_, err := store.LoginWithCredentials(context.Background(), auth.Credentials{
		Role:       auth.RoleUser,
		Identifier: "player1",
		Password:   "secret",
	})
	require.NoError(t, err)

	var state auth.State
	for !state.IsAuthenticated {
		state = nextSession(t, reader)
	}
	require.NotNil(t, state.User)
	assert.Equal(t, auth.RoleUser, state.User.Role)
}

func TestSessionEvents_NewClientGetsInitialFrame(t *testing.T) {
	h := newHarness(t)

	resp := h.openEvents(h.serve())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	state := nextSession(t, bufio.NewReader(resp.Body))
	assert.False(t, state.IsAuthenticated)
	assert.Equal(t, 1, h.registry.Len())
}

func TestSessionEvents_SlowReaderDropsEvents(t *testing.T) {
	logger := &warnCounter{}
	h := newHarness(t,
		web.WithControllerLogger(logger),
		web.WithHeartbeat(50*time.Millisecond),
	)
	h.get("/session")

	resp := h.openEvents(h.serve())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	store, ok := h.registry.Lookup(h.cookie)
	require.True(t, ok)
	require.Eventually(t, func() bool { return store.SubscriberCount() == 1 }, time.Second, 10*time.Millisecond)

	// large events are never read, the socket fills and the writer blocks
	user := &auth.User{
		ID:   "id-User",
		Role: auth.RoleUser,
		Raw:  map[string]any{"blob": strings.Repeat("x", 1<<20)},
	}
	assert.NotPanics(t, func() {
		for range 64 {
			store.Login(context.Background(), user)
		}
	})
	assert.Positive(t, logger.warns.Load())

	// the stream lets go of the store once the client goes away
	require.NoError(t, resp.Body.Close())
	assert.Eventually(t, func() bool { return store.SubscriberCount() == 0 }, 5*time.Second, 20*time.Millisecond)
}
