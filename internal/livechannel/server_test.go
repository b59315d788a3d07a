package livechannel

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"auction-bidding/internal/auth"
	"auction-bidding/internal/directory"
	model "auction-bidding/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	*Server
	dir    *directory.Directory
	tokens *auth.TokenService
	http   *httptest.Server
}

func newTestServer(t *testing.T, opts ...Option) *testServer {
	t.Helper()
	tokens := auth.NewTokenService("ws-secret", time.Hour)
	dir := directory.New()
	srv := NewServer(tokens, dir, opts...)
	hs := httptest.NewServer(srv)
	t.Cleanup(hs.Close)
	return &testServer{Server: srv, dir: dir, tokens: tokens, http: hs}
}

func (ts *testServer) wsURL(token string) string {
	u := "ws" + strings.TrimPrefix(ts.http.URL, "http") + "/"
	if token != "" {
		u += "?token=" + token
	}
	return u
}

func (ts *testServer) dial(t *testing.T, username string) *websocket.Conn {
	t.Helper()
	token, err := ts.tokens.Issue(username)
	require.NoError(t, err)

	conn, resp, err := websocket.DefaultDialer.Dial(ts.wsURL(token), nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func (ts *testServer) waitBound(t *testing.T, username string) directory.Handle {
	t.Helper()
	var handle directory.Handle
	require.Eventually(t, func() bool {
		h, ok := ts.dir.Lookup(username)
		if !ok {
			return false
		}
		c, isConn := h.(*connection)
		if !isConn || c.State() != StateBound {
			return false
		}
		handle = h
		return true
	}, 3*time.Second, 10*time.Millisecond)
	return handle
}

func readPush(t *testing.T, conn *websocket.Conn) model.PushMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var msg model.PushMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestServer_RejectsInvalidHandshake(t *testing.T) {
	ts := newTestServer(t)
	expired, err := auth.NewTokenService("ws-secret", -time.Minute).Issue("alice")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing_token", token: ""},
		{name: "garbage_token", token: "garbage"},
		{name: "expired_token", token: expired},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			conn, resp, err := websocket.DefaultDialer.Dial(ts.wsURL(tc.token), nil)
			if conn != nil {
				conn.Close()
			}
			require.ErrorIs(t, err, websocket.ErrBadHandshake)
			require.NotNil(t, resp)
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}

	require.Equal(t, 0, ts.Connections())
}

func TestServer_PushReachesBoundIdentity(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.dial(t, "alice")
	ts.waitBound(t, "alice")

	ts.PushTo("alice", model.PushMessage{Message: "New bid of $15 on product with ID L1"})

	msg := readPush(t, alice)
	require.Equal(t, "New bid of $15 on product with ID L1", msg.Message)
}

func TestServer_BearerHeaderFallback(t *testing.T) {
	ts := newTestServer(t)
	token, err := ts.tokens.Issue("bob")
	require.NoError(t, err)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, _, err := websocket.DefaultDialer.Dial(ts.wsURL(""), header)
	require.NoError(t, err)
	defer conn.Close()

	ts.waitBound(t, "bob")
	ts.PushTo("bob", model.PushMessage{Message: "hi"})
	require.Equal(t, "hi", readPush(t, conn).Message)
}

func TestServer_PushToAbsentIdentityIsDropped(t *testing.T) {
	ts := newTestServer(t)
	require.NotPanics(t, func() {
		ts.PushTo("nobody", model.PushMessage{Message: "lost"})
	})
}

func TestServer_ReconnectSupersedesOlderConnection(t *testing.T) {
	ts := newTestServer(t)

	first := ts.dial(t, "alice")
	firstHandle := ts.waitBound(t, "alice")

	second := ts.dial(t, "alice")
	require.Eventually(t, func() bool {
		h, ok := ts.dir.Lookup("alice")
		return ok && h != firstHandle
	}, 3*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return firstHandle.(*connection).State() == StateClosed
	}, 3*time.Second, 10*time.Millisecond)

	// the superseded socket is closed by the server
	require.NoError(t, first.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err := first.ReadMessage()
	require.Error(t, err)

	ts.PushTo("alice", model.PushMessage{Message: "to the newest"})
	require.Equal(t, "to the newest", readPush(t, second).Message)
	require.Equal(t, 1, ts.Connections())
}

func TestServer_DisconnectReleasesBinding(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.dial(t, "alice")
	handle := ts.waitBound(t, "alice")

	require.NoError(t, alice.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")))
	alice.Close()

	require.Eventually(t, func() bool {
		_, ok := ts.dir.Lookup("alice")
		return !ok
	}, 3*time.Second, 10*time.Millisecond)
	require.Equal(t, StateClosed, handle.(*connection).State())
}

func TestServer_KeepaliveDropsSilentPeer(t *testing.T) {
	ts := newTestServer(t, WithKeepalive(20*time.Millisecond, 100*time.Millisecond))

	// never reads, so pings go unanswered
	ts.dial(t, "mute")
	ts.waitBound(t, "mute")

	require.Eventually(t, func() bool {
		_, ok := ts.dir.Lookup("mute")
		return !ok
	}, 3*time.Second, 10*time.Millisecond)
}

func TestServer_KeepaliveKeepsResponsivePeer(t *testing.T) {
	ts := newTestServer(t, WithKeepalive(20*time.Millisecond, 100*time.Millisecond))

	conn := ts.dial(t, "chatty")
	ts.waitBound(t, "chatty")

	// reading lets the default ping handler answer with pongs
	received := make(chan model.PushMessage, 1)
	go func() {
		var msg model.PushMessage
		if err := conn.ReadJSON(&msg); err == nil {
			received <- msg
		}
	}()

	time.Sleep(400 * time.Millisecond)
	_, ok := ts.dir.Lookup("chatty")
	require.True(t, ok)

	ts.PushTo("chatty", model.PushMessage{Message: "still here"})
	select {
	case msg := <-received:
		require.Equal(t, "still here", msg.Message)
	case <-time.After(3 * time.Second):
		t.Fatal("push not received")
	}
}
