package remote

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gazekit/gazekit/pkg/notify"
)

func dialBridge(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestBridgeForwardsRemoteFlaggedNotifications(t *testing.T) {
	bus := notify.NewBus()
	bridge := NewBridge(bus, zerolog.Nop())

	server := httptest.NewServer(bridge.Handler())
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bridge.Run(ctx)

	conn := dialBridge(t, server)
	require.Eventually(t, func() bool { return bridge.PeerCount() == 1 }, time.Second, 10*time.Millisecond)

	// Local-only copy must not reach the peer; the remote-flagged one must.
	bus.Publish(notify.Notification{Subject: notify.SubjectShouldStop})
	bus.Publish(notify.Notification{
		Subject:      notify.SubjectShouldStop,
		RemoteNotify: notify.RemoteAll,
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var wire wireNotification
	require.NoError(t, json.Unmarshal(data, &wire))
	assert.Equal(t, notify.SubjectShouldStop, wire.Subject)

	// No second message: the local-only copy was filtered out.
	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

func TestBridgeInjectsPeerNotifications(t *testing.T) {
	bus := notify.NewBus()
	bridge := NewBridge(bus, zerolog.Nop())

	server := httptest.NewServer(bridge.Handler())
	defer server.Close()

	ch, cancelSub := bus.Subscribe("recording.", 4)
	defer cancelSub()

	conn := dialBridge(t, server)

	payload, err := json.Marshal(wireNotification{
		Subject: notify.SubjectShouldStart,
		Fields:  map[string]any{"session_name": "remote_study"},
	})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, payload))

	select {
	case n := <-ch:
		assert.Equal(t, notify.SubjectShouldStart, n.Subject)
		assert.Equal(t, "remote_study", n.StringField("session_name"))
		assert.Empty(t, n.RemoteNotify)
	case <-time.After(2 * time.Second):
		t.Fatal("peer notification was not injected into the bus")
	}
}

func TestBridgeDropsMalformedPeerMessages(t *testing.T) {
	bus := notify.NewBus()
	bridge := NewBridge(bus, zerolog.Nop())

	server := httptest.NewServer(bridge.Handler())
	defer server.Close()

	ch, cancelSub := bus.Subscribe("", 4)
	defer cancelSub()

	conn := dialBridge(t, server)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"fields":{}}`)))

	select {
	case n := <-ch:
		t.Fatalf("unexpected notification injected: %s", n.Subject)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestBridgePeerDisconnect(t *testing.T) {
	bus := notify.NewBus()
	bridge := NewBridge(bus, zerolog.Nop())

	server := httptest.NewServer(bridge.Handler())
	defer server.Close()

	conn := dialBridge(t, server)
	require.Eventually(t, func() bool { return bridge.PeerCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return bridge.PeerCount() == 0 }, time.Second, 10*time.Millisecond)
}
