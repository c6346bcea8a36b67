package publish

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arkmeter/meter-core-go/internal/meter"
)

type fakeCommands struct {
	resets chan struct{}
	pauses chan struct{}
}

func newFakeCommands() *fakeCommands {
	return &fakeCommands{
		resets: make(chan struct{}, 8),
		pauses: make(chan struct{}, 8),
	}
}

func (f *fakeCommands) RequestReset() { f.resets <- struct{}{} }
func (f *fakeCommands) TogglePause() { f.pauses <- struct{}{} }

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	waitForClients(t, hub, 1)
	return conn
}

// waitForClients polls until the hub has registered n connections; the
// handshake completes slightly before ServeWS adds the client.
func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		hub.mu.Lock()
		count := len(hub.clients)
		hub.mu.Unlock()
		if count >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("hub never reached %d clients", n)
}

func TestHubPublishDeliversEnvelope(t *testing.T) {
	hub := NewHub(newFakeCommands(), zap.NewNop())
	conn := dialHub(t, hub)

	hub.Publish(&meter.EncounterSnapshot{
		ID:    "enc-1",
		Phase: "InProgress",
		Entities: map[string]*meter.EncounterEntity{
			"Alice": {Name: "Alice", DamageDealt: 15_000},
		},
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, "encounter-update", env.Type)
	require.NotNil(t, env.Encounter)
	assert.Equal(t, "enc-1", env.Encounter.ID)
	assert.Equal(t, int64(15_000), env.Encounter.Entities["Alice"].DamageDealt)
}

func TestHubViewerCommands(t *testing.T) {
	commands := newFakeCommands()
	hub := NewHub(commands, zap.NewNop())
	conn := dialHub(t, hub)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"reset"}`)))
	select {
	case <-commands.resets:
	case <-time.After(2 * time.Second):
		t.Fatal("reset command never reached the handler")
	}

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"pause"}`)))
	select {
	case <-commands.pauses:
	case <-time.After(2 * time.Second):
		t.Fatal("pause command never reached the handler")
	}
}

func TestHubIgnoresMalformedCommands(t *testing.T) {
	commands := newFakeCommands()
	hub := NewHub(commands, zap.NewNop())
	conn := dialHub(t, hub)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{not json`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"selfdestruct"}`)))

	// The connection must survive bad input.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"reset"}`)))
	select {
	case <-commands.resets:
	case <-time.After(2 * time.Second):
		t.Fatal("connection dropped after malformed command")
	}
	assert.Empty(t, commands.pauses)
}

func TestHubPublishWithoutClientsIsNoop(t *testing.T) {
	hub := NewHub(newFakeCommands(), zap.NewNop())
	hub.Publish(&meter.EncounterSnapshot{ID: "enc-1"})
}

func TestHubDropsDisconnectedClient(t *testing.T) {
	hub := NewHub(newFakeCommands(), zap.NewNop())
	conn := dialHub(t, hub)

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		hub.mu.Lock()
		count := len(hub.clients)
		hub.mu.Unlock()
		if count == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("client never dropped after disconnect")
}
