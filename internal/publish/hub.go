// Package publish is the outbound presentation boundary: a websocket hub
// that pushes encounter snapshots to connected viewers and relays their
// reset/pause commands back to the dispatcher. Delivery is best-effort;
// each client sees at most the latest snapshot.
package publish

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/arkmeter/meter-core-go/internal/meter"
)

// CommandHandler receives viewer commands. The dispatcher implements it.
type CommandHandler interface {
	RequestReset()
	TogglePause()
}

type envelope struct {
	Type      string                  `json:"type"`
	Encounter *meter.EncounterSnapshot `json:"encounter,omitempty"`
}

type command struct {
	Type string `json:"type"`
}

// Hub fans snapshots out to websocket clients.
type Hub struct {
	logger   *zap.Logger
	commands CommandHandler
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	// 1-deep latest-wins buffer; Publish replaces a pending snapshot
	// instead of waiting for the writer.
	send chan []byte
}

func NewHub(commands CommandHandler, logger *zap.Logger) *Hub {
	return &Hub{
		logger:   logger,
		commands: commands,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Publish implements meter.Publisher. Never blocks: a client that has not
// drained its previous snapshot loses it.
func (h *Hub) Publish(snap *meter.EncounterSnapshot) {
	data, err := json.Marshal(envelope{Type: "encounter-update", Encounter: snap})
	if err != nil {
		h.logger.Warn("failed to encode snapshot", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			select {
			case <-c.send:
			default:
			}
			select {
			case c.send <- data:
			default:
			}
		}
	}
}

// ServeWS upgrades an HTTP request into a hub client connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, 1),
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("viewer connected",
		zap.String("remote", conn.RemoteAddr().String()),
		zap.Int("clients", n),
	)

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) writePump(c *client) {
	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

func (h *Hub) readPump(c *client) {
	defer h.drop(c)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		h.handleCommand(data)
	}
}

func (h *Hub) handleCommand(data []byte) {
	var cmd command
	if err := json.Unmarshal(data, &cmd); err != nil {
		h.logger.Debug("ignoring malformed viewer command", zap.Error(err))
		return
	}
	switch cmd.Type {
	case "reset":
		h.commands.RequestReset()
		h.logger.Info("reset requested by viewer")
	case "pause":
		h.commands.TogglePause()
		h.logger.Info("pause toggled by viewer")
	default:
		h.logger.Debug("unknown viewer command", zap.String("type", cmd.Type))
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	c.conn.Close()
}
