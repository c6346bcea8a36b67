// Package capture is the inbound boundary of the meter: a stream of
// (opcode, payload) frames produced by the packet relay. Capture and
// decryption of live traffic happen in the relay process, not here.
package capture

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/arkmeter/meter-core-go/internal/protocol"
)

// Frame is one captured packet: the relay's opcode plus the undecoded
// payload bytes.
type Frame struct {
	Opcode  protocol.Opcode
	Payload []byte
}

// Source yields frames until the underlying stream ends. Channel closure is
// the clean-shutdown signal for the dispatcher loop.
type Source interface {
	Frames() <-chan Frame
}

// frameHeaderSize is the 2-byte little-endian opcode prefix of each binary
// relay message.
const frameHeaderSize = 2

// Client consumes frames from a relay endpoint over a websocket.
type Client struct {
	conn   *websocket.Conn
	frames chan Frame
	logger *zap.Logger
}

// Dial connects to the relay and starts the read loop. The returned client's
// frame channel closes when the connection drops or Close is called.
func Dial(ctx context.Context, endpoint string, logger *zap.Logger) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial capture relay %s: %w", endpoint, err)
	}

	c := &Client{
		conn:   conn,
		frames: make(chan Frame, 64),
		logger: logger,
	}
	go c.readLoop()

	logger.Info("connected to capture relay", zap.String("endpoint", endpoint))
	return c, nil
}

// Frames implements Source.
func (c *Client) Frames() <-chan Frame { return c.frames }

// Close tears down the connection; the read loop closes the frame channel.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) readLoop() {
	defer close(c.frames)
	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("capture relay connection lost", zap.Error(err))
			} else {
				c.logger.Info("capture relay connection closed")
			}
			return
		}
		if msgType != websocket.BinaryMessage || len(data) < frameHeaderSize {
			continue
		}
		c.frames <- Frame{
			Opcode:  protocol.Opcode(binary.LittleEndian.Uint16(data[:frameHeaderSize])),
			Payload: data[frameHeaderSize:],
		}
	}
}
