// Websocket Client: the Conn implementation used by the channel endpoint.

package hub

import (
	"Studio/internal/entity"
	"Studio/pkg/log"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

var (
	ErrClientClosed = errors.New("client closed")
	ErrBufferFull   = errors.New("client send buffer full")
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	id     string
	conn   *websocket.Conn
	send   chan entity.Event
	mu     sync.Mutex
	closed bool
	logger log.Logger
}

// NewClient wraps conn with a fresh connection id.
func NewClient(conn *websocket.Conn, logger log.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		id:     id,
		conn:   conn,
		send:   make(chan entity.Event, sendBuffer),
		logger: logger.With("conn", id),
	}
}

func (c *Client) ID() string {
	return c.id
}

// Send queues event for the write pump without blocking.
func (c *Client) Send(event entity.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- event:
		return nil
	default:
		return ErrBufferFull
	}
}

// Close stops the write pump after it has flushed what was queued. Safe to call repeatedly.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump pumps frames from the websocket connection to handler until the peer goes away.
// A message which doesn't decode into a Frame is handed to malformed (when set) and the
// connection keeps going.
func (c *Client) ReadPump(handler func(entity.Frame), malformed func(error)) {
	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, r, err := c.conn.NextReader()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error().Err(err).Msg("unexpected websocket close error")
			}
			return
		}
		raw, err := io.ReadAll(r)
		if err != nil {
			c.logger.Warn().Err(err).Msg("failed to read frame")
			return
		}
		var frame entity.Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.logger.Debug().Err(err).Msg("malformed frame")
			if malformed != nil {
				malformed(err)
			}
			continue
		}
		handler(frame)
	}
}

// WritePump pumps queued events to the websocket connection and keeps it alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				// Close() was called
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				c.logger.Error().Err(err).Str("event", event.Name).Msg("failed to write event")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
