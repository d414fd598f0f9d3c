package speak

import (
	"context"
	"encoding/json"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// channelFrame is the wire envelope for client and server events.
type channelFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// WebsocketChannel implements Channel over a websocket connection. Open and
// Close are idempotent; server events are delivered on Events until the
// connection drops.
type WebsocketChannel struct {
	url      string
	clientID string
	dialer   *websocket.Dialer
	logger   Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	events chan ChannelEvent
}

var _ Channel = (*WebsocketChannel)(nil)

// NewWebsocketChannel returns a channel that dials the given websocket URL.
func NewWebsocketChannel(url string) *WebsocketChannel {
	return &WebsocketChannel{
		url:      url,
		clientID: uuid.New().String(),
		dialer:   websocket.DefaultDialer,
		logger:   defLogger{},
	}
}

func (c *WebsocketChannel) WithLogger(logger Logger) *WebsocketChannel {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// ClientID identifies this channel instance across reconnects.
func (c *WebsocketChannel) ClientID() string {
	return c.clientID
}

// Open dials the server. Opening an already open channel is a no-op.
func (c *WebsocketChannel) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}

	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to open channel")
	}

	c.conn = conn
	c.events = make(chan ChannelEvent, 16)
	go c.readLoop(conn, c.events)

	return nil
}

// Emit sends an application event with the given payload.
func (c *WebsocketChannel) Emit(event string, payload any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return ErrChannelClosed
	}

	frame := channelFrame{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode channel payload")
		}
		frame.Data = data
	}

	return conn.WriteJSON(frame)
}

// Events returns the stream of server-emitted events. The channel is
// closed when the connection drops.
func (c *WebsocketChannel) Events() <-chan ChannelEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events
}

// Close tears the connection down. Closing an already closed channel is a
// no-op.
func (c *WebsocketChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	err := c.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	if closeErr := c.conn.Close(); err == nil {
		err = closeErr
	}
	c.conn = nil

	return err
}

// Connected reports whether the underlying connection is open.
func (c *WebsocketChannel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *WebsocketChannel) readLoop(conn *websocket.Conn, events chan<- ChannelEvent) {
	defer close(events)

	for {
		frame := channelFrame{}
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("channel read error", "error", err)
			}
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()
			return
		}

		select {
		case events <- ChannelEvent{Name: frame.Event, Data: frame.Data}:
		default:
			c.logger.Debug("channel event dropped, consumer lagging", "event", frame.Event)
		}
	}
}
