package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"werewolves/internal/app"
	"werewolves/internal/command"
	"werewolves/internal/domain"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Size of the send channel buffer
	sendBufferSize = 256
)

// Client represents a WebSocket client connection
type Client struct {
	conn       *websocket.Conn
	hub        *app.GameHub
	dispatcher *command.Dispatcher
	handle     string
	name       string
	send       chan []byte
	done       chan struct{}
	logger     *slog.Logger
	mu         sync.Mutex
	closed     bool
}

// NewClient creates a new WebSocket client
func NewClient(conn *websocket.Conn, hub *app.GameHub, dispatcher *command.Dispatcher, handle, name string, logger *slog.Logger) *Client {
	return &Client{
		conn:       conn,
		hub:        hub,
		dispatcher: dispatcher,
		handle:     handle,
		name:       name,
		send:       make(chan []byte, sendBufferSize),
		done:       make(chan struct{}),
		logger:     logger.With("handle", handle),
	}
}

// GetHandle implements app.ClientConnection interface
func (c *Client) GetHandle() string {
	return c.handle
}

// Deliver implements app.ClientConnection interface
func (c *Client) Deliver(event domain.Event) error {
	return c.Send(NewServerMessage(MsgMessage, &TextPayload{
		Text:    event.Text,
		Choices: event.Choices,
	}))
}

// Send queues a message for the write pump
func (c *Client) Send(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	select {
	case c.send <- data:
		return nil
	default:
		// Buffer full, message dropped
		c.logger.Warn("send buffer full, message dropped")
		return nil
	}
}

// Close implements app.ClientConnection interface
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	close(c.done)
	return c.conn.Close()
}

// Run starts the client's read and write pumps
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump pumps messages from the WebSocket connection. The seat survives a
// disconnect so the same handle can reconnect.
func (c *Client) readPump() {
	defer func() {
		if session, ok := c.hub.CurrentGame(c.handle); ok {
			session.DetachClient(c)
		}
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", "error", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes an incoming message from the client
func (c *Client) handleMessage(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError(ErrCodeInvalidMessage, "Invalid message format")
		return
	}

	switch msg.Type {
	case MsgCommand:
		c.handleCommand(msg.Payload.Text)
	case MsgPing:
		c.sendPong()
	default:
		c.sendError(ErrCodeInvalidMessage, "Unknown message type")
	}
}

// handleCommand runs a chat command and answers the sender
func (c *Client) handleCommand(text string) {
	reply, err := c.dispatcher.Handle(c, c.name, text)
	if err != nil {
		c.sendError(errorCode(err), command.ErrorText(err))
		return
	}
	if reply != "" {
		c.Send(NewServerMessage(MsgReply, &TextPayload{Text: reply}))
	}
}

// sendConnected sends the connected message to the client
func (c *Client) sendConnected() {
	payload := &ConnectedPayload{
		Handle: c.handle,
		Name:   c.name,
	}
	if session, ok := c.hub.CurrentGame(c.handle); ok {
		payload.RoomCode = session.GetRoomCode()
	}

	c.Send(NewServerMessage(MsgConnected, payload))
}

// sendError sends an error message to the client
func (c *Client) sendError(code, message string) {
	payload := &ErrorPayload{
		Code:    code,
		Message: message,
	}

	c.Send(NewServerMessage(MsgError, payload))
}

// sendPong sends a pong message in response to ping
func (c *Client) sendPong() {
	c.Send(NewServerMessage(MsgPong, nil))
}

func errorCode(err error) string {
	var usage *command.UsageError
	switch {
	case errors.As(err, &usage):
		return ErrCodeUsage
	case errors.Is(err, command.ErrUnknownCommand):
		return ErrCodeUnknownCommand
	case errors.Is(err, domain.ErrNotSeated):
		return ErrCodeNotSeated
	case errors.Is(err, domain.ErrAlreadySeated):
		return ErrCodeAlreadySeated
	case errors.Is(err, domain.ErrInvalidState):
		return ErrCodeInvalidAction
	case errors.Is(err, domain.ErrLookupFailed):
		return ErrCodeGameNotFound
	case errors.Is(err, domain.ErrRegistryFull):
		return ErrCodeRegistryFull
	case errors.Is(err, domain.ErrPlayerNotFound), errors.Is(err, domain.ErrPlayerDead):
		return ErrCodeInvalidTarget
	case errors.Is(err, domain.ErrInvalidConfig):
		return ErrCodeInvalidConfig
	default:
		return ErrCodeInternalError
	}
}
