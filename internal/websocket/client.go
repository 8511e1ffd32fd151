package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"e261-voice-be/internal/pkg/logger"
	"e261-voice-be/pkg/intro"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

// Inbound frame types sent by the intro page itself.
const (
	FrameMediaEnded      = "media-ended"
	FrameSkipClick       = "skip-click"
	FrameUserInteraction = "user-interaction"
	FrameMediaClick      = "media-click"
)

var (
	errClientClosed = errors.New("intro client closed")
	errBufferFull   = errors.New("intro client send buffer full")
)

// Frame is everything written to the intro page.
type Frame struct {
	Type         string `json:"type"`
	TargetOrigin string `json:"targetOrigin,omitempty"`
	URL          string `json:"url,omitempty"`
	Muted        *bool  `json:"muted,omitempty"`
}

// Client is one intro player. It is the controller's message bus,
// navigator, audio context and media element, all backed by the socket.
type Client struct {
	ID     uuid.UUID
	Origin string

	hub        *Hub
	conn       *websocket.Conn
	controller *intro.Controller
	nextURL    string
	logger     logger.ILogger

	send   chan []byte
	mu     sync.Mutex
	closed bool
	muted  bool
}

func NewClient(hub *Hub, conn *websocket.Conn, origin, nextURL string, log logger.ILogger) *Client {
	return &Client{
		ID:      uuid.New(),
		Origin:  origin,
		hub:     hub,
		conn:    conn,
		nextURL: nextURL,
		logger:  log,
		send:    make(chan []byte, sendBuffer),
	}
}

// Post delivers a signal to the page. A restricted post only reaches a peer
// whose Origin equals targetOrigin.
func (c *Client) Post(ctx context.Context, sig intro.Signal, targetOrigin string) error {
	if targetOrigin != intro.AnyOrigin && targetOrigin != c.Origin {
		return intro.ErrOriginMismatch
	}
	return c.enqueue(ctx, Frame{Type: string(sig.Type), TargetOrigin: targetOrigin})
}

func (c *Client) Navigate() error {
	return c.enqueue(context.Background(), Frame{Type: "navigate", URL: c.nextURL})
}

func (c *Client) Resume() error {
	return c.enqueue(context.Background(), Frame{Type: "audio-resume"})
}

func (c *Client) ToggleMute() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.muted = !c.muted
	return c.muted
}

func (c *Client) enqueue(ctx context.Context, f Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClientClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errBufferFull
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// handleFrame drives the controller from one inbound message. Anything that
// is not one of the page's own frames is treated as a message relayed from
// the embedding context.
func (c *Client) handleFrame(raw []byte) {
	var f struct {
		Type string `json:"type"`
	}
	_ = json.Unmarshal(raw, &f)

	switch f.Type {
	case FrameMediaEnded:
		c.controller.OnMediaEnded()
	case FrameSkipClick:
		c.controller.OnSkipRequested()
	case FrameUserInteraction:
		c.controller.OnUserInteraction()
	case FrameMediaClick:
		muted := c.controller.OnMediaClicked()
		if err := c.enqueue(context.Background(), Frame{Type: "mute", Muted: &muted}); err != nil {
			c.logger.Debug("IntroClient", "Mute frame dropped", map[string]interface{}{"error": err.Error()})
		}
	default:
		c.controller.OnExternalMessage(intro.Envelope{Origin: c.Origin, Data: raw})
	}
}

// readPump feeds inbound frames to the controller until the socket closes.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
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
				c.logger.Warn("IntroClient", "Unexpected close", map[string]interface{}{"client_id": c.ID, "error": err.Error()})
			}
			return
		}
		c.handleFrame(message)
	}
}

// writePump writes queued frames and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// one frame per message; the page parses each as JSON
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("IntroClient", "Ping failed", map[string]interface{}{"client_id": c.ID, "error": err.Error()})
				return
			}
		}
	}
}
