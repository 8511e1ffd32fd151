package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"e261-voice-be/internal/pkg/logger"
	"e261-voice-be/pkg/intro"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// controlChannel carries operator commands between instances.
const controlChannel = "intro_control"

type controlMessage struct {
	Command string `json:"command"`
}

const commandSkipAll = "skip_all"

// Hub tracks the live intro players of this instance.
type Hub struct {
	clients map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client
	// closed once Run has returned; register and unregister no longer block
	done chan struct{}

	mu sync.RWMutex

	// optional, fans operator commands out to the other instances
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[uuid.UUID]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			h.logger.Info("Hub", "Intro client registered", map[string]interface{}{"client_id": client.ID, "origin": client.Origin})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				client.close()
			}
			h.mu.Unlock()
			h.logger.Info("Hub", "Intro client unregistered", map[string]interface{}{
				"client_id": client.ID,
				"navigated": client.controller.Navigated(),
			})
		}
	}
}

// shutdown closes every remaining player so its pumps exit, then releases
// callers still trying to register or unregister.
func (h *Hub) shutdown() {
	h.mu.Lock()
	for id, c := range h.clients {
		c.close()
		delete(h.clients, id)
	}
	h.mu.Unlock()
	close(h.done)
	h.logger.Info("Hub", "Intro hub stopped", nil)
}

// Register adds a player. It reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a player. After the hub stopped it returns immediately.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Count returns the number of connected intro players.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SkipAll moves every connected player past the intro, on every instance
// when Redis is configured. It returns the number of local players skipped.
func (h *Hub) SkipAll(ctx context.Context) int {
	n := h.skipLocal()
	if h.rdb != nil {
		payload, _ := json.Marshal(controlMessage{Command: commandSkipAll})
		if err := h.rdb.Publish(ctx, controlChannel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Failed to publish intro command", map[string]interface{}{"error": err.Error()})
		}
	}
	return n
}

func (h *Hub) skipLocal() int {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	skipped := 0
	for _, c := range clients {
		if !c.controller.Navigated() {
			c.controller.OnSkipRequested()
			skipped++
		}
	}
	return skipped
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, controlChannel)
	defer pubsub.Close()
	ch := pubsub.Channel()

	for {
		var msg *redis.Message
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			msg = m
		}

		var cmd controlMessage
		if err := json.Unmarshal([]byte(msg.Payload), &cmd); err != nil {
			h.logger.Warn("Hub", "Redis control message parse error", map[string]interface{}{"error": err.Error()})
			continue
		}
		// our own SkipAll already handled the local players; skipping twice is a no-op
		if cmd.Command == commandSkipAll {
			h.skipLocal()
		}
	}
}

// NewControllerFor builds the intro controller for one connection.
func NewControllerFor(c *Client, cfg intro.Config, log logger.ILogger) *intro.Controller {
	c.controller = intro.NewController(cfg, c, c, c, c, log)
	return c.controller
}
