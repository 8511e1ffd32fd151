package websocket

import (
	"e261-voice-be/internal/pkg/logger"
	"e261-voice-be/pkg/intro"

	"github.com/gofiber/websocket/v2"
)

// ServeIntro runs one intro player until the peer disconnects.
func ServeIntro(hub *Hub, conn *websocket.Conn, origin string, cfg intro.Config, nextURL string, log logger.ILogger) {
	client := NewClient(hub, conn, origin, nextURL, log)
	NewControllerFor(client, cfg, log)
	if !hub.Register(client) {
		conn.Close()
		return
	}

	go client.writePump()
	client.readPump()
}
