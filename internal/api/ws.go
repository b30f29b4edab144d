package api

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RequireUpgrade rejects plain HTTP requests on the websocket route
func RequireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// DisplaySocket handles GET /ws. Every connected display receives the
// messages broadcast by the hub until either side closes the connection.
func (h *Handlers) DisplaySocket(conn *websocket.Conn) {
	key := uuid.New().String()
	messages := h.hub.AddClient(key)
	defer h.hub.RemoveClient(key)

	// Displays never send anything meaningful; reading only detects a close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				h.log.Debug().Err(err).Str("key", key).Msg("Display write failed")
				return
			}
		}
	}
}
