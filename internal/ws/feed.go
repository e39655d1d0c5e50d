package ws

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ServeLiveFeed upgrades the connection and registers the spectator. A
// game_id query scopes the feed to one game; omitting it gets everything.
func ServeLiveFeed(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] Upgrade error: %v", err)
			return
		}

		client := &Client{
			id:     uuid.NewString(),
			gameID: c.Query("game_id"),
			conn:   conn,
			send:   make(chan []byte, 256),
		}
		hub.register <- client

		go client.writePump()
		go client.readPump(hub)
	}
}
