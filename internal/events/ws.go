package events

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Welcome is the first message every client receives.
type Welcome struct {
	Type    string `json:"type"`
	Clients int    `json:"clients"`
}

// WSHandler upgrades the request and keeps the client registered until it
// disconnects. Incoming messages are ignored.
func WSHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		// Welcome goes out before Add so it never races a broadcast write.
		_ = ws.WriteJSON(Welcome{Type: "welcome", Clients: hub.Stats().WSClients + 1})
		hub.Add(ws)
		log.Printf("[ws] client connected: %s", c.ClientIP())

		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		hub.Remove(ws)
		log.Printf("[ws] client disconnected: %s", c.ClientIP())
	}
}
