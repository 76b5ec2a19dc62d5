// internal/wsgateway/gateway.go
// WebSocket transport for the Subscriber Fan-out. Generalizes the
// teacher's internal/websocket/{client,handlers}.go: one goroutine pair
// (read/write pump) per connection, gorilla/websocket upgrade, ping
// keepalive. Unlike the teacher's Hub (one shared fan-out keyed by
// tournament id, client explicitly subscribes/unsubscribes), a
// connection here maps onto exactly one match actor's subscriber
// channel for its whole lifetime, opened on connect and closed on
// disconnect or terminal match status (spec.md §4.C/§5).

package wsgateway

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"musicbattle-core/internal/actor"
	"musicbattle-core/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Gateway upgrades a request to a WebSocket and streams one match
// actor's state snapshots to it.
type Gateway struct {
	Registry *actor.Registry
	Logger   *log.Logger
}

// HandleSubscribe upgrades the connection and bridges the match actor's
// subscriber channel to the socket for the connection's lifetime.
func (g *Gateway) HandleSubscribe(matchActorID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, err := g.Registry.GetOrCreate(c.Request.Context(), matchActorID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to reach match actor"})
			return
		}

		_, sub, unsubscribe, err := a.Subscribe(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to subscribe"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			g.Logger.Printf("websocket upgrade failed for %s: %v", matchActorID, err)
			unsubscribe()
			return
		}

		go g.readPump(conn, unsubscribe)
		g.writePump(conn, sub)
	}
}

// writePump relays every snapshot pushed onto sub to the socket, in
// order, until sub closes (client disconnect or terminal match status).
func (g *Gateway) writePump(conn *websocket.Conn, sub <-chan models.MatchState) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case state, open := <-sub:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !open {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			data, err := json.Marshal(state)
			if err != nil {
				g.Logger.Printf("failed to marshal match state snapshot: %v", err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only drains and discards client messages (pings and other
// advisory traffic); per spec.md §4.C, client->actor messages never
// mutate state.
func (g *Gateway) readPump(conn *websocket.Conn, unsubscribe func()) {
	defer func() {
		unsubscribe()
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
