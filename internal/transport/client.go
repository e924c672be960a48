package transport

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/lattice-labs/matchcore/internal/protocol"
)

// client is one connected WebSocket session. Framing, masking and keepalive
// live entirely here; the matching core never sees a client or a
// connection.
type client struct {
	id   string
	ws   *websocket.Conn
	hub  *Hub
	send chan []byte
}

// readPump decodes inbound text frames into protocol.Request values and
// queues them on the hub's worker pool. It owns the connection's read
// deadline and pong handler.
func (c *client) readPump() {
	defer func() {
		c.hub.disconnect(c)
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var req protocol.Request
		err := c.ws.ReadJSON(&req)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("session", c.id).Msg("websocket read error")
			}
			return
		}
		c.hub.pool.AddTask(decodedTask{client: c, req: req})
	}
}

// writePump drains the client's send buffer onto the wire and pings the
// peer on an interval, tearing the connection down if either stalls.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
