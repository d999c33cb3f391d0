package relay

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/protocol"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound message size. SDP offers are the largest payloads
	// and stay well under this.
	maxMessageSize = 64 * 1024
)

// Client wraps a single websocket connection. Its ID is minted by the
// server on upgrade and identifies the participant across the editing and
// video subsystems for the lifetime of the connection.
type Client struct {
	ID   string
	Hub  *Hub
	Conn *websocket.Conn

	// Send is the buffered outbound queue drained by WritePump.
	Send chan *protocol.Message
}

// inbound pairs a parsed message with the connection it arrived on.
type inbound struct {
	client *Client
	msg    *protocol.Message
}

// ReadPump pumps messages from the websocket connection to the hub.
// It is the connection's only reader.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg protocol.Message
		if err := c.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket read failed", "participant", c.ID, "err", err)
			}
			break
		}
		c.Hub.Inbound <- &inbound{client: c, msg: &msg}
	}
}

// WritePump pumps messages from the hub to the websocket connection and
// keeps the connection alive with periodic pings. It is the connection's
// only writer.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(message); err != nil {
				slog.Warn("websocket write failed", "participant", c.ID, "err", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
