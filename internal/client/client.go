package client

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/devaloi/picstream/internal/domain"
	"github.com/devaloi/picstream/internal/hub"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024
)

// Client is a WebSocket viewer connected to the registry.
type Client struct {
	registry *hub.Registry
	conn     *websocket.Conn
	send     chan []byte
	log      zerolog.Logger
}

// New creates a new Client.
func New(r *hub.Registry, conn *websocket.Conn, log zerolog.Logger) *Client {
	return &Client{
		registry: r,
		conn:     conn,
		send:     make(chan []byte, 256),
		log:      log,
	}
}

// Send queues a message to be sent to the viewer.
func (c *Client) Send(data []byte) {
	select {
	case c.send <- data:
	default:
		// Viewer send buffer full, drop message.
		c.log.Warn().Str("remote", c.conn.RemoteAddr().String()).Msg("send buffer full, dropping message")
	}
}

// ReadPump reads join requests from the WebSocket connection until it
// closes, then removes the connection from all rooms.
func (c *Client) ReadPump() {
	defer func() {
		c.registry.Disconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Msg("viewer read error")
			}
			return
		}
		c.handleMessage(data)
	}
}

// WritePump writes messages from the send channel to the WebSocket
// connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

func (c *Client) handleMessage(data []byte) {
	req, err := domain.DecodeJoin(data)
	if err != nil {
		c.sendError("invalid JSON")
		return
	}

	switch req.Type {
	case domain.MsgJoin:
		if req.City == "" {
			c.sendError("city required")
			return
		}
		c.registry.Join(c, req.City)

	default:
		c.sendError("unknown message type: " + req.Type)
	}
}

func (c *Client) sendError(message string) {
	errMsg := domain.ErrorMessage{Type: domain.MsgError, Message: message}
	if data, err := domain.Encode(errMsg); err == nil {
		c.Send(data)
	}
}
