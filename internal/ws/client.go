package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
	sendBuffer   = 16
)

type client struct {
	ws     *websocket.Conn
	send   chan []byte
	hub    *Hub
	logger *zap.Logger
	once   sync.Once
}

func newClient(conn *websocket.Conn, hub *Hub, logger *zap.Logger) *client {
	return &client{
		ws:     conn,
		send:   make(chan []byte, sendBuffer),
		hub:    hub,
		logger: logger,
	}
}

// start launches the write pump and blocks on the read pump until the peer
// disconnects.
func (c *client) start() {
	go c.writePump()
	c.readPump()
}

// enqueue offers a message without blocking. A false return means the client
// cannot keep up.
func (c *client) enqueue(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// readPump discards inbound frames; the feed is one-way. It exists to notice
// peer closes and answer pings.
func (c *client) readPump() {
	defer c.hub.remove(c)
	c.ws.SetReadLimit(512)
	c.ws.SetReadDeadline(time.Now().Add(pongTimeout))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) write(messageType int, payload []byte) error {
	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteMessage(messageType, payload)
}
