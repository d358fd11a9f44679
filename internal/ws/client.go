package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/devcollab/backend/internal/engine"
	"github.com/devcollab/backend/internal/protocol"
	"github.com/devcollab/backend/internal/ratelimit"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 1024 * 1024
	messagesPerSecond = 100
	messageBurst      = 200
)

// Handler upgrades HTTP requests to websocket connections and hands
// them to the engine.
type Handler struct {
	engine   *engine.Engine
	upgrader websocket.Upgrader
}

func NewHandler(e *engine.Engine, allowedOrigins []string) *Handler {
	return &Handler{
		engine: e,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

type Client struct {
	engine      *engine.Engine
	conn        *websocket.Conn
	send        chan []byte
	session     *engine.Session
	rateLimiter *ratelimit.Limiter
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}

	client := &Client{
		engine:      h.engine,
		conn:        conn,
		send:        make(chan []byte, 512),
		rateLimiter: ratelimit.NewLimiter(messagesPerSecond, messageBurst),
	}

	clientID := fmt.Sprintf("%s-%d", conn.RemoteAddr().String(), time.Now().UnixNano())
	client.session = h.engine.Connect(clientID, client)

	go client.writePump()
	go client.readPump()
}

// Deliver queues an event for the connection. Non-blocking: a receiver
// that cannot keep up loses events rather than stalling the room.
func (c *Client) Deliver(env protocol.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) readPump() {
	defer func() {
		// Registry removal must complete before the send channel closes,
		// so no broadcast can race the teardown
		c.engine.Disconnect(c.session)
		close(c.send)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		if !c.rateLimiter.Allow() {
			continue
		}

		env, err := protocol.ParseFrame(message)
		if err != nil {
			log.Printf("Invalid frame from %s: %v", c.session.ID(), err)
			continue
		}

		// Events are processed to completion one at a time per
		// connection; the loop doesn't read again until Dispatch returns
		if err := c.engine.Dispatch(context.Background(), c.session, env); err != nil {
			c.handleDispatchError(env.Event, err)
		}
	}
}

func (c *Client) handleDispatchError(event string, err error) {
	switch {
	case errors.Is(err, protocol.ErrBadPayload),
		errors.Is(err, engine.ErrNotJoined),
		errors.Is(err, engine.ErrAlreadyJoined):
		// Protocol misuse: drop the event, keep the connection
		log.Printf("Rejected %s from %s: %v", event, c.session.ID(), err)
	default:
		// Persistence failure: tell the originator its change was lost
		log.Printf("Failed to process %s from %s: %v", event, c.session.ID(), err)
		c.Deliver(protocol.Make(protocol.EventError, protocol.ErrorPayload{
			Message: fmt.Sprintf("failed to save %s", event),
		}))
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
