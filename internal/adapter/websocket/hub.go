package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-route/internal/observability/telemetry"
)

const (
	sendBuffer = 256
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Hub fans charger status events out to connected websocket clients
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Outbound events for every client.
	broadcast chan []byte

	register   chan *Client
	unregister chan *Client

	// closed when Run returns; register and unregister have no reader after that
	done chan struct{}

	mu  sync.RWMutex
	log *zap.Logger
}

type Client struct {
	hub *Hub
	// nil in tests; the hub only touches send
	conn *websocket.Conn
	// Buffered channel of outbound messages.
	send   chan []byte
	userID string
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run serves registrations and broadcasts until ctx is done, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			telemetry.WebsocketClients.Set(0)
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			telemetry.WebsocketClients.Set(float64(n))
		case client := <-h.unregister:
			h.remove(client)
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// slow consumer
					close(client.send)
					delete(h.clients, client)
					telemetry.WebsocketDropped.Inc()
				}
			}
			n := len(h.clients)
			h.mu.Unlock()
			telemetry.WebsocketClients.Set(float64(n))
		}
	}
}

// Broadcast queues data for every client. It never blocks the caller; when
// the hub is backed up the event is dropped.
func (h *Hub) Broadcast(data []byte) {
	select {
	case h.broadcast <- data:
	default:
		telemetry.WebsocketDropped.Inc()
		h.log.Warn("Websocket hub backed up, dropping event")
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// join registers client unless the hub has shut down
func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	telemetry.WebsocketClients.Set(float64(n))
}

// Upgrade rejects plain HTTP requests on the websocket route
func Upgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// Handler serves one websocket connection for the lifetime of the socket
func (h *Hub) Handler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals("user_id").(string)
		h.AddClient(conn, userID)
	})
}

// AddClient registers conn and blocks until it disconnects
func (h *Hub) AddClient(conn *websocket.Conn, userID string) {
	client := &Client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), userID: userID}
	if !h.join(client) {
		conn.Close()
		return
	}
	h.log.Debug("Websocket client connected", zap.String("user_id", userID))

	go client.writePump()
	client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		// push only; reads keep control frames flowing
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
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
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Each queued event goes out as its own line in the same frame.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
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
