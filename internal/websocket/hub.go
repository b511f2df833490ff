package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"tenantsync/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

const (
	sendBuffer = 16
	writeWait  = 10 * time.Second
)

// ErrHubBusy is returned when a notification cannot be queued.
var ErrHubBusy = errors.New("booking notifications are backed up")

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type deadliner interface {
	SetWriteDeadline(t time.Time) error
}

// Client is one maintenance worker's open connection. Its writer goroutine
// drains send, so a slow socket only delays its own messages.
type Client struct {
	Conn     Conn
	WorkerID int
	send     chan []byte
}

func NewClient(conn Conn, workerID int) *Client {
	return &Client{Conn: conn, WorkerID: workerID, send: make(chan []byte, sendBuffer)}
}

type message struct {
	workerID int
	data     []byte
}

// Hub fans booking notifications out to the connections of the booked worker.
type Hub struct {
	clients    map[int]map[*Client]bool
	notify     chan message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[int]map[*Client]bool),
		notify:     make(chan message, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until ctx is cancelled, then closes every connection.
// It never writes to a socket itself.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for client := range set {
					h.remove(client)
				}
			}
			return
		case client := <-h.register:
			if h.clients[client.WorkerID] == nil {
				h.clients[client.WorkerID] = make(map[*Client]bool)
			}
			h.clients[client.WorkerID][client] = true
			go h.writePump(client)
		case client := <-h.unregister:
			h.remove(client)
		case msg := <-h.notify:
			for client := range h.clients[msg.workerID] {
				select {
				case client.send <- msg.data:
				default:
					logger.ErrorLogger.Warn("Dropping slow websocket client", zap.Int("worker_id", msg.workerID))
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) writePump(client *Client) {
	for data := range client.send {
		if d, ok := client.Conn.(deadliner); ok {
			_ = d.SetWriteDeadline(time.Now().Add(writeWait))
		}
		if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			logger.ErrorLogger.Warn("Dropping websocket client", zap.Int("worker_id", client.WorkerID), zap.Error(err))
			h.Unregister(client)
			// Drain until the hub closes send.
			for range client.send {
			}
			return
		}
	}
}

func (h *Hub) remove(client *Client) {
	set := h.clients[client.WorkerID]
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.clients, client.WorkerID)
	}
	close(client.send)
	client.Conn.Close()
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// NotifyBooking queues event as JSON for every connection of workerID. It
// never blocks; a full queue drops the event and returns ErrHubBusy.
func (h *Hub) NotifyBooking(workerID int, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	select {
	case <-h.done:
		return nil
	default:
	}
	select {
	case h.notify <- message{workerID: workerID, data: data}:
		return nil
	default:
		return ErrHubBusy
	}
}

// Handler upgrades the request and registers the authenticated worker.
// It expects "userID" in c.Locals.
func (h *Hub) Handler() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		workerID, _ := c.Locals("userID").(int)
		client := NewClient(c, workerID)
		h.Register(client)
		defer h.Unregister(client)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	})
}

// RequireUpgrade rejects plain HTTP requests on websocket routes.
func RequireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}
