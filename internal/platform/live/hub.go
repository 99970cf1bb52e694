// Package live fans out workflow status transitions to connected websocket
// clients. It is a read-only side channel: nothing here can influence
// dispatch decisions, it only observes them after the reconciler commits a
// transition.
package live

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sami-patel/geoworkflow/internal/platform/logging"
)

// StatusMessage is broadcast whenever the reconciler persists a workflow.
type StatusMessage struct {
	Type       string    `json:"type"`
	WorkflowID string    `json:"workflow_id"`
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
}

// client is a single connected websocket subscriber, filtered to one workflow.
type client struct {
	id         string
	conn       *websocket.Conn
	workflowID string
	send       chan StatusMessage
}

// Hub manages websocket subscribers and broadcasts workflow status updates.
type Hub struct {
	log        *logging.Logger
	mu         sync.RWMutex
	clients    map[*client]bool
	broadcast  chan StatusMessage
	register   chan *client
	unregister chan *client
	done       chan struct{}
	closeOnce  sync.Once
}

// NewHub creates a Hub. Call Run in its own goroutine to start the fan-out
// loop.
func NewHub(log *logging.Logger) *Hub {
	return &Hub{
		log:        log,
		clients:    make(map[*client]bool),
		broadcast:  make(chan StatusMessage, 100),
		register:   make(chan *client, 10),
		unregister: make(chan *client, 10),
		done:       make(chan struct{}),
	}
}

// Run drains register/unregister/broadcast until the hub is stopped.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			h.log.Infow("live client registered", "client_id", c.id, "workflow_id", c.workflowID)
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				if c.workflowID != "" && c.workflowID != msg.WorkflowID {
					continue
				}
				select {
				case c.send <- msg:
				default:
					// slow consumer, drop the message rather than block the hub
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Stop shuts the hub down and closes all client connections.
func (h *Hub) Stop() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.mu.Lock()
		defer h.mu.Unlock()
		for c := range h.clients {
			close(c.send)
			delete(h.clients, c)
		}
	})
}

// Publish broadcasts a workflow status transition. Safe to call from the
// reconciler after every persisted workflow update.
func (h *Hub) Publish(workflowID, status string) {
	msg := StatusMessage{
		Type:       "workflow_status",
		WorkflowID: workflowID,
		Status:     status,
		Timestamp:  time.Now(),
	}
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWorkflow upgrades the request to a websocket and streams status
// messages for workflowID (or all workflows, if empty) until the client
// disconnects.
func (h *Hub) ServeWorkflow(w http.ResponseWriter, r *http.Request, workflowID string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{
		id:         uuid.New().String(),
		conn:       conn,
		workflowID: workflowID,
		send:       make(chan StatusMessage, 20),
	}

	h.register <- c
	go h.writePump(c)
	go h.readPump(c)
	return nil
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		data, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.unregister <- c
			return
		}
	}
}

// readPump discards client input but detects disconnects so the client can
// be unregistered promptly.
func (h *Hub) readPump(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.unregister <- c
			return
		}
	}
}
