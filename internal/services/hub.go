package services

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	PushChannel  = "posts"
	EventNewPost = "new-post-event"

	writeWait  = 5 * time.Second
	sendBuffer = 16
)

// HubMessage is the JSON frame written to every subscriber.
type HubMessage struct {
	Channel string      `json:"channel"`
	Event   string      `json:"event"`
	Data    interface{} `json:"data"`
}

// Hub fans events out to connected browsers over websockets. Each client has
// its own buffered queue drained by a writer goroutine, so Publish never waits
// on the network.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex // guards clients
	clients map[*hubClient]struct{}
}

type hubClient struct {
	conn *websocket.Conn
	send chan HubMessage
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*hubClient]struct{}),
	}
}

// ServeWS upgrades the request and keeps the connection registered until the peer goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[hub] upgrade error: %v", err)
		return
	}

	client := &hubClient{conn: conn, send: make(chan HubMessage, sendBuffer)}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	go client.writeLoop()

	// Subscribers never send anything we act on; reading only detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(client)
}

// writeLoop delivers queued messages until the queue is closed or a write fails.
func (c *hubClient) writeLoop() {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(msg); err != nil {
			log.Printf("[hub] broadcast error: %v", err)
			return
		}
	}
}

func (h *Hub) remove(client *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(client)
}

// drop unregisters client and closes its queue. Callers hold h.mu.
func (h *Hub) drop(client *hubClient) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// Publish queues the event for every client and returns how many accepted it.
// Clients whose queue is full are dropped.
func (h *Hub) Publish(channel, event string, data interface{}) int {
	msg := HubMessage{Channel: channel, Event: event, Data: data}

	h.mu.Lock()
	defer h.mu.Unlock()

	queued := 0
	for client := range h.clients {
		select {
		case client.send <- msg:
			queued++
		default:
			log.Printf("[hub] dropping slow client")
			h.drop(client)
		}
	}
	return queued
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		client.conn.Close()
		h.drop(client)
	}
}
