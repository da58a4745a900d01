package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const EventOperationRecorded = "operation_recorded"

// Event represents a message sent to websocket clients when a processing
// operation is recorded
type Event struct {
	Type            string `json:"type"`
	ProjectImageID  int64  `json:"project_image_id,omitempty"`
	OperationID     int64  `json:"operation_id,omitempty"`
	Algorithm       string `json:"algorithm,omitempty"`
	Success         bool   `json:"success"`
	Error           string `json:"error,omitempty"`
	ExecutionTimeMs int    `json:"execution_time_ms"`
	Timestamp       int64  `json:"timestamp"`
}

// OperationRecorded builds the event published after an audit record is
// written
func OperationRecorded(operationID, imageID int64, algorithm string, success bool, errMsg string, executionTimeMs int) Event {
	return Event{
		Type:            EventOperationRecorded,
		ProjectImageID:  imageID,
		OperationID:     operationID,
		Algorithm:       algorithm,
		Success:         success,
		Error:           errMsg,
		ExecutionTimeMs: executionTimeMs,
		Timestamp:       time.Now().Unix(),
	}
}

type Client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub is a simple global pubsub for websocket clients
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			// write lock: slow clients get dropped from the map here
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) Broadcast(event Event) {
	encoded, err := json.Marshal(event)
	if err != nil {
		log.Printf("realtime: failed to marshal event: %v", err)
		return
	}
	select {
	case h.broadcast <- encoded:
	default:
		log.Printf("realtime: dropping event, broadcast channel full")
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the connection and registers a client
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("realtime: websocket upgrade error: %v", err)
		return
	}
	client := &Client{conn: conn, send: make(chan []byte, 256)}
	h.register <- client

	// writer
	go func() {
		for msg := range client.send {
			if err := client.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				break
			}
		}
		client.conn.Close()
	}()

	// reader (just consume pings/close)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.unregister <- client
}
