package tracking

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yeremiapane/hostel-meals/services"
	"github.com/yeremiapane/hostel-meals/utils"
)

const (
	EventOrderStatus = "order_status"
	EventConnected   = "connected"

	writeWait = 10 * time.Second
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Filter decides whether a subscriber should see an event.
type Filter func(services.OrderEvent) bool

// Hub fans order status events out to connected status viewers. It is
// read-only: clients never send commands through it.
type Hub struct {
	clients map[Conn]Filter
	mutex   sync.Mutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[Conn]Filter)}
}

func (h *Hub) Register(conn Conn, filter Filter) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = filter
}

func (h *Hub) Unregister(conn Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
}

// Clients returns the number of connected viewers.
func (h *Hub) Clients() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// PublishOrderEvent implements services.OrderNotifier.
func (h *Hub) PublishOrderEvent(event services.OrderEvent) {
	h.broadcast(Message{Event: EventOrderStatus, Data: event}, func(f Filter) bool {
		return f == nil || f(event)
	})
}

// Send writes a message to one connection, used for the greeting.
func (h *Hub) Send(conn Conn, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	h.mutex.Lock()
	defer h.mutex.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (h *Hub) broadcast(msg Message, wants func(Filter) bool) {
	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Errorf("Error marshaling message: %v", err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	sent := 0
	for conn, filter := range h.clients {
		if !wants(filter) {
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.Errorf("Error sending message to client: %v", err)
			delete(h.clients, conn)
			conn.Close()
			continue
		}
		sent++
	}
	utils.InfoLogger.Debugf("Broadcast %s to %d clients", msg.Event, sent)
}
