package kds

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

// Event types
const (
	EventOrderCreated = "order_created"
	EventOrderStatus  = "order_status"
	EventOrderDeleted = "order_deleted"
	EventPaymentPaid  = "payment_paid"
	EventTableUpdate  = "table_update"
	EventTableCreate  = "table_create"
	EventTableDelete  = "table_delete"
	EventMenuUpdate   = "menu_update"
)

const writeWait = 5 * time.Second

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type client struct {
	id           string
	restaurantID uint
	mu           sync.Mutex
}

// Hub fans events out to the staff screens of each restaurant.
type Hub struct {
	clients map[*websocket.Conn]*client
	mutex   sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]*client)}
}

// Register adds a connection that receives events for restaurantID and
// returns its client id.
func (h *Hub) Register(conn *websocket.Conn, restaurantID uint) string {
	c := &client{id: uuid.NewString(), restaurantID: restaurantID}

	h.mutex.Lock()
	h.clients[conn] = c
	n := len(h.clients)
	h.mutex.Unlock()

	utils.InfoLogger.WithField("client_id", c.id).WithField("clients", n).Info("kds client connected")
	return c.id
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mutex.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mutex.Unlock()

	if ok {
		conn.Close()
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Broadcast sends msg to every connection of the restaurant. Connections that
// fail to accept the write within writeWait are dropped.
func (h *Hub) Broadcast(restaurantID uint, msg Message) {
	if h == nil {
		return
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.WithError(err).WithField("event", msg.Event).Error("failed to encode kds message")
		return
	}

	h.mutex.RLock()
	targets := make(map[*websocket.Conn]*client, len(h.clients))
	for conn, c := range h.clients {
		if c.restaurantID == restaurantID {
			targets[conn] = c
		}
	}
	h.mutex.RUnlock()

	for conn, c := range targets {
		c.mu.Lock()
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := conn.WriteMessage(websocket.TextMessage, payload)
		c.mu.Unlock()
		if err != nil {
			utils.ErrorLogger.WithError(err).WithField("client_id", c.id).Warn("dropping kds client")
			h.Unregister(conn)
		}
	}
}

func (h *Hub) OrderCreated(order models.Order) {
	h.Broadcast(order.RestaurantID, Message{Event: EventOrderCreated, Data: order})
}

func (h *Hub) OrderStatus(order models.Order) {
	h.Broadcast(order.RestaurantID, Message{Event: EventOrderStatus, Data: order})
}

func (h *Hub) OrderDeleted(restaurantID, orderID uint) {
	h.Broadcast(restaurantID, Message{Event: EventOrderDeleted, Data: map[string]interface{}{"order_id": orderID}})
}

func (h *Hub) PaymentPaid(order models.Order) {
	h.Broadcast(order.RestaurantID, Message{Event: EventPaymentPaid, Data: order})
}

func (h *Hub) TableUpdate(table models.Table) {
	h.Broadcast(table.RestaurantID, Message{Event: EventTableUpdate, Data: table})
}

func (h *Hub) TableCreate(table models.Table) {
	h.Broadcast(table.RestaurantID, Message{Event: EventTableCreate, Data: table})
}

func (h *Hub) TableDelete(table models.Table) {
	h.Broadcast(table.RestaurantID, Message{Event: EventTableDelete, Data: table})
}

func (h *Hub) MenuUpdate(menu models.Menu) {
	h.Broadcast(menu.RestaurantID, Message{Event: EventMenuUpdate, Data: menu})
}

