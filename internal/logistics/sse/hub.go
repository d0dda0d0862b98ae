package sse

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// 事件类型
const (
	EventMaterialRequest    = "material_request"
	EventDeliveryAssignment = "delivery_assignment"
)

// Event represents a Server-Sent Event
type Event struct {
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// Client represents a connected SSE client
type Client struct {
	ID     string
	UserID string
	Events chan Event
}

// Hub manages all SSE client connections
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
}

// NewHub creates a new SSE Hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// Register adds a new client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	h.logger.Debug("SSE client registered",
		zap.String("client_id", client.ID),
		zap.String("user_id", client.UserID),
		zap.Int("total", len(h.clients)),
	)
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		h.logger.Debug("SSE client unregistered", zap.String("client_id", clientID), zap.Int("total", len(h.clients)))
	}
}

// ClientCount 当前连接数
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends an event to all connected clients
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		h.deliver(client, event)
	}
}

// SendToUser 给特定用户发送事件（而非广播）
func (h *Hub) SendToUser(userID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.UserID == userID {
			h.deliver(client, event)
		}
	}
}

// 调用方持有读锁
func (h *Hub) deliver(client *Client, event Event) {
	select {
	case client.Events <- event:
	default:
		h.logger.Warn("SSE client buffer full, skipping event",
			zap.String("client_id", client.ID),
			zap.String("event", event.EventType),
		)
	}
}

// PublishRequestUpdate 物料申请变化广播给所有在线用户
func (h *Hub) PublishRequestUpdate(requestID, projectID, status, action string) {
	h.Broadcast(newEvent(EventMaterialRequest, map[string]string{
		"request_id": requestID,
		"project_id": projectID,
		"status":     status,
		"action":     action,
	}))
}

// PublishAssignmentUpdate 配送分配变化：广播一次，另外单独推送给对应司机的 my_ 事件
func (h *Hub) PublishAssignmentUpdate(assignmentID, requestID, driverID, status, action string) {
	payload := map[string]string{
		"assignment_id": assignmentID,
		"request_id":    requestID,
		"driver_id":     driverID,
		"status":        status,
		"action":        action,
	}
	h.Broadcast(newEvent(EventDeliveryAssignment, payload))
	h.SendToUser(driverID, newEvent("my_"+EventDeliveryAssignment, payload))
}

func newEvent(eventType string, payload map[string]string) Event {
	data, _ := json.Marshal(payload)
	return Event{EventType: eventType, Data: string(data)}
}
