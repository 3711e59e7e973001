package websocket

import (
	"encoding/json"
	"sync"

	"github.com/mautops/practica-gin/internal/integration"
	"github.com/mautops/practica-gin/internal/statemachine"
	"github.com/sirupsen/logrus"
)

// Message 推送给客户端的消息
type Message struct {
	Type  string                       `json:"type"`
	Event integration.TransitionEvent `json:"event"`
}

// outbound 待投递消息及其接收条件
type outbound struct {
	data []byte
	to   func(c *Client) bool
}

// Hub 管理所有 WebSocket 连接
type Hub struct {
	// 已注册的客户端
	clients map[*Client]bool

	// 广播消息
	broadcast chan outbound

	// 注册新客户端
	Register chan *Client

	// 注销客户端
	Unregister chan *Client

	done chan struct{}
	once sync.Once

	// 互斥锁，保护 clients map
	mu     sync.RWMutex
	logger *logrus.Logger
}

// NewHub 创建新的 Hub
func NewHub(logger *logrus.Logger) *Hub {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outbound, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run 运行 Hub,直到 Stop 被调用
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			h.deliver(msg)

		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop 停止 Hub 并关闭所有客户端
func (h *Hub) Stop() {
	h.once.Do(func() { close(h.done) })
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.Send)
	}
}

// deliver 向满足条件的客户端发送,发送队列已满的客户端会被断开
func (h *Hub) deliver(msg outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if !msg.to(client) {
			continue
		}
		select {
		case client.Send <- msg.data:
		default:
			close(client.Send)
			delete(h.clients, client)
		}
	}
}

// OnTransition 将已提交的转换推送给协调员和实习所属学生
// 重放不推送
func (h *Hub) OnTransition(evt integration.TransitionEvent) {
	if evt.Result != integration.ResultApplied && evt.Result != integration.ResultWaiting {
		return
	}
	data, err := json.Marshal(Message{Type: "practice_transition", Event: evt})
	if err != nil {
		h.logger.WithError(err).Error("failed to encode transition event")
		return
	}

	msg := outbound{data: data, to: func(c *Client) bool {
		return c.Role == statemachine.RoleCoordinator || (evt.StudentID != "" && c.UserID == evt.StudentID)
	}}
	select {
	case h.broadcast <- msg:
	case <-h.done:
	default:
		h.logger.WithField("practice_id", evt.PracticeID).Warn("websocket broadcast queue full, event dropped")
	}
}

// HasClient 检查客户端是否存在
func (h *Hub) HasClient(clientID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.ID == clientID {
			return true
		}
	}
	return false
}

// GetClientCount 获取客户端数量
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}
