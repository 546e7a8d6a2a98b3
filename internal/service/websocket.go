package service

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"collabhub/internal/models"
)

const (
	// 寫入訊息的超時時間
	writeWait = 10 * time.Second

	// 等待下一個 pong 的最長時間
	pongWait = 60 * time.Second

	// 發送 ping 的週期，必須小於 pongWait
	pingPeriod = (pongWait * 9) / 10

	// 單一上行訊息的大小上限
	maxMessageSize = 64 * 1024
)

// Broadcaster 是各同步通道依賴的扇出介面。
// 傳遞 originConnID 以排除事件來源連線；傳空字串表示廣播給房間內所有連線。
type Broadcaster interface {
	BroadcastToRoom(roomID, originConnID string, event *models.Event)
}

// Client 代表一個 WebSocket 客戶端連線。
// SendChan 從不被關閉：廣播端可能在註銷後仍持有這條連線的快照，
// 關閉通道會讓併發的發送直接 panic。關閉改用 done 通知 WritePump 收尾，
// 註銷後殘留在通道裡的訊息隨連線一起被回收。
type Client struct {
	Conn        *websocket.Conn
	ConnID      string // 連線唯一識別碼，成員資格以它為鍵
	UserID      uint
	DisplayName string
	RoomID      string
	SendChan    chan []byte // 消息發送通道，用於異步傳送消息

	done      chan struct{}
	closeOnce sync.Once
}

// shutdown 通知 WritePump 結束，可安全地重複呼叫
func (c *Client) shutdown() {
	c.closeOnce.Do(func() { close(c.done) })
}

// WebSocketManager 管理所有的 WebSocket 連線並負責房間內的事件扇出。
// 投遞語義為 at-most-once：不重試、不等待確認，
// 慢速客戶端的訊息直接丟棄，由客戶端重新拉取權威狀態補救。
type WebSocketManager struct {
	clients    map[string]map[*Client]bool // 兩層 map: roomID -> client -> bool
	clientsMux sync.RWMutex                // 用於保護 clients map 的讀寫鎖
	log        *logrus.Entry
}

// NewWebSocketManager 創建並初始化新的 WebSocket 管理器
func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients: make(map[string]map[*Client]bool),
		log:     logrus.WithField("component", "websocket_manager"),
	}
}

// NewClient 創建一個新的 Client 實例
func NewClient(conn *websocket.Conn, connID string, userID uint, displayName, roomID string) *Client {
	return &Client{
		Conn:        conn,
		ConnID:      connID,
		UserID:      userID,
		DisplayName: displayName,
		RoomID:      roomID,
		SendChan:    make(chan []byte, 256),
		done:        make(chan struct{}),
	}
}

// Register 安全地添加新的客戶端連線
func (m *WebSocketManager) Register(client *Client) {
	m.clientsMux.Lock()
	defer m.clientsMux.Unlock()

	if m.clients[client.RoomID] == nil {
		m.clients[client.RoomID] = make(map[*Client]bool)
	}
	m.clients[client.RoomID][client] = true
}

// Unregister 安全地移除客戶端連線並通知其 WritePump 結束
func (m *WebSocketManager) Unregister(client *Client) {
	m.clientsMux.Lock()
	defer m.clientsMux.Unlock()

	clients, ok := m.clients[client.RoomID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	client.shutdown()
	// 房間內已無連線時移除該房間的紀錄
	if len(clients) == 0 {
		delete(m.clients, client.RoomID)
	}
}

// BroadcastToRoom 向房間內除了來源之外的所有連線廣播事件。
// 在讀鎖下先複製一份接收者清單再發送，避免發送期間長時間持鎖。
func (m *WebSocketManager) BroadcastToRoom(roomID, originConnID string, event *models.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		m.log.WithError(err).WithField("event_type", event.Type).Error("Failed to marshal broadcast event")
		return
	}

	m.clientsMux.RLock()
	roomClients := m.clients[roomID]
	recipients := make([]*Client, 0, len(roomClients))
	for client := range roomClients {
		if client.ConnID != originConnID {
			recipients = append(recipients, client)
		}
	}
	m.clientsMux.RUnlock()

	for _, client := range recipients {
		select {
		case client.SendChan <- payload:
			// 訊息成功加入發送隊列
		default:
			// 客戶端隊列已滿：依 at-most-once 語義直接丟棄這則訊息
			m.log.WithFields(logrus.Fields{
				"room_id":    roomID,
				"user_id":    client.UserID,
				"event_type": event.Type,
			}).Warn("Client send channel full, dropping broadcast")
		}
	}
}

// SendToClient 只發送給指定連線（ack 與錯誤訊框使用），非阻塞
func (m *WebSocketManager) SendToClient(client *Client, event *models.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		m.log.WithError(err).WithField("event_type", event.Type).Error("Failed to marshal event")
		return
	}
	select {
	case client.SendChan <- payload:
	default:
		m.log.WithFields(logrus.Fields{
			"room_id": client.RoomID,
			"user_id": client.UserID,
		}).Warn("Client send channel full, dropping direct message")
	}
}

// UserConnCount 回傳某用戶在房間內仍存活的連線數。
// 同一身份允許多條連線同時收廣播，最後一條斷開時才視為離開。
func (m *WebSocketManager) UserConnCount(roomID string, userID uint) int {
	m.clientsMux.RLock()
	defer m.clientsMux.RUnlock()

	count := 0
	for client := range m.clients[roomID] {
		if client.UserID == userID {
			count++
		}
	}
	return count
}

// RoomConnCount 回傳房間目前的連線數
func (m *WebSocketManager) RoomConnCount(roomID string) int {
	m.clientsMux.RLock()
	defer m.clientsMux.RUnlock()
	return len(m.clients[roomID])
}

// WritePump 將 SendChan 中的訊息寫入 WebSocket 連線，並定期發送心跳。
// 它在自己的 goroutine 中運行，連線被註銷或寫入失敗時結束。
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message := <-c.SendChan:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-c.done:
			// 連線已被管理器註銷，通知客戶端後退出
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
