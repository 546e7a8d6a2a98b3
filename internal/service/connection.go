package service

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"collabhub/internal/models"
)

// ConnectionManager 是連線生命週期的總協調者：
// 把一條參與者連線接上房間（加入、初始快照、userJoined 廣播）、
// 將入站事件派發到對應的同步通道，並在斷線時完成清理。
type ConnectionManager struct {
	ws       *WebSocketManager
	rooms    *RoomService
	presence *PresenceTracker
	fileSync *FileSyncService
	chat     *ChatService
	board    *BoardService
	log      *logrus.Entry
}

func NewConnectionManager(ws *WebSocketManager, rooms *RoomService, presence *PresenceTracker,
	fileSync *FileSyncService, chat *ChatService, board *BoardService) *ConnectionManager {
	return &ConnectionManager{
		ws:       ws,
		rooms:    rooms,
		presence: presence,
		fileSync: fileSync,
		chat:     chat,
		board:    board,
		log:      logrus.WithField("component", "connection_manager"),
	}
}

// HandleConnection 處理一條新的 WebSocket 連線，阻塞直到連線結束。
// 流程：加入房間（必要時載入快取）→ 回覆初始快照 → 廣播 userJoined
// → 進入讀取循環派發事件 → 斷線清理。
func (m *ConnectionManager) HandleConnection(conn *websocket.Conn, roomID string, userID uint, displayName string) {
	client := NewClient(conn, uuid.NewString(), userID, displayName, roomID)
	logCtx := m.log.WithFields(logrus.Fields{
		"room_id": roomID,
		"user_id": userID,
		"conn_id": client.ConnID,
	})

	member := &Membership{
		ConnID:      client.ConnID,
		UserID:      userID,
		DisplayName: displayName,
		JoinedAt:    time.Now(),
	}
	if err := m.rooms.Join(roomID, member); err != nil {
		logCtx.WithError(err).Error("Failed to join room")
		conn.WriteMessage(websocket.TextMessage, m.errorFrame(err))
		conn.Close()
		return
	}

	m.ws.Register(client)
	m.presence.Mark(roomID, userID, displayName)
	go client.WritePump()

	// 初始快照：目前的檔案表、看板狀態與活躍清單
	m.sendJoinAck(client)

	m.ws.BroadcastToRoom(roomID, client.ConnID, &models.Event{
		Type:        models.EventUserJoined,
		RoomID:      roomID,
		UserID:      userID,
		DisplayName: displayName,
	})
	logCtx.Info("Client joined room")

	m.readPump(client)
	m.disconnect(client)
	logCtx.Info("Client disconnected")
}

// sendJoinAck 發送加入回應給新連線
func (m *ConnectionManager) sendJoinAck(client *Client) {
	files, err := m.rooms.FilesSnapshot(client.RoomID)
	if err != nil {
		m.log.WithError(err).WithField("room_id", client.RoomID).Error("Failed to snapshot files for join ack")
		files = map[string]models.RoomFile{}
	}
	board, err := m.rooms.BoardSnapshot(client.RoomID)
	if err != nil {
		m.log.WithError(err).WithField("room_id", client.RoomID).Error("Failed to snapshot board for join ack")
		board = models.NewTaskBoardState()
	}

	m.ws.SendToClient(client, &models.Event{
		Type:     models.EventJoinAck,
		RoomID:   client.RoomID,
		UserID:   client.UserID,
		Files:    files,
		Board:    &board,
		Presence: m.presence.Snapshot(client.RoomID),
	})
}

// readPump 持續讀取並依序處理此連線的上行事件。
// 同一發送者的事件在這裡逐一同步處理，保證 per-sender 的順序
// 一路延續到每個接收者的發送隊列。
func (m *ConnectionManager) readPump(client *Client) {
	client.Conn.SetReadLimit(maxMessageSize)
	_ = client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		_ = client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				m.log.WithError(err).WithFields(logrus.Fields{
					"room_id": client.RoomID,
					"user_id": client.UserID,
				}).Warn("Websocket unexpected close")
			}
			return
		}

		var event models.Event
		if err := json.Unmarshal(raw, &event); err != nil {
			m.log.WithError(err).WithField("user_id", client.UserID).Warn("Failed to parse inbound event")
			m.ws.SendToClient(client, &models.Event{Type: models.EventError, Error: "無法解析事件"})
			continue
		}

		// 任何入站事件都視為活動，更新在線狀態
		m.presence.Mark(client.RoomID, client.UserID, client.DisplayName)
		m.dispatch(client, &event)
	}
}

// dispatch 把入站事件路由到對應的同步通道。
// 操作錯誤只回給發送者本人，永遠不會被廣播。
func (m *ConnectionManager) dispatch(client *Client, event *models.Event) {
	roomID := client.RoomID
	var err error

	switch event.Type {
	case models.EventFileEdit:
		err = m.fileSync.Edit(roomID, client.ConnID, client.UserID, event.FileName, event.Content, event.Language)

	case models.EventFileCreate:
		err = m.fileSync.Create(roomID, client.ConnID, client.UserID, event.FileName, event.Content, event.Language)

	case models.EventFileDelete:
		err = m.fileSync.Delete(roomID, client.ConnID, client.UserID, event.FileName)

	case models.EventChatMessage:
		var message *models.ChatMessage
		message, err = m.chat.Post(roomID, client.ConnID, client.UserID, client.DisplayName, event.Content)
		if err == nil {
			// 持久化後的訊息（含生成的 id 與時間戳）回覆給發送者
			m.ws.SendToClient(client, &models.Event{
				Type:    models.EventChatAck,
				RoomID:  roomID,
				Message: message,
			})
		}

	case models.EventChatDelete:
		err = m.chat.Delete(roomID, client.ConnID, event.MessageID, client.UserID)

	case models.EventPresenceUpdate:
		m.presence.Update(roomID, client.ConnID, client.UserID, client.DisplayName, event.CurrentFile)

	case models.EventTaskMove:
		err = m.board.Move(roomID, client.ConnID, client.UserID, event.TaskID, event.FromColumnID, event.ToColumnID, event.ToIndex)

	case models.EventTaskAdd:
		_, err = m.board.Add(roomID, client.ConnID, client.UserID, event.ColumnID, event.Content, event.AssigneeID)

	default:
		m.log.WithFields(logrus.Fields{
			"event_type": event.Type,
			"user_id":    client.UserID,
		}).Warn("Unknown inbound event type")
		return
	}

	if err != nil {
		m.ws.SendToClient(client, &models.Event{Type: models.EventError, Error: err.Error()})
	}
}

// disconnect 完成斷線清理：移除連線與成員資格，
// 該用戶在房間內已無其他連線時才移除在線狀態並廣播 userLeft。
// 已經派發出去的事件不受影響，進行中的持久化也照常完成。
func (m *ConnectionManager) disconnect(client *Client) {
	m.ws.Unregister(client)
	m.rooms.Leave(client.RoomID, client.ConnID)
	client.Conn.Close()

	if m.ws.UserConnCount(client.RoomID, client.UserID) > 0 {
		return
	}
	if m.presence.Remove(client.RoomID, client.UserID) {
		m.ws.BroadcastToRoom(client.RoomID, "", &models.Event{
			Type:        models.EventUserLeft,
			RoomID:      client.RoomID,
			UserID:      client.UserID,
			DisplayName: client.DisplayName,
		})
	}
}

func (m *ConnectionManager) errorFrame(err error) []byte {
	raw, _ := json.Marshal(&models.Event{Type: models.EventError, Error: err.Error()})
	return raw
}
