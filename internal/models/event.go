package models

import (
	"time"
)

// 事件類型。同一組常數同時用於客戶端上行訊息與伺服器廣播，
// 廣播採 at-most-once：不重送、不補發，漏接的客戶端
// 透過重新拉取權威狀態來恢復。
const (
	// 客戶端 -> 伺服器
	EventFileEdit       = "fileEdit"
	EventFileCreate     = "fileCreate"
	EventFileDelete     = "fileDelete"
	EventChatMessage    = "chatMessage"
	EventChatDelete     = "chatDelete"
	EventPresenceUpdate = "presenceUpdate"
	EventTaskMove       = "taskMove"
	EventTaskAdd        = "taskAdd"

	// 伺服器 -> 客戶端
	EventJoinAck         = "joinAck"
	EventFileCreated     = "fileCreated"
	EventFileDeleted     = "fileDeleted"
	EventChatDeleted     = "chatDeleted"
	EventChatAck         = "chatAck"
	EventPresenceChanged = "presenceChanged"
	EventTaskMoved       = "taskMoved"
	EventTaskAdded       = "taskAdded"
	EventUserJoined      = "userJoined"
	EventUserLeft        = "userLeft"
	EventError           = "error"
)

// Event 代表一個統一的事件結構，同時滿足 WebSocket 上行與廣播需求。
// 各事件類型只使用自己需要的欄位，其餘欄位序列化時省略。
type Event struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id,omitempty"`
	UserID uint   `json:"user_id,omitempty"`

	// 檔案同步
	FileName string `json:"file_name,omitempty"`
	Content  string `json:"content,omitempty"`
	Language string `json:"language,omitempty"`
	Version  int64  `json:"version,omitempty"`

	// 聊天
	MessageID string       `json:"message_id,omitempty"`
	Message   *ChatMessage `json:"message,omitempty"`

	// 在線狀態
	DisplayName string `json:"display_name,omitempty"`
	CurrentFile string `json:"current_file,omitempty"`

	// 任務看板
	TaskID       string `json:"task_id,omitempty"`
	ColumnID     string `json:"column_id,omitempty"`
	FromColumnID string `json:"from_column_id,omitempty"`
	ToColumnID   string `json:"to_column_id,omitempty"`
	ToIndex      int    `json:"to_index"`
	AssigneeID   uint   `json:"assignee_id,omitempty"`
	Task         *Task  `json:"task,omitempty"`

	// 加入房間的初始快照
	Files    map[string]RoomFile `json:"files,omitempty"`
	Board    *TaskBoardState     `json:"board,omitempty"`
	Presence []PresenceEntry     `json:"presence,omitempty"`

	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}
