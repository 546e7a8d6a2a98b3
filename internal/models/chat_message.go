package models

import (
	"time"
)

// ChatMessage 表示一條聊天訊息，append-only。
// 刪除是獨立的操作，不會修改訊息內容。
type ChatMessage struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	RoomID     string    `gorm:"index;size:64" json:"room_id"`
	AuthorID   uint      `gorm:"index" json:"author_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `gorm:"type:text" json:"content"`
	Timestamp  time.Time `json:"timestamp"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
