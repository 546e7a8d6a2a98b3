package models

import (
	"time"
)

// PresenceEntry 表示一個參與者在房間中的活躍狀態。
// 只存在於記憶體中，超過閒置 TTL 後由清掃任務移除。
type PresenceEntry struct {
	UserID      uint      `json:"user_id"`
	DisplayName string    `json:"display_name"`
	CurrentFile string    `json:"current_file,omitempty"`
	LastSeen    time.Time `json:"last_seen"`
}
