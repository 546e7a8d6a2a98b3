package models

import (
	"time"
)

// RoomFile 表示房間內一個共編檔案的完整狀態。
//
// 記憶體中的副本只是快取，資料庫才是最終的事實來源。
// 衝突策略為 last-writer-wins：每次編輯都以完整內容覆蓋，
// Version 單調遞增，保留給未來的衝突偵測使用，目前不做任何比對。
type RoomFile struct {
	RoomID         string    `gorm:"primaryKey;size:64" json:"room_id"`
	Name           string    `gorm:"primaryKey;size:255" json:"name"`
	Content        string    `gorm:"type:text" json:"content"`
	Language       string    `gorm:"size:32" json:"language"`
	Version        int64     `json:"version"`
	LastModified   time.Time `json:"last_modified"`
	LastModifiedBy uint      `json:"last_modified_by"`
}

func (RoomFile) TableName() string {
	return "room_files"
}
