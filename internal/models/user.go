package models

import (
	"gorm.io/gorm"
)

// User 表示系統中的用戶
//
// 用戶的註冊與登入只是同步核心的外部協作者，
// 核心只需要 token 中攜帶的 (ID, DisplayName) 身份。
type User struct {
	gorm.Model
	Username    string `gorm:"uniqueIndex;not null" json:"username"` // 用戶名，必須唯一
	Password    string `gorm:"not null" json:"-"`                    // 密碼，json 序列化時會被忽略
	DisplayName string `gorm:"not null" json:"display_name"`         // 顯示名稱，廣播事件中使用
}
