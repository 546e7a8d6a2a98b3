package service

import (
	"errors"
)

// 同步核心的操作結果錯誤。
// 這些錯誤只回傳給呼叫端（失敗的 ack 或錯誤訊框），永遠不會被廣播。
var (
	// ErrValidation 表示請求內容無效（空內容、缺少識別碼）
	ErrValidation = errors.New("無效的請求內容")

	// ErrRoomNotFound 表示操作目標房間不在記憶體中
	ErrRoomNotFound = errors.New("房間不存在")

	// ErrFileConflict 表示建立的檔案名稱已存在
	ErrFileConflict = errors.New("檔案已存在")

	// ErrAuthorization 表示請求者沒有權限執行此操作
	ErrAuthorization = errors.New("沒有權限執行此操作")

	// ErrMessageNotFound 表示聊天訊息不存在
	ErrMessageNotFound = errors.New("訊息不存在")

	// ErrTaskNotFound 表示看板任務不存在
	ErrTaskNotFound = errors.New("任務不存在")

	// ErrColumnNotFound 表示看板欄位不存在
	ErrColumnNotFound = errors.New("看板欄位不存在")
)
