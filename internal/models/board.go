package models

import (
	"time"
)

// Task 表示任務看板上的一張卡片
type Task struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	AssigneeID uint      `json:"assignee_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Column 表示看板中的一個欄位，TaskIDs 保存卡片的顯示順序
type Column struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	TaskIDs []string `json:"task_ids"`
}

// TaskBoardState 是一個房間的完整看板狀態。
//
// 不變量：每個任務 id 恰好出現在一個欄位的 TaskIDs 中，
// 且 Tasks 的 key 集合等於所有欄位 TaskIDs 的聯集。
// 持久化一律寫入整份快照，不做增量差異。
type TaskBoardState struct {
	Columns []Column        `json:"columns"`
	Tasks   map[string]Task `json:"tasks"`
}

// NewTaskBoardState 建立預設的三欄看板
func NewTaskBoardState() TaskBoardState {
	return TaskBoardState{
		Columns: []Column{
			{ID: "todo", Title: "To Do", TaskIDs: []string{}},
			{ID: "in-progress", Title: "In Progress", TaskIDs: []string{}},
			{ID: "done", Title: "Done", TaskIDs: []string{}},
		},
		Tasks: make(map[string]Task),
	}
}

// Clone 回傳看板狀態的深拷貝，避免快取被呼叫端修改
func (s TaskBoardState) Clone() TaskBoardState {
	out := TaskBoardState{
		Columns: make([]Column, len(s.Columns)),
		Tasks:   make(map[string]Task, len(s.Tasks)),
	}
	for i, col := range s.Columns {
		ids := make([]string, len(col.TaskIDs))
		copy(ids, col.TaskIDs)
		out.Columns[i] = Column{ID: col.ID, Title: col.Title, TaskIDs: ids}
	}
	for id, task := range s.Tasks {
		out.Tasks[id] = task
	}
	return out
}

// BoardSnapshot 是看板狀態在資料庫中的存放形式，State 為 JSON 序列化後的快照
type BoardSnapshot struct {
	RoomID    string    `gorm:"primaryKey;size:64" json:"room_id"`
	State     string    `gorm:"type:jsonb" json:"state"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (BoardSnapshot) TableName() string {
	return "board_snapshots"
}
