package repository

import (
	"encoding/json"
	"time"

	"collabhub/internal/models"
	"collabhub/internal/storage"

	"gorm.io/gorm/clause"
)

type BoardRepository interface {
	Get(roomID string) (*models.TaskBoardState, error)
	Put(roomID string, state models.TaskBoardState) error
}

type boardRepository struct {
	db *storage.PostgresDB
}

func NewBoardRepository(db *storage.PostgresDB) BoardRepository {
	return &boardRepository{db: db}
}

// Get 讀取看板快照，房間尚無快照時回傳 (nil, nil)
func (r *boardRepository) Get(roomID string) (*models.TaskBoardState, error) {
	var snapshot models.BoardSnapshot
	err := r.db.First(&snapshot, "room_id = ?", roomID).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	var state models.TaskBoardState
	if err := json.Unmarshal([]byte(snapshot.State), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Put 寫入整份看板快照，覆蓋即贏
func (r *boardRepository) Put(roomID string, state models.TaskBoardState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}

	snapshot := models.BoardSnapshot{
		RoomID:    roomID,
		State:     string(raw),
		UpdatedAt: time.Now(),
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}},
		UpdateAll: true,
	}).Create(&snapshot).Error
}
