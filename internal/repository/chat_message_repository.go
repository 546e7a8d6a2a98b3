package repository

import (
	"collabhub/internal/models"
	"collabhub/internal/storage"
)

type ChatMessageRepository interface {
	Create(message *models.ChatMessage) error
	FindByID(id string) (*models.ChatMessage, error)
	FindRecentByRoom(roomID string, limit int) ([]models.ChatMessage, error)
	Delete(id string) error
}

type chatMessageRepository struct {
	db *storage.PostgresDB
}

func NewChatMessageRepository(db *storage.PostgresDB) ChatMessageRepository {
	return &chatMessageRepository{db: db}
}

func (r *chatMessageRepository) Create(message *models.ChatMessage) error {
	return r.db.Create(message).Error
}

func (r *chatMessageRepository) FindByID(id string) (*models.ChatMessage, error) {
	var message models.ChatMessage
	err := r.db.First(&message, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// FindRecentByRoom 回傳房間最近的訊息，依時間正序排列
func (r *chatMessageRepository) FindRecentByRoom(roomID string, limit int) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := r.db.Where("room_id = ?", roomID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	// 反轉為正序，方便客戶端直接 append
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *chatMessageRepository) Delete(id string) error {
	return r.db.Delete(&models.ChatMessage{}, "id = ?", id).Error
}
