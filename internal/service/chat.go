package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"collabhub/internal/models"
	"collabhub/internal/repository"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 200
)

// ChatService 是聊天通道。
// 與檔案同步相反，聊天把耐久性放在延遲之前：
// 訊息先成功寫入持久層，才廣播給其他成員並回覆發送者；
// 持久化失敗的訊息不會出現在任何人的廣播流中。
type ChatService struct {
	messageRepo repository.ChatMessageRepository
	broadcaster Broadcaster
	log         *logrus.Entry
}

func NewChatService(messageRepo repository.ChatMessageRepository, broadcaster Broadcaster) *ChatService {
	return &ChatService{
		messageRepo: messageRepo,
		broadcaster: broadcaster,
		log:         logrus.WithField("component", "chat"),
	}
}

// Post 發送一則聊天訊息，回傳持久化後的訊息（含生成的 id 與時間戳）
func (s *ChatService) Post(roomID, originConnID string, authorID uint, authorName, content string) (*models.ChatMessage, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrValidation
	}

	message := &models.ChatMessage{
		ID:         uuid.NewString(),
		RoomID:     roomID,
		AuthorID:   authorID,
		AuthorName: authorName,
		Content:    content,
		Timestamp:  time.Now(),
	}

	// 先持久化：失敗時直接回傳錯誤的 ack，不做任何廣播
	if err := s.messageRepo.Create(message); err != nil {
		s.log.WithError(err).WithField("room_id", roomID).Error("Failed to persist chat message")
		return nil, fmt.Errorf("persist chat message: %w", err)
	}

	s.broadcaster.BroadcastToRoom(roomID, originConnID, &models.Event{
		Type:    models.EventChatMessage,
		RoomID:  roomID,
		UserID:  authorID,
		Message: message,
	})
	return message, nil
}

// Delete 刪除一則訊息。只有作者本人可以刪除，
// 權限檢查在任何變更或廣播之前完成。
func (s *ChatService) Delete(roomID, originConnID, messageID string, requesterID uint) error {
	message, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrMessageNotFound
		}
		return fmt.Errorf("find chat message: %w", err)
	}
	if message.AuthorID != requesterID {
		return ErrAuthorization
	}

	if err := s.messageRepo.Delete(messageID); err != nil {
		return fmt.Errorf("delete chat message: %w", err)
	}

	s.broadcaster.BroadcastToRoom(roomID, originConnID, &models.Event{
		Type:      models.EventChatDeleted,
		RoomID:    roomID,
		UserID:    requesterID,
		MessageID: messageID,
	})
	return nil
}

// History 回傳房間最近的聊天紀錄（重新同步端點使用）。
// limit 未指定時取預設值，過大時夾到上限。
func (s *ChatService) History(roomID string, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.messageRepo.FindRecentByRoom(roomID, limit)
}
