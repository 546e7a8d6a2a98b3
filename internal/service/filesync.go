package service

import (
	"strings"

	"github.com/sirupsen/logrus"

	"collabhub/internal/models"
)

// TaskEnqueuer 是寫後（write-behind）持久化的入隊介面。
// 檔案與看板的寫入都走背景任務隊列，失敗由隊列自行重試，
// 永遠不會同步回報給編輯者。
type TaskEnqueuer interface {
	EnqueueFileSave(file models.RoomFile) error
	EnqueueFileDelete(roomID, name string) error
	EnqueueBoardSave(roomID string, state models.TaskBoardState) error
}

// FileSyncService 是檔案共編通道。
// 策略：last-writer-wins 全文覆蓋，先廣播再入隊持久化，
// 把感知延遲壓到最低；持久化的成敗不影響廣播路徑。
type FileSyncService struct {
	rooms       *RoomService
	broadcaster Broadcaster
	enqueuer    TaskEnqueuer
	log         *logrus.Entry
}

func NewFileSyncService(rooms *RoomService, broadcaster Broadcaster, enqueuer TaskEnqueuer) *FileSyncService {
	return &FileSyncService{
		rooms:       rooms,
		broadcaster: broadcaster,
		enqueuer:    enqueuer,
		log:         logrus.WithField("component", "file_sync"),
	}
}

// Edit 處理一次全文編輯：無條件覆蓋快取、廣播給其他成員、入隊持久化。
// 廣播先於持久化完成，兩者互不等待。
func (s *FileSyncService) Edit(roomID, originConnID string, editorID uint, name, content, language string) error {
	if strings.TrimSpace(name) == "" {
		return ErrValidation
	}

	file, err := s.rooms.ApplyEdit(roomID, editorID, name, content, language)
	if err != nil {
		return err
	}

	s.broadcaster.BroadcastToRoom(roomID, originConnID, &models.Event{
		Type:     models.EventFileEdit,
		RoomID:   roomID,
		UserID:   editorID,
		FileName: file.Name,
		Content:  file.Content,
		Language: file.Language,
		Version:  file.Version,
	})

	if err := s.enqueuer.EnqueueFileSave(file); err != nil {
		// 入隊失敗只記錄：持久化問題不回傳給編輯者
		s.log.WithError(err).WithFields(logrus.Fields{
			"room_id": roomID,
			"file":    name,
		}).Error("Failed to enqueue file save")
	}
	return nil
}

// Create 建立新檔案，名稱重複時回傳 ErrFileConflict 給呼叫端
func (s *FileSyncService) Create(roomID, originConnID string, creatorID uint, name, content, language string) error {
	if strings.TrimSpace(name) == "" {
		return ErrValidation
	}

	file, err := s.rooms.CreateFile(roomID, creatorID, name, content, language)
	if err != nil {
		return err
	}

	s.broadcaster.BroadcastToRoom(roomID, originConnID, &models.Event{
		Type:     models.EventFileCreated,
		RoomID:   roomID,
		UserID:   creatorID,
		FileName: file.Name,
		Content:  file.Content,
		Language: file.Language,
		Version:  file.Version,
	})

	if err := s.enqueuer.EnqueueFileSave(file); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"room_id": roomID,
			"file":    name,
		}).Error("Failed to enqueue file save")
	}
	return nil
}

// Delete 刪除檔案。刪除不存在的檔案是冪等的成功，
// 廣播與持久化的形狀和刪除既有檔案完全相同。
func (s *FileSyncService) Delete(roomID, originConnID string, deleterID uint, name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrValidation
	}

	if _, err := s.rooms.DeleteFile(roomID, name); err != nil {
		return err
	}

	s.broadcaster.BroadcastToRoom(roomID, originConnID, &models.Event{
		Type:     models.EventFileDeleted,
		RoomID:   roomID,
		UserID:   deleterID,
		FileName: name,
	})

	if err := s.enqueuer.EnqueueFileDelete(roomID, name); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"room_id": roomID,
			"file":    name,
		}).Error("Failed to enqueue file delete")
	}
	return nil
}

// Files 回傳房間的完整檔案表（加入回應與重新同步使用）
func (s *FileSyncService) Files(roomID string) (map[string]models.RoomFile, error) {
	return s.rooms.PeekFiles(roomID)
}
