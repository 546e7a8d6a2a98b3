package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"collabhub/internal/repository"
	"collabhub/internal/tasks"
)

// PersistenceHandler 執行寫後任務的實際資料庫寫入。
// 回傳錯誤會讓 asynq 重試該任務；寫入採覆蓋即贏，
// 重試造成的順序顛倒由 last-writer-wins 語義吸收。
type PersistenceHandler struct {
	fileRepo  repository.FileRepository
	boardRepo repository.BoardRepository
	log       *logrus.Entry
}

func NewPersistenceHandler(fileRepo repository.FileRepository, boardRepo repository.BoardRepository) *PersistenceHandler {
	return &PersistenceHandler{
		fileRepo:  fileRepo,
		boardRepo: boardRepo,
		log:       logrus.WithField("component", "persistence_handler"),
	}
}

// HandleFileSave 將檔案狀態 upsert 到持久層
func (h *PersistenceHandler) HandleFileSave(ctx context.Context, t *asynq.Task) error {
	var payload tasks.FileSavePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal file save payload: %w: %w", err, asynq.SkipRetry)
	}

	if err := h.fileRepo.Save(&payload.File); err != nil {
		return fmt.Errorf("save file %s/%s: %w", payload.File.RoomID, payload.File.Name, err)
	}
	h.log.WithFields(logrus.Fields{
		"room_id": payload.File.RoomID,
		"file":    payload.File.Name,
		"version": payload.File.Version,
	}).Debug("File persisted")
	return nil
}

// HandleFileDelete 從持久層刪除檔案，刪除不存在的檔案同樣成功
func (h *PersistenceHandler) HandleFileDelete(ctx context.Context, t *asynq.Task) error {
	var payload tasks.FileDeletePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal file delete payload: %w: %w", err, asynq.SkipRetry)
	}

	if err := h.fileRepo.Delete(payload.RoomID, payload.Name); err != nil {
		return fmt.Errorf("delete file %s/%s: %w", payload.RoomID, payload.Name, err)
	}
	return nil
}

// HandleBoardSave 寫入整份看板快照
func (h *PersistenceHandler) HandleBoardSave(ctx context.Context, t *asynq.Task) error {
	var payload tasks.BoardSavePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal board save payload: %w: %w", err, asynq.SkipRetry)
	}

	if err := h.boardRepo.Put(payload.RoomID, payload.State); err != nil {
		return fmt.Errorf("save board %s: %w", payload.RoomID, err)
	}
	return nil
}
