package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"collabhub/internal/models"
)

// 背景持久化的任務類型。
// 檔案與看板走寫後（write-behind）路徑：編輯先廣播，
// 持久化由隊列非同步完成，失敗由 asynq 依重試策略處理。
const (
	TypeFileSave   = "file:save"
	TypeFileDelete = "file:delete"
	TypeBoardSave  = "board:save"
)

// FileSavePayload 是檔案 upsert 任務的資料
type FileSavePayload struct {
	File models.RoomFile `json:"file"`
}

// FileDeletePayload 是檔案刪除任務的資料
type FileDeletePayload struct {
	RoomID string `json:"room_id"`
	Name   string `json:"name"`
}

// BoardSavePayload 是看板快照任務的資料
type BoardSavePayload struct {
	RoomID string                `json:"room_id"`
	State  models.TaskBoardState `json:"state"`
}

// Enqueuer 封裝 asynq 客戶端，實作 service.TaskEnqueuer。
// Enqueue 只負責把任務放進隊列，實際寫入由 worker 執行。
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(redisOpt asynq.RedisClientOpt) *Enqueuer {
	return &Enqueuer{client: asynq.NewClient(redisOpt)}
}

func (e *Enqueuer) EnqueueFileSave(file models.RoomFile) error {
	payload, err := json.Marshal(FileSavePayload{File: file})
	if err != nil {
		return err
	}
	_, err = e.client.Enqueue(asynq.NewTask(TypeFileSave, payload), asynq.MaxRetry(5))
	return err
}

func (e *Enqueuer) EnqueueFileDelete(roomID, name string) error {
	payload, err := json.Marshal(FileDeletePayload{RoomID: roomID, Name: name})
	if err != nil {
		return err
	}
	_, err = e.client.Enqueue(asynq.NewTask(TypeFileDelete, payload), asynq.MaxRetry(5))
	return err
}

func (e *Enqueuer) EnqueueBoardSave(roomID string, state models.TaskBoardState) error {
	payload, err := json.Marshal(BoardSavePayload{RoomID: roomID, State: state})
	if err != nil {
		return err
	}
	_, err = e.client.Enqueue(asynq.NewTask(TypeBoardSave, payload), asynq.MaxRetry(5))
	return err
}

func (e *Enqueuer) Close() error {
	return e.client.Close()
}
