package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collabhub/internal/models"
	"collabhub/internal/tasks"
)

type memFileRepo struct {
	files   map[string]models.RoomFile // "roomID/name" -> file
	saveErr error
}

func (r *memFileRepo) FindByRoom(roomID string) ([]models.RoomFile, error) { return nil, nil }

func (r *memFileRepo) Save(file *models.RoomFile) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.files[file.RoomID+"/"+file.Name] = *file
	return nil
}

func (r *memFileRepo) Delete(roomID, name string) error {
	delete(r.files, roomID+"/"+name)
	return nil
}

type memBoardRepo struct {
	boards map[string]models.TaskBoardState
}

func (r *memBoardRepo) Get(roomID string) (*models.TaskBoardState, error) { return nil, nil }

func (r *memBoardRepo) Put(roomID string, state models.TaskBoardState) error {
	r.boards[roomID] = state
	return nil
}

func newTestHandler() (*PersistenceHandler, *memFileRepo, *memBoardRepo) {
	fileRepo := &memFileRepo{files: make(map[string]models.RoomFile)}
	boardRepo := &memBoardRepo{boards: make(map[string]models.TaskBoardState)}
	return NewPersistenceHandler(fileRepo, boardRepo), fileRepo, boardRepo
}

func TestHandleFileSaveUpserts(t *testing.T) {
	handler, fileRepo, _ := newTestHandler()

	payload, err := json.Marshal(tasks.FileSavePayload{
		File: models.RoomFile{RoomID: "proj-42", Name: "main.js", Content: "// v2", Version: 2},
	})
	require.NoError(t, err)

	err = handler.HandleFileSave(context.Background(), asynq.NewTask(tasks.TypeFileSave, payload))
	require.NoError(t, err)
	assert.Equal(t, "// v2", fileRepo.files["proj-42/main.js"].Content)
}

func TestHandleFileSaveCorruptPayloadSkipsRetry(t *testing.T) {
	handler, _, _ := newTestHandler()

	err := handler.HandleFileSave(context.Background(), asynq.NewTask(tasks.TypeFileSave, []byte("not json")))
	require.Error(t, err)
	// 壞掉的 payload 重試也不會變好，直接放棄
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleFileSaveRepoErrorIsRetryable(t *testing.T) {
	handler, fileRepo, _ := newTestHandler()
	fileRepo.saveErr = errors.New("db down")

	payload, err := json.Marshal(tasks.FileSavePayload{
		File: models.RoomFile{RoomID: "proj-42", Name: "main.js"},
	})
	require.NoError(t, err)

	err = handler.HandleFileSave(context.Background(), asynq.NewTask(tasks.TypeFileSave, payload))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry), "transient repo errors stay retryable")
}

func TestHandleFileDelete(t *testing.T) {
	handler, fileRepo, _ := newTestHandler()
	fileRepo.files["proj-42/old.txt"] = models.RoomFile{RoomID: "proj-42", Name: "old.txt"}

	payload, err := json.Marshal(tasks.FileDeletePayload{RoomID: "proj-42", Name: "old.txt"})
	require.NoError(t, err)

	require.NoError(t, handler.HandleFileDelete(context.Background(), asynq.NewTask(tasks.TypeFileDelete, payload)))
	assert.NotContains(t, fileRepo.files, "proj-42/old.txt")
}

func TestHandleBoardSave(t *testing.T) {
	handler, _, boardRepo := newTestHandler()

	state := models.NewTaskBoardState()
	state.Tasks["t1"] = models.Task{ID: "t1", Content: "x"}
	payload, err := json.Marshal(tasks.BoardSavePayload{RoomID: "proj-42", State: state})
	require.NoError(t, err)

	require.NoError(t, handler.HandleBoardSave(context.Background(), asynq.NewTask(tasks.TypeBoardSave, payload)))
	assert.Contains(t, boardRepo.boards["proj-42"].Tasks, "t1")
}
