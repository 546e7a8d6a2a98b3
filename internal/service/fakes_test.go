package service

import (
	"sync"

	"gorm.io/gorm"

	"collabhub/internal/models"
)

// opLog 記錄跨 fake 的呼叫順序，用來驗證「先廣播、後入隊持久化」
type opLog struct {
	mu  sync.Mutex
	ops []string
}

func (l *opLog) record(op string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ops = append(l.ops, op)
}

func (l *opLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.ops))
	copy(out, l.ops)
	return out
}

type broadcastCall struct {
	RoomID string
	Origin string
	Event  models.Event
}

type fakeBroadcaster struct {
	mu    sync.Mutex
	calls []broadcastCall
	log   *opLog
}

func (f *fakeBroadcaster) BroadcastToRoom(roomID, originConnID string, event *models.Event) {
	f.log.record("broadcast:" + event.Type)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, broadcastCall{RoomID: roomID, Origin: originConnID, Event: *event})
}

func (f *fakeBroadcaster) byType(eventType string) []broadcastCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []broadcastCall
	for _, c := range f.calls {
		if c.Event.Type == eventType {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeBroadcaster) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeEnqueuer struct {
	mu          sync.Mutex
	fileSaves   []models.RoomFile
	fileDeletes [][2]string
	boardSaves  []models.TaskBoardState
	err         error
	log         *opLog
}

func (f *fakeEnqueuer) EnqueueFileSave(file models.RoomFile) error {
	f.log.record("enqueue:fileSave")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.fileSaves = append(f.fileSaves, file)
	return nil
}

func (f *fakeEnqueuer) EnqueueFileDelete(roomID, name string) error {
	f.log.record("enqueue:fileDelete")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.fileDeletes = append(f.fileDeletes, [2]string{roomID, name})
	return nil
}

func (f *fakeEnqueuer) EnqueueBoardSave(roomID string, state models.TaskBoardState) error {
	f.log.record("enqueue:boardSave")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.boardSaves = append(f.boardSaves, state)
	return nil
}

type fakeFileRepo struct {
	mu    sync.Mutex
	files map[string]map[string]models.RoomFile // roomID -> name -> file
}

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{files: make(map[string]map[string]models.RoomFile)}
}

func (f *fakeFileRepo) FindByRoom(roomID string) ([]models.RoomFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.RoomFile
	for _, file := range f.files[roomID] {
		out = append(out, file)
	}
	return out, nil
}

func (f *fakeFileRepo) Save(file *models.RoomFile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.files[file.RoomID] == nil {
		f.files[file.RoomID] = make(map[string]models.RoomFile)
	}
	f.files[file.RoomID][file.Name] = *file
	return nil
}

func (f *fakeFileRepo) Delete(roomID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files[roomID], name)
	return nil
}

type fakeBoardRepo struct {
	mu     sync.Mutex
	boards map[string]models.TaskBoardState
}

func newFakeBoardRepo() *fakeBoardRepo {
	return &fakeBoardRepo{boards: make(map[string]models.TaskBoardState)}
}

func (f *fakeBoardRepo) Get(roomID string) (*models.TaskBoardState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.boards[roomID]
	if !ok {
		return nil, nil
	}
	clone := state.Clone()
	return &clone, nil
}

func (f *fakeBoardRepo) Put(roomID string, state models.TaskBoardState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.boards[roomID] = state.Clone()
	return nil
}

type fakeChatRepo struct {
	mu        sync.Mutex
	messages  map[string]models.ChatMessage
	createErr error
	lastLimit int
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{messages: make(map[string]models.ChatMessage)}
}

func (f *fakeChatRepo) Create(message *models.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.messages[message.ID] = *message
	return nil
}

func (f *fakeChatRepo) FindByID(id string) (*models.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	message, ok := f.messages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &message, nil
}

func (f *fakeChatRepo) FindRecentByRoom(roomID string, limit int) ([]models.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit = limit
	var out []models.ChatMessage
	for _, message := range f.messages {
		if message.RoomID == roomID {
			out = append(out, message)
		}
	}
	return out, nil
}

func (f *fakeChatRepo) Delete(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.messages, id)
	return nil
}

func (f *fakeChatRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}
