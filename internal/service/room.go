package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"collabhub/internal/models"
	"collabhub/internal/repository"
)

// Membership 代表一條連線在房間中的註冊資格。
// 同一個用戶允許同時持有多條連線，彼此互不合併。
type Membership struct {
	ConnID      string
	UserID      uint
	DisplayName string
	JoinedAt    time.Time
}

// Room 代表一個以專案為單位的協作房間。
// Files 與 Board 是持久層的記憶體快取，房間清空並超過寬限期後整個丟棄，
// 下次加入時再從持久層重新載入。
type Room struct {
	ID      string
	Members map[string]*Membership // connID -> membership
	Files   map[string]*models.RoomFile
	Board   models.TaskBoardState

	// 房間清空後啟動的回收計時器，期間有人加入則取消
	evictTimer *time.Timer
}

// RoomService 擁有所有房間的生命週期：
// 首次加入時延遲建立並從持久層載入快取，清空後經過寬限期才回收。
type RoomService struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	fileRepo      repository.FileRepository
	boardRepo     repository.BoardRepository
	evictionGrace time.Duration
	log           *logrus.Entry
}

func NewRoomService(fileRepo repository.FileRepository, boardRepo repository.BoardRepository, evictionGrace time.Duration) *RoomService {
	return &RoomService{
		rooms:         make(map[string]*Room),
		fileRepo:      fileRepo,
		boardRepo:     boardRepo,
		evictionGrace: evictionGrace,
		log:           logrus.WithField("component", "room_service"),
	}
}

// Join 將成員加入房間。房間不存在時自動建立並載入快取，
// 這是刻意的設計：任何專案 id 都可以直接當作臨時工作區使用。
// 寬限期內的加入會取消回收計時器。
func (s *RoomService) Join(roomID string, member *Membership) error {
	if roomID == "" || member == nil || member.ConnID == "" {
		return ErrValidation
	}

	s.mu.Lock()
	room, ok := s.rooms[roomID]
	if ok {
		if room.evictTimer != nil {
			room.evictTimer.Stop()
			room.evictTimer = nil
			s.log.WithField("room_id", roomID).Info("Eviction canceled by rejoin")
		}
		room.Members[member.ConnID] = member
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	// 房間尚未載入，先從持久層讀取快取再註冊。
	// 載入期間不持鎖，避免資料庫 IO 擋住其他房間的事件。
	loaded, err := s.loadRoom(roomID)
	if err != nil {
		return fmt.Errorf("load room %s: %w", roomID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok = s.rooms[roomID]
	if !ok {
		room = loaded
		s.rooms[roomID] = room
		s.log.WithField("room_id", roomID).Info("Room created and cache loaded")
	}
	if room.evictTimer != nil {
		room.evictTimer.Stop()
		room.evictTimer = nil
	}
	room.Members[member.ConnID] = member
	return nil
}

// loadRoom 從持久層組裝一個新的房間快取
func (s *RoomService) loadRoom(roomID string) (*Room, error) {
	files, err := s.fileRepo.FindByRoom(roomID)
	if err != nil {
		return nil, err
	}
	fileMap := make(map[string]*models.RoomFile, len(files))
	for i := range files {
		f := files[i]
		fileMap[f.Name] = &f
	}

	board, err := s.boardRepo.Get(roomID)
	if err != nil {
		return nil, err
	}
	state := models.NewTaskBoardState()
	if board != nil {
		state = *board
	}

	return &Room{
		ID:      roomID,
		Members: make(map[string]*Membership),
		Files:   fileMap,
		Board:   state,
	}, nil
}

// Leave 移除連線的成員資格。成員數歸零時進入 Draining 狀態，
// 啟動回收計時器，期滿仍無人則丟棄記憶體快取。
func (s *RoomService) Leave(roomID, connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return
	}
	delete(room.Members, connID)
	if len(room.Members) > 0 {
		return
	}

	if room.evictTimer != nil {
		room.evictTimer.Stop()
	}
	room.evictTimer = time.AfterFunc(s.evictionGrace, func() {
		s.evict(roomID)
	})
	s.log.WithField("room_id", roomID).Info("Room drained, eviction timer armed")
}

// evict 在寬限期滿後丟棄仍然無人的房間
func (s *RoomService) evict(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok || len(room.Members) > 0 {
		return
	}
	delete(s.rooms, roomID)
	s.log.WithField("room_id", roomID).Info("Room evicted from memory")
}

// MemberCount 回傳房間目前的成員連線數
func (s *RoomService) MemberCount(roomID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return 0
	}
	return len(room.Members)
}

// Active 回報房間是否仍在記憶體中
func (s *RoomService) Active(roomID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[roomID]
	return ok
}

// ---------------------------------------------------------------
// 檔案快取操作（由 File Sync Channel 呼叫）
// ---------------------------------------------------------------

// FilesSnapshot 回傳房間檔案快取的副本，供加入回應與重新同步使用
func (s *RoomService) FilesSnapshot(roomID string) (map[string]models.RoomFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	out := make(map[string]models.RoomFile, len(room.Files))
	for name, f := range room.Files {
		out[name] = *f
	}
	return out, nil
}

// ApplyEdit 以完整內容無條件覆蓋檔案快取（last-writer-wins）。
// 檔案不存在時視為首次寫入，同樣直接建立。
func (s *RoomService) ApplyEdit(roomID string, editorID uint, name, content, language string) (models.RoomFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return models.RoomFile{}, ErrRoomNotFound
	}

	file, ok := room.Files[name]
	if !ok {
		file = &models.RoomFile{RoomID: roomID, Name: name}
		room.Files[name] = file
	}
	file.Content = content
	if language != "" {
		file.Language = language
	}
	file.Version++
	file.LastModified = time.Now()
	file.LastModifiedBy = editorID
	return *file, nil
}

// CreateFile 建立新檔案，名稱重複時回傳 ErrFileConflict
func (s *RoomService) CreateFile(roomID string, creatorID uint, name, content, language string) (models.RoomFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return models.RoomFile{}, ErrRoomNotFound
	}
	if _, exists := room.Files[name]; exists {
		return models.RoomFile{}, ErrFileConflict
	}

	file := &models.RoomFile{
		RoomID:         roomID,
		Name:           name,
		Content:        content,
		Language:       language,
		Version:        1,
		LastModified:   time.Now(),
		LastModifiedBy: creatorID,
	}
	room.Files[name] = file
	return *file, nil
}

// DeleteFile 從快取移除檔案。刪除不存在的檔案視為成功（冪等）。
func (s *RoomService) DeleteFile(roomID, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return false, ErrRoomNotFound
	}
	_, existed := room.Files[name]
	delete(room.Files, name)
	return existed, nil
}

// ---------------------------------------------------------------
// 看板快取操作（由 Task Board Sync Channel 呼叫）
// ---------------------------------------------------------------

// BoardSnapshot 回傳房間看板狀態的深拷貝
func (s *RoomService) BoardSnapshot(roomID string) (models.TaskBoardState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return models.TaskBoardState{}, ErrRoomNotFound
	}
	return room.Board.Clone(), nil
}

// MoveTask 把任務移到目標欄位的指定位置（同欄位重排也走同一條路）。
// 無論來源欄位宣稱為何，實際都從「目前包含該任務的欄位」移除，
// 確保每個任務 id 永遠恰好屬於一個欄位。
func (s *RoomService) MoveTask(roomID, taskID, fromColumnID, toColumnID string, toIndex int) (models.TaskBoardState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return models.TaskBoardState{}, ErrRoomNotFound
	}
	if _, ok := room.Board.Tasks[taskID]; !ok {
		return models.TaskBoardState{}, ErrTaskNotFound
	}

	var dest *models.Column
	for i := range room.Board.Columns {
		if room.Board.Columns[i].ID == toColumnID {
			dest = &room.Board.Columns[i]
			break
		}
	}
	if dest == nil {
		return models.TaskBoardState{}, ErrColumnNotFound
	}

	// 從目前所屬欄位移除
	for i := range room.Board.Columns {
		col := &room.Board.Columns[i]
		for j, id := range col.TaskIDs {
			if id == taskID {
				col.TaskIDs = append(col.TaskIDs[:j], col.TaskIDs[j+1:]...)
				break
			}
		}
	}

	// 插入目標欄位，索引超出範圍時夾到合法區間
	if toIndex < 0 {
		toIndex = 0
	}
	if toIndex > len(dest.TaskIDs) {
		toIndex = len(dest.TaskIDs)
	}
	dest.TaskIDs = append(dest.TaskIDs, "")
	copy(dest.TaskIDs[toIndex+1:], dest.TaskIDs[toIndex:])
	dest.TaskIDs[toIndex] = taskID

	return room.Board.Clone(), nil
}

// AddTask 新增任務到目標欄位尾端
func (s *RoomService) AddTask(roomID, columnID string, task models.Task) (models.TaskBoardState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return models.TaskBoardState{}, ErrRoomNotFound
	}

	var dest *models.Column
	for i := range room.Board.Columns {
		if room.Board.Columns[i].ID == columnID {
			dest = &room.Board.Columns[i]
			break
		}
	}
	if dest == nil {
		return models.TaskBoardState{}, ErrColumnNotFound
	}

	room.Board.Tasks[task.ID] = task
	dest.TaskIDs = append(dest.TaskIDs, task.ID)
	return room.Board.Clone(), nil
}

// ---------------------------------------------------------------
// 讀取權威狀態（重新連線時的 re-sync 端點使用）
// ---------------------------------------------------------------

// PeekFiles 讀取房間的檔案狀態：房間在記憶體中時回傳快取，
// 否則直接查詢持久層，不會因此建立房間。
func (s *RoomService) PeekFiles(roomID string) (map[string]models.RoomFile, error) {
	if files, err := s.FilesSnapshot(roomID); err == nil {
		return files, nil
	}

	files, err := s.fileRepo.FindByRoom(roomID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.RoomFile, len(files))
	for _, f := range files {
		out[f.Name] = f
	}
	return out, nil
}

// PeekBoard 讀取房間的看板狀態，規則同 PeekFiles
func (s *RoomService) PeekBoard(roomID string) (models.TaskBoardState, error) {
	if board, err := s.BoardSnapshot(roomID); err == nil {
		return board, nil
	}

	board, err := s.boardRepo.Get(roomID)
	if err != nil {
		return models.TaskBoardState{}, err
	}
	if board == nil {
		return models.NewTaskBoardState(), nil
	}
	return *board, nil
}
