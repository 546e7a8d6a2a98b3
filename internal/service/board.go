package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"collabhub/internal/models"
)

// BoardService 是任務看板同步通道。
// 每次變更後持久化整份看板快照，不做增量差異；
// 所有看板變更一律廣播給其他成員，與其他通道採同一條通知規則。
type BoardService struct {
	rooms       *RoomService
	broadcaster Broadcaster
	enqueuer    TaskEnqueuer
	log         *logrus.Entry
}

func NewBoardService(rooms *RoomService, broadcaster Broadcaster, enqueuer TaskEnqueuer) *BoardService {
	return &BoardService{
		rooms:       rooms,
		broadcaster: broadcaster,
		enqueuer:    enqueuer,
		log:         logrus.WithField("component", "board"),
	}
}

// Move 把任務移到目標欄位的指定位置（含同欄位重排），
// 廣播 taskMoved 後入隊整份快照的持久化。
func (s *BoardService) Move(roomID, originConnID string, moverID uint, taskID, fromColumnID, toColumnID string, toIndex int) error {
	if taskID == "" || toColumnID == "" {
		return ErrValidation
	}

	state, err := s.rooms.MoveTask(roomID, taskID, fromColumnID, toColumnID, toIndex)
	if err != nil {
		return err
	}

	s.broadcaster.BroadcastToRoom(roomID, originConnID, &models.Event{
		Type:         models.EventTaskMoved,
		RoomID:       roomID,
		UserID:       moverID,
		TaskID:       taskID,
		FromColumnID: fromColumnID,
		ToColumnID:   toColumnID,
		ToIndex:      toIndex,
	})

	s.persist(roomID, state)
	return nil
}

// Add 在目標欄位尾端新增任務
func (s *BoardService) Add(roomID, originConnID string, creatorID uint, columnID, content string, assigneeID uint) (*models.Task, error) {
	if strings.TrimSpace(content) == "" || columnID == "" {
		return nil, ErrValidation
	}

	task := models.Task{
		ID:         uuid.NewString(),
		Content:    content,
		AssigneeID: assigneeID,
		CreatedAt:  time.Now(),
	}
	state, err := s.rooms.AddTask(roomID, columnID, task)
	if err != nil {
		return nil, err
	}

	s.broadcaster.BroadcastToRoom(roomID, originConnID, &models.Event{
		Type:     models.EventTaskAdded,
		RoomID:   roomID,
		UserID:   creatorID,
		ColumnID: columnID,
		Task:     &task,
	})

	s.persist(roomID, state)
	return &task, nil
}

// Board 回傳房間目前的看板狀態（重新同步端點使用）
func (s *BoardService) Board(roomID string) (models.TaskBoardState, error) {
	return s.rooms.PeekBoard(roomID)
}

// persist 入隊看板快照的背景持久化，失敗只記錄不回報
func (s *BoardService) persist(roomID string, state models.TaskBoardState) {
	if err := s.enqueuer.EnqueueBoardSave(roomID, state); err != nil {
		s.log.WithError(err).WithField("room_id", roomID).Error("Failed to enqueue board save")
	}
}
