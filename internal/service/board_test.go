package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collabhub/internal/models"
)

func newTestBoard(t *testing.T) (*BoardService, *RoomService, *fakeBroadcaster, *fakeEnqueuer) {
	t.Helper()
	rooms, _, _ := newTestRoomService(time.Minute)
	broadcaster := &fakeBroadcaster{}
	enqueuer := &fakeEnqueuer{}
	svc := NewBoardService(rooms, broadcaster, enqueuer)
	require.NoError(t, rooms.Join("proj-42", member("conn-a", 1)))
	return svc, rooms, broadcaster, enqueuer
}

func TestAddTaskBroadcastsAndPersistsSnapshot(t *testing.T) {
	svc, rooms, broadcaster, enqueuer := newTestBoard(t)

	task, err := svc.Add("proj-42", "conn-a", 1, "todo", "write docs", 2)
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, uint(2), task.AssigneeID)

	board, err := rooms.BoardSnapshot("proj-42")
	require.NoError(t, err)
	assert.Equal(t, []string{task.ID}, board.Columns[0].TaskIDs, "new task appended to the column tail")
	assertBoardInvariant(t, board)

	added := broadcaster.byType(models.EventTaskAdded)
	require.Len(t, added, 1)
	assert.Equal(t, "conn-a", added[0].Origin)

	// 每次變更入隊整份快照
	require.Len(t, enqueuer.boardSaves, 1)
	assert.Contains(t, enqueuer.boardSaves[0].Tasks, task.ID)
}

func TestMoveTaskBroadcastsAndPersists(t *testing.T) {
	svc, _, broadcaster, enqueuer := newTestBoard(t)

	task, err := svc.Add("proj-42", "conn-a", 1, "todo", "ship it", 0)
	require.NoError(t, err)

	require.NoError(t, svc.Move("proj-42", "conn-b", 2, task.ID, "todo", "done", 0))

	moved := broadcaster.byType(models.EventTaskMoved)
	require.Len(t, moved, 1)
	assert.Equal(t, task.ID, moved[0].Event.TaskID)
	assert.Equal(t, "done", moved[0].Event.ToColumnID)

	require.Len(t, enqueuer.boardSaves, 2)
	last := enqueuer.boardSaves[1]
	assertBoardInvariant(t, last)
	for _, col := range last.Columns {
		if col.ID == "done" {
			assert.Equal(t, []string{task.ID}, col.TaskIDs)
		}
	}
}

func TestMoveUnknownTaskNoBroadcastNoPersist(t *testing.T) {
	svc, _, broadcaster, enqueuer := newTestBoard(t)

	err := svc.Move("proj-42", "conn-a", 1, "ghost", "todo", "done", 0)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.Zero(t, broadcaster.count())
	assert.Empty(t, enqueuer.boardSaves)
}

func TestAddTaskValidation(t *testing.T) {
	svc, _, broadcaster, _ := newTestBoard(t)

	_, err := svc.Add("proj-42", "conn-a", 1, "todo", "   ", 0)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Add("proj-42", "conn-a", 1, "", "content", 0)
	assert.ErrorIs(t, err, ErrValidation)

	assert.Zero(t, broadcaster.count())
}
