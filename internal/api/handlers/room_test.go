package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collabhub/internal/models"
	"collabhub/internal/utils"
)

func getJSON(t *testing.T, server *httptest.Server, path string, userID uint, out interface{}) int {
	t.Helper()
	token, err := utils.GenerateToken(userID, "Alice")
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, server.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestResyncEndpointsReflectLiveState(t *testing.T) {
	server := newTestServer(t)

	alice := dialRoom(t, server, "proj-42", 1, "Alice")
	require.Equal(t, models.EventJoinAck, readEvent(t, alice).Type)

	writeEvent(t, alice, &models.Event{Type: models.EventFileCreate, FileName: "notes.md", Content: "# hi"})
	writeEvent(t, alice, &models.Event{Type: models.EventChatMessage, Content: "hello room"})
	require.Equal(t, models.EventChatAck, readEvent(t, alice).Type)
	writeEvent(t, alice, &models.Event{Type: models.EventTaskAdd, ColumnID: "todo", Content: "write tests"})
	// 下一則 chatAck 同時確認 taskAdd 已處理完畢
	writeEvent(t, alice, &models.Event{Type: models.EventChatMessage, Content: "added a task"})
	require.Equal(t, models.EventChatAck, readEvent(t, alice).Type)

	var filesResp struct {
		Files map[string]models.RoomFile `json:"files"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, server, "/api/rooms/proj-42/files", 1, &filesResp))
	require.Contains(t, filesResp.Files, "notes.md")
	assert.Equal(t, "# hi", filesResp.Files["notes.md"].Content)

	var messagesResp struct {
		Messages []models.ChatMessage `json:"messages"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, server, "/api/rooms/proj-42/messages", 1, &messagesResp))
	assert.Len(t, messagesResp.Messages, 2)

	var board models.TaskBoardState
	require.Equal(t, http.StatusOK, getJSON(t, server, "/api/rooms/proj-42/board", 1, &board))
	assert.Len(t, board.Tasks, 1)
}

func TestResyncUnknownRoomReturnsEmptyState(t *testing.T) {
	server := newTestServer(t)

	// 從未有人加入的房間：讀端點回傳空狀態而不是 404
	var filesResp struct {
		Files map[string]models.RoomFile `json:"files"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, server, "/api/rooms/nowhere/files", 1, &filesResp))
	assert.Empty(t, filesResp.Files)

	var board models.TaskBoardState
	require.Equal(t, http.StatusOK, getJSON(t, server, "/api/rooms/nowhere/board", 1, &board))
	assert.Len(t, board.Columns, 3)
	assert.Empty(t, board.Tasks)
}

func TestResyncRequiresAuth(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/rooms/proj-42/board")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
