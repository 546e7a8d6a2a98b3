package service

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collabhub/internal/models"
)

// receive 非阻塞地讀取客戶端發送通道中的下一則訊息
func receive(t *testing.T, client *Client) *models.Event {
	t.Helper()
	select {
	case payload := <-client.SendChan:
		var event models.Event
		require.NoError(t, json.Unmarshal(payload, &event))
		return &event
	default:
		return nil
	}
}

func TestBroadcastExcludesOriginConnection(t *testing.T) {
	manager := NewWebSocketManager()
	sender := NewClient(nil, "conn-a", 1, "Alice", "proj-42")
	peer := NewClient(nil, "conn-b", 2, "Bob", "proj-42")
	manager.Register(sender)
	manager.Register(peer)

	manager.BroadcastToRoom("proj-42", "conn-a", &models.Event{
		Type:     models.EventFileEdit,
		RoomID:   "proj-42",
		FileName: "main.js",
		Content:  "// a",
	})

	assert.Nil(t, receive(t, sender), "sender never receives its own event")
	got := receive(t, peer)
	require.NotNil(t, got)
	assert.Equal(t, models.EventFileEdit, got.Type)
	assert.Equal(t, "// a", got.Content)
}

func TestBroadcastScopedToRoom(t *testing.T) {
	manager := NewWebSocketManager()
	inside := NewClient(nil, "conn-a", 1, "Alice", "proj-42")
	outside := NewClient(nil, "conn-b", 2, "Bob", "other-room")
	manager.Register(inside)
	manager.Register(outside)

	manager.BroadcastToRoom("proj-42", "", &models.Event{Type: models.EventChatMessage})

	require.NotNil(t, receive(t, inside))
	assert.Nil(t, receive(t, outside))
}

func TestDuplicateIdentityBothConnectionsReceive(t *testing.T) {
	manager := NewWebSocketManager()
	first := NewClient(nil, "conn-a", 7, "Alice", "proj-42")
	second := NewClient(nil, "conn-b", 7, "Alice", "proj-42")
	manager.Register(first)
	manager.Register(second)

	assert.Equal(t, 2, manager.UserConnCount("proj-42", 7))

	// 空的 origin 表示廣播給房間內所有連線
	manager.BroadcastToRoom("proj-42", "", &models.Event{Type: models.EventTaskAdded})
	require.NotNil(t, receive(t, first))
	require.NotNil(t, receive(t, second))

	manager.Unregister(first)
	assert.Equal(t, 1, manager.UserConnCount("proj-42", 7))
}

func TestUnregisterSignalsShutdown(t *testing.T) {
	manager := NewWebSocketManager()
	client := NewClient(nil, "conn-a", 1, "Alice", "proj-42")
	manager.Register(client)

	manager.Unregister(client)
	assert.Zero(t, manager.RoomConnCount("proj-42"))

	select {
	case <-client.done:
	default:
		t.Fatal("unregister did not signal the client shutdown")
	}

	// 註銷後的廣播與重複註銷都是安全的 no-op
	manager.BroadcastToRoom("proj-42", "", &models.Event{Type: models.EventChatMessage})
	manager.Unregister(client)
}

func TestBroadcastDuringChurnDoesNotPanic(t *testing.T) {
	manager := NewWebSocketManager()

	// 一邊有連線不斷註冊與註銷，一邊持續廣播：
	// 廣播端持有的接收者快照可能包含剛被註銷的連線，發送必須仍然安全
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			client := NewClient(nil, fmt.Sprintf("conn-%d", i), uint(i), "Alice", "proj-42")
			manager.Register(client)
			manager.Unregister(client)
		}
	}()

	for i := 0; i < 500; i++ {
		manager.BroadcastToRoom("proj-42", "", &models.Event{Type: models.EventChatMessage})
	}
	wg.Wait()
}

func TestSlowClientDroppedNotBlocked(t *testing.T) {
	manager := NewWebSocketManager()
	slow := NewClient(nil, "conn-a", 1, "Alice", "proj-42")
	manager.Register(slow)

	// 塞滿發送通道後再廣播，不應阻塞也不應 panic
	for i := 0; i < cap(slow.SendChan); i++ {
		slow.SendChan <- []byte("{}")
	}
	manager.BroadcastToRoom("proj-42", "", &models.Event{Type: models.EventChatMessage})
	assert.Len(t, slow.SendChan, cap(slow.SendChan))
}

func TestSendToClientDirectOnly(t *testing.T) {
	manager := NewWebSocketManager()
	target := NewClient(nil, "conn-a", 1, "Alice", "proj-42")
	peer := NewClient(nil, "conn-b", 2, "Bob", "proj-42")
	manager.Register(target)
	manager.Register(peer)

	manager.SendToClient(target, &models.Event{Type: models.EventChatAck, MessageID: "m1"})

	got := receive(t, target)
	require.NotNil(t, got)
	assert.Equal(t, "m1", got.MessageID)
	assert.Nil(t, receive(t, peer))
}
