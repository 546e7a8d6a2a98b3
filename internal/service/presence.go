package service

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"collabhub/internal/models"
)

// PresenceTracker 維護每個房間的參與者活躍狀態。
// 狀態只存在於記憶體中，與各同步通道互相獨立，但共用同一個廣播器。
// 超過閒置 TTL 的項目由週期清掃移除，涵蓋沒有發出乾淨離開事件的斷線。
type PresenceTracker struct {
	mu    sync.RWMutex
	rooms map[string]map[uint]*models.PresenceEntry

	broadcaster Broadcaster
	ttl         time.Duration
	stop        chan struct{}
	stopOnce    sync.Once
	log         *logrus.Entry
}

func NewPresenceTracker(broadcaster Broadcaster, ttl time.Duration) *PresenceTracker {
	return &PresenceTracker{
		rooms:       make(map[string]map[uint]*models.PresenceEntry),
		broadcaster: broadcaster,
		ttl:         ttl,
		stop:        make(chan struct{}),
		log:         logrus.WithField("component", "presence_tracker"),
	}
}

// Mark 靜默更新 lastSeen，任何入站事件都會觸發。
// 不廣播：只有明確的 presenceUpdate 才通知同房間的其他人。
func (t *PresenceTracker) Mark(roomID string, userID uint, displayName string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	room := t.rooms[roomID]
	if room == nil {
		room = make(map[uint]*models.PresenceEntry)
		t.rooms[roomID] = room
	}
	entry := room[userID]
	if entry == nil {
		entry = &models.PresenceEntry{UserID: userID, DisplayName: displayName}
		room[userID] = entry
	}
	entry.LastSeen = time.Now()
}

// Update 更新活躍狀態與目前開啟的檔案，並向同房間的其他人
// fire-and-forget 廣播 presenceChanged。
func (t *PresenceTracker) Update(roomID, originConnID string, userID uint, displayName, currentFile string) {
	t.mu.Lock()
	room := t.rooms[roomID]
	if room == nil {
		room = make(map[uint]*models.PresenceEntry)
		t.rooms[roomID] = room
	}
	entry := room[userID]
	if entry == nil {
		entry = &models.PresenceEntry{UserID: userID, DisplayName: displayName}
		room[userID] = entry
	}
	entry.CurrentFile = currentFile
	entry.LastSeen = time.Now()
	t.mu.Unlock()

	t.broadcaster.BroadcastToRoom(roomID, originConnID, &models.Event{
		Type:        models.EventPresenceChanged,
		RoomID:      roomID,
		UserID:      userID,
		DisplayName: displayName,
		CurrentFile: currentFile,
	})
}

// Remove 移除參與者的活躍狀態（乾淨離開時呼叫），回報項目是否存在
func (t *PresenceTracker) Remove(roomID string, userID uint) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	room, ok := t.rooms[roomID]
	if !ok {
		return false
	}
	if _, exists := room[userID]; !exists {
		return false
	}
	delete(room, userID)
	if len(room) == 0 {
		delete(t.rooms, roomID)
	}
	return true
}

// Snapshot 回傳房間目前的活躍清單，依用戶 id 排序
func (t *PresenceTracker) Snapshot(roomID string) []models.PresenceEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	room := t.rooms[roomID]
	out := make([]models.PresenceEntry, 0, len(room))
	for _, entry := range room {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// ExpireStale 移除 lastSeen 超過 TTL 的項目，對每一筆發出
// userLeft 與 presenceChanged 廣播。這條路徑涵蓋靜默斷線：
// 對端沒送出離開事件，也沒有觸發讀取錯誤。
func (t *PresenceTracker) ExpireStale() int {
	cutoff := time.Now().Add(-t.ttl)

	type expired struct {
		roomID string
		entry  models.PresenceEntry
	}
	var stale []expired

	t.mu.Lock()
	for roomID, room := range t.rooms {
		for userID, entry := range room {
			if entry.LastSeen.Before(cutoff) {
				stale = append(stale, expired{roomID: roomID, entry: *entry})
				delete(room, userID)
			}
		}
		if len(room) == 0 {
			delete(t.rooms, roomID)
		}
	}
	t.mu.Unlock()

	for _, e := range stale {
		t.log.WithFields(logrus.Fields{
			"room_id": e.roomID,
			"user_id": e.entry.UserID,
		}).Info("Presence entry expired")
		t.broadcaster.BroadcastToRoom(e.roomID, "", &models.Event{
			Type:        models.EventUserLeft,
			RoomID:      e.roomID,
			UserID:      e.entry.UserID,
			DisplayName: e.entry.DisplayName,
		})
		t.broadcaster.BroadcastToRoom(e.roomID, "", &models.Event{
			Type:        models.EventPresenceChanged,
			RoomID:      e.roomID,
			UserID:      e.entry.UserID,
			DisplayName: e.entry.DisplayName,
		})
	}
	return len(stale)
}

// Run 啟動週期清掃，應在單獨的 goroutine 中呼叫
func (t *PresenceTracker) Run() {
	interval := t.ttl / 2
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	t.log.WithField("ttl", t.ttl).Info("Presence sweeper running")
	for {
		select {
		case <-ticker.C:
			t.ExpireStale()
		case <-t.stop:
			t.log.Info("Presence sweeper stopped")
			return
		}
	}
}

// Stop 結束週期清掃
func (t *PresenceTracker) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
}
