package service

import (
	"time"

	"collabhub/internal/repository"
)

type Services struct {
	User        *UserService
	Rooms       *RoomService
	Presence    *PresenceTracker
	FileSync    *FileSyncService
	Chat        *ChatService
	Board       *BoardService
	WebSocket   *WebSocketManager
	Connections *ConnectionManager
}

// NewServices 組裝同步核心：
// WebSocketManager 同時是所有通道共用的廣播器，
// 檔案與看板的持久化透過 enqueuer 走背景隊列。
func NewServices(repos *repository.Repositories, enqueuer TaskEnqueuer,
	presenceTTL, evictionGrace time.Duration) *Services {

	wsManager := NewWebSocketManager()
	roomService := NewRoomService(repos.File, repos.Board, evictionGrace)
	presence := NewPresenceTracker(wsManager, presenceTTL)
	fileSync := NewFileSyncService(roomService, wsManager, enqueuer)
	chat := NewChatService(repos.Chat, wsManager)
	board := NewBoardService(roomService, wsManager, enqueuer)
	connections := NewConnectionManager(wsManager, roomService, presence, fileSync, chat, board)

	return &Services{
		User:        NewUserService(repos.User),
		Rooms:       roomService,
		Presence:    presence,
		FileSync:    fileSync,
		Chat:        chat,
		Board:       board,
		WebSocket:   wsManager,
		Connections: connections,
	}
}
