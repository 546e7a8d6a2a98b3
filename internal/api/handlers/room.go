package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"collabhub/internal/service"
)

// RoomHandler 提供房間狀態的讀取端點。
// 廣播是 at-most-once：漏接事件的客戶端重連後
// 透過這些端點重新拉取權威狀態，而不是要求補發。
type RoomHandler struct {
	fileSync *service.FileSyncService
	chat     *service.ChatService
	board    *service.BoardService
}

// NewRoomHandler 創建一個新的 RoomHandler 實例
func NewRoomHandler(fileSync *service.FileSyncService, chat *service.ChatService, board *service.BoardService) *RoomHandler {
	return &RoomHandler{
		fileSync: fileSync,
		chat:     chat,
		board:    board,
	}
}

// GetFiles 回傳房間目前的完整檔案表
func (h *RoomHandler) GetFiles(c *gin.Context) {
	roomID := c.Param("id")
	if roomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "無效的房間 ID"})
		return
	}

	files, err := h.fileSync.Files(roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "無法讀取檔案"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"files": files})
}

// GetMessages 回傳房間最近的聊天紀錄
func (h *RoomHandler) GetMessages(c *gin.Context) {
	roomID := c.Param("id")
	if roomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "無效的房間 ID"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	messages, err := h.chat.History(roomID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "無法搜尋聊天訊息"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// GetBoard 回傳房間目前的看板狀態
func (h *RoomHandler) GetBoard(c *gin.Context) {
	roomID := c.Param("id")
	if roomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "無效的房間 ID"})
		return
	}

	board, err := h.board.Board(roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "無法讀取看板"})
		return
	}

	c.JSON(http.StatusOK, board)
}
