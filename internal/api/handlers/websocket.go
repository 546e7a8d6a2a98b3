package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"collabhub/internal/service"
)

// 定義 WebSocket 升級器
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // 注意：在生產環境中，應該檢查 origin
	},
}

// WebSocketHandler 處理 WebSocket 連接
type WebSocketHandler struct {
	connections *service.ConnectionManager
}

// NewWebSocketHandler 創建一個新的 WebSocketHandler 實例
func NewWebSocketHandler(connections *service.ConnectionManager) *WebSocketHandler {
	return &WebSocketHandler{connections: connections}
}

// HandleWebSocket 處理 WebSocket 連接請求。
// 身份驗證由中間件完成，這裡只取出參與者身份並升級連線；
// 房間不存在不是錯誤，首次加入會自動建立。
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	roomID := c.Param("id")
	if roomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "無效的房間 ID"})
		return
	}

	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	displayName, _ := c.Get("displayName")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// 升級失敗時 gorilla 已經回覆了 HTTP 錯誤
		logrus.WithError(err).Warn("Failed to upgrade websocket")
		return
	}

	// 阻塞直到連線結束，清理由 ConnectionManager 負責
	h.connections.HandleConnection(conn, roomID, userID.(uint), displayName.(string))
}
