package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"collabhub/internal/api/handlers"
	"collabhub/internal/middleware"
	"collabhub/internal/service"
)

func SetupRoutes(r *gin.Engine, services *service.Services) {
	// 初始化 handlers
	authHandler := handlers.NewAuthHandler(services.User)
	roomHandler := handlers.NewRoomHandler(services.FileSync, services.Chat, services.Board)
	wsHandler := handlers.NewWebSocketHandler(services.Connections)

	// API 路由群組
	api := r.Group("/api")

	// 處理 404 錯誤
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "找不到該路徑",
		})
	})

	// 公開路由
	{
		// 用戶認證相關
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)

		// 基本的健康檢查
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
			})
		})
	}

	// 需要驗證的路由
	authorized := api.Group("/")
	authorized.Use(middleware.AuthMiddleware())
	{
		rooms := authorized.Group("/rooms")
		{
			// 重新同步端點：斷線後重新拉取權威狀態
			rooms.GET("/:id/files", roomHandler.GetFiles)       // 檔案表
			rooms.GET("/:id/messages", roomHandler.GetMessages) // 聊天紀錄
			rooms.GET("/:id/board", roomHandler.GetBoard)       // 看板快照

			// WebSocket 連接點（加入房間即走這裡）
			rooms.GET("/:id/ws", wsHandler.HandleWebSocket)
		}
	}
}
