package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"brainboost/internal/api/handlers"
	"brainboost/internal/middleware"
	"brainboost/internal/service"
)

// RouterConfig 是路由需要的外部設定
type RouterConfig struct {
	JWTSecret string
	UploadDir string
	Resolver  service.AttachmentResolver
}

func SetupRoutes(r *gin.Engine, services *service.Services, cfg RouterConfig) {
	// 初始化 handlers
	chatHandler := handlers.NewChatHandler(services.Connections, services.Store)
	wsHandler := handlers.NewWebSocketHandler(services.Connections, services.Broadcaster)
	uploadHandler := handlers.NewUploadHandler(cfg.Resolver)

	// 上傳的附件以靜態檔案對外提供
	r.Static("/uploads", cfg.UploadDir)

	// API 路由群組
	api := r.Group("/api")

	// 處理 404 錯誤
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "找不到該路徑",
		})
	})

	// 基本的健康檢查
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	// 附件上傳，核心只認得返回的 (url, mimeType) 引用
	api.POST("/file_upload", uploadHandler.Upload)

	// 聊天室相關
	// 帳號識別來自外部認證簽發的 token，缺失時照樣服務
	rooms := api.Group("/rooms")
	rooms.Use(middleware.Identity(cfg.JWTSecret))
	{
		rooms.GET("/:roomId/messages", chatHandler.ListMessages)     // 讀取訊息歷史
		rooms.POST("/:roomId/messages", chatHandler.PostMessage)     // 發送訊息
		rooms.DELETE("/:roomId/messages", chatHandler.ClearMessages) // 清空訊息
		rooms.GET("/:roomId/identities", chatHandler.ListIdentities) // 成員記錄審計
		rooms.GET("/:roomId/ws", wsHandler.HandleWebSocket)          // WebSocket 連接點
	}
}
