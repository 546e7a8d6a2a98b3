package main

import (
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"collabhub/internal/api"
	"collabhub/internal/models"
	"collabhub/internal/repository"
	"collabhub/internal/service"
	"collabhub/internal/storage"
	"collabhub/internal/tasks"
	"collabhub/internal/worker"
	"collabhub/pkg/config"
)

func main() {
	// 載入應用程式配置
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// 初始化資料庫連接
	db, err := storage.NewPostgresDB(cfg.DB.Host, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.Port, cfg.DB.TimeZone)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// 自動遷移資料庫結構
	if err := db.AutoMigrate(&models.User{}, &models.RoomFile{}, &models.ChatMessage{}, &models.BoardSnapshot{}); err != nil {
		logrus.Fatalf("Failed to auto migrate database: %v", err)
	}

	// 初始化持久層閘道
	repos := repository.NewRepositories(db)

	// 背景持久化：入隊端與 worker 共用同一個 redis
	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Addr}
	enqueuer := tasks.NewEnqueuer(redisOpt)
	defer enqueuer.Close()

	workerServer := worker.NewServer(redisOpt, repos.File, repos.Board)
	go workerServer.Start()
	defer workerServer.Shutdown()

	// 初始化同步核心
	services := service.NewServices(repos, enqueuer, cfg.Sync.PresenceTTL(), cfg.Sync.RoomEvictionGrace())

	// 在線狀態的週期清掃，涵蓋靜默斷線
	go services.Presence.Run()
	defer services.Presence.Stop()

	// 設置 Gin 路由
	r := gin.Default()
	api.SetupRoutes(r, services)

	// 啟動伺服器
	logrus.WithField("address", cfg.Server.Address).Info("Starting collabhub server")
	if err := r.Run(cfg.Server.Address); err != nil {
		logrus.Fatalf("Failed to run server: %v", err)
	}
}
