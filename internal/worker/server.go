package worker

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"collabhub/internal/repository"
	"collabhub/internal/tasks"
)

// Server 封裝了背景持久化 worker 的啟動和關閉邏輯。
// 它消化 Enqueuer 放進隊列的寫後任務，把檔案與看板狀態
// 落到持久層；任務失敗由 asynq 依重試策略自動重排。
type Server struct {
	server    *asynq.Server
	log       *logrus.Entry
	fileRepo  repository.FileRepository
	boardRepo repository.BoardRepository
}

func NewServer(redisOpt asynq.RedisClientOpt, fileRepo repository.FileRepository, boardRepo repository.BoardRepository) *Server {
	logEntry := logrus.WithField("component", "worker_server")

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logEntry.WithFields(logrus.Fields{
					"task_type": task.Type(),
					"retried":   retried,
					"max_retry": maxRetry,
				}).Errorf("Task failed: %v", err)
			}),
		},
	)

	return &Server{
		server:    server,
		log:       logEntry,
		fileRepo:  fileRepo,
		boardRepo: boardRepo,
	}
}

// Start 運行 worker，應在單獨的 goroutine 中呼叫
func (s *Server) Start() {
	mux := asynq.NewServeMux()
	handler := NewPersistenceHandler(s.fileRepo, s.boardRepo)
	mux.HandleFunc(tasks.TypeFileSave, handler.HandleFileSave)
	mux.HandleFunc(tasks.TypeFileDelete, handler.HandleFileDelete)
	mux.HandleFunc(tasks.TypeBoardSave, handler.HandleBoardSave)

	s.log.Info("Worker server starting...")
	if err := s.server.Run(mux); err != nil {
		if !errors.Is(err, asynq.ErrServerClosed) {
			s.log.Fatalf("Could not run worker server: %v", err)
		}
		s.log.Info("Worker server stopped.")
	}
}

// Shutdown 優雅地關閉 worker
func (s *Server) Shutdown() {
	s.log.Info("Shutting down worker server...")
	s.server.Shutdown()
}
