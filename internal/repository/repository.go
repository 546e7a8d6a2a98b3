package repository

import "collabhub/internal/storage"

// Repositories 聚合了同步核心依賴的持久層閘道。
// 檔案與看板由背景工作者非同步寫入，聊天與用戶則是同步寫入。
type Repositories struct {
	User  UserRepository
	File  FileRepository
	Chat  ChatMessageRepository
	Board BoardRepository
}

func NewRepositories(db *storage.PostgresDB) *Repositories {
	return &Repositories{
		User:  NewUserRepository(db),
		File:  NewFileRepository(db),
		Chat:  NewChatMessageRepository(db),
		Board: NewBoardRepository(db),
	}
}
