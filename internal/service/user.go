package service

import (
	"collabhub/internal/models"
	"collabhub/internal/repository"
)

// UserService 是認證協作者的薄封裝。
// 同步核心只需要 token 中的參與者身份，帳號管理不屬於核心。
type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) CreateUser(user *models.User) error {
	return s.userRepo.Create(user)
}

func (s *UserService) GetUserByUsername(username string) (*models.User, error) {
	return s.userRepo.FindByUsername(username)
}
