package repository

import (
	"collabhub/internal/models"
	"collabhub/internal/storage"

	"gorm.io/gorm/clause"
)

type FileRepository interface {
	FindByRoom(roomID string) ([]models.RoomFile, error)
	Save(file *models.RoomFile) error
	Delete(roomID, name string) error
}

type fileRepository struct {
	db *storage.PostgresDB
}

func NewFileRepository(db *storage.PostgresDB) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) FindByRoom(roomID string) ([]models.RoomFile, error) {
	var files []models.RoomFile
	err := r.db.Where("room_id = ?", roomID).Find(&files).Error
	return files, err
}

// Save 以 (room_id, name) 為鍵 upsert，覆蓋即贏
func (r *fileRepository) Save(file *models.RoomFile) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}, {Name: "name"}},
		UpdateAll: true,
	}).Create(file).Error
}

func (r *fileRepository) Delete(roomID, name string) error {
	return r.db.Where("room_id = ? AND name = ?", roomID, name).
		Delete(&models.RoomFile{}).Error
}
