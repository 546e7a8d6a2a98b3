package repository

import (
	"errors"

	"gorm.io/gorm"
)

// isNotFound 判斷是否為「找不到紀錄」的錯誤
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsNotFound 供其他套件判斷持久層的找不到紀錄錯誤
func IsNotFound(err error) bool {
	return isNotFound(err)
}
