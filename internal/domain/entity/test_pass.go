package entity

import (
	"time"
)

// TestPass фиксирует прохождение теста пользователем.
// Пара (user, test) уникальна: повторное прохождение не увеличивает счетчик,
// но обновляет UpdatedAt.
type TestPass struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TestID    uint      `gorm:"not null;index;uniqueIndex:idx_pass_user_test" json:"test_id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_pass_user_test" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (TestPass) TableName() string {
	return "test_passes"
}
