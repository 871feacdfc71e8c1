package entity

import (
	"time"
)

// Result представляет результат теста.
// ResultID — клиентский локальный идентификатор, уникальный в пределах теста.
type Result struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ResultID    int       `gorm:"not null;uniqueIndex:idx_result_test" json:"result_id"`
	TestID      uint      `gorm:"not null;index;uniqueIndex:idx_result_test" json:"test_id"`
	Text        string    `gorm:"size:255;not null" json:"text"`
	Description *string   `gorm:"size:255" json:"description"`
	Picture     *string   `gorm:"size:512" json:"picture"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Result) TableName() string {
	return "test_results"
}
