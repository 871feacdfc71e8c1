package entity

import (
	"time"
)

// Question представляет вопрос теста.
// QuestionID — клиентский локальный идентификатор, уникальный в пределах теста.
type Question struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	QuestionID int       `gorm:"not null;uniqueIndex:idx_question_test" json:"question_id"`
	TestID     uint      `gorm:"not null;index;uniqueIndex:idx_question_test" json:"test_id"`
	Text       string    `gorm:"size:255;not null;default:''" json:"text"`
	Picture    *string   `gorm:"size:512" json:"picture"`
	Answers    []Answer  `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"answers,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "test_questions"
}
