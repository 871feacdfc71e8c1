package entity

import (
	"time"
)

// Answer представляет вариант ответа на вопрос.
// AnswerID — клиентский локальный идентификатор, уникальный в пределах вопроса.
// ResultID — ссылка на строку результата того же теста (nullable: ответ может
// не влиять на итоговый результат).
type Answer struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	AnswerID   int       `gorm:"not null;uniqueIndex:idx_answer_question" json:"answer_id"`
	QuestionID uint      `gorm:"not null;index;uniqueIndex:idx_answer_question" json:"question_id"`
	ResultID   *uint     `gorm:"index" json:"result_id"`
	Result     *Result   `gorm:"foreignKey:ResultID;constraint:OnDelete:SET NULL" json:"result,omitempty"`
	Text       string    `gorm:"size:255;not null" json:"text"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Answer) TableName() string {
	return "test_question_answers"
}
