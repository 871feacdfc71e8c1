package entity

import (
	"time"
)

// Целевая аудитория теста по полу
const (
	GenderAny    = 0
	GenderMale   = 1
	GenderFemale = 2
)

// Test представляет пользовательский тест с результатами и вопросами
type Test struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:127;not null" json:"title"`
	Description *string    `gorm:"size:255" json:"description"`
	Picture     *string    `gorm:"size:512" json:"picture"`
	Published   bool       `gorm:"not null;default:false;index" json:"published"`
	Vip         bool       `gorm:"not null;default:false" json:"vip"`
	Price       int        `gorm:"not null;default:0" json:"price"`
	Gender      int        `gorm:"not null;default:0" json:"gender"`
	UserID      *uint      `gorm:"index" json:"user_id"`
	PassedCount int        `gorm:"not null;default:0" json:"passed_count"`
	PublishDate *time.Time `json:"publish_date"`
	Results     []Result   `gorm:"foreignKey:TestID;constraint:OnDelete:CASCADE" json:"results,omitempty"`
	Questions   []Question `gorm:"foreignKey:TestID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Test) TableName() string {
	return "tests"
}

// IsOwnedBy проверяет, принадлежит ли тест пользователю
func (t *Test) IsOwnedBy(userID uint) bool {
	return t.UserID != nil && *t.UserID == userID
}

// IsValidGender проверяет, является ли значение допустимым полом
func IsValidGender(gender int) bool {
	return gender == GenderAny || gender == GenderMale || gender == GenderFemale
}
