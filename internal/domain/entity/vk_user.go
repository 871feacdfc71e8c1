package entity

import (
	"time"
)

// VKUser представляет пользователя, аутентифицированного через VK.
// ID совпадает с идентификатором пользователя VK.
type VKUser struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	IsStaff   bool      `gorm:"not null;default:false" json:"is_staff"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (VKUser) TableName() string {
	return "vk_users"
}

// CanEditPublished проверяет, может ли пользователь редактировать
// опубликованный тест. Публикация необратима для обычных владельцев.
func (u *VKUser) CanEditPublished() bool {
	return u.IsStaff
}
