package dto

import (
	"github.com/yourusername/hypertest-api/internal/domain/entity"
)

// UserResponse — профиль пользователя в проекции API
type UserResponse struct {
	ID      uint `json:"id"`
	IsStaff bool `json:"isStaff"`
}

// NewUserResponse строит проекцию профиля
func NewUserResponse(user *entity.VKUser) *UserResponse {
	return &UserResponse{
		ID:      user.ID,
		IsStaff: user.IsStaff,
	}
}

// AuthRequest — тело запроса аутентификации
type AuthRequest struct {
	Query string `json:"query"`
}

// AuthResponse — выпущенный токен доступа
type AuthResponse struct {
	AccessToken string `json:"access_token"`
}
