package repository

import (
	"github.com/yourusername/hypertest-api/internal/domain/entity"
)

// VKUserRepository определяет методы для работы с VK-пользователями
type VKUserRepository interface {
	// GetOrCreate возвращает пользователя по VK ID, создавая запись при
	// первом входе.
	GetOrCreate(vkID uint) (*entity.VKUser, error)
	GetByID(vkID uint) (*entity.VKUser, error)
}
