package postgres

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/hypertest-api/internal/domain/entity"
	apperrors "github.com/yourusername/hypertest-api/internal/pkg/errors"
)

// VKUserRepo реализует repository.VKUserRepository
type VKUserRepo struct {
	db *gorm.DB
}

// NewVKUserRepo создает новый репозиторий VK-пользователей
func NewVKUserRepo(db *gorm.DB) *VKUserRepo {
	return &VKUserRepo{db: db}
}

// GetOrCreate возвращает пользователя по VK ID, создавая запись при первом входе
func (r *VKUserRepo) GetOrCreate(vkID uint) (*entity.VKUser, error) {
	user := &entity.VKUser{ID: vkID}
	err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(user).Error
	if err != nil {
		return nil, err
	}
	// перечитываем строку: при конфликте Create не заполняет существующие поля
	return r.GetByID(vkID)
}

// GetByID возвращает пользователя по VK ID
func (r *VKUserRepo) GetByID(vkID uint) (*entity.VKUser, error) {
	var user entity.VKUser
	err := r.db.First(&user, vkID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
