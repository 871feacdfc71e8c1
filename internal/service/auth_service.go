package service

import (
	"errors"
	"fmt"
	"log"

	"github.com/yourusername/hypertest-api/internal/config"
	"github.com/yourusername/hypertest-api/internal/domain/entity"
	"github.com/yourusername/hypertest-api/internal/domain/repository"
	"github.com/yourusername/hypertest-api/pkg/auth"
)

// ErrVerificationFailed возвращается, когда подпись строки запуска VK не сошлась
var ErrVerificationFailed = errors.New("vk launch query verification failed")

// AuthService обменивает строку запуска VK-приложения на токен доступа
type AuthService struct {
	userRepo   repository.VKUserRepository
	jwtService *auth.JWTService
	vkConfig   config.VKConfig
}

// NewAuthService создает новый сервис аутентификации
func NewAuthService(
	userRepo repository.VKUserRepository,
	jwtService *auth.JWTService,
	vkConfig config.VKConfig,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		vkConfig:   vkConfig,
	}
}

// Authenticate проверяет подпись строки запуска, заводит пользователя
// при первом входе и выпускает токен доступа.
func (s *AuthService) Authenticate(query string) (string, error) {
	var vkID uint
	if s.vkConfig.Mock {
		// режим разработки: подпись не проверяется
		vkID = s.vkConfig.MockUserID
		if vkID == 0 {
			vkID = 1
		}
	} else {
		id, err := auth.VerifyLaunchQuery(query, s.vkConfig.AppSecret)
		if err != nil {
			log.Printf("[AuthService] Верификация строки запуска не пройдена: %v", err)
			return "", ErrVerificationFailed
		}
		vkID = id
	}

	user, err := s.userRepo.GetOrCreate(vkID)
	if err != nil {
		return "", fmt.Errorf("get or create vk user %d: %w", vkID, err)
	}

	token, err := s.jwtService.GenerateToken(user.ID)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// GetProfile возвращает пользователя по идентификатору
func (s *AuthService) GetProfile(userID uint) (*entity.VKUser, error) {
	return s.userRepo.GetByID(userID)
}
