package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/hypertest-api/internal/domain/entity"
	"github.com/yourusername/hypertest-api/internal/domain/repository"
	"github.com/yourusername/hypertest-api/pkg/auth"
)

// Ключи контекста Gin, заполняемые аутентификацией
const (
	ContextUserKey   = "user"
	ContextUserIDKey = "user_id"
)

// AuthMiddleware обеспечивает аутентификацию для защищенных маршрутов
type AuthMiddleware struct {
	jwtService *auth.JWTService
	userRepo   repository.VKUserRepository
}

// NewAuthMiddleware создает новый middleware аутентификации
func NewAuthMiddleware(jwtService *auth.JWTService, userRepo repository.VKUserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		userRepo:   userRepo,
	}
}

// RequireAuth требует валидный Bearer-токен и загружает пользователя в контекст
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := m.authenticate(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"errors": gin.H{"message": "Учетные данные не были предоставлены"},
			})
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextUserIDKey, user.ID)
		c.Next()
	}
}

// OptionalAuth загружает пользователя, если токен предоставлен и валиден.
// Анонимный запрос проходит дальше без пользователя в контексте.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, ok := m.authenticate(c); ok {
			c.Set(ContextUserKey, user)
			c.Set(ContextUserIDKey, user.ID)
		}
		c.Next()
	}
}

func (m *AuthMiddleware) authenticate(c *gin.Context) (*entity.VKUser, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, false
	}

	claims, err := m.jwtService.ParseToken(parts[1])
	if err != nil {
		return nil, false
	}

	user, err := m.userRepo.GetByID(claims.UserID)
	if err != nil {
		return nil, false
	}
	return user, true
}

// CurrentUser возвращает аутентифицированного пользователя из контекста
func CurrentUser(c *gin.Context) (*entity.VKUser, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*entity.VKUser)
	return user, ok
}
