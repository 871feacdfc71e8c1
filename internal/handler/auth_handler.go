package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/hypertest-api/internal/handler/dto"
	"github.com/yourusername/hypertest-api/internal/middleware"
	apperrors "github.com/yourusername/hypertest-api/internal/pkg/errors"
	"github.com/yourusername/hypertest-api/internal/service"
)

// AuthHandler обрабатывает аутентификацию через VK и профиль пользователя
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler создает новый обработчик аутентификации
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Authenticate обрабатывает запрос POST /api/auth.
// Тело содержит строку запуска VK-приложения; в ответ выдается токен доступа.
func (h *AuthHandler) Authenticate(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		respondError(c, err)
		return
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"errors": gin.H{"message": "Ожидался JSON-объект"},
		})
		return
	}

	rawQuery, present := raw["query"]
	if !present {
		c.JSON(http.StatusBadRequest, gin.H{
			"errors": gin.H{"fields": gin.H{"query": "Это поле обязательно"}},
		})
		return
	}
	var query string
	if err := json.Unmarshal(rawQuery, &query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"errors": gin.H{"fields": gin.H{"query": "Некорректный тип, ожидалась строка"}},
		})
		return
	}

	token, err := h.authService.Authenticate(query)
	if err != nil {
		if errors.Is(err, service.ErrVerificationFailed) {
			c.JSON(http.StatusBadRequest, gin.H{
				"errors": gin.H{"fields": gin.H{"query": "Верификация не пройдена"}},
			})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AuthResponse{AccessToken: token})
}

// Profile обрабатывает запрос GET /api/profile
func (h *AuthHandler) Profile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}
