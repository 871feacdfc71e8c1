package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yourusername/hypertest-api/internal/pkg/errors"
	"github.com/yourusername/hypertest-api/internal/service/testsync"
)

// respondError переводит ошибку сервисного слоя в конверт ответа.
//
// Ошибки валидации отдают дерево полей в форме входных коллекций,
// остальные ошибки сводятся к одному сообщению.
func respondError(c *gin.Context, err error) {
	if ve, ok := testsync.AsValidationError(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"errors": gin.H{"fields": testsync.Shape(ve.Fields)},
		})
		return
	}

	switch {
	case errors.Is(err, testsync.ErrMalformedBody):
		c.JSON(http.StatusBadRequest, gin.H{
			"errors": gin.H{"message": "Ожидался JSON-объект"},
		})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"errors": gin.H{"message": "Не найдено"},
		})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{
			"errors": gin.H{"message": "Недостаточно прав"},
		})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{
			"errors": gin.H{"message": "Учетные данные не были предоставлены"},
		})
	default:
		log.Printf("[Handler] Внутренняя ошибка: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"errors": gin.H{"message": "Внутренняя ошибка сервера"},
		})
	}
}
