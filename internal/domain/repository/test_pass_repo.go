package repository

import (
	"github.com/yourusername/hypertest-api/internal/domain/entity"
)

// TestPassRepository определяет методы для учета прохождений тестов
type TestPassRepository interface {
	// RegisterPass атомарно создает запись о прохождении и увеличивает
	// passed_count теста. Повторное прохождение не меняет счетчик, но
	// обновляет отметку времени. Возвращает true, если прохождение первое.
	RegisterPass(testID, userID uint) (bool, error)
	// HasPassed проверяет, проходил ли пользователь тест
	HasPassed(testID, userID uint) (bool, error)
	// ListByTest возвращает все прохождения теста в порядке создания
	ListByTest(testID uint) ([]entity.TestPass, error)
}
