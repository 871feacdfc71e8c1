package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/yourusername/hypertest-api/internal/domain/entity"
)

// TestPassRepo реализует repository.TestPassRepository
type TestPassRepo struct {
	db *gorm.DB
}

// NewTestPassRepo создает новый репозиторий прохождений
func NewTestPassRepo(db *gorm.DB) *TestPassRepo {
	return &TestPassRepo{db: db}
}

// RegisterPass атомарно фиксирует прохождение теста.
//
// Первое прохождение создает запись и увеличивает passed_count теста.
// Повторное прохождение (включая гонку двух запросов, пойманную уникальным
// индексом) оставляет счетчик и обновляет только отметку времени записи.
func (r *TestPassRepo) RegisterPass(testID, userID uint) (bool, error) {
	created := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		pass := &entity.TestPass{TestID: testID, UserID: userID}
		if err := tx.Create(pass).Error; err != nil {
			if !isUniqueViolation(err) {
				return fmt.Errorf("create test pass: %w", err)
			}
			// повторное прохождение: освежаем отметку времени
			return tx.Model(&entity.TestPass{}).
				Where("test_id = ? AND user_id = ?", testID, userID).
				Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP")).
				Error
		}

		created = true
		return tx.Model(&entity.Test{}).
			Where("id = ?", testID).
			Update("passed_count", gorm.Expr("passed_count + 1")).
			Error
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// HasPassed проверяет, проходил ли пользователь тест
func (r *TestPassRepo) HasPassed(testID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entity.TestPass{}).
		Where("test_id = ? AND user_id = ?", testID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByTest возвращает все прохождения теста в порядке создания
func (r *TestPassRepo) ListByTest(testID uint) ([]entity.TestPass, error) {
	var passes []entity.TestPass
	err := r.db.Where("test_id = ?", testID).Order("id").Find(&passes).Error
	if err != nil {
		return nil, err
	}
	return passes, nil
}

// isUniqueViolation проверяет Postgres unique violation (23505) для pgconn и lib/pq драйверов
func isUniqueViolation(err error) bool {
	// pgx/v5 driver (pgconn.PgError)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// lib/pq driver
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}
