package repository

import (
	"github.com/yourusername/hypertest-api/internal/domain/entity"
)

// AnswerWithRef связывает провалидированный ответ с локальным идентификатором
// результата из того же запроса. Ссылка разрешается в строку результата
// только внутри транзакции записи агрегата.
type AnswerWithRef struct {
	Answer *entity.Answer
	// ResultRef — локальный result_id из текущего запроса, nil если ответ
	// не ссылается на результат.
	ResultRef *int
}

// QuestionWithAnswers связывает провалидированный вопрос с его ответами
type QuestionWithAnswers struct {
	Question *entity.Question
	Answers  []AnswerWithRef
}

// TestAggregate — полностью провалидированный агрегат теста,
// готовый к атомарной записи. Порядок коллекций повторяет порядок запроса.
type TestAggregate struct {
	Test      *entity.Test
	Results   []*entity.Result
	Questions []QuestionWithAnswers
}

// TestFilters определяет фильтры для выборки тестов
type TestFilters struct {
	// Published — только опубликованные тесты
	Published bool
	// UserID — тесты конкретного владельца (0 = без фильтра)
	UserID uint
}

// TestRepository определяет методы для работы с тестами и их агрегатами
type TestRepository interface {
	GetByID(id uint) (*entity.Test, error)
	// GetWithChildren возвращает тест вместе с результатами, вопросами и
	// ответами, отсортированными по первичному ключу.
	GetWithChildren(id uint) (*entity.Test, error)
	List(filters TestFilters, limit, offset int) ([]entity.Test, int64, error)
	Delete(id uint) error

	// FindResult ищет результат по составному ключу (result_id, test).
	// Возвращает apperrors.ErrNotFound, если строки нет.
	FindResult(testID uint, resultID int) (*entity.Result, error)
	// FindQuestion ищет вопрос по составному ключу (question_id, test).
	FindQuestion(testID uint, questionID int) (*entity.Question, error)
	// FindAnswer ищет ответ по составному ключу (answer_id, question).
	FindAnswer(questionID uint, answerID int) (*entity.Answer, error)

	// SaveAggregate атомарно записывает агрегат: скалярные поля теста,
	// затем по уровням удаление отсутствующих строк и upsert оставшихся
	// (результаты раньше ответов). Любая ошибка откатывает всё.
	SaveAggregate(agg *TestAggregate) (*entity.Test, error)
}
