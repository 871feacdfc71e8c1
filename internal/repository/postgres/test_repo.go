package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/hypertest-api/internal/domain/entity"
	"github.com/yourusername/hypertest-api/internal/domain/repository"
	apperrors "github.com/yourusername/hypertest-api/internal/pkg/errors"
)

// TestRepo реализует repository.TestRepository
type TestRepo struct {
	db *gorm.DB
}

// NewTestRepo создает новый репозиторий тестов
func NewTestRepo(db *gorm.DB) *TestRepo {
	return &TestRepo{db: db}
}

// GetByID возвращает тест по ID
func (r *TestRepo) GetByID(id uint) (*entity.Test, error) {
	var test entity.Test
	err := r.db.First(&test, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &test, nil
}

// GetWithChildren возвращает тест вместе с результатами, вопросами и ответами
func (r *TestRepo) GetWithChildren(id uint) (*entity.Test, error) {
	var test entity.Test
	err := r.db.
		Preload("Results", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Questions.Answers", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Questions.Answers.Result").
		First(&test, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &test, nil
}

// List возвращает список тестов с фильтрами и total count
func (r *TestRepo) List(filters repository.TestFilters, limit, offset int) ([]entity.Test, int64, error) {
	var tests []entity.Test
	var total int64

	query := r.db.Model(&entity.Test{})
	if filters.Published {
		query = query.Where("published = ?", true)
	}
	if filters.UserID != 0 {
		query = query.Where("user_id = ?", filters.UserID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Limit(limit).Offset(offset).Order("id").Find(&tests).Error
	if err != nil {
		return nil, 0, err
	}
	return tests, total, nil
}

// Delete удаляет тест; дочерние строки удаляются каскадом на уровне БД
func (r *TestRepo) Delete(id uint) error {
	return r.db.Delete(&entity.Test{}, id).Error
}

// FindResult ищет результат по составному ключу (result_id, test)
func (r *TestRepo) FindResult(testID uint, resultID int) (*entity.Result, error) {
	var result entity.Result
	err := r.db.Where("test_id = ? AND result_id = ?", testID, resultID).First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

// FindQuestion ищет вопрос по составному ключу (question_id, test)
func (r *TestRepo) FindQuestion(testID uint, questionID int) (*entity.Question, error) {
	var question entity.Question
	err := r.db.Where("test_id = ? AND question_id = ?", testID, questionID).First(&question).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// FindAnswer ищет ответ по составному ключу (answer_id, question)
func (r *TestRepo) FindAnswer(questionID uint, answerID int) (*entity.Answer, error) {
	var answer entity.Answer
	err := r.db.Where("question_id = ? AND answer_id = ?", questionID, answerID).First(&answer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &answer, nil
}

// SaveAggregate атомарно записывает провалидированный агрегат теста.
//
// Порядок фиксирован зависимостями: результаты записываются раньше ответов,
// так как ответы ссылаются на строки результатов; удаления на каждом уровне
// идут до upsert-ов, чтобы смена привязки локального идентификатора не
// упиралась в уникальный индекс.
func (r *TestRepo) SaveAggregate(agg *repository.TestAggregate) (*entity.Test, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(agg.Test).Error; err != nil {
			return fmt.Errorf("save test: %w", err)
		}
		testID := agg.Test.ID

		resultRows, err := saveResults(tx, testID, agg.Results)
		if err != nil {
			return err
		}

		if err := saveQuestions(tx, testID, agg.Questions, resultRows); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return agg.Test, nil
}

// saveResults удаляет выпавшие из запроса результаты, записывает оставшиеся
// и возвращает отображение локальных resId в сохраненные строки
func saveResults(tx *gorm.DB, testID uint, results []*entity.Result) (map[int]*entity.Result, error) {
	keep := make([]int, 0, len(results))
	for _, res := range results {
		keep = append(keep, res.ResultID)
	}

	del := tx.Where("test_id = ?", testID)
	if len(keep) > 0 {
		del = del.Where("result_id NOT IN ?", keep)
	}
	if err := del.Delete(&entity.Result{}).Error; err != nil {
		return nil, fmt.Errorf("delete stale results: %w", err)
	}

	rows := make(map[int]*entity.Result, len(results))
	for _, res := range results {
		res.TestID = testID
		if err := tx.Save(res).Error; err != nil {
			return nil, fmt.Errorf("save result %d: %w", res.ResultID, err)
		}
		rows[res.ResultID] = res
	}
	return rows, nil
}

// saveQuestions записывает вопросы и их ответы, разрешая ссылки ответов
// через отображение результатов текущего запроса
func saveQuestions(tx *gorm.DB, testID uint, questions []repository.QuestionWithAnswers, resultRows map[int]*entity.Result) error {
	keep := make([]int, 0, len(questions))
	for _, q := range questions {
		keep = append(keep, q.Question.QuestionID)
	}

	del := tx.Where("test_id = ?", testID)
	if len(keep) > 0 {
		del = del.Where("question_id NOT IN ?", keep)
	}
	if err := del.Delete(&entity.Question{}).Error; err != nil {
		return fmt.Errorf("delete stale questions: %w", err)
	}

	for _, q := range questions {
		q.Question.TestID = testID
		if err := tx.Save(q.Question).Error; err != nil {
			return fmt.Errorf("save question %d: %w", q.Question.QuestionID, err)
		}
		if err := saveAnswers(tx, q.Question, q.Answers, resultRows); err != nil {
			return err
		}
	}
	return nil
}

// saveAnswers записывает ответы одного вопроса
func saveAnswers(tx *gorm.DB, question *entity.Question, answers []repository.AnswerWithRef, resultRows map[int]*entity.Result) error {
	keep := make([]int, 0, len(answers))
	for _, a := range answers {
		keep = append(keep, a.Answer.AnswerID)
	}

	del := tx.Where("question_id = ?", question.ID)
	if len(keep) > 0 {
		del = del.Where("answer_id NOT IN ?", keep)
	}
	if err := del.Delete(&entity.Answer{}).Error; err != nil {
		return fmt.Errorf("delete stale answers: %w", err)
	}

	for _, a := range answers {
		a.Answer.QuestionID = question.ID
		a.Answer.ResultID = nil
		if a.ResultRef != nil {
			row, ok := resultRows[*a.ResultRef]
			if !ok {
				// валидация гарантирует наличие; рассинхрон — ошибка записи
				return fmt.Errorf("answer %d references unknown result %d", a.Answer.AnswerID, *a.ResultRef)
			}
			a.Answer.ResultID = &row.ID
		}
		if err := tx.Save(a.Answer).Error; err != nil {
			return fmt.Errorf("save answer %d: %w", a.Answer.AnswerID, err)
		}
	}
	return nil
}
