package postgres

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/hypertest-api/internal/domain/entity"
	"github.com/yourusername/hypertest-api/internal/domain/repository"
	apperrors "github.com/yourusername/hypertest-api/internal/pkg/errors"
)

// newTestDB поднимает SQLite-базу со схемой агрегата. Ограничения на удаление
// (каскад для дочерних строк, SET NULL для ссылки ответа на результат)
// повторяют поведение продакшен-схемы.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "repo.db") + "?_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entity.Test{},
		&entity.Result{},
		&entity.Question{},
		&entity.Answer{},
	))
	return db
}

func intPtr(v int) *int { return &v }

func answerRef(answerID int, text string, resultRef *int) repository.AnswerWithRef {
	return repository.AnswerWithRef{
		Answer:    &entity.Answer{AnswerID: answerID, Text: text},
		ResultRef: resultRef,
	}
}

// catTestAggregate собирает свежий агрегат из трех результатов и двух
// вопросов. Агрегат одноразовый: запись мутирует вложенные сущности,
// поэтому на каждую отправку нужен новый экземпляр.
func catTestAggregate(userID uint) *repository.TestAggregate {
	uid := userID
	return &repository.TestAggregate{
		Test: &entity.Test{Title: "Какой ты кот", UserID: &uid},
		Results: []*entity.Result{
			{ResultID: 1, Text: "Домашний"},
			{ResultID: 2, Text: "Уличный"},
			{ResultID: 3, Text: "Дикий"},
		},
		Questions: []repository.QuestionWithAnswers{
			{
				Question: &entity.Question{QuestionID: 1, Text: "Где спишь"},
				Answers: []repository.AnswerWithRef{
					answerRef(1, "Дома", intPtr(1)),
					answerRef(2, "Во дворе", intPtr(2)),
				},
			},
			{
				Question: &entity.Question{QuestionID: 2, Text: "Что ешь"},
				Answers: []repository.AnswerWithRef{
					answerRef(1, "Что поймаю", intPtr(3)),
				},
			},
		},
	}
}

// reloadAggregate собирает агрегат заново из сохраненных строк, как это
// делает валидатор при повторной отправке: существующие строки
// переиспользуются, ссылки ответов выражены локальными result_id.
func reloadAggregate(t *testing.T, repo *TestRepo, testID uint) *repository.TestAggregate {
	t.Helper()

	test, err := repo.GetWithChildren(testID)
	require.NoError(t, err)

	results := test.Results
	questions := test.Questions
	test.Results = nil
	test.Questions = nil

	localByRow := make(map[uint]int, len(results))
	agg := &repository.TestAggregate{Test: test}
	for i := range results {
		localByRow[results[i].ID] = results[i].ResultID
		agg.Results = append(agg.Results, &results[i])
	}
	for i := range questions {
		q := &questions[i]
		qa := repository.QuestionWithAnswers{Question: q}
		for j := range q.Answers {
			a := &q.Answers[j]
			a.Result = nil
			var ref *int
			if a.ResultID != nil {
				local := localByRow[*a.ResultID]
				ref = &local
			}
			qa.Answers = append(qa.Answers, repository.AnswerWithRef{Answer: a, ResultRef: ref})
		}
		q.Answers = nil
		agg.Questions = append(agg.Questions, qa)
	}
	return agg
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func TestTestRepo_SaveAggregate_Create(t *testing.T) {
	db := newTestDB(t)
	repo := NewTestRepo(db)

	saved, err := repo.SaveAggregate(catTestAggregate(7))
	require.NoError(t, err)
	require.NotZero(t, saved.ID)

	loaded, err := repo.GetWithChildren(saved.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Results, 3)
	require.Len(t, loaded.Questions, 2)
	require.Len(t, loaded.Questions[0].Answers, 2)
	require.Len(t, loaded.Questions[1].Answers, 1)

	// ссылки ответов разрешены в первичные ключи строк результатов
	res1, err := repo.FindResult(saved.ID, 1)
	require.NoError(t, err)
	first := loaded.Questions[0].Answers[0]
	require.NotNil(t, first.ResultID)
	assert.Equal(t, res1.ID, *first.ResultID)

	res3, err := repo.FindResult(saved.ID, 3)
	require.NoError(t, err)
	last := loaded.Questions[1].Answers[0]
	require.NotNil(t, last.ResultID)
	assert.Equal(t, res3.ID, *last.ResultID)
}

func TestTestRepo_SaveAggregate_NilRefLeavesResultEmpty(t *testing.T) {
	db := newTestDB(t)
	repo := NewTestRepo(db)

	agg := catTestAggregate(7)
	agg.Questions[0].Answers[1].ResultRef = nil

	saved, err := repo.SaveAggregate(agg)
	require.NoError(t, err)

	q1, err := repo.FindQuestion(saved.ID, 1)
	require.NoError(t, err)
	a2, err := repo.FindAnswer(q1.ID, 2)
	require.NoError(t, err)
	assert.Nil(t, a2.ResultID)
}

func TestTestRepo_SaveAggregate_ResubmitDeletesStale(t *testing.T) {
	db := newTestDB(t)
	repo := NewTestRepo(db)

	saved, err := repo.SaveAggregate(catTestAggregate(7))
	require.NoError(t, err)
	testID := saved.ID

	// второй тест того же пользователя не должен пострадать от чужой отправки
	other, err := repo.SaveAggregate(catTestAggregate(7))
	require.NoError(t, err)
	require.NotEqual(t, testID, other.ID)

	keptRes1, err := repo.FindResult(testID, 1)
	require.NoError(t, err)
	keptRes3, err := repo.FindResult(testID, 3)
	require.NoError(t, err)
	q1Before, err := repo.FindQuestion(testID, 1)
	require.NoError(t, err)
	a2Before, err := repo.FindAnswer(q1Before.ID, 2)
	require.NoError(t, err)
	q2Before, err := repo.FindQuestion(testID, 2)
	require.NoError(t, err)

	// повторная отправка подмножеством: результаты 1 и 3, только вопрос 1
	// с единственным ответом 2, перепривязанным с результата 2 на 3
	resub := reloadAggregate(t, repo, testID)
	resub.Results = []*entity.Result{resub.Results[0], resub.Results[2]}
	resub.Questions = resub.Questions[:1]
	resub.Questions[0].Answers = resub.Questions[0].Answers[1:]
	resub.Questions[0].Answers[0].ResultRef = intPtr(3)

	_, err = repo.SaveAggregate(resub)
	require.NoError(t, err)

	// выпавшие строки удалены
	_, err = repo.FindResult(testID, 2)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = repo.FindQuestion(testID, 2)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = repo.FindAnswer(q1Before.ID, 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	// ответы удаленного вопроса ушли каскадом
	assert.Zero(t, countRows(t, db, &entity.Answer{}, "question_id = ?", q2Before.ID))

	// оставшиеся строки сохранили первичные ключи
	res1After, err := repo.FindResult(testID, 1)
	require.NoError(t, err)
	assert.Equal(t, keptRes1.ID, res1After.ID)
	res3After, err := repo.FindResult(testID, 3)
	require.NoError(t, err)
	assert.Equal(t, keptRes3.ID, res3After.ID)
	q1After, err := repo.FindQuestion(testID, 1)
	require.NoError(t, err)
	assert.Equal(t, q1Before.ID, q1After.ID)

	a2After, err := repo.FindAnswer(q1After.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, a2Before.ID, a2After.ID)
	require.NotNil(t, a2After.ResultID)
	assert.Equal(t, keptRes3.ID, *a2After.ResultID)

	// чужой тест не тронут
	otherLoaded, err := repo.GetWithChildren(other.ID)
	require.NoError(t, err)
	assert.Len(t, otherLoaded.Results, 3)
	assert.Len(t, otherLoaded.Questions, 2)
	assert.Equal(t, int64(3), countRows(t, db, &entity.Answer{},
		"question_id IN (?)", db.Model(&entity.Question{}).Select("id").Where("test_id = ?", other.ID)))
}

func TestTestRepo_SaveAggregate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewTestRepo(db)

	saved, err := repo.SaveAggregate(catTestAggregate(7))
	require.NoError(t, err)
	testID := saved.ID

	before, err := repo.GetWithChildren(testID)
	require.NoError(t, err)

	_, err = repo.SaveAggregate(reloadAggregate(t, repo, testID))
	require.NoError(t, err)

	after, err := repo.GetWithChildren(testID)
	require.NoError(t, err)

	// ни новых строк, ни перевыдачи первичных ключей
	require.Len(t, after.Results, len(before.Results))
	for i := range before.Results {
		assert.Equal(t, before.Results[i].ID, after.Results[i].ID)
	}
	require.Len(t, after.Questions, len(before.Questions))
	for i := range before.Questions {
		assert.Equal(t, before.Questions[i].ID, after.Questions[i].ID)
		require.Len(t, after.Questions[i].Answers, len(before.Questions[i].Answers))
		for j := range before.Questions[i].Answers {
			assert.Equal(t, before.Questions[i].Answers[j].ID, after.Questions[i].Answers[j].ID)
			assert.Equal(t, before.Questions[i].Answers[j].ResultID, after.Questions[i].Answers[j].ResultID)
		}
	}
	assert.Equal(t, int64(3), countRows(t, db, &entity.Result{}, "test_id = ?", testID))
	assert.Equal(t, int64(2), countRows(t, db, &entity.Question{}, "test_id = ?", testID))
}

func TestTestRepo_SaveAggregate_EmptyChildrenClearTest(t *testing.T) {
	db := newTestDB(t)
	repo := NewTestRepo(db)

	saved, err := repo.SaveAggregate(catTestAggregate(7))
	require.NoError(t, err)
	testID := saved.ID

	resub := reloadAggregate(t, repo, testID)
	resub.Results = nil
	resub.Questions = nil

	_, err = repo.SaveAggregate(resub)
	require.NoError(t, err)

	assert.Zero(t, countRows(t, db, &entity.Result{}, "test_id = ?", testID))
	assert.Zero(t, countRows(t, db, &entity.Question{}, "test_id = ?", testID))
	assert.Zero(t, countRows(t, db, &entity.Answer{}, "1 = 1"))

	// сам тест остается на месте
	after, err := repo.GetByID(testID)
	require.NoError(t, err)
	assert.Equal(t, "Какой ты кот", after.Title)
}
