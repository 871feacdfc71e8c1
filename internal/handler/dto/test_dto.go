package dto

import (
	"github.com/yourusername/hypertest-api/internal/domain/entity"
	"github.com/yourusername/hypertest-api/internal/domain/repository"
)

// ResultResponse — результат теста в проекции API
type ResultResponse struct {
	ResID   int     `json:"resId"`
	ResText string  `json:"resText"`
	ResDesc *string `json:"resDesc"`
	ResPic  *string `json:"resPic"`
}

// AnswerResponse — вариант ответа в проекции API.
// Res — локальный resId результата, на который ссылается ответ.
type AnswerResponse struct {
	VarID   int    `json:"varId"`
	VarText string `json:"varText"`
	Res     *int   `json:"res"`
}

// QuestionResponse — вопрос теста в проекции API
type QuestionResponse struct {
	QID   int              `json:"qId"`
	QText string           `json:"qText"`
	QPic  *string          `json:"qPic"`
	Vars  []AnswerResponse `json:"vars"`
}

// TestResponse — полный тест с результатами и вопросами
type TestResponse struct {
	ID          uint               `json:"id"`
	Title       string             `json:"title"`
	Description *string            `json:"description"`
	Picture     *string            `json:"picture"`
	IsPublished bool               `json:"isPublished"`
	Vip         bool               `json:"vip"`
	Price       int                `json:"price"`
	Gender      int                `json:"gender"`
	Results     []ResultResponse   `json:"results"`
	Questions   []QuestionResponse `json:"questions"`
	User        *uint              `json:"user"`
	PassedCount int                `json:"passedCount"`
	Passed      *bool              `json:"passed,omitempty"`
}

// TestShortResponse — тест без дочерних коллекций, для списков
type TestShortResponse struct {
	ID          uint    `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Picture     *string `json:"picture"`
	IsPublished bool    `json:"isPublished"`
	Vip         bool    `json:"vip"`
	Price       int     `json:"price"`
	Gender      int     `json:"gender"`
	User        *uint   `json:"user"`
	PassedCount int     `json:"passedCount"`
	Passed      *bool   `json:"passed,omitempty"`
}

// NewTestResponse строит полную проекцию из теста с загруженными
// дочерними строками
func NewTestResponse(test *entity.Test) *TestResponse {
	results := make([]ResultResponse, len(test.Results))
	for i, r := range test.Results {
		results[i] = ResultResponse{
			ResID:   r.ResultID,
			ResText: r.Text,
			ResDesc: r.Description,
			ResPic:  r.Picture,
		}
	}

	questions := make([]QuestionResponse, len(test.Questions))
	for i, q := range test.Questions {
		vars := make([]AnswerResponse, len(q.Answers))
		for j, a := range q.Answers {
			var res *int
			if a.Result != nil {
				localID := a.Result.ResultID
				res = &localID
			}
			vars[j] = AnswerResponse{
				VarID:   a.AnswerID,
				VarText: a.Text,
				Res:     res,
			}
		}
		questions[i] = QuestionResponse{
			QID:   q.QuestionID,
			QText: q.Text,
			QPic:  q.Picture,
			Vars:  vars,
		}
	}

	return &TestResponse{
		ID:          test.ID,
		Title:       test.Title,
		Description: test.Description,
		Picture:     test.Picture,
		IsPublished: test.Published,
		Vip:         test.Vip,
		Price:       test.Price,
		Gender:      test.Gender,
		Results:     results,
		Questions:   questions,
		User:        test.UserID,
		PassedCount: test.PassedCount,
	}
}

// NewTestResponseFromAggregate строит проекцию из только что записанного
// агрегата. Порядок коллекций повторяет порядок запроса, ссылки ответов
// еще хранят локальные resId.
func NewTestResponseFromAggregate(agg *repository.TestAggregate) *TestResponse {
	results := make([]ResultResponse, len(agg.Results))
	for i, r := range agg.Results {
		results[i] = ResultResponse{
			ResID:   r.ResultID,
			ResText: r.Text,
			ResDesc: r.Description,
			ResPic:  r.Picture,
		}
	}

	questions := make([]QuestionResponse, len(agg.Questions))
	for i, q := range agg.Questions {
		vars := make([]AnswerResponse, len(q.Answers))
		for j, a := range q.Answers {
			vars[j] = AnswerResponse{
				VarID:   a.Answer.AnswerID,
				VarText: a.Answer.Text,
				Res:     a.ResultRef,
			}
		}
		questions[i] = QuestionResponse{
			QID:   q.Question.QuestionID,
			QText: q.Question.Text,
			QPic:  q.Question.Picture,
			Vars:  vars,
		}
	}

	test := agg.Test
	return &TestResponse{
		ID:          test.ID,
		Title:       test.Title,
		Description: test.Description,
		Picture:     test.Picture,
		IsPublished: test.Published,
		Vip:         test.Vip,
		Price:       test.Price,
		Gender:      test.Gender,
		Results:     results,
		Questions:   questions,
		User:        test.UserID,
		PassedCount: test.PassedCount,
	}
}

// NewTestShortResponse строит проекцию для списков
func NewTestShortResponse(test *entity.Test) *TestShortResponse {
	return &TestShortResponse{
		ID:          test.ID,
		Title:       test.Title,
		Description: test.Description,
		Picture:     test.Picture,
		IsPublished: test.Published,
		Vip:         test.Vip,
		Price:       test.Price,
		Gender:      test.Gender,
		User:        test.UserID,
		PassedCount: test.PassedCount,
	}
}
