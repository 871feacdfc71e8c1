package testsync

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yourusername/hypertest-api/internal/domain/entity"
	"github.com/yourusername/hypertest-api/internal/domain/repository"
)

// Ограничения длины текстовых полей (совпадают со схемой БД)
const (
	maxTitleLen = 127
	maxTextLen  = 255
)

// ErrMalformedBody возвращается, когда тело запроса не является JSON-объектом
var ErrMalformedBody = errors.New("request body is not a JSON object")

// PictureStore сохраняет декодированное изображение и возвращает его URL
type PictureStore interface {
	Save(data []byte, ext string) (string, error)
}

// Lookups — функции поиска существующих строк по составному ключу
// (локальный идентификатор, родитель). На пути создания все nil.
type Lookups struct {
	FindResult   func(resultID int) (*entity.Result, error)
	FindQuestion func(questionID int) (*entity.Question, error)
	FindAnswer   func(questionPK uint, answerID int) (*entity.Answer, error)
}

// Validator выполняет валидацию и сверку полного агрегата теста.
// Записей в БД не делает: только чтение через Lookups и сохранение картинок.
type Validator struct {
	Pictures PictureStore
	Lookups  Lookups
}

// submission хранит сквозное состояние одного запроса: набор resId,
// собранный из коллекции результатов до валидации вопросов. Ссылки ответов
// проверяются только против этого набора, не против сохраненных строк.
type submission struct {
	resultsProvided bool
	resultIDs       map[int]struct{}
}

func (s *submission) collectResultIDs(items []RawObject) {
	s.resultIDs = make(map[int]struct{}, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		raw, present := item["resId"]
		if !present {
			continue
		}
		if id, err := ParseLocalID(raw); err == nil {
			s.resultIDs[id] = struct{}{}
		}
	}
}

func (s *submission) resolves(id int) bool {
	if !s.resultsProvided {
		return false
	}
	_, ok := s.resultIDs[id]
	return ok
}

// ValidateTest валидирует полный агрегат теста из сырого JSON-тела.
//
// instance == nil — создание: каждый дочерний элемент считается новым.
// Иначе — обновление существующего теста: дочерние элементы сопоставляются
// с сохраненными строками по (локальный идентификатор, родитель).
//
// Ошибки всех трех уровней собираются в одно дерево; частичных результатов
// не бывает: либо полный агрегат, либо *ValidationError.
func (v *Validator) ValidateTest(instance *entity.Test, body []byte) (*repository.TestAggregate, error) {
	var raw RawObject
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return nil, ErrMalformedBody
	}

	isUpdate := instance != nil
	test := &entity.Test{}
	if isUpdate {
		copied := *instance
		test = &copied
	}

	fields := make(map[string]any)

	if err := v.applyScalars(test, raw, isUpdate, fields); err != nil {
		return nil, err
	}

	sub := &submission{}
	results, err := v.reconcileResults(raw, sub, isUpdate, fields)
	if err != nil {
		return nil, err
	}
	questions, err := v.reconcileQuestions(raw, sub, isUpdate, fields)
	if err != nil {
		return nil, err
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	return &repository.TestAggregate{
		Test:      test,
		Results:   results,
		Questions: questions,
	}, nil
}

// applyScalars валидирует скалярные поля теста и применяет их к строке
func (v *Validator) applyScalars(test *entity.Test, raw RawObject, isUpdate bool, fields map[string]any) error {
	if title, msg := textField(raw, "title", maxTitleLen, true, false); msg != "" {
		fields["title"] = msg
	} else {
		test.Title = title
	}

	if desc, msg := optionalText(raw, "description", maxTextLen); msg != "" {
		fields["description"] = msg
	} else {
		test.Description = desc
	}

	pic, msg, err := v.parsePicture(raw, "picture", isUpdate, test.Picture)
	if err != nil {
		return err
	}
	if msg != "" {
		fields["picture"] = msg
	} else {
		test.Picture = pic
	}

	published := false
	if rawVal, present := raw["isPublished"]; present && !isNull(rawVal) {
		if b, ok := decodeBool(rawVal); ok {
			published = b
		} else {
			fields["isPublished"] = msgNotBool
		}
	}
	if isUpdate {
		// публикация: штамп даты только при переходе черновик → опубликован
		if published && !test.Published {
			now := time.Now()
			test.PublishDate = &now
		}
		test.Published = published
	} else {
		// при создании тест всегда остается черновиком
		test.Published = false
		test.PublishDate = nil
	}

	test.Vip = false
	if rawVal, present := raw["vip"]; present && !isNull(rawVal) {
		if b, ok := decodeBool(rawVal); ok {
			test.Vip = b
		} else {
			fields["vip"] = msgNotBool
		}
	}

	test.Price = 0
	if rawVal, present := raw["price"]; present && !isNull(rawVal) {
		if n, ok := parseInteger(rawVal); ok {
			test.Price = n
		} else {
			fields["price"] = msgNotInteger
		}
	}

	test.Gender = entity.GenderAny
	if rawVal, present := raw["gender"]; present && !isNull(rawVal) {
		if n, ok := parseInteger(rawVal); ok && entity.IsValidGender(n) {
			test.Gender = n
		} else {
			fields["gender"] = fmt.Sprintf(msgBadChoice, rawValueString(rawVal))
		}
	}

	return nil
}

// reconcileResults сверяет коллекцию результатов и наполняет набор resId
// для перекрестных ссылок ответов
func (v *Validator) reconcileResults(raw RawObject, sub *submission, isUpdate bool, fields map[string]any) ([]*entity.Result, error) {
	rawResults, present := raw["results"]
	if !present {
		fields["results"] = msgRequired
		return nil, nil
	}
	items, ok := decodeList(rawResults)
	if !ok {
		fields["results"] = msgExpectedList
		return nil, nil
	}

	// набор собирается до валидации вопросов: ответы зависят от результатов,
	// но не наоборот
	sub.resultsProvided = true
	sub.collectResultIDs(items)

	var lookup func(int) (*entity.Result, error)
	if isUpdate && v.Lookups.FindResult != nil {
		lookup = v.Lookups.FindResult
	}

	validated, positional, err := Reconcile(ReconcileParams[entity.Result]{
		IDField: "resId",
		Lookup:  lookup,
		Validate: func(item RawObject, localID int, existing *entity.Result) (*entity.Result, map[string]any, error) {
			return v.validateResult(item, localID, existing, isUpdate)
		},
	}, items)
	if err != nil {
		return nil, err
	}
	if positional != nil {
		fields["results"] = positional
		return nil, nil
	}
	return validated, nil
}

// reconcileQuestions сверяет коллекцию вопросов вместе с вложенными ответами
func (v *Validator) reconcileQuestions(raw RawObject, sub *submission, isUpdate bool, fields map[string]any) ([]repository.QuestionWithAnswers, error) {
	rawQuestions, present := raw["questions"]
	if !present {
		fields["questions"] = msgRequired
		return nil, nil
	}
	items, ok := decodeList(rawQuestions)
	if !ok {
		fields["questions"] = msgExpectedList
		return nil, nil
	}

	var lookup func(int) (*repository.QuestionWithAnswers, error)
	if isUpdate && v.Lookups.FindQuestion != nil {
		lookup = func(questionID int) (*repository.QuestionWithAnswers, error) {
			q, err := v.Lookups.FindQuestion(questionID)
			if err != nil {
				return nil, err
			}
			return &repository.QuestionWithAnswers{Question: q}, nil
		}
	}

	validated, positional, err := Reconcile(ReconcileParams[repository.QuestionWithAnswers]{
		IDField: "qId",
		Lookup:  lookup,
		Validate: func(item RawObject, localID int, existing *repository.QuestionWithAnswers) (*repository.QuestionWithAnswers, map[string]any, error) {
			return v.validateQuestion(sub, item, localID, existing, isUpdate)
		},
	}, items)
	if err != nil {
		return nil, err
	}
	if positional != nil {
		fields["questions"] = positional
		return nil, nil
	}

	out := make([]repository.QuestionWithAnswers, len(validated))
	for i, q := range validated {
		out[i] = *q
	}
	return out, nil
}

// validateResult валидирует один результат против существующей строки
func (v *Validator) validateResult(item RawObject, localID int, existing *entity.Result, isUpdate bool) (*entity.Result, map[string]any, error) {
	result := &entity.Result{ResultID: localID}
	if existing != nil {
		copied := *existing
		result = &copied
	}
	result.ResultID = localID

	errs := make(map[string]any)

	if text, msg := textField(item, "resText", maxTextLen, true, false); msg != "" {
		errs["resText"] = msg
	} else {
		result.Text = text
	}

	if desc, msg := optionalText(item, "resDesc", maxTextLen); msg != "" {
		errs["resDesc"] = msg
	} else {
		result.Description = desc
	}

	pic, msg, err := v.parsePicture(item, "resPic", isUpdate, result.Picture)
	if err != nil {
		return nil, nil, err
	}
	if msg != "" {
		errs["resPic"] = msg
	} else {
		result.Picture = pic
	}

	if len(errs) > 0 {
		return nil, errs, nil
	}
	return result, nil, nil
}

// validateQuestion валидирует вопрос и сверяет его вложенные ответы.
// Ответы существующего вопроса сопоставляются со строками именно этого
// вопроса; у нового вопроса все ответы новые.
func (v *Validator) validateQuestion(sub *submission, item RawObject, localID int, existing *repository.QuestionWithAnswers, isUpdate bool) (*repository.QuestionWithAnswers, map[string]any, error) {
	question := &entity.Question{QuestionID: localID}
	if existing != nil && existing.Question != nil {
		copied := *existing.Question
		question = &copied
	}
	question.QuestionID = localID
	question.Answers = nil

	errs := make(map[string]any)

	if text, present, msg := optionalBlankText(item, "qText", maxTextLen); msg != "" {
		errs["qText"] = msg
	} else if present {
		question.Text = text
	} else if existing == nil {
		question.Text = ""
	}

	pic, msg, err := v.parsePicture(item, "qPic", isUpdate, question.Picture)
	if err != nil {
		return nil, nil, err
	}
	if msg != "" {
		errs["qPic"] = msg
	} else {
		question.Picture = pic
	}

	answers, varsErr, err := v.reconcileAnswers(sub, item, question, existing)
	if err != nil {
		return nil, nil, err
	}
	if varsErr != nil {
		errs["vars"] = varsErr
	}

	if len(errs) > 0 {
		return nil, errs, nil
	}
	return &repository.QuestionWithAnswers{Question: question, Answers: answers}, nil, nil
}

// reconcileAnswers сверяет ответы одного вопроса. Возвращаемое значение
// ошибки — либо строка, либо обертка вокруг позиционного списка: внешний
// PrettifyItem возьмет первый элемент и позиции сохранятся.
func (v *Validator) reconcileAnswers(sub *submission, item RawObject, question *entity.Question, existing *repository.QuestionWithAnswers) ([]repository.AnswerWithRef, any, error) {
	rawVars, present := item["vars"]
	if !present {
		return nil, msgRequired, nil
	}
	items, ok := decodeList(rawVars)
	if !ok {
		return nil, msgExpectedList, nil
	}

	var lookup func(int) (*repository.AnswerWithRef, error)
	if existing != nil && existing.Question != nil && existing.Question.ID != 0 && v.Lookups.FindAnswer != nil {
		questionPK := existing.Question.ID
		lookup = func(answerID int) (*repository.AnswerWithRef, error) {
			answer, err := v.Lookups.FindAnswer(questionPK, answerID)
			if err != nil {
				return nil, err
			}
			return &repository.AnswerWithRef{Answer: answer}, nil
		}
	}

	validated, positional, err := Reconcile(ReconcileParams[repository.AnswerWithRef]{
		IDField: "varId",
		Lookup:  lookup,
		Validate: func(item RawObject, localID int, existing *repository.AnswerWithRef) (*repository.AnswerWithRef, map[string]any, error) {
			return v.validateAnswer(sub, item, localID, existing)
		},
	}, items)
	if err != nil {
		return nil, nil, err
	}
	if positional != nil {
		return nil, []any{positional}, nil
	}

	out := make([]repository.AnswerWithRef, len(validated))
	for i, a := range validated {
		out[i] = *a
	}
	return out, nil, nil
}

// validateAnswer валидирует один ответ. Ссылка res принимается, только если
// она null либо указывает на resId из коллекции результатов этого же запроса.
func (v *Validator) validateAnswer(sub *submission, item RawObject, localID int, existing *repository.AnswerWithRef) (*repository.AnswerWithRef, map[string]any, error) {
	answer := &entity.Answer{AnswerID: localID}
	if existing != nil && existing.Answer != nil {
		copied := *existing.Answer
		answer = &copied
	}
	answer.AnswerID = localID
	answer.ResultID = nil
	answer.Result = nil

	errs := make(map[string]any)

	if text, msg := textField(item, "varText", maxTextLen, true, false); msg != "" {
		errs["varText"] = msg
	} else {
		answer.Text = text
	}

	var resultRef *int
	rawRes, present := item["res"]
	switch {
	case !present:
		errs["res"] = msgRequired
	case isNull(rawRes):
		// ответ без веса
	default:
		if id, ok := parseInteger(rawRes); !ok {
			errs["res"] = msgNotInteger
		} else if !sub.resolves(id) {
			errs["res"] = fmt.Sprintf("res = %d does not exist", id)
		} else {
			resultRef = &id
		}
	}

	if len(errs) > 0 {
		return nil, errs, nil
	}
	return &repository.AnswerWithRef{Answer: answer, ResultRef: resultRef}, nil, nil
}

// parsePicture обрабатывает поле картинки: null и пустая строка очищают
// значение, http-ссылка при обновлении сохраняет текущее, data-URI
// декодируется и сохраняется в хранилище.
func (v *Validator) parsePicture(item RawObject, key string, isUpdate bool, current *string) (*string, string, error) {
	raw, present := item[key]
	if !present || isNull(raw) {
		return nil, "", nil
	}

	s, ok := decodeString(raw)
	if !ok {
		return nil, msgBadPicture, nil
	}
	if s == "" {
		return nil, "", nil
	}
	if strings.HasPrefix(s, "http") && isUpdate {
		return current, "", nil
	}

	data, ext, ok := decodeDataURI(s)
	if !ok {
		return nil, msgBadPicture, nil
	}
	if v.Pictures == nil {
		return nil, "", errors.New("picture store is not configured")
	}
	url, err := v.Pictures.Save(data, ext)
	if err != nil {
		return nil, "", err
	}
	return &url, "", nil
}

// decodeDataURI разбирает строку вида data:image/{ext};base64,{данные}
func decodeDataURI(s string) ([]byte, string, bool) {
	idx := strings.Index(s, ";base64,")
	if idx < 0 {
		return nil, "", false
	}
	head, payload := s[:idx], s[idx+len(";base64,"):]

	slash := strings.LastIndex(head, "/")
	if slash < 0 || slash == len(head)-1 {
		return nil, "", false
	}
	ext := head[slash+1:]

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", false
	}
	return data, ext, true
}

// decodeList разбирает JSON-массив в элементы коллекции.
// Элемент, не являющийся объектом, остается nil и дает позиционную ошибку.
func decodeList(raw json.RawMessage) ([]RawObject, bool) {
	var rawItems []json.RawMessage
	if err := json.Unmarshal(raw, &rawItems); err != nil {
		return nil, false
	}
	items := make([]RawObject, len(rawItems))
	for i, r := range rawItems {
		var obj RawObject
		if err := json.Unmarshal(r, &obj); err == nil && obj != nil {
			items[i] = obj
		}
	}
	return items, true
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func decodeString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func decodeBool(raw json.RawMessage) (bool, bool) {
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, false
	}
	return b, true
}

// parseInteger — та же коэрция, что и у локальных идентификаторов,
// но с обычным сообщением об ошибке у вызывающего
func parseInteger(raw json.RawMessage) (int, bool) {
	n, err := ParseLocalID(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// textField читает строковое поле: required управляет реакцией на
// отсутствие ключа, allowBlank — на пустую строку
func textField(item RawObject, key string, maxLen int, required, allowBlank bool) (string, string) {
	raw, present := item[key]
	if !present {
		if required {
			return "", msgRequired
		}
		return "", ""
	}
	s, ok := decodeString(raw)
	if !ok {
		return "", msgNotString
	}
	if s == "" && !allowBlank {
		return "", msgBlank
	}
	if utf8.RuneCountInString(s) > maxLen {
		return "", fmt.Sprintf(msgMaxLength, maxLen)
	}
	return s, ""
}

// optionalText читает необязательное nullable-поле: отсутствие и null дают nil
func optionalText(item RawObject, key string, maxLen int) (*string, string) {
	raw, present := item[key]
	if !present || isNull(raw) {
		return nil, ""
	}
	s, ok := decodeString(raw)
	if !ok {
		return nil, msgNotString
	}
	if utf8.RuneCountInString(s) > maxLen {
		return nil, fmt.Sprintf(msgMaxLength, maxLen)
	}
	return &s, ""
}

// optionalBlankText читает необязательное строковое поле, пустая строка допустима
func optionalBlankText(item RawObject, key string, maxLen int) (string, bool, string) {
	raw, present := item[key]
	if !present || isNull(raw) {
		return "", false, ""
	}
	s, ok := decodeString(raw)
	if !ok {
		return "", false, msgNotString
	}
	if utf8.RuneCountInString(s) > maxLen {
		return "", false, fmt.Sprintf(msgMaxLength, maxLen)
	}
	return s, true, ""
}
