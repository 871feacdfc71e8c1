package testsync

import (
	"errors"
	"fmt"

	apperrors "github.com/yourusername/hypertest-api/internal/pkg/errors"
)

// ReconcileParams параметризует сверку одной коллекции: имя поля локального
// идентификатора, поиск существующей строки по (идентификатор, родитель) и
// валидация элемента.
type ReconcileParams[T any] struct {
	// IDField — имя поля локального идентификатора в запросе ("resId", "qId", "varId")
	IDField string

	// Lookup ищет существующую строку по локальному идентификатору в рамках
	// родителя. nil на пути создания: каждый элемент считается новым.
	// Возвращает apperrors.ErrNotFound, если строки нет.
	Lookup func(localID int) (*T, error)

	// Validate валидирует один элемент против существующей строки (или как
	// новую, если existing == nil). Возвращает провалидированную строку либо
	// ошибки по полям. Третье значение — внутренняя ошибка (БД и т.п.).
	Validate func(item RawObject, localID int, existing *T) (*T, map[string]any, error)
}

// Reconcile сверяет присланную коллекцию с сохраненными строками.
//
// Каждый элемент обрабатывается независимо, порядок входа сохраняется.
// Отсутствующий или нечисловой идентификатор, ошибки полей и дубликаты
// идентификаторов накапливаются по позициям; дубликат помечает обе позиции.
// При любой ошибке возвращается позиционный список длиной во всю коллекцию
// (пустые map на местах без ошибок) и nil вместо результата. Записей в БД
// здесь не происходит.
func Reconcile[T any](p ReconcileParams[T], items []RawObject) ([]*T, []any, error) {
	validated := make([]*T, 0, len(items))
	itemErrors := make(map[int]any)
	seen := make(map[int]int, len(items))

	for idx, item := range items {
		if item == nil {
			itemErrors[idx] = msgExpectedObject
			continue
		}

		rawID, present := item[p.IDField]
		if !present {
			itemErrors[idx] = map[string]any{p.IDField: msgRequired}
			continue
		}

		localID, err := ParseLocalID(rawID)
		if err != nil {
			itemErrors[idx] = map[string]any{p.IDField: err.Error()}
			continue
		}

		var existing *T
		if p.Lookup != nil {
			existing, err = p.Lookup(localID)
			if err != nil {
				if !errors.Is(err, apperrors.ErrNotFound) {
					return nil, nil, err
				}
				existing = nil
			}
		}

		obj, fieldErrors, err := p.Validate(item, localID, existing)
		if err != nil {
			return nil, nil, err
		}
		if len(fieldErrors) > 0 {
			itemErrors[idx] = fieldErrors
			continue
		}
		validated = append(validated, obj)

		if firstIdx, dup := seen[localID]; dup {
			msg := fmt.Sprintf(msgDuplicates, p.IDField)
			itemErrors[idx] = msg
			itemErrors[firstIdx] = msg
			continue
		}
		seen[localID] = idx
	}

	if len(itemErrors) == 0 {
		return validated, nil, nil
	}

	positional := make([]any, len(items))
	for idx := range items {
		detail, failed := itemErrors[idx]
		if !failed {
			positional[idx] = map[string]any{}
			continue
		}
		positional[idx] = PrettifyItem(detail)
	}
	return nil, positional, nil
}
