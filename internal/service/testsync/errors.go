package testsync

import (
	"errors"
	"fmt"

	apperrors "github.com/yourusername/hypertest-api/internal/pkg/errors"
)

// Сообщения валидации. Тексты для локальных идентификаторов и картинок
// локализованы, остальные повторяют формулировки клиентской части.
const (
	msgRequired       = "Это поле обязательно"
	msgIncorrectType  = "Некорректное значение первичного ключа, требуется целое число, получено %s = %s"
	msgDuplicates     = "Одинаковые %s в запросе"
	msgBlank          = "Это поле не может быть пустым"
	msgNotString      = "Некорректный тип, ожидалась строка"
	msgNotBool        = "Некорректный тип, ожидалось булево значение"
	msgNotInteger     = "Требуется целое число"
	msgMaxLength      = "Убедитесь, что длина этого поля не превышает %d символов"
	msgBadChoice      = "%s не является допустимым значением"
	msgExpectedList   = "Ожидался список объектов"
	msgExpectedObject = "Ожидался объект"
	msgBadPicture     = "Некорретная строка base64, ожидаемый формат data:image/{формат};base64,{base64}. " +
		"Чтобы удалить файл отправьте пустую строку"
)

// IncorrectTypeError возвращается, когда локальный идентификатор не приводится
// к целому числу. Хранит имя JSON-типа и само значение для текста ошибки.
type IncorrectTypeError struct {
	TypeName string
	Value    string
}

func (e *IncorrectTypeError) Error() string {
	return fmt.Sprintf(msgIncorrectType, e.TypeName, e.Value)
}

// ValidationError переносит дерево ошибок валидации до границы API.
// Fields повторяет форму и порядок входных коллекций: значение поля — либо
// строка-сообщение, либо позиционный список (пустые map на местах без ошибок),
// либо вложенная map.
type ValidationError struct {
	Fields map[string]any
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// Unwrap позволяет распознавать ошибку через errors.Is(err, apperrors.ErrValidation)
func (e *ValidationError) Unwrap() error {
	return apperrors.ErrValidation
}

// AsValidationError извлекает *ValidationError из цепочки ошибок
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
