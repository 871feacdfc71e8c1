package testsync

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// RawObject — один сырой элемент коллекции из запроса.
// Поля остаются недекодированными до валидации.
type RawObject map[string]json.RawMessage

// jsonTypeName возвращает имя JSON-типа значения для сообщений об ошибках
func jsonTypeName(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "null"
	}
	switch trimmed[0] {
	case '"':
		return "string"
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "bool"
	case 'n':
		return "null"
	default:
		if bytes.ContainsAny(trimmed, ".eE") {
			return "float"
		}
		return "int"
	}
}

// rawValueString возвращает значение в том виде, в котором его увидит
// пользователь в тексте ошибки: строки без кавычек, остальное как есть
func rawValueString(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	var s string
	if json.Unmarshal(trimmed, &s) == nil {
		return s
	}
	return string(trimmed)
}

// ParseLocalID приводит сырое JSON-значение к целому локальному
// идентификатору. Принимаются целые числа, числа с нулевой дробной частью
// и строки из цифр. Всё остальное — *IncorrectTypeError.
func ParseLocalID(raw json.RawMessage) (int, error) {
	trimmed := bytes.TrimSpace(raw)
	typeErr := &IncorrectTypeError{TypeName: jsonTypeName(raw), Value: rawValueString(raw)}

	if len(trimmed) == 0 {
		return 0, typeErr
	}

	var candidate string
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return 0, typeErr
		}
		candidate = strings.TrimSpace(s)
	case '{', '[', 't', 'f', 'n':
		return 0, typeErr
	default:
		candidate = string(trimmed)
	}

	if v, err := strconv.ParseInt(candidate, 10, 64); err == nil {
		return int(v), nil
	}

	// "3.0" приводится к 3, "3.5" — ошибка
	if f, err := strconv.ParseFloat(candidate, 64); err == nil && f == float64(int64(f)) {
		return int(int64(f)), nil
	}

	return 0, typeErr
}
