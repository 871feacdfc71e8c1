package testsync

// PrettifyItem сводит детали ошибки одного элемента коллекции к плоскому
// виду: одно сообщение на поле. Списки сообщений схлопываются до первого,
// строки проходят как есть. Поле с пустым списком сообщений опускается.
func PrettifyItem(detail any) any {
	switch d := detail.(type) {
	case string:
		return d
	case []any:
		if len(d) == 0 {
			return map[string]any{}
		}
		return d[0]
	case map[string]any:
		out := make(map[string]any, len(d))
		for field, value := range d {
			switch v := value.(type) {
			case string:
				out[field] = v
			case []any:
				if len(v) > 0 {
					out[field] = v[0]
				}
			}
		}
		return out
	}
	return detail
}

// Shape приводит дерево ошибок к форме конверта ответа: map обходится
// рекурсивно, позиционные списки сохраняют длину и порядок (пустые места
// остаются пустыми map), пустой список схлопывается в null. К этому моменту
// списки сообщений уже сведены к одиночным строкам через PrettifyItem.
func Shape(detail any) any {
	switch d := detail.(type) {
	case string:
		return d
	case map[string]any:
		out := make(map[string]any, len(d))
		for field, value := range d {
			out[field] = Shape(value)
		}
		return out
	case []any:
		if len(d) == 0 {
			return nil
		}
		out := make([]any, len(d))
		for i, el := range d {
			out[i] = Shape(el)
		}
		return out
	}
	return detail
}
