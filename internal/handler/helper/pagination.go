package helper

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// Параметры пагинации списков
const (
	DefaultPageSize = 20
	MaxPageSize     = 40
)

// PageParams — нормализованные параметры страницы из query-строки
type PageParams struct {
	Page     int
	PageSize int
}

// Offset возвращает смещение выборки для текущей страницы
func (p PageParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// ParsePageParams читает page и page_size из query-строки.
// Некорректные значения молча заменяются умолчаниями, размер страницы
// ограничен сверху.
func ParsePageParams(c *gin.Context) PageParams {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = 1
	}

	pageSize, err := strconv.Atoi(c.Query("page_size"))
	if err != nil || pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	return PageParams{Page: page, PageSize: pageSize}
}

// NewPaginatedResponse оборачивает страницу элементов в конверт с метаданными
func NewPaginatedResponse(items interface{}, params PageParams, total int64) gin.H {
	totalPages := int(total) / params.PageSize
	if int(total)%params.PageSize != 0 {
		totalPages++
	}

	return gin.H{
		"_metadata": gin.H{
			"page":          params.Page,
			"page_size":     params.PageSize,
			"max_page_size": MaxPageSize,
			"total_items":   total,
			"total_pages":   totalPages,
		},
		"items": items,
	}
}
