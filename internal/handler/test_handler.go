package handler

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/hypertest-api/internal/domain/entity"
	"github.com/yourusername/hypertest-api/internal/handler/dto"
	"github.com/yourusername/hypertest-api/internal/handler/helper"
	"github.com/yourusername/hypertest-api/internal/middleware"
	apperrors "github.com/yourusername/hypertest-api/internal/pkg/errors"
	"github.com/yourusername/hypertest-api/internal/service"
)

// TestHandler обрабатывает запросы витрины тестов и кабинета автора
type TestHandler struct {
	testService *service.TestService
	passService *service.PassService
}

// NewTestHandler создает новый обработчик тестов
func NewTestHandler(testService *service.TestService, passService *service.PassService) *TestHandler {
	return &TestHandler{
		testService: testService,
		passService: passService,
	}
}

// ListPublished обрабатывает запрос GET /api/tests
func (h *TestHandler) ListPublished(c *gin.Context) {
	params := helper.ParsePageParams(c)
	tests, total, err := h.testService.ListPublished(params.PageSize, params.Offset())
	if err != nil {
		respondError(c, err)
		return
	}

	user, _ := middleware.CurrentUser(c)
	items := make([]*dto.TestShortResponse, len(tests))
	for i := range tests {
		item := dto.NewTestShortResponse(&tests[i])
		h.attachPassedFlagShort(item, &tests[i], user)
		items[i] = item
	}

	c.JSON(http.StatusOK, helper.NewPaginatedResponse(items, params, total))
}

// GetPublished обрабатывает запрос GET /api/tests/:id
func (h *TestHandler) GetPublished(c *gin.Context) {
	testID := c.MustGet("test_id").(uint)

	test, err := h.testService.GetPublished(testID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := dto.NewTestResponse(test)
	if user, ok := middleware.CurrentUser(c); ok {
		if passed, err := h.testService.HasPassed(test.ID, user.ID); err == nil {
			resp.Passed = &passed
		}
	}

	c.JSON(http.StatusOK, resp)
}

// Pass обрабатывает запрос POST /api/tests/:id/pass
func (h *TestHandler) Pass(c *gin.Context) {
	testID := c.MustGet("test_id").(uint)
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	if err := h.passService.RegisterPass(user, testID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// ListMine обрабатывает запрос GET /api/tests/my
func (h *TestHandler) ListMine(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	params := helper.ParsePageParams(c)
	tests, total, err := h.testService.ListMine(user, params.PageSize, params.Offset())
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]*dto.TestShortResponse, len(tests))
	for i := range tests {
		items[i] = dto.NewTestShortResponse(&tests[i])
	}

	c.JSON(http.StatusOK, helper.NewPaginatedResponse(items, params, total))
}

// Create обрабатывает запрос POST /api/tests/my
func (h *TestHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		respondError(c, fmt.Errorf("read request body: %w", err))
		return
	}

	agg, err := h.testService.Create(user, body)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewTestResponseFromAggregate(agg))
}

// GetMine обрабатывает запрос GET /api/tests/my/:id
func (h *TestHandler) GetMine(c *gin.Context) {
	testID := c.MustGet("test_id").(uint)
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	test, err := h.testService.GetMine(user, testID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTestResponse(test))
}

// Update обрабатывает запрос PUT /api/tests/my/:id
func (h *TestHandler) Update(c *gin.Context) {
	testID := c.MustGet("test_id").(uint)
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		respondError(c, fmt.Errorf("read request body: %w", err))
		return
	}

	agg, err := h.testService.Update(user, testID, body)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTestResponseFromAggregate(agg))
}

// Delete обрабатывает запрос DELETE /api/tests/my/:id
func (h *TestHandler) Delete(c *gin.Context) {
	testID := c.MustGet("test_id").(uint)
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	if err := h.testService.Delete(user, testID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ExportPasses обрабатывает запрос GET /api/tests/my/:id/passes/export.
// Отдает xlsx-файл с прохождениями теста.
func (h *TestHandler) ExportPasses(c *gin.Context) {
	testID := c.MustGet("test_id").(uint)
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	test, passes, err := h.passService.ListPasses(user, testID)
	if err != nil {
		respondError(c, err)
		return
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("[TestHandler] Ошибка закрытия xlsx: %v", err)
		}
	}()

	const sheet = "Sheet1"
	headers := []string{"#", "Пользователь VK", "Дата прохождения"}
	for i, title := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, title)
	}
	for i, pass := range passes {
		row := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, row)
		f.SetCellValue(sheet, cell, i+1)
		cell, _ = excelize.CoordinatesToCellName(2, row)
		f.SetCellValue(sheet, cell, pass.UserID)
		cell, _ = excelize.CoordinatesToCellName(3, row)
		f.SetCellValue(sheet, cell, pass.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	filename := fmt.Sprintf("test_%d_passes.xlsx", test.ID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[TestHandler] Ошибка выгрузки xlsx для теста %d: %v", test.ID, err)
	}
}

// attachPassedFlagShort добавляет отметку прохождения для аутентифицированного
// пользователя в элементе списка
func (h *TestHandler) attachPassedFlagShort(item *dto.TestShortResponse, test *entity.Test, user *entity.VKUser) {
	if user == nil {
		return
	}
	if passed, err := h.testService.HasPassed(test.ID, user.ID); err == nil {
		item.Passed = &passed
	}
}
