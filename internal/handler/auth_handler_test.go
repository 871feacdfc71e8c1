package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestGinContext создает *gin.Context для тестов с сырым JSON body
func newTestGinContext(body string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/auth", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return c, w
}

func parseJSONResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err, "Response body should be valid JSON: %s", w.Body.String())
	return resp
}

// Валидация тела запроса не требует реального AuthService:
// обработчик возвращает 400 до обращения к сервису
func TestAuthHandler_Authenticate_ValidationErrors(t *testing.T) {
	h := &AuthHandler{}

	tests := []struct {
		name        string
		body        string
		wantField   string
		wantMessage string
	}{
		{
			name:        "нет поля query",
			body:        `{}`,
			wantField:   "query",
			wantMessage: "Это поле обязательно",
		},
		{
			name:        "query не строка",
			body:        `{"query": 5}`,
			wantField:   "query",
			wantMessage: "Некорректный тип, ожидалась строка",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestGinContext(tt.body)
			h.Authenticate(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := parseJSONResponse(t, w)

			errs, ok := resp["errors"].(map[string]interface{})
			require.True(t, ok)
			fields, ok := errs["fields"].(map[string]interface{})
			require.True(t, ok)
			assert.Equal(t, tt.wantMessage, fields[tt.wantField])
		})
	}
}

func TestAuthHandler_Authenticate_MalformedBody(t *testing.T) {
	h := &AuthHandler{}

	for _, body := range []string{`[]`, `не json`} {
		c, w := newTestGinContext(body)
		h.Authenticate(c)

		assert.Equal(t, http.StatusBadRequest, w.Code, "body: %s", body)
		resp := parseJSONResponse(t, w)
		errs := resp["errors"].(map[string]interface{})
		assert.Equal(t, "Ожидался JSON-объект", errs["message"])
	}
}
