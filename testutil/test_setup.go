// Package testutil はHTTPレベルのテストで使う共通のセットアップを提供します。
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"todo-tracker/internal/clock"
	"todo-tracker/internal/models"
	"todo-tracker/internal/repositories"
	"todo-tracker/internal/routes"
	"todo-tracker/internal/services"
)

// BaseTime はテスト用クロックの初期時刻です。
var BaseTime = time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)

// TestEnv はテスト用ルーターとその依存関係です。
type TestEnv struct {
	Router  *gin.Engine
	Service *services.TodoService
	Repo    *repositories.MemoryTodoRepository
	Clock   *clock.Manual
}

// SetupTestRouter はインメモリのリポジトリと手動クロックでテスト用のGinルーターをセットアップします。
func SetupTestRouter(t *testing.T) *TestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clk := clock.NewManual(BaseTime)
	repo := repositories.NewMemoryTodoRepository()
	svc := services.NewTodoService(repo, clk, zerolog.Nop())

	router := routes.SetupRouter(routes.Dependencies{
		TodoService: svc,
		Logger:      zerolog.Nop(),
		CORSOrigins: []string{"http://localhost:3000"},
	})
	return &TestEnv{Router: router, Service: svc, Repo: repo, Clock: clk}
}

// Do はリクエストをルーターに送り、レスポンスを返します。bodyがnil以外ならJSONとして送信します。
func Do(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

// CreateTestTodo はAPI経由でTodoを作成します。
func CreateTestTodo(t *testing.T, router *gin.Engine, title string, priority models.Priority, dueDate *time.Time) *models.TodoResponse {
	t.Helper()
	payload := map[string]any{
		"title":    title,
		"priority": priority,
	}
	if dueDate != nil {
		payload["due_date"] = dueDate
	}

	resp := Do(t, router, http.MethodPost, "/api/todos", payload)
	require.Equal(t, http.StatusCreated, resp.Code, "TODO作成に失敗しました: %s", resp.Body.String())

	var created models.TodoResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	return &created
}
