package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"todo-tracker/internal/models"
	"todo-tracker/internal/services"
)

const (
	toggleSuccessMessage = "Todo status updated successfully."
	toggleMissingMessage = "Todo not found"
)

// TodoHandler はTodo関連のJSON APIハンドラーを管理します。
type TodoHandler struct {
	todoService TodoService
	db          Pinger
	logger      zerolog.Logger
}

// NewTodoHandler は新しいTodoHandlerを作成します。dbがnilの場合、ヘルスチェックは保存先の確認を省略します。
func NewTodoHandler(todoService TodoService, db Pinger, logger zerolog.Logger) *TodoHandler {
	return &TodoHandler{todoService: todoService, db: db, logger: logger}
}

// respondServiceError はサービスのエラーをHTTPステータスに対応付けて返します。
func (h *TodoHandler) respondServiceError(c *gin.Context, err error, failure string) {
	if verr, ok := services.IsValidation(err); ok {
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{Error: verr.Message, Field: verr.Field})
		return
	}
	if errors.Is(err, services.ErrTodoNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
		return
	}
	h.logger.Error().Err(err).Str("path", c.FullPath()).Msg(failure)
	c.JSON(http.StatusInternalServerError, gin.H{"error": failure})
}

// CreateTodoHandler は新しいTodoを作成します。
func (h *TodoHandler) CreateTodoHandler(c *gin.Context) {
	var req models.CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	created, err := h.todoService.Create(c.Request.Context(), req)
	if err != nil {
		h.respondServiceError(c, err, "Failed to save todo")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateTodoHandler はTodoを更新します。ボディのidはパスのidで上書きされます。
func (h *TodoHandler) UpdateTodoHandler(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	var req models.UpdateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	if req.ID != 0 && req.ID != id {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID in body does not match path"})
		return
	}
	req.ID = id

	updated, err := h.todoService.Update(c.Request.Context(), req)
	if err != nil {
		h.respondServiceError(c, err, "Failed to update todo")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// ToggleTodoHandler は完了状態を反転します。
func (h *TodoHandler) ToggleTodoHandler(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	ok, err := h.todoService.ToggleCompletion(c.Request.Context(), id)
	if err != nil {
		h.respondServiceError(c, err, "Failed to update todo")
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": toggleMissingMessage})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": toggleSuccessMessage})
}

// DeleteTodoHandler はTodoを削除します。
func (h *TodoHandler) DeleteTodoHandler(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	ok, err := h.todoService.Delete(c.Request.Context(), id)
	if err != nil {
		h.respondServiceError(c, err, "Failed to delete todo")
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetTodosHandler はTodoリストを取得します。completed, priority, search, overdue で絞り込めます。
func (h *TodoHandler) GetTodosHandler(c *gin.Context) {
	form, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filter parameters"})
		return
	}

	todos, err := h.todoService.ListFiltered(c.Request.Context(), form.Filter())
	if err != nil {
		h.respondServiceError(c, err, "Failed to fetch todos")
		return
	}
	c.JSON(http.StatusOK, todos)
}

// GetTodoByIDHandler は指定IDのTodoを取得します。
func (h *TodoHandler) GetTodoByIDHandler(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	todo, err := h.todoService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondServiceError(c, err, "Failed to fetch todo")
		return
	}
	if todo == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
		return
	}
	c.JSON(http.StatusOK, todo)
}

// GetStatsHandler は集計結果を返します。
func (h *TodoHandler) GetStatsHandler(c *gin.Context) {
	stats, err := h.todoService.Stats(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, err, "Failed to fetch stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// HealthHandler は保存先への疎通を確認します。
func (h *TodoHandler) HealthHandler(c *gin.Context) {
	if h.db != nil {
		if err := h.db.PingContext(c.Request.Context()); err != nil {
			h.logger.Error().Err(err).Msg("database ping failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": "Database connection failed"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
