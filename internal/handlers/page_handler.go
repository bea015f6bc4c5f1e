package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"todo-tracker/internal/models"
	"todo-tracker/internal/services"
	"todo-tracker/internal/views"
)

const (
	msgCreated      = "Todo created successfully."
	msgUpdated      = "Todo updated successfully."
	msgDeleted      = "Todo deleted successfully."
	msgNotFound     = "Todo not found."
	msgLoadFailed   = "An error occurred while loading todos."
	msgSaveFailed   = "An error occurred while saving the todo."
	msgDeleteFailed = "An error occurred while deleting the todo."
	msgToggleFailed = "An error occurred while updating the todo."

	dueDateLayout = "2006-01-02"
)

// PageHandler はサーバーサイドで描画する画面を扱います。
type PageHandler struct {
	todoService TodoService
	logger      zerolog.Logger
}

// NewPageHandler は新しいPageHandlerを作成します。
func NewPageHandler(todoService TodoService, logger zerolog.Logger) *PageHandler {
	return &PageHandler{todoService: todoService, logger: logger}
}

func (h *PageHandler) notFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "error.html", views.ErrorPage{Title: "Not Found", Message: msgNotFound})
}

// storageFailure はエラーを記録し、フラッシュを付けて一覧へ戻します。
func (h *PageHandler) storageFailure(c *gin.Context, err error, msg string) {
	h.logger.Error().Err(err).Str("path", c.FullPath()).Msg(msg)
	setFlashError(c, msg)
	c.Redirect(http.StatusSeeOther, "/todos")
}

// Index は絞り込み条件と集計付きの一覧画面を表示します。
func (h *PageHandler) Index(c *gin.Context) {
	// 解釈できない条件は無視して表示する
	form, _ := parseFilter(c)
	page := views.IndexPage{Filter: form, Flash: readFlash(c)}

	ctx := c.Request.Context()
	todos, err := h.todoService.ListFiltered(ctx, form.Filter())
	if err == nil {
		var stats *models.TodoStats
		if stats, err = h.todoService.Stats(ctx); err == nil {
			page.Todos = todos
			page.Stats = *stats
		}
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load todos")
		page.Flash.Error = msgLoadFailed
	}
	c.HTML(http.StatusOK, "index.html", page)
}

// Details はTodoの詳細画面を表示します。
func (h *PageHandler) Details(c *gin.Context) {
	h.renderTodo(c, "details.html")
}

// DeleteConfirm は削除確認画面を表示します。
func (h *PageHandler) DeleteConfirm(c *gin.Context) {
	h.renderTodo(c, "delete.html")
}

func (h *PageHandler) renderTodo(c *gin.Context, name string) {
	id, err := parseID(c)
	if err != nil {
		h.notFound(c)
		return
	}
	todo, err := h.todoService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.storageFailure(c, err, msgLoadFailed)
		return
	}
	if todo == nil {
		h.notFound(c)
		return
	}
	c.HTML(http.StatusOK, name, views.DetailsPage{Todo: *todo})
}

// CreateForm は新規作成フォームを表示します。
func (h *PageHandler) CreateForm(c *gin.Context) {
	c.HTML(http.StatusOK, "form.html", views.FormPage{
		Form: views.TodoForm{Priority: "1"},
	})
}

// Create はフォームの内容でTodoを作成します。
func (h *PageHandler) Create(c *gin.Context) {
	var form views.TodoForm
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusBadRequest, "form.html", views.FormPage{Form: form, GeneralError: "Invalid form submission."})
		return
	}

	fields, fieldErrs := parseTodoForm(form)
	if len(fieldErrs) > 0 {
		c.HTML(http.StatusUnprocessableEntity, "form.html", views.FormPage{Form: form, Errors: fieldErrs})
		return
	}

	_, err := h.todoService.Create(c.Request.Context(), models.CreateTodoRequest{
		Title:       fields.Title,
		Description: fields.Description,
		Priority:    fields.Priority,
		DueDate:     fields.DueDate,
	})
	if err != nil {
		if verr, ok := services.IsValidation(err); ok {
			c.HTML(http.StatusUnprocessableEntity, "form.html", validationPage(form, false, verr))
			return
		}
		h.storageFailure(c, err, msgSaveFailed)
		return
	}
	setFlashSuccess(c, msgCreated)
	c.Redirect(http.StatusSeeOther, "/todos")
}

// EditForm は編集フォームを表示します。
func (h *PageHandler) EditForm(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.notFound(c)
		return
	}
	todo, err := h.todoService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.storageFailure(c, err, msgLoadFailed)
		return
	}
	if todo == nil {
		h.notFound(c)
		return
	}
	c.HTML(http.StatusOK, "form.html", views.FormPage{
		Form:      views.NewTodoForm(*todo),
		IsEdit:    true,
		CreatedAt: &todo.CreatedAt,
		UpdatedAt: todo.UpdatedAt,
	})
}

// Edit はフォームの内容でTodoを上書きします。パスとフォームのidが異なる場合は404です。
func (h *PageHandler) Edit(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.notFound(c)
		return
	}
	var form views.TodoForm
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusBadRequest, "form.html", views.FormPage{Form: form, IsEdit: true, GeneralError: "Invalid form submission."})
		return
	}
	if form.ID != id {
		h.notFound(c)
		return
	}

	fields, fieldErrs := parseTodoForm(form)
	if len(fieldErrs) > 0 {
		c.HTML(http.StatusUnprocessableEntity, "form.html", views.FormPage{Form: form, IsEdit: true, Errors: fieldErrs})
		return
	}

	_, err = h.todoService.Update(c.Request.Context(), models.UpdateTodoRequest{
		ID:          id,
		Title:       fields.Title,
		Description: fields.Description,
		Priority:    fields.Priority,
		DueDate:     fields.DueDate,
		Completed:   form.Completed,
	})
	if err != nil {
		if errors.Is(err, services.ErrTodoNotFound) {
			h.notFound(c)
			return
		}
		if verr, ok := services.IsValidation(err); ok {
			c.HTML(http.StatusUnprocessableEntity, "form.html", validationPage(form, true, verr))
			return
		}
		h.storageFailure(c, err, msgSaveFailed)
		return
	}
	setFlashSuccess(c, msgUpdated)
	c.Redirect(http.StatusSeeOther, "/todos")
}

// Delete はTodoを削除して一覧へ戻ります。
func (h *PageHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.notFound(c)
		return
	}
	ok, err := h.todoService.Delete(c.Request.Context(), id)
	if err != nil {
		h.storageFailure(c, err, msgDeleteFailed)
		return
	}
	if ok {
		setFlashSuccess(c, msgDeleted)
	} else {
		setFlashError(c, msgNotFound)
	}
	c.Redirect(http.StatusSeeOther, "/todos")
}

// Toggle は一覧のボタンから呼ばれ、結果をJSONで返します。
func (h *PageHandler) Toggle(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": toggleMissingMessage})
		return
	}
	ok, err := h.todoService.ToggleCompletion(c.Request.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Int("todo_id", id).Msg("failed to toggle todo")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": msgToggleFailed})
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": toggleMissingMessage})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": toggleSuccessMessage})
}

// Dashboard はダッシュボード画面を表示します。
func (h *PageHandler) Dashboard(c *gin.Context) {
	d, err := h.todoService.Dashboard(c.Request.Context())
	if err != nil {
		h.storageFailure(c, err, msgLoadFailed)
		return
	}
	c.HTML(http.StatusOK, "dashboard.html", views.DashboardPage{Dashboard: *d, Flash: readFlash(c)})
}

// parseTodoForm はフォームの文字列を検証前のフィールドへ変換します。
// 書式として解釈できない項目はフィールド名をキーにしたエラーとして返します。
func parseTodoForm(form views.TodoForm) (models.TodoFields, map[string]string) {
	fields := models.TodoFields{Title: form.Title}
	errs := map[string]string{}

	if d := strings.TrimSpace(form.Description); d != "" {
		fields.Description = &d
	}
	if p := strings.TrimSpace(form.Priority); p != "" {
		parsed, err := models.ParsePriority(p)
		if err != nil {
			errs["priority"] = "Priority must be Low, Medium or High"
		}
		fields.Priority = parsed
	}
	if d := strings.TrimSpace(form.DueDate); d != "" {
		due, err := time.ParseInLocation(dueDateLayout, d, time.UTC)
		if err != nil {
			errs["due_date"] = "Due date must be a valid date"
		} else {
			fields.DueDate = &due
		}
	}
	return fields, errs
}

func validationPage(form views.TodoForm, isEdit bool, verr *services.ValidationError) views.FormPage {
	page := views.FormPage{Form: form, IsEdit: isEdit}
	if verr.Field == "" {
		page.GeneralError = verr.Message
		return page
	}
	page.Errors = map[string]string{verr.Field: verr.Message}
	return page
}
