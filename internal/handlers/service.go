// Package handlers はJSON APIと画面のHTTPハンドラーを提供します。
package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"todo-tracker/internal/models"
	"todo-tracker/internal/views"
)

// TodoService はハンドラーが利用するTodoのユースケースです。*services.TodoService が実装します。
type TodoService interface {
	Create(ctx context.Context, req models.CreateTodoRequest) (*models.TodoResponse, error)
	Update(ctx context.Context, req models.UpdateTodoRequest) (*models.TodoResponse, error)
	ToggleCompletion(ctx context.Context, id int) (bool, error)
	Delete(ctx context.Context, id int) (bool, error)
	GetByID(ctx context.Context, id int) (*models.TodoResponse, error)
	Exists(ctx context.Context, id int) (bool, error)
	List(ctx context.Context) ([]models.TodoResponse, error)
	ListFiltered(ctx context.Context, filter models.TodoFilter) ([]models.TodoResponse, error)
	Stats(ctx context.Context) (*models.TodoStats, error)
	Dashboard(ctx context.Context) (*models.Dashboard, error)
}

// Pinger はヘルスチェックで疎通確認する保存先です。*sql.DB が実装します。
type Pinger interface {
	PingContext(ctx context.Context) error
}

var errInvalidFilter = errors.New("invalid filter")

// parseID はパスパラメータ :id を整数に変換します。
func parseID(c *gin.Context) (int, error) {
	return strconv.Atoi(c.Param("id"))
}

// parseFilter はクエリ文字列から絞り込み条件を読み取ります。
// 空の値は「指定なし」として扱い、解釈できない値があればその項目を無視してerrInvalidFilterを返します。
func parseFilter(c *gin.Context) (views.FilterForm, error) {
	var (
		form views.FilterForm
		err  error
	)

	if v := strings.TrimSpace(c.Query("completed")); v != "" {
		if b, perr := strconv.ParseBool(v); perr == nil {
			form.Completed = &b
		} else {
			err = errInvalidFilter
		}
	}
	if v := strings.TrimSpace(c.Query("priority")); v != "" {
		if p, perr := models.ParsePriority(v); perr == nil {
			form.Priority = &p
		} else {
			err = errInvalidFilter
		}
	}
	form.SearchTerm = c.Query("search")
	if v := strings.TrimSpace(c.Query("overdue")); v != "" {
		if b, perr := strconv.ParseBool(v); perr == nil {
			form.ShowOverdueOnly = b
		} else {
			err = errInvalidFilter
		}
	}
	return form, err
}
