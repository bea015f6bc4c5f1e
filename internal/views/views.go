// Package views はサーバーサイドで描画する画面のテンプレートと表示用モデルを提供します。
package views

import (
	"embed"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"todo-tracker/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates は全画面のテンプレートを読み込みます。gin.Engine.SetHTMLTemplate に渡します。
func Templates() *template.Template {
	funcs := template.FuncMap{
		"formatDate":     formatDate,
		"formatDateTime": formatDateTime,
		"priorityBadge":  PriorityBadgeClass,
		"statusBadge":    StatusBadgeClass,
		"percent":        func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) + "%" },
		"priorities":     models.Priorities,
	}
	return template.Must(template.New("views").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

func formatDate(t *time.Time) string {
	if t == nil {
		return models.NoDueDateText
	}
	return t.Format("2006-01-02")
}

func formatDateTime(t time.Time) string {
	return t.Format("02/01/2006 15:04")
}

// PriorityBadgeClass は優先度ごとのバッジのCSSクラスを返します。
func PriorityBadgeClass(p models.Priority) string {
	switch p {
	case models.PriorityHigh:
		return "badge-danger"
	case models.PriorityMedium:
		return "badge-warning"
	case models.PriorityLow:
		return "badge-success"
	default:
		return "badge-secondary"
	}
}

func StatusBadgeClass(completed bool) string {
	if completed {
		return "badge-success"
	}
	return "badge-secondary"
}

// Flash はリダイレクト後に一度だけ表示するメッセージです。
type Flash struct {
	Success string
	Error   string
}

// Option はselect要素の選択肢です。
type Option struct {
	Value    string
	Text     string
	Selected bool
}

// FilterForm は一覧画面の絞り込みフォームの値です。
type FilterForm struct {
	Completed       *bool
	Priority        *models.Priority
	SearchTerm      string
	ShowOverdueOnly bool
}

// Filter はサービスに渡す絞り込み条件へ変換します。
func (f FilterForm) Filter() models.TodoFilter {
	return models.TodoFilter{
		Completed:       f.Completed,
		Priority:        f.Priority,
		SearchTerm:      f.SearchTerm,
		ShowOverdueOnly: f.ShowOverdueOnly,
	}
}

// CurrentFilter は適用中の条件を "Pending, High, Search: 'x'" のような文字列で返します。
func (f FilterForm) CurrentFilter() string {
	var parts []string
	if f.Completed != nil {
		if *f.Completed {
			parts = append(parts, "Completed")
		} else {
			parts = append(parts, "Pending")
		}
	}
	if f.Priority != nil {
		parts = append(parts, f.Priority.String())
	}
	if strings.TrimSpace(f.SearchTerm) != "" {
		parts = append(parts, fmt.Sprintf("Search: '%s'", f.SearchTerm))
	}
	if f.ShowOverdueOnly {
		parts = append(parts, "Overdue")
	}
	if len(parts) == 0 {
		return "All Todos"
	}
	return strings.Join(parts, ", ")
}

func (f FilterForm) StatusOptions() []Option {
	return []Option{
		{Value: "", Text: "All Status", Selected: f.Completed == nil},
		{Value: "false", Text: "Pending", Selected: f.Completed != nil && !*f.Completed},
		{Value: "true", Text: "Completed", Selected: f.Completed != nil && *f.Completed},
	}
}

func (f FilterForm) PriorityOptions() []Option {
	opts := []Option{{Value: "", Text: "All Priorities", Selected: f.Priority == nil}}
	for _, p := range models.Priorities() {
		opts = append(opts, Option{
			Value:    strconv.Itoa(int(p)),
			Text:     p.String(),
			Selected: f.Priority != nil && *f.Priority == p,
		})
	}
	return opts
}

// IndexPage は一覧画面の表示用モデルです。
type IndexPage struct {
	Todos  []models.TodoResponse
	Filter FilterForm
	Stats  models.TodoStats
	Flash  Flash
}

// TodoForm は作成・編集フォームの入力値です。日付や優先度は文字列のまま保持します。
type TodoForm struct {
	ID          int    `form:"id"`
	Title       string `form:"title"`
	Description string `form:"description"`
	Priority    string `form:"priority"`
	DueDate     string `form:"due_date"`
	Completed   bool   `form:"completed"`
}

// NewTodoForm は既存のTodoから編集フォームの初期値を作ります。
func NewTodoForm(t models.TodoResponse) TodoForm {
	form := TodoForm{
		ID:        t.ID,
		Title:     t.Title,
		Priority:  strconv.Itoa(int(t.Priority)),
		Completed: t.Completed,
	}
	if t.Description != nil {
		form.Description = *t.Description
	}
	if t.DueDate != nil {
		form.DueDate = t.DueDate.Format("2006-01-02")
	}
	return form
}

// FormPage は作成・編集画面の表示用モデルです。
type FormPage struct {
	Form         TodoForm
	IsEdit       bool
	Errors       map[string]string
	GeneralError string
	CreatedAt    *time.Time
	UpdatedAt    *time.Time
}

func (p FormPage) PriorityOptions() []Option {
	opts := make([]Option, 0, 3)
	for _, pr := range models.Priorities() {
		v := strconv.Itoa(int(pr))
		opts = append(opts, Option{Value: v, Text: pr.String(), Selected: p.Form.Priority == v})
	}
	return opts
}

// DetailsPage は詳細・削除確認画面の表示用モデルです。
type DetailsPage struct {
	Todo models.TodoResponse
}

func (p DetailsPage) FormattedCreatedAt() string {
	return formatDateTime(p.Todo.CreatedAt)
}

func (p DetailsPage) FormattedUpdatedAt() string {
	if p.Todo.UpdatedAt == nil {
		return "Never"
	}
	return formatDateTime(*p.Todo.UpdatedAt)
}

// DashboardPage はダッシュボード画面の表示用モデルです。
type DashboardPage struct {
	models.Dashboard
	Flash Flash
}

// ErrorPage は404などのエラー画面の表示用モデルです。
type ErrorPage struct {
	Title   string
	Message string
}
