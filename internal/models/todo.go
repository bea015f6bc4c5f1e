// Package modelsはTodoと関連する転送用の型を定義します。
package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Priority はTodoの優先度です。
type Priority int

const (
	PriorityLow    Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
)

// Priorities は選択肢として表示する優先度の一覧を返します。
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh}
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	default:
		return fmt.Sprintf("Priority(%d)", int(p))
	}
}

// Valid は定義済みの優先度かどうかを返します。
func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityHigh
}

// ParsePriority は "2" や "medium" のような文字列を優先度に変換します。
func ParsePriority(s string) (Priority, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		p := Priority(n)
		if !p.Valid() {
			return 0, fmt.Errorf("invalid priority: %q", s)
		}
		return p, nil
	}
	for _, p := range Priorities() {
		if strings.EqualFold(p.String(), s) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("invalid priority: %q", s)
}

// UnmarshalJSON は数値 (3) と名前 ("High") のどちらも受け付けます。
// 範囲外の数値はそのまま受け取り、検証はサービス側で行います。
func (p *Priority) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		parsed, err := ParsePriority(name)
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid priority: %s", data)
	}
	*p = Priority(n)
	return nil
}

// Todo はtodosテーブルの1行を表します。
type Todo struct {
	ID          int        `json:"id,omitempty"`          // 主キー (自動採番)
	Title       string     `json:"title"`                 // タイトル (必須)
	Description *string    `json:"description,omitempty"` // 説明 (任意)
	Completed   bool       `json:"completed"`             // 完了状態
	Priority    Priority   `json:"priority"`              // 優先度
	DueDate     *time.Time `json:"due_date,omitempty"`    // 期限 (任意)
	CreatedAt   time.Time  `json:"created_at"`            // 作成日時
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`  // 最終更新日時 (初回更新まではnil)
}

// IsOverdue は期限切れかつ未完了であればtrueを返します。
func (t *Todo) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && !t.Completed
}

// TodoFields は作成・更新の両方で検証されるフィールドです。
type TodoFields struct {
	Title       string     `validate:"required,max=200"`
	Description *string    `validate:"omitempty,max=1000"`
	Priority    Priority   `validate:"min=1,max=3"`
	DueDate     *time.Time `validate:"-"`
}

// CreateTodoRequest はTodo作成時の入力です。
type CreateTodoRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// Fields は検証対象のフィールドを取り出します。
func (r CreateTodoRequest) Fields() TodoFields {
	return TodoFields{
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		DueDate:     r.DueDate,
	}
}

// UpdateTodoRequest はTodo更新時の入力です。すべてのフィールドを上書きします。
type UpdateTodoRequest struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Completed   bool       `json:"completed"`
}

// Fields は検証対象のフィールドを取り出します。
func (r UpdateTodoRequest) Fields() TodoFields {
	return TodoFields{
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		DueDate:     r.DueDate,
	}
}

// TodoFilter は一覧の絞り込み条件です。
type TodoFilter struct {
	Completed       *bool
	Priority        *Priority
	SearchTerm      string
	ShowOverdueOnly bool
}

// NoDueDateText は期限なしのTodoに表示する文字列です。
const NoDueDateText = "No due date"

// TodoResponse は画面やAPIに返すTodoの表現です。表示用フィールドは読み出し時に計算されます。
type TodoResponse struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`

	PriorityText string `json:"priority_text"`
	StatusText   string `json:"status_text"`
	IsOverdue    bool   `json:"is_overdue"`
	DueDateText  string `json:"due_date_text"`
}

// NewTodoResponse はTodoを時刻nowを基準にした表示用の形へ変換します。
func NewTodoResponse(t *Todo, now time.Time) TodoResponse {
	status := "Pending"
	if t.Completed {
		status = "Completed"
	}
	dueText := NoDueDateText
	if t.DueDate != nil {
		dueText = t.DueDate.Format("2006-01-02")
	}
	return TodoResponse{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		Completed:    t.Completed,
		Priority:     t.Priority,
		DueDate:      t.DueDate,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		PriorityText: t.Priority.String(),
		StatusText:   status,
		IsOverdue:    t.IsOverdue(now),
		DueDateText:  dueText,
	}
}

// TodoStats は集計結果です。PendingCountとCompletionRateは生成時に計算されます。
type TodoStats struct {
	TotalCount     int     `json:"total_count"`
	CompletedCount int     `json:"completed_count"`
	OverdueCount   int     `json:"overdue_count"`
	PendingCount   int     `json:"pending_count"`
	CompletionRate float64 `json:"completion_rate"` // パーセント
}

// NewTodoStats は件数から集計結果を組み立てます。
func NewTodoStats(total, completed, overdue int) TodoStats {
	rate := 0.0
	if total > 0 {
		rate = float64(completed) / float64(total) * 100
	}
	return TodoStats{
		TotalCount:     total,
		CompletedCount: completed,
		OverdueCount:   overdue,
		PendingCount:   total - completed,
		CompletionRate: rate,
	}
}

// Dashboard はダッシュボード画面の内容です。
type Dashboard struct {
	Stats             TodoStats      `json:"stats"`
	RecentTodos       []TodoResponse `json:"recent_todos"`
	OverdueTodos      []TodoResponse `json:"overdue_todos"`
	HighPriorityTodos []TodoResponse `json:"high_priority_todos"`
}

// ErrorResponse はAPIのエラー応答です。
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}
