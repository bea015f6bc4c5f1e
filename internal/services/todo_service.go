package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"todo-tracker/internal/clock"
	"todo-tracker/internal/metrics"
	"todo-tracker/internal/models"
	"todo-tracker/internal/repositories"
)

const dashboardListSize = 5

// TodoService はTodo関連のビジネスロジックを扱います。
// 入力の検証、更新ルール、一覧の絞り込みはすべてここで行い、リポジトリは保存だけを担当します。
type TodoService struct {
	todoRepo repositories.TodoRepository
	clock    clock.Clock
	logger   zerolog.Logger
	validate *validator.Validate
}

// NewTodoService は新しいTodoServiceを作成します。
func NewTodoService(todoRepo repositories.TodoRepository, clk clock.Clock, logger zerolog.Logger) *TodoService {
	if clk == nil {
		clk = clock.System{}
	}
	return &TodoService{
		todoRepo: todoRepo,
		clock:    clk,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// normalize は前後の空白を取り除き、未指定の優先度をLowにします。
func normalize(f models.TodoFields) models.TodoFields {
	f.Title = strings.TrimSpace(f.Title)
	if f.Description != nil {
		d := strings.TrimSpace(*f.Description)
		f.Description = &d
	}
	if f.Priority == 0 {
		f.Priority = models.PriorityLow
	}
	return f
}

var fieldMessages = map[string]map[string]string{
	"Title": {
		"required": "Title cannot be empty",
		"max":      "Title cannot exceed 200 characters",
	},
	"Description": {
		"max": "Description cannot exceed 1000 characters",
	},
	"Priority": {
		"min": "Priority must be Low, Medium or High",
		"max": "Priority must be Low, Medium or High",
	},
}

var fieldNames = map[string]string{
	"Title":       "title",
	"Description": "description",
	"Priority":    "priority",
}

// validateFields は正規化済みのフィールドを時刻nowを基準に検証します。
func (s *TodoService) validateFields(f models.TodoFields, now time.Time) error {
	if err := s.validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) || len(verrs) == 0 {
			return err
		}
		fe := verrs[0]
		msg, ok := fieldMessages[fe.Field()][fe.Tag()]
		if !ok {
			msg = fe.Error()
		}
		return &ValidationError{Field: fieldNames[fe.Field()], Message: msg}
	}
	if f.DueDate != nil && f.DueDate.Before(now) {
		return &ValidationError{Field: "due_date", Message: "Due date cannot be in the past"}
	}
	return nil
}

func (s *TodoService) observe(operation string, err error) {
	result := metrics.ResultOK
	switch {
	case err == nil:
	case errors.Is(err, ErrTodoNotFound):
		result = metrics.ResultNotFound
	default:
		if _, ok := IsValidation(err); ok {
			result = metrics.ResultInvalid
		} else {
			result = metrics.ResultError
		}
	}
	metrics.ObserveOperation(operation, result)
}

func (s *TodoService) toResponses(todos []*models.Todo, now time.Time) []models.TodoResponse {
	out := make([]models.TodoResponse, 0, len(todos))
	for _, t := range todos {
		out = append(out, models.NewTodoResponse(t, now))
	}
	return out
}

// Create は入力を検証して新しいTodoを作成します。
func (s *TodoService) Create(ctx context.Context, req models.CreateTodoRequest) (res *models.TodoResponse, err error) {
	defer func() { s.observe("create", err) }()

	now := s.clock.Now()
	fields := normalize(req.Fields())
	if err := s.validateFields(fields, now); err != nil {
		return nil, err
	}

	created, err := s.todoRepo.Create(ctx, &models.Todo{
		Title:       fields.Title,
		Description: fields.Description,
		Priority:    fields.Priority,
		DueDate:     fields.DueDate,
		CreatedAt:   now,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int("todo_id", created.ID).Msg("created todo")

	out := models.NewTodoResponse(created, now)
	return &out, nil
}

// Update は既存のTodoを入力で上書きします。存在しなければNotFoundErrorを返します。
func (s *TodoService) Update(ctx context.Context, req models.UpdateTodoRequest) (res *models.TodoResponse, err error) {
	defer func() { s.observe("update", err) }()

	existing, err := s.todoRepo.FindByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrTodoNotFound) {
			return nil, &NotFoundError{ID: req.ID}
		}
		return nil, err
	}

	now := s.clock.Now()
	fields := normalize(req.Fields())
	if err := s.validateFields(fields, now); err != nil {
		return nil, err
	}

	existing.Title = fields.Title
	existing.Description = fields.Description
	existing.Priority = fields.Priority
	existing.DueDate = fields.DueDate
	existing.Completed = req.Completed
	existing.UpdatedAt = &now

	updated, err := s.todoRepo.Update(ctx, existing)
	if err != nil {
		if errors.Is(err, repositories.ErrTodoNotFound) {
			return nil, &NotFoundError{ID: req.ID}
		}
		return nil, err
	}
	s.logger.Info().Int("todo_id", updated.ID).Msg("updated todo")

	out := models.NewTodoResponse(updated, now)
	return &out, nil
}

// ToggleCompletion は完了状態を反転します。Todoが存在しなければfalseを返します。
// タイトルや期限の検証は行いません。
func (s *TodoService) ToggleCompletion(ctx context.Context, id int) (ok bool, err error) {
	defer func() {
		if err == nil && !ok {
			s.observe("toggle", ErrTodoNotFound)
			return
		}
		s.observe("toggle", err)
	}()

	todo, err := s.todoRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTodoNotFound) {
			return false, nil
		}
		return false, err
	}

	now := s.clock.Now()
	todo.Completed = !todo.Completed
	todo.UpdatedAt = &now
	if _, err := s.todoRepo.Update(ctx, todo); err != nil {
		if errors.Is(err, repositories.ErrTodoNotFound) {
			return false, nil
		}
		return false, err
	}
	s.logger.Info().Int("todo_id", id).Bool("completed", todo.Completed).Msg("toggled todo")
	return true, nil
}

// Delete はTodoを削除します。存在しなければfalseを返します。
func (s *TodoService) Delete(ctx context.Context, id int) (ok bool, err error) {
	defer func() {
		if err == nil && !ok {
			s.observe("delete", ErrTodoNotFound)
			return
		}
		s.observe("delete", err)
	}()

	if err := s.todoRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrTodoNotFound) {
			return false, nil
		}
		return false, err
	}
	s.logger.Info().Int("todo_id", id).Msg("deleted todo")
	return true, nil
}

// GetByID は指定IDのTodoを返します。存在しなければnil, nilを返します。
func (s *TodoService) GetByID(ctx context.Context, id int) (*models.TodoResponse, error) {
	todo, err := s.todoRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTodoNotFound) {
			return nil, nil
		}
		return nil, err
	}
	out := models.NewTodoResponse(todo, s.clock.Now())
	return &out, nil
}

// Exists は指定IDのTodoが存在するかを返します。
func (s *TodoService) Exists(ctx context.Context, id int) (bool, error) {
	return s.todoRepo.Exists(ctx, id)
}

// List は作成日時の新しい順にすべてのTodoを返します。
func (s *TodoService) List(ctx context.Context) ([]models.TodoResponse, error) {
	todos, err := s.todoRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.toResponses(todos, s.clock.Now()), nil
}

// ListFiltered は絞り込み条件に合うTodoを返します。
//
// 基本となる集合は 期限切れのみ > 検索語 > 完了状態 > 優先度 > 全件 の順に一つだけ選ばれ、
// その後、期限切れのみでなければ完了状態で、優先度が指定されていれば優先度で、もう一度絞り込みます。
// 二度目の絞り込みは基本集合によっては重複しますが、結果は変わりません。
func (s *TodoService) ListFiltered(ctx context.Context, filter models.TodoFilter) ([]models.TodoResponse, error) {
	now := s.clock.Now()

	var (
		todos []*models.Todo
		err   error
	)
	switch {
	case filter.ShowOverdueOnly:
		todos, err = s.todoRepo.FindOverdue(ctx, now)
	case strings.TrimSpace(filter.SearchTerm) != "":
		todos, err = s.todoRepo.Search(ctx, filter.SearchTerm)
	case filter.Completed != nil:
		todos, err = s.todoRepo.FindByCompletion(ctx, *filter.Completed)
	case filter.Priority != nil:
		todos, err = s.todoRepo.FindByPriority(ctx, *filter.Priority)
	default:
		todos, err = s.todoRepo.FindAll(ctx)
	}
	if err != nil {
		return nil, err
	}

	if filter.Completed != nil && !filter.ShowOverdueOnly {
		todos = keep(todos, func(t *models.Todo) bool { return t.Completed == *filter.Completed })
	}
	if filter.Priority != nil {
		todos = keep(todos, func(t *models.Todo) bool { return t.Priority == *filter.Priority })
	}

	return s.toResponses(todos, now), nil
}

func keep(todos []*models.Todo, match func(*models.Todo) bool) []*models.Todo {
	out := todos[:0]
	for _, t := range todos {
		if match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Stats は件数の集計を返します。
func (s *TodoService) Stats(ctx context.Context) (*models.TodoStats, error) {
	total, err := s.todoRepo.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	completed, err := s.todoRepo.CountCompleted(ctx)
	if err != nil {
		return nil, err
	}
	overdue, err := s.todoRepo.FindOverdue(ctx, s.clock.Now())
	if err != nil {
		return nil, err
	}
	stats := models.NewTodoStats(total, completed, len(overdue))
	return &stats, nil
}

// Dashboard は集計、最近のTodo、期限切れのTodo、未完了の高優先度Todoをまとめて返します。
func (s *TodoService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	d := &models.Dashboard{
		Stats:             *stats,
		RecentTodos:       make([]models.TodoResponse, 0, dashboardListSize),
		OverdueTodos:      make([]models.TodoResponse, 0),
		HighPriorityTodos: make([]models.TodoResponse, 0, dashboardListSize),
	}
	for _, t := range all {
		if len(d.RecentTodos) < dashboardListSize {
			d.RecentTodos = append(d.RecentTodos, t)
		}
		if t.IsOverdue {
			d.OverdueTodos = append(d.OverdueTodos, t)
		}
		if t.Priority == models.PriorityHigh && !t.Completed && len(d.HighPriorityTodos) < dashboardListSize {
			d.HighPriorityTodos = append(d.HighPriorityTodos, t)
		}
	}
	return d, nil
}
