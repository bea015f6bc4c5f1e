package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"todo-tracker/internal/models"
)

// MemoryTodoRepository はプロセス内のmapにTodoを保持するTodoRepositoryの実装です。
type MemoryTodoRepository struct {
	mu     sync.RWMutex
	todos  map[int]models.Todo
	nextID int
}

// NewMemoryTodoRepository は空のMemoryTodoRepositoryを作成します。
func NewMemoryTodoRepository() *MemoryTodoRepository {
	return &MemoryTodoRepository{
		todos:  make(map[int]models.Todo),
		nextID: 1,
	}
}

// copyTodo は呼び出し側がストア内の値を書き換えられないようポインタ項目を複製します。
func copyTodo(t models.Todo) *models.Todo {
	if t.Description != nil {
		d := *t.Description
		t.Description = &d
	}
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	if t.UpdatedAt != nil {
		u := *t.UpdatedAt
		t.UpdatedAt = &u
	}
	return &t
}

func (r *MemoryTodoRepository) filter(match func(t *models.Todo) bool) []*models.Todo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	todos := make([]*models.Todo, 0, len(r.todos))
	for _, t := range r.todos {
		if match == nil || match(&t) {
			todos = append(todos, copyTodo(t))
		}
	}
	return todos
}

// newestFirst は作成日時の降順、同時刻ならIDの降順に並べます。
func newestFirst(todos []*models.Todo) []*models.Todo {
	sort.Slice(todos, func(i, j int) bool {
		if !todos[i].CreatedAt.Equal(todos[j].CreatedAt) {
			return todos[i].CreatedAt.After(todos[j].CreatedAt)
		}
		return todos[i].ID > todos[j].ID
	})
	return todos
}

func (r *MemoryTodoRepository) FindAll(ctx context.Context) ([]*models.Todo, error) {
	return newestFirst(r.filter(nil)), nil
}

func (r *MemoryTodoRepository) FindByID(ctx context.Context, id int) (*models.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.todos[id]
	if !ok {
		return nil, ErrTodoNotFound
	}
	return copyTodo(t), nil
}

func (r *MemoryTodoRepository) FindByCompletion(ctx context.Context, completed bool) ([]*models.Todo, error) {
	return newestFirst(r.filter(func(t *models.Todo) bool { return t.Completed == completed })), nil
}

func (r *MemoryTodoRepository) FindByPriority(ctx context.Context, priority models.Priority) ([]*models.Todo, error) {
	return newestFirst(r.filter(func(t *models.Todo) bool { return t.Priority == priority })), nil
}

// Search は大文字小文字を区別する部分一致で検索します。
func (r *MemoryTodoRepository) Search(ctx context.Context, term string) ([]*models.Todo, error) {
	return newestFirst(r.filter(func(t *models.Todo) bool {
		return strings.Contains(t.Title, term) ||
			(t.Description != nil && strings.Contains(*t.Description, term))
	})), nil
}

func (r *MemoryTodoRepository) FindOverdue(ctx context.Context, now time.Time) ([]*models.Todo, error) {
	todos := r.filter(func(t *models.Todo) bool { return t.IsOverdue(now) })
	sort.Slice(todos, func(i, j int) bool {
		if !todos[i].DueDate.Equal(*todos[j].DueDate) {
			return todos[i].DueDate.Before(*todos[j].DueDate)
		}
		return todos[i].ID < todos[j].ID
	})
	return todos, nil
}

func (r *MemoryTodoRepository) Create(ctx context.Context, t *models.Todo) (*models.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	t.ID = r.nextID
	r.nextID++
	r.todos[t.ID] = *copyTodo(*t)
	return t, nil
}

func (r *MemoryTodoRepository) Update(ctx context.Context, t *models.Todo) (*models.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.todos[t.ID]; !ok {
		return nil, ErrTodoNotFound
	}
	r.todos[t.ID] = *copyTodo(*t)
	return t, nil
}

func (r *MemoryTodoRepository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.todos[id]; !ok {
		return ErrTodoNotFound
	}
	delete(r.todos, id)
	return nil
}

func (r *MemoryTodoRepository) Exists(ctx context.Context, id int) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.todos[id]
	return ok, nil
}

func (r *MemoryTodoRepository) CountAll(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.todos), nil
}

func (r *MemoryTodoRepository) CountCompleted(ctx context.Context) (int, error) {
	return len(r.filter(func(t *models.Todo) bool { return t.Completed })), nil
}
