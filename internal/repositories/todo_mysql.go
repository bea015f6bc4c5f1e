package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"todo-tracker/internal/models"
)

const selectTodoColumns = "SELECT id, title, description, completed, priority, due_date, created_at, updated_at FROM todos"

// MySQLTodoRepository はMySQLに対するTodoRepositoryの実装です。
type MySQLTodoRepository struct {
	DB     *sql.DB
	logger zerolog.Logger
}

// NewMySQLTodoRepository は新しいMySQLTodoRepositoryインスタンスを作成します。
func NewMySQLTodoRepository(db *sql.DB, logger zerolog.Logger) *MySQLTodoRepository {
	return &MySQLTodoRepository{DB: db, logger: logger}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (*models.Todo, error) {
	var (
		t           models.Todo
		description sql.NullString
		dueDate     sql.NullTime
		updatedAt   sql.NullTime
	)
	err := row.Scan(&t.ID, &t.Title, &description, &t.Completed, &t.Priority, &dueDate, &t.CreatedAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if description.Valid {
		t.Description = &description.String
	}
	if dueDate.Valid {
		d := dueDate.Time
		t.DueDate = &d
	}
	if updatedAt.Valid {
		u := updatedAt.Time
		t.UpdatedAt = &u
	}
	return &t, nil
}

func (r *MySQLTodoRepository) queryTodos(ctx context.Context, query string, args ...any) ([]*models.Todo, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query todos")
		return nil, fmt.Errorf("could not query todos: %w", err)
	}
	defer rows.Close()

	todos := make([]*models.Todo, 0)
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan todo")
			return nil, fmt.Errorf("could not scan todo: %w", err)
		}
		todos = append(todos, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating todos: %w", err)
	}
	return todos, nil
}

// FindAll はすべてのTodoタスクをデータベースから取得します。
func (r *MySQLTodoRepository) FindAll(ctx context.Context) ([]*models.Todo, error) {
	return r.queryTodos(ctx, selectTodoColumns+" ORDER BY created_at DESC, id DESC")
}

// FindByID は指定されたIDのTodoタスクをデータベースから取得します。
func (r *MySQLTodoRepository) FindByID(ctx context.Context, id int) (*models.Todo, error) {
	t, err := scanTodo(r.DB.QueryRowContext(ctx, selectTodoColumns+" WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTodoNotFound
		}
		r.logger.Error().Err(err).Int("todo_id", id).Msg("failed to query todo by ID")
		return nil, fmt.Errorf("could not query todo: %w", err)
	}
	return t, nil
}

func (r *MySQLTodoRepository) FindByCompletion(ctx context.Context, completed bool) ([]*models.Todo, error) {
	return r.queryTodos(ctx, selectTodoColumns+" WHERE completed = ? ORDER BY created_at DESC, id DESC", completed)
}

func (r *MySQLTodoRepository) FindByPriority(ctx context.Context, priority models.Priority) ([]*models.Todo, error) {
	return r.queryTodos(ctx, selectTodoColumns+" WHERE priority = ? ORDER BY created_at DESC, id DESC", int(priority))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search はタイトルまたは説明の部分一致で検索します。大文字小文字の扱いはカラムの照合順序に従います。
func (r *MySQLTodoRepository) Search(ctx context.Context, term string) ([]*models.Todo, error) {
	pattern := "%" + likeEscaper.Replace(term) + "%"
	return r.queryTodos(ctx,
		selectTodoColumns+" WHERE title LIKE ? OR (description IS NOT NULL AND description LIKE ?) ORDER BY created_at DESC, id DESC",
		pattern, pattern)
}

func (r *MySQLTodoRepository) FindOverdue(ctx context.Context, now time.Time) ([]*models.Todo, error) {
	return r.queryTodos(ctx,
		selectTodoColumns+" WHERE due_date IS NOT NULL AND due_date < ? AND completed = FALSE ORDER BY due_date ASC, id ASC",
		now)
}

// Create は新しいTodoタスクをデータベースに挿入します。
func (r *MySQLTodoRepository) Create(ctx context.Context, t *models.Todo) (*models.Todo, error) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	query := "INSERT INTO todos (title, description, completed, priority, due_date, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)"

	result, err := r.DB.ExecContext(ctx, query,
		t.Title, nullString(t.Description), t.Completed, int(t.Priority), nullTime(t.DueDate), t.CreatedAt, nullTime(t.UpdatedAt))
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to insert todo")
		return nil, fmt.Errorf("could not insert todo: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("could not get last insert ID: %w", err)
	}
	t.ID = int(id)
	return t, nil
}

// Update は指定されたIDのTodoタスクを更新します。
func (r *MySQLTodoRepository) Update(ctx context.Context, t *models.Todo) (*models.Todo, error) {
	// 値が変わらない行はRowsAffectedが0になるため、存在確認は別に行う
	exists, err := r.Exists(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrTodoNotFound
	}

	query := "UPDATE todos SET title = ?, description = ?, completed = ?, priority = ?, due_date = ?, updated_at = ? WHERE id = ?"
	_, err = r.DB.ExecContext(ctx, query,
		t.Title, nullString(t.Description), t.Completed, int(t.Priority), nullTime(t.DueDate), nullTime(t.UpdatedAt), t.ID)
	if err != nil {
		r.logger.Error().Err(err).Int("todo_id", t.ID).Msg("failed to update todo")
		return nil, fmt.Errorf("could not update todo: %w", err)
	}
	return t, nil
}

// Delete は指定されたIDのTodoタスクを削除します。
func (r *MySQLTodoRepository) Delete(ctx context.Context, id int) error {
	result, err := r.DB.ExecContext(ctx, "DELETE FROM todos WHERE id = ?", id)
	if err != nil {
		r.logger.Error().Err(err).Int("todo_id", id).Msg("failed to delete todo")
		return fmt.Errorf("could not delete todo: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrTodoNotFound
	}
	return nil
}

func (r *MySQLTodoRepository) Exists(ctx context.Context, id int) (bool, error) {
	var exists bool
	if err := r.DB.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM todos WHERE id = ?)", id).Scan(&exists); err != nil {
		return false, fmt.Errorf("could not check todo existence: %w", err)
	}
	return exists, nil
}

func (r *MySQLTodoRepository) CountAll(ctx context.Context) (int, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM todos")
}

func (r *MySQLTodoRepository) CountCompleted(ctx context.Context) (int, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM todos WHERE completed = TRUE")
}

func (r *MySQLTodoRepository) count(ctx context.Context, query string) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("could not count todos: %w", err)
	}
	return n, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
