// Package repositories はデータベース操作を行うリポジトリを提供します。
package repositories

import (
	"context"
	"errors"
	"time"

	"todo-tracker/internal/models"
)

// ErrTodoNotFound はTODOが見つからない場合のエラーです。
var ErrTodoNotFound = errors.New("todo not found")

// TodoRepository はTodoの永続化を行います。検証や業務ルールは持ちません。
type TodoRepository interface {
	// FindAll は作成日時の新しい順にすべてのTodoを返します。
	FindAll(ctx context.Context) ([]*models.Todo, error)
	// FindByID は見つからなければErrTodoNotFoundを返します。
	FindByID(ctx context.Context, id int) (*models.Todo, error)
	FindByCompletion(ctx context.Context, completed bool) ([]*models.Todo, error)
	FindByPriority(ctx context.Context, priority models.Priority) ([]*models.Todo, error)
	// Search はタイトルまたは説明に term を含むTodoを返します。
	Search(ctx context.Context, term string) ([]*models.Todo, error)
	// FindOverdue は期限がnowより前で未完了のTodoを期限の早い順に返します。
	FindOverdue(ctx context.Context, now time.Time) ([]*models.Todo, error)
	// Create はIDを採番してTodoを保存します。
	Create(ctx context.Context, t *models.Todo) (*models.Todo, error)
	// Update はIDが一致する行を丸ごと上書きします。
	Update(ctx context.Context, t *models.Todo) (*models.Todo, error)
	Delete(ctx context.Context, id int) error
	Exists(ctx context.Context, id int) (bool, error)
	CountAll(ctx context.Context) (int, error)
	CountCompleted(ctx context.Context) (int, error)
}
