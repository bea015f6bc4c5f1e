package repositories_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-tracker/internal/models"
	"todo-tracker/internal/repositories"
)

var todoColumns = []string{"id", "title", "description", "completed", "priority", "due_date", "created_at", "updated_at"}

const selectTodos = "SELECT id, title, description, completed, priority, due_date, created_at, updated_at FROM todos"

func newMockRepo(t *testing.T) (*repositories.MySQLTodoRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return repositories.NewMySQLTodoRepository(db, zerolog.Nop()), mock
}

func TestMySQLFindByID(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(selectTodos + " WHERE id = ?").
			WithArgs(7).
			WillReturnRows(sqlmock.NewRows(todoColumns).
				AddRow(7, "Pay rent", "monthly", false, 3, due, created, nil))

		got, err := repo.FindByID(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, 7, got.ID)
		assert.Equal(t, "Pay rent", got.Title)
		require.NotNil(t, got.Description)
		assert.Equal(t, "monthly", *got.Description)
		assert.Equal(t, models.PriorityHigh, got.Priority)
		require.NotNil(t, got.DueDate)
		assert.True(t, due.Equal(*got.DueDate))
		assert.Nil(t, got.UpdatedAt)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(selectTodos + " WHERE id = ?").
			WithArgs(99).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.FindByID(ctx, 99)
		assert.ErrorIs(t, err, repositories.ErrTodoNotFound)
	})

	t.Run("storage error is wrapped", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		boom := errors.New("connection refused")
		mock.ExpectQuery(selectTodos + " WHERE id = ?").
			WithArgs(1).
			WillReturnError(boom)

		_, err := repo.FindByID(ctx, 1)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, repositories.ErrTodoNotFound)
	})
}

func TestMySQLCreate(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO todos (title, description, completed, priority, due_date, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)").
		WithArgs("Buy milk", nil, false, 1, nil, created, nil).
		WillReturnResult(sqlmock.NewResult(42, 1))

	got, err := repo.Create(context.Background(), &models.Todo{
		Title:     "Buy milk",
		Priority:  models.PriorityLow,
		CreatedAt: created,
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got.ID)
	assert.Equal(t, created, got.CreatedAt)
}

func TestMySQLUpdate(t *testing.T) {
	ctx := context.Background()
	updated := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	desc := "two litres"
	todo := &models.Todo{ID: 5, Title: "Buy milk", Description: &desc, Completed: true, Priority: models.PriorityMedium, UpdatedAt: &updated}

	t.Run("overwrites the row", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("SELECT EXISTS(SELECT 1 FROM todos WHERE id = ?)").
			WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(1))
		mock.ExpectExec("UPDATE todos SET title = ?, description = ?, completed = ?, priority = ?, due_date = ?, updated_at = ? WHERE id = ?").
			WithArgs("Buy milk", desc, true, 2, nil, updated, 5).
			WillReturnResult(sqlmock.NewResult(0, 1))

		got, err := repo.Update(ctx, todo)
		require.NoError(t, err)
		assert.Equal(t, todo, got)
	})

	t.Run("missing row", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("SELECT EXISTS(SELECT 1 FROM todos WHERE id = ?)").
			WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(0))

		_, err := repo.Update(ctx, todo)
		assert.ErrorIs(t, err, repositories.ErrTodoNotFound)
	})
}

func TestMySQLDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("deleted", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec("DELETE FROM todos WHERE id = ?").WithArgs(3).WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, repo.Delete(ctx, 3))
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec("DELETE FROM todos WHERE id = ?").WithArgs(3).WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.Delete(ctx, 3), repositories.ErrTodoNotFound)
	})
}

func TestMySQLSearchEscapesWildcards(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(selectTodos+" WHERE title LIKE ? OR (description IS NOT NULL AND description LIKE ?) ORDER BY created_at DESC, id DESC").
		WithArgs(`%50\%\_off%`, `%50\%\_off%`).
		WillReturnRows(sqlmock.NewRows(todoColumns).
			AddRow(1, "50%_off coupon", nil, false, 1, nil, created, nil))

	got, err := repo.Search(context.Background(), "50%_off")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Description)
}

func TestMySQLFindOverdue(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(selectTodos+" WHERE due_date IS NOT NULL AND due_date < ? AND completed = FALSE ORDER BY due_date ASC, id ASC").
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows(todoColumns).
			AddRow(2, "a", nil, false, 1, now.Add(-48*time.Hour), created, nil).
			AddRow(1, "b", nil, false, 1, now.Add(-time.Hour), created, nil))

	got, err := repo.FindOverdue(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].ID)
}

func TestMySQLCounts(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT(*) FROM todos").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectQuery("SELECT COUNT(*) FROM todos WHERE completed = TRUE").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	total, err := repo.CountAll(ctx)
	require.NoError(t, err)
	completed, err := repo.CountCompleted(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, total)
	assert.Equal(t, 1, completed)
}
