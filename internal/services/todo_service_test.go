package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-tracker/internal/clock"
	"todo-tracker/internal/models"
	"todo-tracker/internal/repositories"
	"todo-tracker/internal/services"
)

var baseTime = time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*services.TodoService, *repositories.MemoryTodoRepository, *clock.Manual) {
	t.Helper()
	repo := repositories.NewMemoryTodoRepository()
	clk := clock.NewManual(baseTime)
	return services.NewTodoService(repo, clk, zerolog.Nop()), repo, clk
}

func ptr[T any](v T) *T { return &v }

func titles(todos []models.TodoResponse) []string {
	out := make([]string, 0, len(todos))
	for _, t := range todos {
		out = append(out, t.Title)
	}
	return out
}

func TestCreate_Success(t *testing.T) {
	svc, _, _ := newService(t)

	got, err := svc.Create(context.Background(), models.CreateTodoRequest{
		Title:       "  Buy milk  ",
		Description: ptr("  two litres "),
	})
	require.NoError(t, err)

	assert.NotZero(t, got.ID)
	assert.Equal(t, "Buy milk", got.Title)
	require.NotNil(t, got.Description)
	assert.Equal(t, "two litres", *got.Description)
	assert.Equal(t, models.PriorityLow, got.Priority, "priority defaults to Low")
	assert.Equal(t, baseTime, got.CreatedAt)
	assert.Nil(t, got.UpdatedAt)
	assert.False(t, got.Completed)
	assert.Equal(t, "Pending", got.StatusText)
	assert.Equal(t, models.NoDueDateText, got.DueDateText)
}

func TestCreate_ValidationErrors(t *testing.T) {
	for name, tc := range map[string]struct {
		req       models.CreateTodoRequest
		wantField string
		wantMsg   string
	}{
		"empty title": {
			req:       models.CreateTodoRequest{Title: ""},
			wantField: "title",
			wantMsg:   "Title cannot be empty",
		},
		"whitespace title": {
			req:       models.CreateTodoRequest{Title: " \t\n "},
			wantField: "title",
			wantMsg:   "Title cannot be empty",
		},
		"title too long": {
			req:       models.CreateTodoRequest{Title: strings.Repeat("a", 201)},
			wantField: "title",
			wantMsg:   "Title cannot exceed 200 characters",
		},
		"description too long": {
			req:       models.CreateTodoRequest{Title: "ok", Description: ptr(strings.Repeat("d", 1001))},
			wantField: "description",
			wantMsg:   "Description cannot exceed 1000 characters",
		},
		"unknown priority": {
			req:       models.CreateTodoRequest{Title: "ok", Priority: models.Priority(9)},
			wantField: "priority",
			wantMsg:   "Priority must be Low, Medium or High",
		},
		"due date in the past": {
			req:       models.CreateTodoRequest{Title: "ok", DueDate: ptr(baseTime.Add(-time.Second))},
			wantField: "due_date",
			wantMsg:   "Due date cannot be in the past",
		},
	} {
		t.Run(name, func(t *testing.T) {
			svc, repo, _ := newService(t)

			_, err := svc.Create(context.Background(), tc.req)
			require.Error(t, err)

			verr, ok := services.IsValidation(err)
			require.True(t, ok, "expected ValidationError, got %T", err)
			assert.Equal(t, tc.wantField, verr.Field)
			assert.Equal(t, tc.wantMsg, verr.Message)

			count, err := repo.CountAll(context.Background())
			require.NoError(t, err)
			assert.Zero(t, count, "nothing is stored on validation failure")
		})
	}
}

func TestCreate_BoundaryValuesAreAccepted(t *testing.T) {
	svc, _, _ := newService(t)

	// 日本語200文字はバイト数では200を超えるが文字数では上限ちょうど
	got, err := svc.Create(context.Background(), models.CreateTodoRequest{
		Title:       strings.Repeat("あ", 200),
		Description: ptr(strings.Repeat("d", 1000)),
		DueDate:     ptr(baseTime),
	})
	require.NoError(t, err)
	assert.False(t, got.IsOverdue, "a due date equal to now is not overdue")
}

func TestList_NewestFirst(t *testing.T) {
	svc, _, clk := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, models.CreateTodoRequest{Title: "Older"})
	require.NoError(t, err)
	clk.Advance(time.Minute)
	milk, err := svc.Create(ctx, models.CreateTodoRequest{Title: "Buy milk", Priority: models.PriorityLow})
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, milk.ID, list[0].ID)
	assert.False(t, list[0].IsOverdue)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("overwrites fields and sets updated_at", func(t *testing.T) {
		svc, _, clk := newService(t)
		created, err := svc.Create(ctx, models.CreateTodoRequest{Title: "Draft", Description: ptr("old")})
		require.NoError(t, err)

		clk.Advance(time.Hour)
		due := clk.Now().Add(48 * time.Hour)
		got, err := svc.Update(ctx, models.UpdateTodoRequest{
			ID:        created.ID,
			Title:     " Final ",
			Priority:  models.PriorityHigh,
			DueDate:   &due,
			Completed: true,
		})
		require.NoError(t, err)

		assert.Equal(t, "Final", got.Title)
		assert.Nil(t, got.Description, "description is overwritten, not merged")
		assert.Equal(t, models.PriorityHigh, got.Priority)
		assert.Equal(t, "High", got.PriorityText)
		assert.True(t, got.Completed)
		assert.Equal(t, "Completed", got.StatusText)
		assert.Equal(t, created.CreatedAt, got.CreatedAt)
		require.NotNil(t, got.UpdatedAt)
		assert.Equal(t, baseTime.Add(time.Hour), *got.UpdatedAt)
		assert.Equal(t, due.Format("2006-01-02"), got.DueDateText)
	})

	t.Run("missing id leaves the store unchanged", func(t *testing.T) {
		svc, repo, _ := newService(t)
		created, err := svc.Create(ctx, models.CreateTodoRequest{Title: "Keep me"})
		require.NoError(t, err)

		_, err = svc.Update(ctx, models.UpdateTodoRequest{ID: created.ID + 100, Title: "Changed"})
		require.Error(t, err)
		assert.ErrorIs(t, err, services.ErrTodoNotFound)
		var nf *services.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, created.ID+100, nf.ID)

		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "Keep me", all[0].Title)
		assert.Nil(t, all[0].UpdatedAt)
	})

	t.Run("revalidates like create", func(t *testing.T) {
		svc, _, _ := newService(t)
		created, err := svc.Create(ctx, models.CreateTodoRequest{Title: "Valid"})
		require.NoError(t, err)

		_, err = svc.Update(ctx, models.UpdateTodoRequest{ID: created.ID, Title: "   "})
		verr, ok := services.IsValidation(err)
		require.True(t, ok)
		assert.Equal(t, "title", verr.Field)

		_, err = svc.Update(ctx, models.UpdateTodoRequest{ID: created.ID, Title: "Valid", DueDate: ptr(baseTime.Add(-24 * time.Hour))})
		verr, ok = services.IsValidation(err)
		require.True(t, ok)
		assert.Equal(t, "due_date", verr.Field)
	})
}

func TestToggleCompletion(t *testing.T) {
	svc, _, clk := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, models.CreateTodoRequest{Title: "Flip me"})
	require.NoError(t, err)

	clk.Advance(time.Minute)
	ok, err := svc.ToggleCompletion(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, ok)

	first, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, first.Completed)
	require.NotNil(t, first.UpdatedAt)
	firstUpdated := *first.UpdatedAt

	clk.Advance(time.Minute)
	ok, err = svc.ToggleCompletion(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, ok)

	second, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Completed, second.Completed, "two toggles restore the original value")
	require.NotNil(t, second.UpdatedAt)
	assert.True(t, second.UpdatedAt.After(firstUpdated))

	ok, err = svc.ToggleCompletion(ctx, created.ID+1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestToggleCompletion_SkipsValidation(t *testing.T) {
	svc, _, clk := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, models.CreateTodoRequest{Title: "Due soon", DueDate: ptr(baseTime.Add(time.Hour))})
	require.NoError(t, err)

	// 期限を過ぎてからでも切り替えられる
	clk.Advance(2 * time.Hour)
	ok, err := svc.ToggleCompletion(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDelete(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, models.CreateTodoRequest{Title: "Remove me"})
	require.NoError(t, err)

	ok, err := svc.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, ok, "second delete reports not found")

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	exists, err := svc.Exists(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

// seedFilterFixture は絞り込みの検証用データを作成します。作成順: A, B, C, D, E。
func seedFilterFixture(t *testing.T, svc *services.TodoService, clk *clock.Manual) map[string]int {
	t.Helper()
	ctx := context.Background()
	ids := map[string]int{}

	create := func(name string, req models.CreateTodoRequest) {
		clk.Advance(time.Minute)
		req.Title = name
		got, err := svc.Create(ctx, req)
		require.NoError(t, err)
		ids[name] = got.ID
	}

	start := clk.Now()
	create("A report", models.CreateTodoRequest{Priority: models.PriorityHigh, DueDate: ptr(start.Add(time.Hour))})
	create("B report", models.CreateTodoRequest{Priority: models.PriorityLow, DueDate: ptr(start.Add(2 * time.Hour))})
	create("C groceries", models.CreateTodoRequest{Priority: models.PriorityHigh, Description: ptr("weekly report")})
	create("D groceries", models.CreateTodoRequest{Priority: models.PriorityMedium, DueDate: ptr(start.Add(30 * time.Minute))})
	create("E laundry", models.CreateTodoRequest{Priority: models.PriorityHigh})

	ok, err := svc.ToggleCompletion(ctx, ids["C groceries"])
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = svc.ToggleCompletion(ctx, ids["D groceries"])
	require.NoError(t, err)
	require.True(t, ok)

	// A, B, D の期限を過ぎる。Dは完了済みなので期限切れではない
	clk.Advance(3 * time.Hour)
	return ids
}

func TestListFiltered(t *testing.T) {
	for name, tc := range map[string]struct {
		filter models.TodoFilter
		want   []string
	}{
		"no criteria returns all newest first": {
			filter: models.TodoFilter{},
			want:   []string{"E laundry", "D groceries", "C groceries", "B report", "A report"},
		},
		"overdue only sorts by due date ascending": {
			filter: models.TodoFilter{ShowOverdueOnly: true},
			want:   []string{"A report", "B report"},
		},
		"overdue only ignores the completion flag": {
			filter: models.TodoFilter{ShowOverdueOnly: true, Completed: ptr(true)},
			want:   []string{"A report", "B report"},
		},
		"overdue only still applies priority": {
			filter: models.TodoFilter{ShowOverdueOnly: true, Priority: ptr(models.PriorityLow)},
			want:   []string{"B report"},
		},
		"overdue takes precedence over search": {
			filter: models.TodoFilter{ShowOverdueOnly: true, SearchTerm: "groceries"},
			want:   []string{"A report", "B report"},
		},
		"search matches title or description": {
			filter: models.TodoFilter{SearchTerm: "report"},
			want:   []string{"C groceries", "B report", "A report"},
		},
		"search is case sensitive": {
			filter: models.TodoFilter{SearchTerm: "Report"},
			want:   []string{},
		},
		"blank search falls through to completion": {
			filter: models.TodoFilter{SearchTerm: "   ", Completed: ptr(true)},
			want:   []string{"D groceries", "C groceries"},
		},
		"search combined with completion": {
			filter: models.TodoFilter{SearchTerm: "groceries", Completed: ptr(false)},
			want:   []string{},
		},
		"search combined with priority": {
			filter: models.TodoFilter{SearchTerm: "report", Priority: ptr(models.PriorityHigh)},
			want:   []string{"C groceries", "A report"},
		},
		"completion": {
			filter: models.TodoFilter{Completed: ptr(false)},
			want:   []string{"E laundry", "B report", "A report"},
		},
		"completion combined with priority": {
			filter: models.TodoFilter{Completed: ptr(false), Priority: ptr(models.PriorityHigh)},
			want:   []string{"E laundry", "A report"},
		},
		"priority": {
			filter: models.TodoFilter{Priority: ptr(models.PriorityHigh)},
			want:   []string{"E laundry", "C groceries", "A report"},
		},
	} {
		t.Run(name, func(t *testing.T) {
			svc, _, clk := newService(t)
			seedFilterFixture(t, svc, clk)

			got, err := svc.ListFiltered(context.Background(), tc.filter)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, titles(got)); diff != "" {
				t.Errorf("filtered titles mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestListFiltered_OverdueOnlyContainsOnlyOverdue(t *testing.T) {
	svc, _, clk := newService(t)
	seedFilterFixture(t, svc, clk)
	now := clk.Now()

	got, err := svc.ListFiltered(context.Background(), models.TodoFilter{ShowOverdueOnly: true})
	require.NoError(t, err)
	for i, todo := range got {
		require.NotNil(t, todo.DueDate)
		assert.True(t, todo.DueDate.Before(now))
		assert.False(t, todo.Completed)
		assert.True(t, todo.IsOverdue)
		if i > 0 {
			assert.False(t, todo.DueDate.Before(*got[i-1].DueDate))
		}
	}
}

func TestScenario_PayRentLeavesOverdueListWhenCompleted(t *testing.T) {
	svc, _, clk := newService(t)
	ctx := context.Background()

	// 期限は作成時点では未来である必要があるため、作成後に時計を1日進める
	rent, err := svc.Create(ctx, models.CreateTodoRequest{Title: "Pay rent", DueDate: ptr(baseTime.Add(time.Hour))})
	require.NoError(t, err)
	clk.Advance(25 * time.Hour)

	overdue, err := svc.ListFiltered(ctx, models.TodoFilter{ShowOverdueOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Pay rent"}, titles(overdue))

	ok, err := svc.ToggleCompletion(ctx, rent.ID)
	require.NoError(t, err)
	require.True(t, ok)

	overdue, err = svc.ListFiltered(ctx, models.TodoFilter{ShowOverdueOnly: true})
	require.NoError(t, err)
	assert.Empty(t, overdue)
}

func TestStats(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		svc, _, _ := newService(t)
		stats, err := svc.Stats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, models.TodoStats{}, *stats)
	})

	t.Run("counts", func(t *testing.T) {
		svc, _, clk := newService(t)
		seedFilterFixture(t, svc, clk)

		stats, err := svc.Stats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 5, stats.TotalCount)
		assert.Equal(t, 2, stats.CompletedCount)
		assert.Equal(t, 2, stats.OverdueCount)
		assert.Equal(t, stats.TotalCount-stats.CompletedCount, stats.PendingCount)
		assert.InDelta(t, 40.0, stats.CompletionRate, 0.0001)
	})
}

func TestDashboard(t *testing.T) {
	svc, _, clk := newService(t)
	seedFilterFixture(t, svc, clk)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		clk.Advance(time.Minute)
		_, err := svc.Create(ctx, models.CreateTodoRequest{Title: "Urgent", Priority: models.PriorityHigh})
		require.NoError(t, err)
	}

	d, err := svc.Dashboard(ctx)
	require.NoError(t, err)

	assert.Equal(t, 9, d.Stats.TotalCount)
	assert.Len(t, d.RecentTodos, 5)
	assert.Equal(t, "Urgent", d.RecentTodos[0].Title)
	assert.Equal(t, []string{"B report", "A report"}, titles(d.OverdueTodos))
	assert.Equal(t, []string{"Urgent", "Urgent", "Urgent", "Urgent", "E laundry"}, titles(d.HighPriorityTodos))
}

type failingRepo struct {
	*repositories.MemoryTodoRepository
	err error
}

func (r failingRepo) FindAll(ctx context.Context) ([]*models.Todo, error) { return nil, r.err }

func (r failingRepo) Create(ctx context.Context, t *models.Todo) (*models.Todo, error) {
	return nil, r.err
}

func (r failingRepo) CountAll(ctx context.Context) (int, error) { return 0, r.err }

func (r failingRepo) Delete(ctx context.Context, id int) error { return r.err }

func TestStorageErrorsPropagate(t *testing.T) {
	boom := errors.New("disk on fire")
	svc := services.NewTodoService(failingRepo{repositories.NewMemoryTodoRepository(), boom}, clock.NewManual(baseTime), zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Create(ctx, models.CreateTodoRequest{Title: "x"})
	assert.ErrorIs(t, err, boom)

	_, err = svc.List(ctx)
	assert.ErrorIs(t, err, boom)

	_, err = svc.ListFiltered(ctx, models.TodoFilter{})
	assert.ErrorIs(t, err, boom)

	_, err = svc.Stats(ctx)
	assert.ErrorIs(t, err, boom)

	_, err = svc.Dashboard(ctx)
	assert.ErrorIs(t, err, boom)

	ok, err := svc.Delete(ctx, 1)
	assert.ErrorIs(t, err, boom)
	assert.False(t, ok)
}
