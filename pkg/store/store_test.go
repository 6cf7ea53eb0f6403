package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/relayhq/relayd/pkg/apperr"
)

// newTestStore starts a disposable Postgres container, opens a Store
// against it (migrations applied by Open), and registers cleanup.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	st, err := Open(ctx, Config{DSN: connStr})
	require.NoError(t, err)
	t.Cleanup(st.Close)

	return st
}

func newQueuedTask(id string) Task {
	return Task{
		ID:          id,
		AgentName:   "reviewer",
		InputPrompt: "say hi",
		Source:      SourceChat,
	}
}

func TestStore_CreateAndLoadTask(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	id, err := st.CreateTask(ctx, newQueuedTask("task-1"))
	require.NoError(t, err)
	require.Equal(t, "task-1", id)

	task, err := st.LoadTaskByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, TaskQueued, task.Status)
	require.Equal(t, "reviewer", task.AgentName)
}

func TestStore_CreateTask_DuplicateIDConflicts(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.CreateTask(ctx, newQueuedTask("task-dup"))
	require.NoError(t, err)

	_, err = st.CreateTask(ctx, newQueuedTask("task-dup"))
	require.Error(t, err)
}

func TestStore_ClaimNextTask_SkipsLockedAndOrdersByAge(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.CreateTask(ctx, newQueuedTask("older"))
	require.NoError(t, err)
	_, err = st.CreateTask(ctx, newQueuedTask("newer"))
	require.NoError(t, err)

	claimed, err := st.ClaimNextTask(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	require.Equal(t, "older", claimed.ID)
	require.Equal(t, TaskRunning, claimed.Status)

	second, err := st.ClaimNextTask(ctx)
	require.NoError(t, err)
	require.NotNil(t, second)
	require.Equal(t, "newer", second.ID)

	none, err := st.ClaimNextTask(ctx)
	require.NoError(t, err)
	require.Nil(t, none)
}

func TestStore_UpdateTaskStatus_RejectsIllegalTransition(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.CreateTask(ctx, newQueuedTask("task-illegal"))
	require.NoError(t, err)

	err = st.UpdateTaskStatus(ctx, "task-illegal", TaskCompleted, nil)
	require.Error(t, err)
}

func TestStore_UpdateTaskStatus_RejectsNilTerminalOnCompletion(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.CreateTask(ctx, newQueuedTask("task-nil-terminal"))
	require.NoError(t, err)
	require.NoError(t, st.UpdateTaskStatus(ctx, "task-nil-terminal", TaskRunning, nil))

	err = st.UpdateTaskStatus(ctx, "task-nil-terminal", TaskCompleted, nil)
	require.Error(t, err)
	require.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
}

func TestStore_UpdateTaskStatus_WritesTerminalFieldsAtomically(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.CreateTask(ctx, newQueuedTask("task-terminal"))
	require.NoError(t, err)
	require.NoError(t, st.UpdateTaskStatus(ctx, "task-terminal", TaskRunning, nil))

	err = st.UpdateTaskStatus(ctx, "task-terminal", TaskCompleted, &TerminalFields{
		CostUSD:      0.42,
		InputTokens:  10,
		OutputTokens: 20,
	})
	require.NoError(t, err)

	task, err := st.LoadTaskByID(ctx, "task-terminal")
	require.NoError(t, err)
	require.Equal(t, TaskCompleted, task.Status)
	require.Equal(t, 0.42, task.CostUSD)
	require.Equal(t, 10, task.InputTokens)
	require.NotNil(t, task.CompletedAt)
}

func TestStore_ListStaleRunningTasks(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.CreateTask(ctx, newQueuedTask("stale"))
	require.NoError(t, err)
	require.NoError(t, st.UpdateTaskStatus(ctx, "stale", TaskRunning, nil))

	stale, err := st.ListStaleRunningTasks(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	require.Equal(t, "stale", stale[0].ID)

	fresh, err := st.ListStaleRunningTasks(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Empty(t, fresh)
}

func TestStore_PageTaskTable_FallsBackToCreatedAtOnUnknownSortColumn(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.CreateTask(ctx, newQueuedTask("page-1"))
	require.NoError(t, err)
	_, err = st.CreateTask(ctx, newQueuedTask("page-2"))
	require.NoError(t, err)

	page, err := st.PageTaskTable(ctx, TaskFilter{SortBy: "'; DROP TABLE tasks; --"})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	require.Len(t, page.Tasks, 2)
}

func TestStore_Summary(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.CreateTask(ctx, newQueuedTask("sum-1"))
	require.NoError(t, err)
	require.NoError(t, st.UpdateTaskStatus(ctx, "sum-1", TaskRunning, nil))
	require.NoError(t, st.UpdateTaskStatus(ctx, "sum-1", TaskCompleted, &TerminalFields{
		CostUSD: 1.5, InputTokens: 100, OutputTokens: 200,
	}))

	summary, err := st.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, summary.TotalTasks)
	require.Equal(t, 1.5, summary.TotalCostUSD)
	require.EqualValues(t, 100, summary.InputTokens)
	require.EqualValues(t, 200, summary.OutputTokens)
}
