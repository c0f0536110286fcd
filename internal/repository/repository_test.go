package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/ohavryliuk/fieldbot/internal/models"
)

const tasksSchema = `
	CREATE TABLE tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		type TEXT NOT NULL,
		scheduled_at TEXT NOT NULL,
		city TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		price REAL NOT NULL DEFAULT 0,
		name TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'uncompleted',
		completed_at TEXT
	)`

func newSQLiteRepo(t *testing.T) TaskRepository {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(tasksSchema)
	require.NoError(t, err)
	return NewSQLTaskRepository(db)
}

func newMemoryRepo(t *testing.T) TaskRepository {
	t.Helper()
	return NewMemoryTaskRepository()
}

// Both implementations must satisfy the same contract.
func TestTaskRepositories(t *testing.T) {
	impls := map[string]func(*testing.T) TaskRepository{
		"sqlite": newSQLiteRepo,
		"memory": newMemoryRepo,
	}
	for name, newRepo := range impls {
		t.Run(name, func(t *testing.T) {
			t.Run("RoundTrip", func(t *testing.T) { testRoundTrip(t, newRepo(t)) })
			t.Run("MonotonicIDs", func(t *testing.T) { testMonotonicIDs(t, newRepo(t)) })
			t.Run("UserIsolation", func(t *testing.T) { testUserIsolation(t, newRepo(t)) })
			t.Run("StatusFilter", func(t *testing.T) { testStatusFilter(t, newRepo(t)) })
			t.Run("CompleteIdempotent", func(t *testing.T) { testCompleteIdempotent(t, newRepo(t)) })
			t.Run("DeleteIdempotent", func(t *testing.T) { testDeleteIdempotent(t, newRepo(t)) })
			t.Run("ListUsers", func(t *testing.T) { testListUsers(t, newRepo(t)) })
			t.Run("CompletedTotalSince", func(t *testing.T) { testCompletedTotalSince(t, newRepo(t)) })
		})
	}
}

func saveTask(t *testing.T, repo TaskRepository, userID int64, taskType string, at time.Time, price float64) int64 {
	t.Helper()
	id, err := repo.Save(context.Background(), &models.Task{
		UserID:      userID,
		Type:        taskType,
		ScheduledAt: at,
		City:        "Київ",
		Phone:       "0991234567",
		Price:       price,
		Name:        "Петро",
	})
	require.NoError(t, err)
	return id
}

func testRoundTrip(t *testing.T, repo TaskRepository) {
	ctx := context.Background()
	at := time.Date(2026, time.December, 25, 14, 0, 0, 0, time.UTC)

	id := saveTask(t, repo, 42, models.TypeRemoval, at, 1500)

	tasks, err := repo.List(ctx, 42, "")
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	got := tasks[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, int64(42), got.UserID)
	assert.Equal(t, models.TypeRemoval, got.Type)
	assert.True(t, got.ScheduledAt.Equal(at))
	assert.Equal(t, "Київ", got.City)
	assert.Equal(t, "0991234567", got.Phone)
	assert.Equal(t, 1500.0, got.Price)
	assert.Equal(t, "Петро", got.Name)
	assert.Equal(t, models.StatusUncompleted, got.Status)
	assert.Nil(t, got.CompletedAt)
}

func testMonotonicIDs(t *testing.T, repo TaskRepository) {
	now := time.Now().UTC()
	first := saveTask(t, repo, 1, models.TypeOther, now, 0)
	second := saveTask(t, repo, 1, models.TypeOther, now, 0)
	assert.Greater(t, second, first)
}

func testUserIsolation(t *testing.T, repo TaskRepository) {
	ctx := context.Background()
	now := time.Now().UTC()
	saveTask(t, repo, 1, models.TypeRemoval, now, 100)
	saveTask(t, repo, 2, models.TypeSurvey, now, 200)

	tasks, err := repo.List(ctx, 1, "")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, models.TypeRemoval, tasks[0].Type)
}

func testStatusFilter(t *testing.T, repo TaskRepository) {
	ctx := context.Background()
	now := time.Now().UTC()
	done := saveTask(t, repo, 1, models.TypeRemoval, now, 100)
	saveTask(t, repo, 1, models.TypeSurvey, now, 200)

	require.NoError(t, repo.SetCompleted(ctx, done, now))

	active, err := repo.List(ctx, 1, models.StatusUncompleted)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, models.TypeSurvey, active[0].Type)

	completed, err := repo.List(ctx, 1, models.StatusCompleted)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, done, completed[0].ID)
	require.NotNil(t, completed[0].CompletedAt)
}

func testCompleteIdempotent(t *testing.T, repo TaskRepository) {
	ctx := context.Background()
	id := saveTask(t, repo, 1, models.TypeRemoval, time.Now().UTC(), 100)

	first := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SetCompleted(ctx, id, first))

	// A second completion must not move the timestamp.
	require.NoError(t, repo.SetCompleted(ctx, id, first.Add(time.Hour)))

	tasks, err := repo.List(ctx, 1, models.StatusCompleted)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.NotNil(t, tasks[0].CompletedAt)
	assert.True(t, tasks[0].CompletedAt.Equal(first))

	// Unknown identifiers are silent no-ops.
	require.NoError(t, repo.SetCompleted(ctx, 9999, first))
}

func testDeleteIdempotent(t *testing.T, repo TaskRepository) {
	ctx := context.Background()
	id := saveTask(t, repo, 1, models.TypeRemoval, time.Now().UTC(), 100)

	require.NoError(t, repo.Delete(ctx, id))
	require.NoError(t, repo.Delete(ctx, id))
	require.NoError(t, repo.Delete(ctx, 9999))

	tasks, err := repo.List(ctx, 1, "")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func testListUsers(t *testing.T, repo TaskRepository) {
	ctx := context.Background()
	now := time.Now().UTC()
	saveTask(t, repo, 5, models.TypeRemoval, now, 100)
	saveTask(t, repo, 5, models.TypeSurvey, now, 200)
	saveTask(t, repo, 9, models.TypeOther, now, 0)

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{5, 9}, users)
}

func testCompletedTotalSince(t *testing.T, repo TaskRepository) {
	ctx := context.Background()
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	recent := saveTask(t, repo, 1, models.TypeRemoval, now, 1500)
	old := saveTask(t, repo, 1, models.TypeSurvey, now, 700)
	saveTask(t, repo, 1, models.TypeOther, now, 300) // stays uncompleted
	other := saveTask(t, repo, 2, models.TypeRemoval, now, 9000)

	require.NoError(t, repo.SetCompleted(ctx, recent, now.AddDate(0, 0, -3)))
	require.NoError(t, repo.SetCompleted(ctx, old, now.AddDate(0, 0, -45)))
	require.NoError(t, repo.SetCompleted(ctx, other, now))

	total, err := repo.CompletedTotalSince(ctx, 1, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, 1500.0, total)
}
