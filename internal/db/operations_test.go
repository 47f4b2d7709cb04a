package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func testJob(name string) *PrintJob {
	return &PrintJob{
		DisplayName:      name,
		FilePath:         name + "-stored.pdf",
		OriginalFilename: name + ".pdf",
		FileType:         "application/pdf",
		FileSize:         1024,
		Copies:           2,
		PageRange:        "1-3",
	}
}

func TestJobStoreCreate(t *testing.T) {
	store := NewJobStore(openTestDB(t))
	ctx := context.Background()

	job := testJob("alice")
	require.NoError(t, store.Create(ctx, job))

	assert.NotZero(t, job.ID)
	assert.Equal(t, StatusPending, job.Status)
	assert.False(t, job.CreatedAt.IsZero())

	got, err := store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.DisplayName)
	assert.Equal(t, "alice-stored.pdf", got.FilePath)
	assert.Equal(t, "alice.pdf", got.OriginalFilename)
	assert.Equal(t, "application/pdf", got.FileType)
	assert.Equal(t, int64(1024), got.FileSize)
	assert.Equal(t, 2, got.Copies)
	assert.Equal(t, "1-3", got.PageRange)
	assert.Equal(t, StatusPending, got.Status)
}

func TestJobStoreCreateDefaultsCopies(t *testing.T) {
	store := NewJobStore(openTestDB(t))

	job := testJob("bob")
	job.Copies = 0
	require.NoError(t, store.Create(context.Background(), job))
	assert.Equal(t, 1, job.Copies)
}

func TestJobStoreGetUnknown(t *testing.T) {
	store := NewJobStore(openTestDB(t))

	_, err := store.Get(context.Background(), 9999)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestJobStoreUpdateStatus(t *testing.T) {
	store := NewJobStore(openTestDB(t))
	ctx := context.Background()

	job := testJob("carol")
	require.NoError(t, store.Create(ctx, job))

	updated, err := store.UpdateStatus(ctx, job.ID, StatusPrinting)
	require.NoError(t, err)
	assert.Equal(t, StatusPrinting, updated.Status)

	updated, err = store.UpdateStatus(ctx, job.ID, StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, updated.Status)

	got, err := store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
}

func TestJobStoreUpdateStatusUnknown(t *testing.T) {
	store := NewJobStore(openTestDB(t))

	_, err := store.UpdateStatus(context.Background(), 9999, StatusPrinting)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestJobStoreListOrder(t *testing.T) {
	database := openTestDB(t)
	store := NewJobStore(database)
	ctx := context.Background()

	// Three jobs created at increasing timestamps, then pushed into
	// COMPLETED / PENDING / PRINTING respectively.
	var ids []int64
	for _, name := range []string{"first", "second", "third"} {
		job := testJob(name)
		require.NoError(t, store.Create(ctx, job))
		ids = append(ids, job.ID)
	}

	base := time.Now().UTC().Add(-time.Hour)
	for i, id := range ids {
		_, err := database.Exec("UPDATE print_jobs SET created_at = ? WHERE id = ?", base.Add(time.Duration(i)*time.Minute), id)
		require.NoError(t, err)
	}

	_, err := store.UpdateStatus(ctx, ids[0], StatusCompleted)
	require.NoError(t, err)
	_, err = store.UpdateStatus(ctx, ids[2], StatusPrinting)
	require.NoError(t, err)

	jobs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 3)

	// Pending first, then the rest newest-first.
	assert.Equal(t, ids[1], jobs[0].ID)
	assert.Equal(t, StatusPending, jobs[0].Status)
	assert.Equal(t, ids[2], jobs[1].ID)
	assert.Equal(t, ids[0], jobs[2].ID)
}

func TestJobStoreCountByStatus(t *testing.T) {
	store := NewJobStore(openTestDB(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Create(ctx, testJob("job"+string(rune('a'+i)))))
	}

	count, err := store.CountByStatus(ctx, StatusPending)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	count, err = store.CountByStatus(ctx, StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestUserStore(t *testing.T) {
	store := NewUserStore(openTestDB(t))
	ctx := context.Background()

	user := &User{Username: "operator", PasswordHash: "$2a$10$fakehash"}
	require.NoError(t, store.Create(ctx, user))
	assert.NotZero(t, user.ID)

	byName, err := store.GetByUsername(ctx, "operator")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)
	assert.Equal(t, "$2a$10$fakehash", byName.PasswordHash)

	byID, err := store.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "operator", byID.Username)

	_, err = store.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUserStoreDuplicateUsername(t *testing.T) {
	store := NewUserStore(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &User{Username: "operator", PasswordHash: "x"}))
	err := store.Create(ctx, &User{Username: "operator", PasswordHash: "y"})
	assert.Error(t, err)
}

func TestSettingsStore(t *testing.T) {
	store := NewSettingsStore(openTestDB(t))
	ctx := context.Background()

	_, err := store.Get(ctx, "jwt_secret")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, store.Set(ctx, "jwt_secret", "aabbcc"))

	setting, err := store.Get(ctx, "jwt_secret")
	require.NoError(t, err)
	assert.Equal(t, "aabbcc", setting.Value)

	require.NoError(t, store.Set(ctx, "jwt_secret", "ddeeff"))
	setting, err = store.Get(ctx, "jwt_secret")
	require.NoError(t, err)
	assert.Equal(t, "ddeeff", setting.Value)
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusPrinting))
	assert.True(t, CanTransition(StatusPrinting, StatusCompleted))

	assert.False(t, CanTransition(StatusPending, StatusCompleted))
	assert.False(t, CanTransition(StatusPrinting, StatusPending))
	assert.False(t, CanTransition(StatusCompleted, StatusPending))
	assert.False(t, CanTransition(StatusCompleted, StatusPrinting))
	assert.False(t, CanTransition(StatusExpired, StatusPrinting))
	assert.False(t, CanTransition(StatusPending, StatusExpired))
}
