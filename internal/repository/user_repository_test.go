package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bgremover/internal/model"
)

func newTestRepo(t *testing.T) *UserRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}))
	return NewUserRepository(db, zap.NewNop())
}

func TestUpsertCreatesOnceAndUpdatesNames(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, 42, "alice", "Alice"))

	first, err := repo.Profile(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), first.UserID)
	assert.Equal(t, "alice", first.Username)
	assert.Equal(t, int64(0), first.PhotosProcessed)
	assert.False(t, first.CreatedAt.IsZero())

	require.NoError(t, repo.IncrementPhotosProcessed(ctx, 42))

	// Second contact with changed names must not touch counter or created_at.
	require.NoError(t, repo.Upsert(ctx, 42, "alice_new", "Alicia"))

	second, err := repo.Profile(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "alice_new", second.Username)
	assert.Equal(t, "Alicia", second.FirstName)
	assert.Equal(t, int64(1), second.PhotosProcessed)
	assert.True(t, second.CreatedAt.Equal(first.CreatedAt))

	var count int64
	require.NoError(t, repo.db.Model(&model.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestIncrementPhotosProcessed(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, 7, "bob", "Bob"))

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.IncrementPhotosProcessed(ctx, 7))
	}

	profile, err := repo.Profile(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), profile.PhotosProcessed)

	// Missing id: no error, no row created.
	require.NoError(t, repo.IncrementPhotosProcessed(ctx, 999))

	var count int64
	require.NoError(t, repo.db.Model(&model.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestProfile(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Profile(ctx, 1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// Names the user never provided come back as the placeholder.
	require.NoError(t, repo.Upsert(ctx, 1, "", ""))

	profile, err := repo.Profile(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.Placeholder, profile.Username)
	assert.Equal(t, model.Placeholder, profile.FirstName)
}

func TestStats(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, UsageStats{}, stats)

	require.NoError(t, repo.Upsert(ctx, 1, "a", "A"))
	require.NoError(t, repo.Upsert(ctx, 2, "b", "B"))
	require.NoError(t, repo.IncrementPhotosProcessed(ctx, 1))
	require.NoError(t, repo.IncrementPhotosProcessed(ctx, 1))
	require.NoError(t, repo.IncrementPhotosProcessed(ctx, 2))

	stats, err = repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, UsageStats{TotalUsers: 2, TotalPhotos: 3}, stats)
}
