package graph

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/quillfeed/quillfeed/internal/apperr"
	"github.com/quillfeed/quillfeed/internal/auth"
	"github.com/quillfeed/quillfeed/internal/db"
	"github.com/quillfeed/quillfeed/internal/models"
)

func setupTestDB(t *testing.T) *db.Repository {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	return db.NewRepository(gdb)
}

func createUser(t *testing.T, repo *db.Repository, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		DateJoined:   time.Now().UTC(),
		IsActive:     true,
	}
	require.NoError(t, repo.Gorm().Create(user).Error)
	return user
}

func principalOf(u *models.User) auth.Principal {
	return auth.Principal{ID: u.ID, Username: u.Username}
}

func edgeCount(t *testing.T, repo *db.Repository, followerID, userID int64) int64 {
	t.Helper()

	var count int64
	require.NoError(t, repo.Gorm().
		Model(&models.Follow{}).
		Where("follower_id = ? AND user_id = ?", followerID, userID).
		Count(&count).Error)
	return count
}

func TestFollow(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an active edge", func(t *testing.T) {
		repo := setupTestDB(t)
		svc := NewService(repo)
		alice := createUser(t, repo, "alice")
		bob := createUser(t, repo, "bob")

		require.NoError(t, svc.Follow(ctx, principalOf(bob), "alice"))

		edge, err := db.NewFollowRepository(repo).GetActive(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		require.NotNil(t, edge)
		assert.True(t, edge.IsActive)
	})

	t.Run("is idempotent against re-follow", func(t *testing.T) {
		repo := setupTestDB(t)
		svc := NewService(repo)
		alice := createUser(t, repo, "alice")
		bob := createUser(t, repo, "bob")

		require.NoError(t, svc.Follow(ctx, principalOf(bob), "alice"))
		require.NoError(t, svc.Follow(ctx, principalOf(bob), "alice"))

		assert.Equal(t, int64(1), edgeCount(t, repo, bob.ID, alice.ID))
	})

	t.Run("self-follow is a no-op", func(t *testing.T) {
		repo := setupTestDB(t)
		svc := NewService(repo)
		alice := createUser(t, repo, "alice")

		require.NoError(t, svc.Follow(ctx, principalOf(alice), "alice"))
		assert.Equal(t, int64(0), edgeCount(t, repo, alice.ID, alice.ID))
	})

	t.Run("missing target", func(t *testing.T) {
		repo := setupTestDB(t)
		svc := NewService(repo)
		bob := createUser(t, repo, "bob")

		err := svc.Follow(ctx, principalOf(bob), "ghost")
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})

	t.Run("inactive target", func(t *testing.T) {
		repo := setupTestDB(t)
		svc := NewService(repo)
		alice := createUser(t, repo, "alice")
		bob := createUser(t, repo, "bob")

		require.NoError(t, repo.Gorm().
			Model(&models.User{}).
			Where("id = ?", alice.ID).
			Update("is_active", false).Error)

		err := svc.Follow(ctx, principalOf(bob), "alice")
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})
}

func TestUnfollow(t *testing.T) {
	ctx := context.Background()

	t.Run("deactivates the edge", func(t *testing.T) {
		repo := setupTestDB(t)
		svc := NewService(repo)
		alice := createUser(t, repo, "alice")
		bob := createUser(t, repo, "bob")

		require.NoError(t, svc.Follow(ctx, principalOf(bob), "alice"))
		require.NoError(t, svc.Unfollow(ctx, principalOf(bob), "alice"))

		edge, err := db.NewFollowRepository(repo).Get(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		require.NotNil(t, edge)
		assert.False(t, edge.IsActive)
	})

	t.Run("fails without an active edge", func(t *testing.T) {
		repo := setupTestDB(t)
		svc := NewService(repo)
		createUser(t, repo, "alice")
		bob := createUser(t, repo, "bob")

		err := svc.Unfollow(ctx, principalOf(bob), "alice")
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})

	t.Run("re-follow reactivates the same row", func(t *testing.T) {
		repo := setupTestDB(t)
		svc := NewService(repo)
		alice := createUser(t, repo, "alice")
		bob := createUser(t, repo, "bob")

		require.NoError(t, svc.Follow(ctx, principalOf(bob), "alice"))
		require.NoError(t, svc.Unfollow(ctx, principalOf(bob), "alice"))
		require.NoError(t, svc.Follow(ctx, principalOf(bob), "alice"))

		// A single reactivated row, never a second one
		assert.Equal(t, int64(1), edgeCount(t, repo, bob.ID, alice.ID))

		edge, err := db.NewFollowRepository(repo).GetActive(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		require.NotNil(t, edge)
	})
}
