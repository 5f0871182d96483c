package users

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/entities"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	db, err := database.NewDatabase(config.Database{
		Driver:   config.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "users.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewRepository(db.DB)
}

func TestRepository_CreateUser(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	user, err := repo.CreateUser(ctx, "reader1", "hash")

	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "reader1", user.Username)
	assert.Equal(t, "hash", user.PasswordHash)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestRepository_CreateUser_Duplicate(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	_, err := repo.CreateUser(ctx, "reader1", "hash")
	require.NoError(t, err)

	_, err = repo.CreateUser(ctx, "reader1", "other")
	assert.ErrorIs(t, err, database.ErrDuplicate)

	count, err := repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepository_GetUserByID(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	created, err := repo.CreateUser(ctx, "reader1", "hash")
	require.NoError(t, err)

	user, err := repo.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "reader1", user.Username)

	_, err = repo.GetUserByID(ctx, 9999)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestRepository_GetUserByUsername(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	created, err := repo.CreateUser(ctx, "reader1", "hash")
	require.NoError(t, err)

	user, err := repo.GetUserByUsername(ctx, "reader1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = repo.GetUserByUsername(ctx, "Reader1")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestRepository_UsernameExists(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	exists, err := repo.UsernameExists(ctx, "reader1")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.CreateUser(ctx, "reader1", "hash")
	require.NoError(t, err)

	exists, err = repo.UsernameExists(ctx, "reader1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRepository_CountUsers_DriverError(t *testing.T) {
	repo := setupTestDB(t)
	require.NoError(t, repo.db.Migrator().DropTable(&entities.User{}))

	count, err := repo.CountUsers(context.Background())

	require.Error(t, err)
	assert.Zero(t, count)
	var sqliteErr sqlite3.Error
	assert.ErrorAs(t, err, &sqliteErr)
	assert.NotErrorIs(t, err, database.ErrNotFound)
}
