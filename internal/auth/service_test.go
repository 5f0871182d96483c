package auth

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/entities"
)

func countUsers(t *testing.T, db *database.Database) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.DB.Model(&entities.User{}).Count(&count).Error)
	return count
}

func TestService_Register(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "reader1", "password123")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "reader1", user.Username)
	assert.NotEqual(t, "password123", user.PasswordHash)
	assert.NoError(t, CheckPassword("password123", user.PasswordHash))
	assert.Equal(t, int64(1), countUsers(t, db))
}

func TestService_Register_Duplicate(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "reader1", "password123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "reader1", "otherpassword")
	assert.ErrorIs(t, err, ErrDuplicateUser)
	assert.Equal(t, int64(1), countUsers(t, db))
}

// racingRepo reports the name as free, then loses the insert to a concurrent writer.
type racingRepo struct {
	UserRepository
}

func (r racingRepo) UsernameExists(context.Context, string) (bool, error) {
	return false, nil
}

func (r racingRepo) CreateUser(context.Context, string, string) (*entities.User, error) {
	return nil, fmt.Errorf("%w: UNIQUE constraint failed: user.user_name", database.ErrDuplicate)
}

func TestService_Register_UniqueViolation(t *testing.T) {
	svc := NewService(racingRepo{}, testAuthConfig())

	_, err := svc.Register(context.Background(), "reader1", "password123")
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestService_Authenticate(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, "reader1", "password123")
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		user, err := svc.Authenticate(ctx, "reader1", "password123")
		require.NoError(t, err)
		assert.Equal(t, created.ID, user.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "reader1", "wrongpassword")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "nobody1", "password123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("case sensitive username", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "READER1", "password123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestService_GetUserByID(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, "reader1", "password123")
	require.NoError(t, err)

	user, err := svc.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "reader1", user.Username)

	_, err = svc.GetUserByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
