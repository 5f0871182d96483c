package auth

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/database/users"
)

func setupTestDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.NewDatabase(config.Database{
		Driver:   config.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "auth.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testAuthConfig() config.Auth {
	return config.Auth{
		SessionSecret:    "test-secret-test-secret-test-sec",
		SessionLifetime:  time.Hour,
		BcryptCost:       bcrypt.MinCost,
		MaxLoginAttempts: 3,
	}
}

func setupTestService(t *testing.T) (*Service, *database.Database) {
	t.Helper()
	db := setupTestDB(t)
	return NewService(users.NewRepository(db.DB), testAuthConfig()), db
}
