package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/entities"
)

type recordingAuditor struct {
	mu      sync.Mutex
	actions []string
}

func (a *recordingAuditor) record(action string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, action)
}

func (a *recordingAuditor) LogBookCreate(uint, *entities.Book) { a.record("create") }
func (a *recordingAuditor) LogBookDelete(uint, *entities.Book) { a.record("delete") }
func (a *recordingAuditor) LogRatingUpdate(uint, *entities.Book, int) { a.record("rating") }

type fixture struct {
	svc     *BookService
	db      *gorm.DB
	auditor *recordingAuditor
	alice   *entities.User
	bob     *entities.User
}

func setupService(t *testing.T) *fixture {
	t.Helper()
	db, err := database.NewDatabase(config.Database{
		Driver:   config.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "services.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	alice := &entities.User{Username: "alice1", PasswordHash: "hash"}
	bob := &entities.User{Username: "bobby1", PasswordHash: "hash"}
	require.NoError(t, db.DB.Create(alice).Error)
	require.NoError(t, db.DB.Create(bob).Error)

	auditor := &recordingAuditor{}
	return &fixture{
		svc:     NewBookService(books.NewRepository(db.DB), auditor, nil),
		db:      db.DB,
		auditor: auditor,
		alice:   alice,
		bob:     bob,
	}
}

func (f *fixture) bookCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&entities.Book{}).Count(&count).Error)
	return count
}

func TestBookService_AddAndList(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	clock := time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("X", 3600))
	f.svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	first, err := f.svc.AddBook(ctx, f.alice.ID, NewBook{Title: "Dune", Author: "Frank Herbert", Genre: "SF", Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, time.UTC, first.DateCreated.Location())

	_, err = f.svc.AddBook(ctx, f.alice.ID, NewBook{Title: "Emma", Rating: 3})
	require.NoError(t, err)
	_, err = f.svc.AddBook(ctx, f.bob.ID, NewBook{Title: "Ulysses", Rating: 1})
	require.NoError(t, err)

	shelf, err := f.svc.ListBooks(ctx, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, shelf, 2)
	assert.Equal(t, "Dune", shelf[0].Title)
	assert.Equal(t, "Emma", shelf[1].Title)
	assert.Equal(t, "", shelf[1].Author)
	assert.Equal(t, []string{"create", "create", "create"}, f.auditor.actions)
}

func TestBookService_AddBook_RatingOutOfRange(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	for _, rating := range []int{0, 6} {
		_, err := f.svc.AddBook(ctx, f.alice.ID, NewBook{Title: "Dune", Rating: rating})

		var perr *PersistenceError
		require.True(t, errors.As(err, &perr), "rating %d", rating)
		assert.True(t, perr.ConstraintViolation())
	}

	assert.Zero(t, f.bookCount(t))
	assert.Empty(t, f.auditor.actions)
}

func TestBookService_AddBook_UnknownOwner(t *testing.T) {
	f := setupService(t)

	_, err := f.svc.AddBook(context.Background(), 9999, NewBook{Title: "Dune", Rating: 3})

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.True(t, perr.ConstraintViolation())
	assert.Zero(t, f.bookCount(t))
}

func TestBookService_DeleteBook(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	book, err := f.svc.AddBook(ctx, f.alice.ID, NewBook{Title: "Dune", Rating: 5})
	require.NoError(t, err)

	t.Run("missing id", func(t *testing.T) {
		err := f.svc.DeleteBook(ctx, f.alice.ID, 9999)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, int64(1), f.bookCount(t))
	})

	t.Run("foreign owner", func(t *testing.T) {
		err := f.svc.DeleteBook(ctx, f.bob.ID, book.ID)
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Equal(t, int64(1), f.bookCount(t))
	})

	t.Run("owner", func(t *testing.T) {
		require.NoError(t, f.svc.DeleteBook(ctx, f.alice.ID, book.ID))
		assert.Zero(t, f.bookCount(t))
	})
}

func TestBookService_UpdateRating(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	book, err := f.svc.AddBook(ctx, f.alice.ID, NewBook{Title: "Dune", Author: "Frank Herbert", Genre: "SF", Rating: 2})
	require.NoError(t, err)

	updated, err := f.svc.UpdateRating(ctx, f.alice.ID, book.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Rating)

	var stored entities.Book
	require.NoError(t, f.db.First(&stored, book.ID).Error)
	assert.Equal(t, 4, stored.Rating)
	assert.Equal(t, book.Title, stored.Title)
	assert.Equal(t, book.Author, stored.Author)
	assert.Equal(t, book.Genre, stored.Genre)
	assert.Equal(t, book.OwnerID, stored.OwnerID)
	assert.True(t, book.DateCreated.Equal(stored.DateCreated))
	assert.Contains(t, f.auditor.actions, "rating")
}

func TestBookService_UpdateRating_Errors(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	book, err := f.svc.AddBook(ctx, f.alice.ID, NewBook{Title: "Dune", Rating: 2})
	require.NoError(t, err)

	_, err = f.svc.UpdateRating(ctx, f.bob.ID, book.ID, 5)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.UpdateRating(ctx, f.alice.ID, 9999, 5)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.UpdateRating(ctx, f.alice.ID, book.ID, 7)
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.True(t, perr.ConstraintViolation())

	stored, err := f.svc.GetBook(ctx, f.alice.ID, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Rating)
}

func TestBookService_GetBook(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	book, err := f.svc.AddBook(ctx, f.alice.ID, NewBook{Title: "Dune", Rating: 2})
	require.NoError(t, err)

	got, err := f.svc.GetBook(ctx, f.alice.ID, book.ID)
	require.NoError(t, err)
	assert.Equal(t, book.ID, got.ID)

	_, err = f.svc.GetBook(ctx, f.bob.ID, book.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestPersistenceError(t *testing.T) {
	cause := errors.New("disk full")
	err := &PersistenceError{Op: "add book", Err: cause}

	assert.Equal(t, "add book: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.False(t, err.ConstraintViolation())
}
