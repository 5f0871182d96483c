package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// BookService implements bookshelf operations scoped to a single user.
type BookService struct {
	store   BookStore
	auditor BookAuditor
	logger  *zap.SugaredLogger
	now     func() time.Time
}

// NewBookService creates a BookService. auditor may be nil.
func NewBookService(store BookStore, auditor BookAuditor, logger *zap.SugaredLogger) *BookService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &BookService{
		store:   store,
		auditor: auditor,
		logger:  logger,
		now:     time.Now,
	}
}

// ListBooks returns the user's books, oldest first.
func (s *BookService) ListBooks(ctx context.Context, userID uint) ([]entities.Book, error) {
	shelf, err := s.store.ListBooksForOwner(ctx, userID)
	if err != nil {
		return nil, &PersistenceError{Op: "list books", Err: err}
	}
	return shelf, nil
}

// AddBook stores a new book owned by userID. The rating is not checked here;
// out-of-range values are rejected by the store.
func (s *BookService) AddBook(ctx context.Context, userID uint, input NewBook) (*entities.Book, error) {
	book := &entities.Book{
		Title:       input.Title,
		Author:      input.Author,
		Genre:       input.Genre,
		Rating:      input.Rating,
		DateCreated: s.now().UTC(),
		OwnerID:     userID,
	}

	if err := s.store.CreateBook(ctx, book); err != nil {
		s.logger.Warnw("Failed to add book", "user_id", userID, "title", input.Title, "error", err)
		return nil, &PersistenceError{Op: "add book", Err: err}
	}

	if s.auditor != nil {
		s.auditor.LogBookCreate(userID, book)
	}
	return book, nil
}

// GetBook returns a book owned by userID.
func (s *BookService) GetBook(ctx context.Context, userID, id uint) (*entities.Book, error) {
	book, err := s.store.GetBookByID(ctx, id)
	if err != nil {
		return nil, s.translate("get book", err)
	}
	if book.OwnerID != userID {
		return nil, ErrForbidden
	}
	return book, nil
}

// DeleteBook removes a book owned by userID.
func (s *BookService) DeleteBook(ctx context.Context, userID, id uint) error {
	book, err := s.GetBook(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteBook(ctx, id, userID); err != nil {
		return s.translate("delete book", err)
	}

	if s.auditor != nil {
		s.auditor.LogBookDelete(userID, book)
	}
	return nil
}

// UpdateRating overwrites the rating of a book owned by userID.
func (s *BookService) UpdateRating(ctx context.Context, userID, id uint, rating int) (*entities.Book, error) {
	current, err := s.GetBook(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateRating(ctx, id, userID, rating)
	if err != nil {
		return nil, s.translate("update rating", err)
	}

	if s.auditor != nil {
		s.auditor.LogRatingUpdate(userID, updated, current.Rating)
	}
	return updated, nil
}

func (s *BookService) translate(op string, err error) error {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, books.ErrNotOwner):
		return ErrForbidden
	default:
		s.logger.Warnw("Book store failure", "op", op, "error", err)
		return &PersistenceError{Op: op, Err: err}
	}
}
