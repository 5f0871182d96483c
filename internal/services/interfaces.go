package services

import (
	"context"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// BookStore is the persistence contract BookService depends on.
// Implemented by books.Repository.
type BookStore interface {
	ListBooksForOwner(ctx context.Context, ownerID uint) ([]entities.Book, error)
	CreateBook(ctx context.Context, book *entities.Book) error
	GetBookByID(ctx context.Context, id uint) (*entities.Book, error)
	DeleteBook(ctx context.Context, id, ownerID uint) error
	UpdateRating(ctx context.Context, id, ownerID uint, rating int) (*entities.Book, error)
}

// BookAuditor receives notifications about committed bookshelf changes.
// Implemented by audit.Service.
type BookAuditor interface {
	LogBookCreate(userID uint, book *entities.Book)
	LogBookDelete(userID uint, book *entities.Book)
	LogRatingUpdate(userID uint, book *entities.Book, previous int)
}

// NewBook is the input for adding a book to a bookshelf.
type NewBook struct {
	Title  string
	Author string
	Genre  string
	Rating int
}
