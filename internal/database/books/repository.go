// Package books provides database operations for per-user bookshelves.
//
// Every mutating operation runs in its own transaction so a failed write
// leaves the bookshelf unchanged.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	shelf, err := repo.ListBooksForOwner(ctx, userID)
package books

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// ErrNotOwner is returned when a book exists but belongs to another user.
var ErrNotOwner = errors.New("book belongs to another user")

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListBooksForOwner returns the owner's books in creation order.
func (r *Repository) ListBooksForOwner(ctx context.Context, ownerID uint) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("date_created ASC, id ASC").
		Find(&books).Error
	if err != nil {
		return nil, database.Classify(err)
	}
	return books, nil
}

// CreateBook inserts the book after confirming its owner exists.
// A missing owner is reported as database.ErrConstraint.
func (r *Repository) CreateBook(ctx context.Context, book *entities.Book) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner entities.User
		if err := tx.Select("id").First(&owner, book.OwnerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: owner %d does not exist", database.ErrConstraint, book.OwnerID)
			}
			return database.Classify(err)
		}
		if err := tx.Omit(clause.Associations).Create(book).Error; err != nil {
			return database.Classify(err)
		}
		return nil
	})
}

// GetBookByID retrieves a single book regardless of owner.
func (r *Repository) GetBookByID(ctx context.Context, id uint) (*entities.Book, error) {
	var book entities.Book
	if err := r.db.WithContext(ctx).First(&book, id).Error; err != nil {
		return nil, database.Classify(err)
	}
	return &book, nil
}

// DeleteBook removes the book if it belongs to ownerID.
func (r *Repository) DeleteBook(ctx context.Context, id, ownerID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		book, err := loadOwned(tx, id, ownerID)
		if err != nil {
			return err
		}
		if err := tx.Delete(book).Error; err != nil {
			return database.Classify(err)
		}
		return nil
	})
}

// UpdateRating changes only the rating column and returns the stored book.
func (r *Repository) UpdateRating(ctx context.Context, id, ownerID uint, rating int) (*entities.Book, error) {
	var updated *entities.Book
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		book, err := loadOwned(tx, id, ownerID)
		if err != nil {
			return err
		}
		if err := tx.Model(book).Update("rating", rating).Error; err != nil {
			return database.Classify(err)
		}
		if err := tx.First(book, id).Error; err != nil {
			return database.Classify(err)
		}
		updated = book
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func loadOwned(tx *gorm.DB, id, ownerID uint) (*entities.Book, error) {
	var book entities.Book
	if err := tx.First(&book, id).Error; err != nil {
		return nil, database.Classify(err)
	}
	if book.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	return &book, nil
}
