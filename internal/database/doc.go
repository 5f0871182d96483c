// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup (SQLite or PostgreSQL), migrations
//	├── errors.go        # Driver error classification
//	├── books/           # Book CRUD, owner-scoped and transactional
//	├── users/           # User management
//	└── audit/           # Audit event storage
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase(cfg.Database)
//
//	booksRepo := books.NewRepository(db.DB)
//	usersRepo := users.NewRepository(db.DB)
//
//	books, err := booksRepo.ListBooksForOwner(ctx, userID)
//
// # Errors
//
// Repositories pass storage errors through Classify, so callers can match
// ErrNotFound, ErrDuplicate and ErrConstraint with errors.Is regardless of
// the configured driver.
package database
