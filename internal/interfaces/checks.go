package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/alexedwards/scs/v2"

	"github.com/mrlokans/bookshelf/internal/audit"
	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/database/users"
	"github.com/mrlokans/bookshelf/internal/scheduler"
	"github.com/mrlokans/bookshelf/internal/services"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// BookStore implementations
var _ services.BookStore = (*books.Repository)(nil)

// UserRepository implementations
var _ auth.UserRepository = (*users.Repository)(nil)

// =============================================================================
// Sessions
// =============================================================================

var _ auth.SessionStore = (*auth.SessionManager)(nil)
var _ scs.Store = (*auth.RedisStore)(nil)
var _ scs.CtxStore = (*auth.RedisStore)(nil)

// =============================================================================
// Audit Trail
// =============================================================================

var _ services.BookAuditor = (*audit.Service)(nil)
var _ auth.Auditor = (*audit.Service)(nil)
var _ scheduler.AuditEventCleaner = (*audit.Service)(nil)
