// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - BookStore: Owner-scoped book persistence (internal/services/interfaces.go)
//   - UserRepository: User lookup and creation (internal/auth/service.go)
//
// ## Session Interfaces
//
//   - SessionStore: Create, resolve and destroy login sessions (internal/auth/sessions.go)
//   - scs.Store / scs.CtxStore: Session backends; RedisStore is the in-tree one,
//     sqlite3store and memstore come from scs
//
// ## Audit Interfaces
//
//   - BookAuditor: Book mutation events (internal/services/interfaces.go)
//   - Auditor: Authentication events (internal/auth/handlers.go)
//   - AuditEventCleaner: Retention cleanup (internal/scheduler/audit_cleanup.go)
//
// # Adding a New Session Backend
//
//  1. Implement scs.CtxStore in internal/auth/
//
//     type MemcachedStore struct {
//         client *memcache.Client
//     }
//
//     func (s *MemcachedStore) FindCtx(ctx context.Context, token string) ([]byte, bool, error)
//     func (s *MemcachedStore) CommitCtx(ctx context.Context, token string, b []byte, expiry time.Time) error
//     func (s *MemcachedStore) DeleteCtx(ctx context.Context, token string) error
//
//  2. Add a SESSION_STORE value in internal/config and a case in auth.NewSessionStore
//
// # Adding a New Database Domain
//
//  1. Create sub-package: internal/database/shelves/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Implement interface methods, classifying errors with database.Classify
//
//  4. Add compile-time check:
//
//     var _ ShelfStore = (*Repository)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for examples.
package interfaces
