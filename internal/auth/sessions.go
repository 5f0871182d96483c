package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/redis/go-redis/v9"

	"github.com/mrlokans/bookshelf/internal/config"
)

// Session data keys
const (
	SessionKeyUserID  = "user_id"
	SessionKeyLoginAt = "login_at"
)

const (
	SessionCookieName      = "session"
	defaultSessionLifetime = 24 * time.Hour
)

// SessionStore maps opaque tokens to logged-in user ids.
type SessionStore interface {
	Create(ctx context.Context, userID uint) (token string, expiry time.Time, err error)
	Resolve(ctx context.Context, token string) (userID uint, ok bool, err error)
	Destroy(ctx context.Context, token string) error
}

// SessionManager implements SessionStore on top of scs.SessionManager and
// owns the session cookie format.
type SessionManager struct {
	scs *scs.SessionManager
}

var _ SessionStore = (*SessionManager)(nil)

// NewSessionManager creates a session manager over the given scs store.
func NewSessionManager(store scs.Store, cfg config.Auth) *SessionManager {
	sm := scs.New()
	sm.Store = store

	sm.Lifetime = cfg.SessionLifetime
	if sm.Lifetime <= 0 {
		sm.Lifetime = defaultSessionLifetime
	}

	sm.Cookie.Name = SessionCookieName
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteStrictMode
	sm.Cookie.Path = "/"
	// WriteCookie runs without session data in the context, which scs only
	// tolerates for persistent cookies.
	sm.Cookie.Persist = true

	return &SessionManager{scs: sm}
}

// NewSessionStore builds the scs backend selected by cfg.Store.
// sqlDB is used by the "database" backend and may be nil otherwise.
// The returned close function releases backend resources.
func NewSessionStore(cfg config.Sessions, sqlDB *sql.DB) (scs.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store {
	case config.SessionStoreDatabase, "":
		if sqlDB == nil {
			return nil, noop, errors.New("database session store requires a SQL connection")
		}
		if err := createSessionsTable(sqlDB); err != nil {
			return nil, noop, fmt.Errorf("failed to create sessions table: %w", err)
		}
		store := sqlite3store.New(sqlDB)
		return store, func() error { store.StopCleanup(); return nil }, nil
	case config.SessionStoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return NewRedisStore(client, defaultRedisPrefix), client.Close, nil
	case config.SessionStoreMemory:
		store := memstore.New()
		return store, func() error { store.StopCleanup(); return nil }, nil
	default:
		return nil, noop, fmt.Errorf("unsupported session store %q", cfg.Store)
	}
}

func createSessionsTable(sqlDB *sql.DB) error {
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	return err
}

// Create starts a fresh session for userID. A new token is always issued.
func (m *SessionManager) Create(ctx context.Context, userID uint) (string, time.Time, error) {
	sctx, err := m.scs.Load(ctx, "")
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to load session: %w", err)
	}

	// Store user ID as int to match GetInt() retrieval
	m.scs.Put(sctx, SessionKeyUserID, int(userID))
	m.scs.Put(sctx, SessionKeyLoginAt, time.Now().UTC().Unix())

	token, expiry, err := m.scs.Commit(sctx)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to commit session: %w", err)
	}
	return token, expiry, nil
}

// Resolve returns the user bound to token. Unknown and expired tokens
// resolve to ok == false without an error.
func (m *SessionManager) Resolve(ctx context.Context, token string) (uint, bool, error) {
	if token == "" {
		return 0, false, nil
	}

	sctx, err := m.scs.Load(ctx, token)
	if err != nil {
		return 0, false, fmt.Errorf("failed to load session: %w", err)
	}

	userID := m.scs.GetInt(sctx, SessionKeyUserID)
	if userID <= 0 {
		return 0, false, nil
	}
	return uint(userID), true, nil
}

// Destroy removes the session. Destroying an unknown token is not an error.
func (m *SessionManager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	sctx, err := m.scs.Load(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	return m.scs.Destroy(sctx)
}

// CookieName returns the name of the session cookie.
func (m *SessionManager) CookieName() string {
	return m.scs.Cookie.Name
}

// TokenFromRequest returns the session token carried by r, or "".
func (m *SessionManager) TokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(m.scs.Cookie.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// WriteCookie sets the session cookie. An empty token expires it.
func (m *SessionManager) WriteCookie(ctx context.Context, w http.ResponseWriter, token string, expiry time.Time) {
	m.scs.WriteSessionCookie(ctx, w, token, expiry)
}
