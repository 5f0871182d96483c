// Package auth provides registration, login and session handling for the
// web UI.
//
// Users authenticate with a username and password; passwords are stored as
// bcrypt hashes. A successful login creates a server-side session whose
// opaque token travels in the "session" cookie. The session backend is
// selected with SESSION_STORE:
//
//	SESSION_STORE=database  # sessions table in the application database (default)
//	SESSION_STORE=redis     # REDIS_ADDR, REDIS_PASSWORD, REDIS_DB
//	SESSION_STORE=memory    # process memory, lost on restart
//
// Further configuration:
//
//	AUTH_SESSION_SECRET=<random>   # CSRF key material; generated per process if empty
//	AUTH_SESSION_LIFETIME=24h      # Session duration
//	AUTH_BCRYPT_COST=12            # bcrypt cost factor
//	AUTH_SECURE_COOKIES=true       # HTTPS-only cookies
//	AUTH_MAX_LOGIN_ATTEMPTS=5      # Failed logins per IP+username before lockout
//
// # Usage
//
//	sessions := auth.NewSessionManager(store, cfg.Auth)
//	mw := auth.NewMiddleware(authService, sessions, logger)
//	router.Use(mw.Handler())
//	protected := router.Group("/", mw.RequireAuth())
//
// Extract the user in handlers:
//
//	userID := auth.GetUserID(c) // 0 when anonymous
package auth
