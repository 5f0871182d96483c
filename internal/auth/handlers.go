package auth

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/bookshelf/internal/forms"
)

// Audit actions recorded by the controller.
const (
	auditActionRegister = "register"
	auditActionLogin    = "login"
	auditActionLogout   = "logout"
)

const (
	msgInvalidCredentials = "Invalid username or password"
	msgTooManyAttempts    = "Too many login attempts. Please try again later."
	msgUsernameTaken      = "Username is already taken"
	msgInternal           = "Something went wrong. Please try again."
)

// Auditor receives authentication events. Implemented by audit.Service.
type Auditor interface {
	LogAuth(userID uint, action, ipAddr, userAgent string, success bool)
}

// AuthController handles the login, registration and logout endpoints.
type AuthController struct {
	service     *Service
	sessions    *SessionManager
	rateLimiter *RateLimiter
	auditor     Auditor
	logger      *zap.SugaredLogger
}

// NewAuthController creates a new authentication controller. auditor may be nil.
func NewAuthController(service *Service, sessions *SessionManager, rateLimiter *RateLimiter, auditor Auditor, logger *zap.SugaredLogger) *AuthController {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &AuthController{
		service:     service,
		sessions:    sessions,
		rateLimiter: rateLimiter,
		auditor:     auditor,
		logger:      logger,
	}
}

// TemplateData merges the per-request values every page needs into data.
func TemplateData(c *gin.Context, data gin.H) gin.H {
	if data == nil {
		data = gin.H{}
	}
	data["CSRFField"] = CSRFTokenField(c)
	data["CurrentUser"] = GetUsername(c)
	data["Authenticated"] = IsAuthenticated(c)
	return data
}

// LoginPage renders the login form.
func (ac *AuthController) LoginPage(c *gin.Context) {
	if IsAuthenticated(c) {
		c.Redirect(http.StatusFound, "/home")
		return
	}
	ac.render(c, http.StatusOK, "login.html", gin.H{"Title": "Log in"})
}

// Login handles the login form submission.
func (ac *AuthController) Login(c *gin.Context) {
	var form forms.LoginForm
	_ = c.ShouldBind(&form)

	page := gin.H{"Title": "Log in", "Form": form}

	if result := forms.Check(form); !result.Valid() {
		page["Errors"] = result.Errors
		ac.render(c, http.StatusBadRequest, "login.html", page)
		return
	}

	clientIP := c.ClientIP()
	if ac.rateLimiter != nil {
		if allowed, retryAfter := ac.rateLimiter.Allow(clientIP, form.Username); !allowed {
			c.Header("Retry-After", retryAfterSeconds(retryAfter))
			page["Error"] = msgTooManyAttempts
			ac.render(c, http.StatusTooManyRequests, "login.html", page)
			return
		}
	}

	user, err := ac.service.Authenticate(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			if ac.rateLimiter != nil {
				ac.rateLimiter.RecordFailure(clientIP, form.Username)
			}
			ac.audit(c, 0, auditActionLogin, false)
			page["Error"] = msgInvalidCredentials
			ac.render(c, http.StatusUnauthorized, "login.html", page)
			return
		}
		ac.logger.Errorw("Login failed", "username", form.Username, "error", err)
		page["Error"] = msgInternal
		ac.render(c, http.StatusInternalServerError, "login.html", page)
		return
	}

	if ac.rateLimiter != nil {
		ac.rateLimiter.RecordSuccess(clientIP, form.Username)
	}

	// Drop any session the browser already had so the token always changes at login.
	if old := ac.sessions.TokenFromRequest(c.Request); old != "" {
		if err := ac.sessions.Destroy(c.Request.Context(), old); err != nil {
			ac.logger.Warnw("Failed to drop previous session", "error", err)
		}
	}

	token, expiry, err := ac.sessions.Create(c.Request.Context(), user.ID)
	if err != nil {
		ac.logger.Errorw("Failed to create session", "user_id", user.ID, "error", err)
		page["Error"] = msgInternal
		ac.render(c, http.StatusInternalServerError, "login.html", page)
		return
	}
	ac.sessions.WriteCookie(c.Request.Context(), c.Writer, token, expiry)

	ac.audit(c, user.ID, auditActionLogin, true)
	c.Redirect(http.StatusFound, "/home")
}

// RegisterPage renders the registration form.
func (ac *AuthController) RegisterPage(c *gin.Context) {
	ac.render(c, http.StatusOK, "register.html", gin.H{"Title": "Register"})
}

// Register handles the registration form submission.
func (ac *AuthController) Register(c *gin.Context) {
	var form forms.RegisterForm
	_ = c.ShouldBind(&form)

	page := gin.H{"Title": "Register", "Form": form}

	if result := forms.Check(form); !result.Valid() {
		page["Errors"] = result.Errors
		ac.render(c, http.StatusBadRequest, "register.html", page)
		return
	}

	user, err := ac.service.Register(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		if errors.Is(err, ErrDuplicateUser) {
			page["Errors"] = map[string]string{"username": msgUsernameTaken}
			ac.render(c, http.StatusConflict, "register.html", page)
			return
		}
		ac.logger.Errorw("Registration failed", "username", form.Username, "error", err)
		page["Error"] = msgInternal
		ac.render(c, http.StatusInternalServerError, "register.html", page)
		return
	}

	ac.audit(c, user.ID, auditActionRegister, true)
	c.Redirect(http.StatusFound, LoginPath)
}

// Logout destroys the session, clears the cookie and returns to the index.
func (ac *AuthController) Logout(c *gin.Context) {
	token := GetSessionToken(c)
	if token == "" {
		token = ac.sessions.TokenFromRequest(c.Request)
	}
	if err := ac.sessions.Destroy(c.Request.Context(), token); err != nil {
		ac.logger.Warnw("Failed to destroy session", "error", err)
	}
	ac.sessions.WriteCookie(c.Request.Context(), c.Writer, "", time.Time{})

	ac.audit(c, GetUserID(c), auditActionLogout, true)
	c.Redirect(http.StatusFound, "/")
}

func (ac *AuthController) render(c *gin.Context, status int, name string, data gin.H) {
	c.HTML(status, name, TemplateData(c, data))
}

func (ac *AuthController) audit(c *gin.Context, userID uint, action string, success bool) {
	if ac.auditor == nil {
		return
	}
	ac.auditor.LogAuth(userID, action, c.ClientIP(), c.Request.UserAgent(), success)
}

func retryAfterSeconds(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
