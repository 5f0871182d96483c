package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/entities"
)

var (
	ErrDuplicateUser      = errors.New("username is already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*entities.User, error)
	GetUserByID(ctx context.Context, id uint) (*entities.User, error)
	GetUserByUsername(ctx context.Context, username string) (*entities.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
}

// Service handles registration and credential checks.
type Service struct {
	users  UserRepository
	config config.Auth

	dummyOnce sync.Once
	dummyHash []byte
}

// NewService creates a new authentication service.
func NewService(users UserRepository, cfg config.Auth) *Service {
	return &Service{
		users:  users,
		config: cfg,
	}
}

// Register creates a user with a bcrypt-hashed password.
// Input is expected to have passed forms.RegisterForm validation.
func (s *Service) Register(ctx context.Context, username, password string) (*entities.User, error) {
	exists, err := s.users.UsernameExists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, ErrDuplicateUser
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, username, passwordHash)
	if err != nil {
		// Lost a race with a concurrent registration of the same name.
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Authenticate validates credentials and returns the user.
// An unknown username and a wrong password both yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*entities.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			s.equalizeTiming(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}

	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *Service) GetUserByID(ctx context.Context, id uint) (*entities.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// equalizeTiming spends roughly one bcrypt comparison so unknown usernames
// take as long to reject as wrong passwords.
func (s *Service) equalizeTiming(password string) {
	s.dummyOnce.Do(func() {
		cost := s.config.BcryptCost
		if cost == 0 {
			cost = bcrypt.DefaultCost
		}
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("bookshelf-placeholder"), cost)
	})
	_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
}
