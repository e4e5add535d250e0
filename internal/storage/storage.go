package storage

import (
	"context"
	"errors"

	"github.com/muhhylmi/chatbot-healthcare-assistant/internal/models"
)

var (
	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
)

// UserStorage persists user accounts. Both implementations behave
// identically from the caller's perspective; the backend is selected once
// at startup and never mixed at runtime.
type UserStorage interface {
	CreateUser(ctx context.Context, fullName, email, passwordHash string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, id, fullName, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Close() error
}
