package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/muhhylmi/chatbot-healthcare-assistant/internal/models"
	"github.com/muhhylmi/chatbot-healthcare-assistant/internal/storage"
	"go.uber.org/zap"
)

const minPasswordLength = 6

var (
	// ErrMissingFields is returned when a required field is absent.
	ErrMissingFields = errors.New("all fields are required")
	// ErrPasswordTooShort is returned when the password fails the length rule.
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// the response never reveals whether an account exists.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Service orchestrates signup, login and profile flows on top of the
// credential store and token service.
type Service struct {
	storage storage.UserStorage
	tokens  *TokenService
	logger  *zap.Logger
}

func NewService(store storage.UserStorage, tokens *TokenService, logger *zap.Logger) *Service {
	return &Service{
		storage: store,
		tokens:  tokens,
		logger:  logger,
	}
}

// Signup validates the fields, hashes the password with a fresh salt,
// creates the user and issues a token.
func (s *Service) Signup(ctx context.Context, fullName, email, password string) (*models.User, string, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.TrimSpace(email)

	// Validation happens before any backend call.
	if fullName == "" || email == "" || password == "" {
		return nil, "", ErrMissingFields
	}
	if len(password) < minPasswordLength {
		return nil, "", ErrPasswordTooShort
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("error hashing password: %v", err)
	}

	user, err := s.storage.CreateUser(ctx, fullName, email, hash)
	if err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("error issuing token: %v", err)
	}

	s.logger.Info("User registered",
		zap.String("user_id", user.ID),
		zap.String("email", user.Email))
	return user, token, nil
}

// Login verifies the credentials and issues a fresh token. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	if email == "" || password == "" {
		return nil, "", ErrMissingFields
	}

	user, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !VerifyPassword(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("error issuing token: %v", err)
	}

	s.logger.Info("User logged in", zap.String("user_id", user.ID))
	return user, token, nil
}

// GetProfile returns the user for a verified token's user id.
func (s *Service) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	return s.storage.GetUserByID(ctx, userID)
}

// UpdateProfile changes the user's full name and email.
func (s *Service) UpdateProfile(ctx context.Context, userID, fullName, email string) (*models.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.TrimSpace(email)
	if fullName == "" || email == "" {
		return nil, ErrMissingFields
	}

	return s.storage.UpdateUser(ctx, userID, fullName, email)
}

// UpdatePassword re-verifies the current password before accepting the new
// one and re-hashes with a new random salt.
func (s *Service) UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return ErrMissingFields
	}
	if len(newPassword) < minPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := s.storage.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if !VerifyPassword(currentPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("error hashing password: %v", err)
	}

	if err := s.storage.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	s.logger.Info("Password updated", zap.String("user_id", userID))
	return nil
}

// Verify delegates token verification so callers outside the package don't
// need the token service directly.
func (s *Service) Verify(token string) (string, error) {
	return s.tokens.Verify(token)
}
