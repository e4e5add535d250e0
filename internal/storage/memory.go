package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/muhhylmi/chatbot-healthcare-assistant/internal/models"
)

// MemoryStorage is the in-process fallback used when no database is
// configured. Nothing survives a restart.
type MemoryStorage struct {
	mu      sync.RWMutex
	users   map[string]*models.User
	byEmail map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		users:   make(map[string]*models.User),
		byEmail: make(map[string]string),
	}
}

func (s *MemoryStorage) CreateUser(ctx context.Context, fullName, email, passwordHash string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Uniqueness is checked under the write lock, so concurrent signups
	// with the same email cannot both pass.
	if _, exists := s.byEmail[email]; exists {
		return nil, ErrDuplicateEmail
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New().String(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[user.ID] = user
	s.byEmail[email] = user.ID
	return cloneUser(user), nil
}

func (s *MemoryStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byEmail[email]
	if !exists {
		return nil, ErrUserNotFound
	}
	return cloneUser(s.users[id]), nil
}

func (s *MemoryStorage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[id]
	if !exists {
		return nil, ErrUserNotFound
	}
	return cloneUser(user), nil
}

func (s *MemoryStorage) UpdateUser(ctx context.Context, id, fullName, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[id]
	if !exists {
		return nil, ErrUserNotFound
	}

	// The new email may belong to somebody else.
	if otherID, taken := s.byEmail[email]; taken && otherID != id {
		return nil, ErrDuplicateEmail
	}

	delete(s.byEmail, user.Email)
	user.FullName = fullName
	user.Email = email
	user.UpdatedAt = time.Now()
	s.byEmail[email] = id
	return cloneUser(user), nil
}

func (s *MemoryStorage) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[id]
	if !exists {
		return ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}

func cloneUser(u *models.User) *models.User {
	c := *u
	return &c
}
