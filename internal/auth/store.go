package auth

import (
	"context"
	"sync"

	"tradeops/internal/models"
)

// UserStore persists registered accounts.
type UserStore interface {
	// Create adds user, returning ErrUserExists if the username is taken.
	Create(ctx context.Context, user *models.User) error
	// Get returns ErrUserNotFound for unknown usernames.
	Get(ctx context.Context, username string) (*models.User, error)
	Count(ctx context.Context) (int, error)
}

// MemoryUserStore keeps accounts in process memory. Accounts are lost on
// restart.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]*models.User)}
}

func (s *MemoryUserStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.Username]; exists {
		return ErrUserExists
	}

	stored := *user
	s.users[user.Username] = &stored
	return nil
}

func (s *MemoryUserStore) Get(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}

	found := *user
	return &found, nil
}

func (s *MemoryUserStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}
