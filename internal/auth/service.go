// Package auth registers users, checks their passwords and issues the bearer
// tokens that identify them to the rest of the API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tradeops/internal/models"
)

var (
	ErrUserExists         = errors.New("username already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrInvalidToken       = errors.New("could not validate credentials")
)

// dummyPassword is hashed once and compared against when a login names an
// unknown user, so both failure paths cost one hash comparison.
const dummyPassword = "tradeops-dummy-password"

// Service ties the user store, password hashing and token issuing together.
type Service struct {
	users  UserStore
	hasher PasswordHasher
	tokens *TokenIssuer
	logger *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewService(users UserStore, hasher PasswordHasher, tokens *TokenIssuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{users: users, hasher: hasher, tokens: tokens, logger: logger}
}

// TokenTTL is the lifetime of tokens this service issues.
func (s *Service) TokenTTL() time.Duration { return s.tokens.TTL() }

// Register creates the account and returns a token so the caller does not
// need a separate login.
func (s *Service) Register(ctx context.Context, username, password string) (string, error) {
	if _, err := s.users.Get(ctx, username); err == nil {
		return "", ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return "", fmt.Errorf("failed to load user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", err
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			return "", err
		}
		return "", fmt.Errorf("failed to store user: %w", err)
	}

	s.logger.Info("New user registered", "username", username)

	return s.tokens.Issue(username)
}

// Login returns a token when the password matches. Unknown users and wrong
// passwords both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.Get(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		s.compareDummy(password)
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			s.logger.Error("Password comparison failed", "username", username, "error", err)
		}
		return "", ErrInvalidCredentials
	}

	s.logger.Info("User logged in", "username", username)

	return s.tokens.Issue(username)
}

func (s *Service) compareDummy(password string) {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			s.logger.Error("Failed to hash dummy password", "error", err)
			return
		}
		s.dummyHash = hash
	})
	if s.dummyHash != "" {
		_ = s.hasher.Compare(s.dummyHash, password)
	}
}

// Authenticate verifies a bearer token and returns the caller's identity.
func (s *Service) Authenticate(token string) (string, error) {
	return s.tokens.Verify(token)
}
