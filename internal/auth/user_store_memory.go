package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// NewInMemoryUserStore returns a UserStore backed by an in-memory map.
func NewInMemoryUserStore(users ...models.User) *InMemoryUserStore {
	s := &InMemoryUserStore{users: make(map[uuid.UUID]models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

// InMemoryUserStore implements UserStore for tests and local development.
type InMemoryUserStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]models.User
}

// Put inserts or replaces a user record.
func (s *InMemoryUserStore) Put(user models.User) {
	s.mu.Lock()
	s.users[user.ID] = user
	s.mu.Unlock()
}

// FindByID retrieves a user by identifier.
func (s *InMemoryUserStore) FindByID(_ context.Context, id uuid.UUID) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

// FindByIdentifier retrieves the user matching username or email.
func (s *InMemoryUserStore) FindByIdentifier(_ context.Context, username, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if (username != "" && user.Username == username) || (email != "" && user.Email == email) {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

// SetRefreshToken stores the live refresh token.
func (s *InMemoryUserStore) SetRefreshToken(_ context.Context, id uuid.UUID, token string) error {
	return s.update(id, func(u *models.User) bool {
		u.RefreshToken = token
		return true
	})
}

// RotateRefreshToken swaps current for next when current is still on record.
func (s *InMemoryUserStore) RotateRefreshToken(_ context.Context, id uuid.UUID, current, next string) error {
	return s.update(id, func(u *models.User) bool {
		if u.RefreshToken != current {
			return false
		}
		u.RefreshToken = next
		return true
	})
}

// ClearRefreshToken removes the live refresh token.
func (s *InMemoryUserStore) ClearRefreshToken(_ context.Context, id uuid.UUID) error {
	return s.update(id, func(u *models.User) bool {
		u.RefreshToken = ""
		return true
	})
}

// UpdatePassword replaces the password hash.
func (s *InMemoryUserStore) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	return s.update(id, func(u *models.User) bool {
		u.Password = hash
		u.UpdatedAt = time.Now().UTC()
		return true
	})
}

func (s *InMemoryUserStore) update(id uuid.UUID, fn func(*models.User) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok || !fn(&user) {
		return repositories.ErrNotFound
	}
	s.users[id] = user
	return nil
}
