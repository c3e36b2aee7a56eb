package repositories

import (
	"context"
	"fmt"
	"sync"

	"blogapi/internal/models"

	"github.com/google/uuid"
)

// MemoryUserRepository is an in-memory implementation of UserRepository.
type MemoryUserRepository struct {
	users map[string]models.User
	mu    sync.RWMutex
}

// NewMemoryUserRepository creates a new instance of MemoryUserRepository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[string]models.User),
	}
}

// SaveAll stores the users, rejecting duplicate usernames.
func (r *MemoryUserRepository) SaveAll(_ context.Context, users []models.User) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	saved := make([]models.User, 0, len(users))
	for _, user := range users {
		if user.ID == "" {
			user.ID = uuid.New().String()
		}
		if user.Role == "" {
			user.Role = models.DefaultRole
		}
		for _, existing := range r.users {
			if existing.Username == user.Username && existing.ID != user.ID {
				return nil, fmt.Errorf("username %s already taken", user.Username)
			}
		}
		r.users[user.ID] = user
		saved = append(saved, user)
	}
	return saved, nil
}

// FindByID returns a user by its ID.
func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user with ID %s: %w", id, ErrNotFound)
	}
	return &user, nil
}

// FindByUsername returns a user by exact username match.
func (r *MemoryUserRepository) FindByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user with username %s: %w", username, ErrNotFound)
}

// Count returns the number of stored users.
func (r *MemoryUserRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.users)), nil
}
