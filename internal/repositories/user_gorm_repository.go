package repositories

import (
	"context"
	"errors"
	"fmt"

	"blogapi/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// SaveAll inserts the users in one batch. Missing ids are generated.
func (r *GORMUserRepository) SaveAll(ctx context.Context, users []models.User) ([]models.User, error) {
	if len(users) == 0 {
		return users, nil
	}
	saved := make([]models.User, len(users))
	copy(saved, users)
	for i := range saved {
		if saved[i].ID == "" {
			saved[i].ID = uuid.New().String()
		}
		if saved[i].Role == "" {
			saved[i].Role = models.DefaultRole
		}
	}
	if err := r.db.WithContext(ctx).Create(&saved).Error; err != nil {
		return nil, fmt.Errorf("failed to save users: %w", err)
	}
	return saved, nil
}

// FindByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by ID %s: %w", id, err)
	}
	return &user, nil
}

// FindByUsername retrieves a user by their username from the database.
func (r *GORMUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with username %s: %w", username, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by username %s: %w", username, err)
	}
	return &user, nil
}

// Count returns the number of stored users.
func (r *GORMUserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
