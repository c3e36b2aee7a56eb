package repositories

import (
	"context"

	"blogapi/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	SaveAll(ctx context.Context, users []models.User) ([]models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Count(ctx context.Context) (int64, error)
}
