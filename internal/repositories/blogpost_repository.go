package repositories

import (
	"context"
	"errors"

	"blogapi/internal/models"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict is returned when an update targets a stale version.
	ErrVersionConflict = errors.New("version conflict")
	// ErrUnknownPublisher is returned when a blogpost names a publisher that is not stored.
	ErrUnknownPublisher = errors.New("unknown publisher")
)

// BlogpostRepository defines the interface for blogpost data access.
//
// Save, SaveAll and Update fail with ErrUnknownPublisher when the publisher id
// names no stored user.
//
// Update only writes title, description, publisher and updatedAt. It bumps the
// version and fails with ErrNotFound when the row is gone or ErrVersionConflict
// when post.Version is set and no longer matches the stored one.
//
// DeleteByID reports whether a row was removed.
type BlogpostRepository interface {
	Save(ctx context.Context, post *models.Blogpost) error
	SaveAll(ctx context.Context, posts []models.Blogpost) ([]models.Blogpost, error)
	FindByID(ctx context.Context, id string) (*models.Blogpost, error)
	FindAll(ctx context.Context) ([]models.Blogpost, error)
	Search(ctx context.Context, query string) ([]models.Blogpost, error)
	Update(ctx context.Context, post *models.Blogpost) error
	DeleteByID(ctx context.Context, id string) (bool, error)
}
