package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"blogapi/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// GORMBlogpostRepository is a GORM implementation of BlogpostRepository.
type GORMBlogpostRepository struct {
	db *gorm.DB
}

// NewGORMBlogpostRepository creates a new instance of GORMBlogpostRepository.
func NewGORMBlogpostRepository(db *gorm.DB) *GORMBlogpostRepository {
	return &GORMBlogpostRepository{
		db: db,
	}
}

// Save inserts a new blogpost and reloads it with its publisher.
func (r *GORMBlogpostRepository) Save(ctx context.Context, post *models.Blogpost) error {
	prepareInsert(post)
	if err := r.checkPublishers(ctx, post.PublisherID); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return fmt.Errorf("failed to save blogpost: %w", err)
	}
	return r.reload(ctx, post)
}

// SaveAll inserts the blogposts in one batch.
func (r *GORMBlogpostRepository) SaveAll(ctx context.Context, posts []models.Blogpost) ([]models.Blogpost, error) {
	if len(posts) == 0 {
		return posts, nil
	}
	saved := make([]models.Blogpost, len(posts))
	copy(saved, posts)
	publisherIDs := make([]string, 0, len(saved))
	for i := range saved {
		prepareInsert(&saved[i])
		publisherIDs = append(publisherIDs, saved[i].PublisherID)
	}
	if err := r.checkPublishers(ctx, publisherIDs...); err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&saved).Error; err != nil {
		return nil, fmt.Errorf("failed to save blogposts: %w", err)
	}
	return saved, nil
}

// FindByID retrieves a single blogpost by its ID from the database.
func (r *GORMBlogpostRepository) FindByID(ctx context.Context, id string) (*models.Blogpost, error) {
	var post models.Blogpost
	if err := r.db.WithContext(ctx).Preload("Publisher").First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("blogpost with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get blogpost by ID %s: %w", id, err)
	}
	return &post, nil
}

// FindAll retrieves all blogposts from the database.
func (r *GORMBlogpostRepository) FindAll(ctx context.Context) ([]models.Blogpost, error) {
	var posts []models.Blogpost
	if err := r.db.WithContext(ctx).Preload("Publisher").Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to get all blogposts: %w", err)
	}
	return posts, nil
}

// Search returns the blogposts whose title, description or publisher full
// name contains query. LIKE wildcards in query match literally.
func (r *GORMBlogpostRepository) Search(ctx context.Context, query string) ([]models.Blogpost, error) {
	db := r.db.WithContext(ctx)
	pattern := "%" + likeEscaper.Replace(query) + "%"
	publishers := db.Model(&models.User{}).Select("id").Where(`full_name LIKE ? ESCAPE '\'`, pattern)

	var posts []models.Blogpost
	err := db.
		Preload("Publisher").
		Where(`title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\' OR publisher_id IN (?)`, pattern, pattern, publishers).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search blogposts: %w", err)
	}
	return posts, nil
}

// Update writes the mutable columns of an existing blogpost and bumps its version.
func (r *GORMBlogpostRepository) Update(ctx context.Context, post *models.Blogpost) error {
	syncPublisherID(post)
	if err := r.checkPublishers(ctx, post.PublisherID); err != nil {
		return err
	}
	tx := r.db.WithContext(ctx).Model(&models.Blogpost{}).Where("id = ?", post.ID)
	if post.Version > 0 {
		tx = tx.Where("version = ?", post.Version)
	}
	res := tx.Updates(map[string]interface{}{
		"title":        post.Title,
		"description":  post.Description,
		"publisher_id": post.PublisherID,
		"updated_at":   post.UpdatedAt,
		"version":      gorm.Expr("version + 1"),
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update blogpost: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Blogpost{}).Where("id = ?", post.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check blogpost %s: %w", post.ID, err)
		}
		if count == 0 {
			return fmt.Errorf("blogpost with ID %s: %w", post.ID, ErrNotFound)
		}
		return fmt.Errorf("blogpost with ID %s at version %d: %w", post.ID, post.Version, ErrVersionConflict)
	}
	return r.reload(ctx, post)
}

// DeleteByID deletes a blogpost. Deleting a missing id is not an error.
func (r *GORMBlogpostRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Blogpost{}, "id = ?", id)
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete blogpost: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// checkPublishers fails with ErrUnknownPublisher unless every id names a stored user.
func (r *GORMBlogpostRepository) checkPublishers(ctx context.Context, ids ...string) error {
	unique := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			return fmt.Errorf("blogpost without publisher: %w", ErrUnknownPublisher)
		}
		unique[id] = struct{}{}
	}
	if len(unique) == 0 {
		return nil
	}
	keys := make([]string, 0, len(unique))
	for id := range unique {
		keys = append(keys, id)
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id IN ?", keys).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check publishers: %w", err)
	}
	if int(count) != len(keys) {
		return fmt.Errorf("publisher of blogpost not stored: %w", ErrUnknownPublisher)
	}
	return nil
}

func (r *GORMBlogpostRepository) reload(ctx context.Context, post *models.Blogpost) error {
	stored, err := r.FindByID(ctx, post.ID)
	if err != nil {
		return err
	}
	*post = *stored
	return nil
}

func prepareInsert(post *models.Blogpost) {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	if post.Version == 0 {
		post.Version = 1
	}
	syncPublisherID(post)
}

func syncPublisherID(post *models.Blogpost) {
	if post.Publisher != nil && post.Publisher.ID != "" {
		post.PublisherID = post.Publisher.ID
	}
}
