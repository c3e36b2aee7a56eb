package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"blogapi/internal/models"
)

// MemoryBlogpostRepository is an in-memory implementation of BlogpostRepository.
// Publishers are resolved through the given UserRepository on every read.
type MemoryBlogpostRepository struct {
	posts map[string]models.Blogpost
	users UserRepository
	mu    sync.RWMutex
}

// NewMemoryBlogpostRepository creates a new instance of MemoryBlogpostRepository.
func NewMemoryBlogpostRepository(users UserRepository) *MemoryBlogpostRepository {
	return &MemoryBlogpostRepository{
		posts: make(map[string]models.Blogpost),
		users: users,
	}
}

// Save adds a new blogpost.
func (r *MemoryBlogpostRepository) Save(ctx context.Context, post *models.Blogpost) error {
	prepareInsert(post)
	if err := r.checkPublisher(ctx, post.PublisherID); err != nil {
		return err
	}

	r.mu.Lock()
	if _, ok := r.posts[post.ID]; ok {
		r.mu.Unlock()
		return fmt.Errorf("blogpost with ID %s already exists", post.ID)
	}
	r.posts[post.ID] = stripPublisher(*post)
	r.mu.Unlock()

	return r.withPublisher(ctx, post)
}

// SaveAll adds all blogposts.
func (r *MemoryBlogpostRepository) SaveAll(ctx context.Context, posts []models.Blogpost) ([]models.Blogpost, error) {
	saved := make([]models.Blogpost, 0, len(posts))
	for _, post := range posts {
		p := post.Clone()
		if err := r.Save(ctx, &p); err != nil {
			return nil, err
		}
		saved = append(saved, p)
	}
	return saved, nil
}

// FindByID returns a blogpost by its ID.
func (r *MemoryBlogpostRepository) FindByID(ctx context.Context, id string) (*models.Blogpost, error) {
	r.mu.RLock()
	stored, ok := r.posts[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("blogpost with ID %s: %w", id, ErrNotFound)
	}

	post := stored.Clone()
	if err := r.withPublisher(ctx, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// FindAll returns all blogposts.
func (r *MemoryBlogpostRepository) FindAll(ctx context.Context) ([]models.Blogpost, error) {
	return r.filter(ctx, func(models.Blogpost) bool { return true })
}

// Search returns the blogposts whose title, description or publisher full
// name contains query. Matching is case-sensitive.
func (r *MemoryBlogpostRepository) Search(ctx context.Context, query string) ([]models.Blogpost, error) {
	return r.filter(ctx, func(p models.Blogpost) bool {
		if strings.Contains(p.Title, query) || strings.Contains(p.Description, query) {
			return true
		}
		return p.Publisher != nil && strings.Contains(p.Publisher.FullName, query)
	})
}

// Update replaces the mutable fields of an existing blogpost.
func (r *MemoryBlogpostRepository) Update(ctx context.Context, post *models.Blogpost) error {
	syncPublisherID(post)
	if err := r.checkPublisher(ctx, post.PublisherID); err != nil {
		return err
	}

	r.mu.Lock()
	stored, ok := r.posts[post.ID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("blogpost with ID %s: %w", post.ID, ErrNotFound)
	}
	if post.Version > 0 && post.Version != stored.Version {
		r.mu.Unlock()
		return fmt.Errorf("blogpost with ID %s at version %d: %w", post.ID, post.Version, ErrVersionConflict)
	}
	stored.Title = post.Title
	stored.Description = post.Description
	stored.PublisherID = post.PublisherID
	stored.UpdatedAt = post.UpdatedAt
	stored.Version++
	// post.ID may alias a request buffer, so the map key must stay the stored one.
	r.posts[stored.ID] = stored.Clone()
	r.mu.Unlock()

	*post = stored
	return r.withPublisher(ctx, post)
}

// DeleteByID removes a blogpost by its ID. Missing ids are ignored.
func (r *MemoryBlogpostRepository) DeleteByID(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[id]; !ok {
		return false, nil
	}
	delete(r.posts, id)
	return true, nil
}

// checkPublisher fails with ErrUnknownPublisher when id names no user. Without
// a user repository any non-empty id is accepted.
func (r *MemoryBlogpostRepository) checkPublisher(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("blogpost without publisher: %w", ErrUnknownPublisher)
	}
	if r.users == nil {
		return nil
	}
	if _, err := r.users.FindByID(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("publisher %s: %w", id, ErrUnknownPublisher)
		}
		return err
	}
	return nil
}

func (r *MemoryBlogpostRepository) filter(ctx context.Context, keep func(models.Blogpost) bool) ([]models.Blogpost, error) {
	r.mu.RLock()
	snapshot := make([]models.Blogpost, 0, len(r.posts))
	for _, p := range r.posts {
		snapshot = append(snapshot, p.Clone())
	}
	r.mu.RUnlock()

	postList := make([]models.Blogpost, 0, len(snapshot))
	for i := range snapshot {
		if err := r.withPublisher(ctx, &snapshot[i]); err != nil {
			return nil, err
		}
		if keep(snapshot[i]) {
			postList = append(postList, snapshot[i])
		}
	}
	return postList, nil
}

func (r *MemoryBlogpostRepository) withPublisher(ctx context.Context, post *models.Blogpost) error {
	if post.PublisherID == "" {
		return nil
	}
	if r.users == nil {
		if post.Publisher == nil {
			post.Publisher = &models.User{ID: post.PublisherID}
		}
		return nil
	}
	user, err := r.users.FindByID(ctx, post.PublisherID)
	if err != nil {
		return err
	}
	post.Publisher = user
	return nil
}

func stripPublisher(post models.Blogpost) models.Blogpost {
	post = post.Clone()
	post.Publisher = nil
	return post
}
