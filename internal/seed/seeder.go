package seed

import (
	"context"
	"fmt"
	"time"

	"blogapi/internal/models"
	"blogapi/internal/repositories"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	UserCount     = 3
	BlogpostCount = 10
)

// Result holds what a seeding run stored.
type Result struct {
	Users     []models.User
	Blogposts []models.Blogpost
}

// Seeder fills empty stores with demo users and blogposts. Stores that
// already hold users are left alone.
type Seeder struct {
	users  repositories.UserRepository
	posts  repositories.BlogpostRepository
	faker  *gofakeit.Faker
	logger *zap.Logger
	now    func() time.Time
}

// NewSeeder creates a Seeder. A nil faker gets a randomly seeded one.
func NewSeeder(users repositories.UserRepository, posts repositories.BlogpostRepository, faker *gofakeit.Faker, logger *zap.Logger) *Seeder {
	if faker == nil {
		faker = gofakeit.New(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{
		users:  users,
		posts:  posts,
		faker:  faker,
		logger: logger,
		now:    time.Now,
	}
}

// Run stores UserCount users, then BlogpostCount blogposts published by them.
// When users already exist it stores nothing and returns an empty Result.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	existing, err := s.users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if existing > 0 {
		s.logger.Info("skipping seed, users already exist", zap.Int64("users", existing))
		return &Result{}, nil
	}

	users, err := s.users.SaveAll(ctx, s.populateUsers())
	if err != nil {
		return nil, fmt.Errorf("failed to seed users: %w", err)
	}

	posts, err := s.posts.SaveAll(ctx, s.populateBlogposts(users))
	if err != nil {
		return nil, fmt.Errorf("failed to seed blogposts: %w", err)
	}

	s.logger.Info("generated blogposts", zap.Int("count", len(posts)))
	return &Result{Users: users, Blogposts: posts}, nil
}

func (s *Seeder) populateUsers() []models.User {
	taken := make(map[string]bool, UserCount)
	users := make([]models.User, 0, UserCount)
	for len(users) < UserCount {
		username := s.faker.Username()
		if taken[username] {
			continue
		}
		taken[username] = true
		users = append(users, models.User{
			ID:       uuid.New().String(),
			Username: username,
			FullName: s.faker.Name(),
			Role:     models.DefaultRole,
		})
	}
	return users
}

func (s *Seeder) populateBlogposts(users []models.User) []models.Blogpost {
	posts := make([]models.Blogpost, 0, BlogpostCount)
	for i := 0; i < BlogpostCount; i++ {
		publisher := users[s.faker.Number(0, len(users)-1)]
		posts = append(posts, models.Blogpost{
			ID:          uuid.New().String(),
			Title:       s.faker.BookTitle(),
			Description: s.faker.HipsterSentence(12),
			CreatedAt:   s.now(),
			PublisherID: publisher.ID,
			Publisher:   &publisher,
			Version:     1,
		})
	}
	return posts
}
