package repositories

import (
	"context"
	"time"

	"blogapi/internal/models"

	"github.com/patrickmn/go-cache"
)

// CachedUserRepository caches successful username lookups in front of
// another UserRepository. Users never change once created, so entries only
// expire by TTL. Misses are not cached.
type CachedUserRepository struct {
	UserRepository
	cache *cache.Cache
}

// NewCachedUserRepository wraps next with a go-cache of the given TTL.
func NewCachedUserRepository(next UserRepository, ttl time.Duration) *CachedUserRepository {
	return &CachedUserRepository{
		UserRepository: next,
		cache:          cache.New(ttl, 2*ttl),
	}
}

func cacheKeyUserByUsername(username string) string {
	return "user_by_username:" + username
}

// FindByUsername serves from the cache when possible.
func (r *CachedUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	key := cacheKeyUserByUsername(username)
	if v, ok := r.cache.Get(key); ok {
		user := v.(models.User)
		return &user, nil
	}

	user, err := r.UserRepository.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	r.cache.Set(key, *user, cache.DefaultExpiration)
	return user, nil
}

// Flush drops every cached entry.
func (r *CachedUserRepository) Flush() {
	r.cache.Flush()
}
