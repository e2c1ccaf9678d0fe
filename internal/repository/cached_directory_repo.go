package repository

import (
	"context"

	"github.com/CoconutOil2004/project-sdn-group302/internal/domain"
	"github.com/CoconutOil2004/project-sdn-group302/pkg/cache"
	pkglogger "github.com/CoconutOil2004/project-sdn-group302/pkg/logger"
)

// cachedDirectoryRepository caches single-entity lookups in Redis.
// Membership checks and batch loads go straight to the database.
type cachedDirectoryRepository struct {
	DirectoryRepository
	cache cache.Service
}

// NewCachedDirectoryRepository wraps next with a Redis read-through cache.
// When the cache is nil or unavailable, next is returned unchanged.
func NewCachedDirectoryRepository(next DirectoryRepository, cacheService cache.Service) DirectoryRepository {
	if cacheService == nil || !cacheService.IsAvailable() {
		return next
	}
	return &cachedDirectoryRepository{DirectoryRepository: next, cache: cacheService}
}

func (r *cachedDirectoryRepository) FindUser(ctx context.Context, id uint64) (*domain.User, error) {
	key := cache.UserKey(id)
	var cached domain.User
	if err := r.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	user, err := r.DirectoryRepository.FindUser(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, user)
	return user, nil
}

func (r *cachedDirectoryRepository) FindClub(ctx context.Context, id uint64) (*domain.Club, error) {
	key := cache.ClubKey(id)
	var cached domain.Club
	if err := r.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	club, err := r.DirectoryRepository.FindClub(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, club)
	return club, nil
}

func (r *cachedDirectoryRepository) FindEvent(ctx context.Context, id uint64) (*domain.Event, error) {
	key := cache.EventKey(id)
	var cached domain.Event
	if err := r.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	event, err := r.DirectoryRepository.FindEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, event)
	return event, nil
}

func (r *cachedDirectoryRepository) store(ctx context.Context, key string, value interface{}) {
	if err := r.cache.Set(ctx, key, value, cache.TTLDirectory); err != nil {
		pkglogger.Warn("cache warning: failed to set %s: %v", key, err)
	}
}
