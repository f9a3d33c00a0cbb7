// Package services содержит бизнес-логику справочника мастеров с кешированием.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/appointment-scheduler/internal/lib/sl"
	"github.com/magabrotheeeer/appointment-scheduler/internal/models"
)

// CacheKey — ключ, под которым в Redis лежит справочник мастеров.
const CacheKey = "providers:list"

// cacheTTL ограничивает жизнь кеша: новый мастер появляется в списке
// не позже чем через минуту даже без инвалидирования.
const cacheTTL = time.Minute

// ProviderRepository определяет методы хранилища для справочника мастеров.
type ProviderRepository interface {
	ListProviders(ctx context.Context) ([]*models.ProviderView, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// ProviderService реализует выдачу справочника мастеров через кеш.
type ProviderService struct {
	repo   ProviderRepository
	cache  Cache
	log    *slog.Logger
	appURL string
}

// NewProviderService создает новый экземпляр ProviderService.
func NewProviderService(repo ProviderRepository, cache Cache, log *slog.Logger, appURL string) *ProviderService {
	return &ProviderService{
		repo:   repo,
		cache:  cache,
		log:    log,
		appURL: appURL,
	}
}

// List возвращает всех мастеров, используя кеш или хранилище.
func (s *ProviderService) List(ctx context.Context) ([]*models.ProviderView, error) {
	var result []*models.ProviderView
	found, err := s.cache.Get(CacheKey, &result)
	if err != nil {
		s.log.Warn("failed to read providers from cache", sl.Err(err))
	}
	if found {
		return result, nil
	}

	result, err = s.repo.ListProviders(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range result {
		if p.Avatar != nil {
			p.Avatar.URL = s.appURL + "/files/" + p.Avatar.Path
		}
	}

	if err := s.cache.Set(CacheKey, result, cacheTTL); err != nil {
		s.log.Warn("failed to cache providers", sl.Err(err))
	}
	return result, nil
}
