package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Meliodas1827/Pagsanjan-sub000/internal/domain"
)

// CatalogService is the read surface over the resource catalog, with the
// maintenance toggle as its only write. Single-resource reads are cached;
// the toggle evicts.
type CatalogService struct {
	repo     domain.ResourceRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewCatalogService(r domain.ResourceRepository, c domain.Cache, ttl time.Duration) *CatalogService {
	return &CatalogService{repo: r, cache: c, cacheTTL: ttl}
}

func resourceKey(id int64) string { return fmt.Sprintf("resource:%d", id) }

func (s *CatalogService) GetResource(ctx context.Context, id int64) (domain.Resource, error) {
	key := resourceKey(id)
	var res domain.Resource
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &res); ok {
			return res, nil
		}
	}
	res, err := s.repo.GetResource(ctx, id)
	if err != nil {
		return domain.Resource{}, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, res, s.cacheTTL)
	}
	return res, nil
}

func (s *CatalogService) ListResources(ctx context.Context) ([]domain.Resource, error) {
	return s.repo.ListResources(ctx)
}

// SetMaintenance flips the operational flag. While set, availability
// reports maintenance for every date and new submissions are rejected
// with ErrResourceUnavailable.
func (s *CatalogService) SetMaintenance(ctx context.Context, id int64, on bool) (domain.Resource, error) {
	if err := s.repo.SetMaintenance(ctx, id, on); err != nil {
		return domain.Resource{}, err
	}
	if s.cache != nil {
		// Evict the resource and the near-term availability months the
		// calendar UI renders; farther months age out on TTL.
		keys := []string{resourceKey(id)}
		month := time.Now().UTC()
		for i := 0; i < 3; i++ {
			keys = append(keys, availabilityKey(id, month.AddDate(0, i, 0).Format("2006-01")))
		}
		_ = s.cache.Del(ctx, keys...)
	}
	return s.repo.GetResource(ctx, id)
}
