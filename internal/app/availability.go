package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Meliodas1827/Pagsanjan-sub000/internal/domain"
)

func availabilityKey(resourceID int64, month string) string {
	return fmt.Sprintf("avail:%d:%s", resourceID, month)
}

// AvailabilityService serves derived availability calendars. Month views
// are cached (they back the booking-form calendar and are read far more
// often than written); arbitrary ranges bypass the cache. Reads take no
// locks; callers tolerate snapshots going stale by submission time
// because the validator re-checks capacity under the resource lock.
type AvailabilityService struct {
	resources    domain.ResourceRepository
	reservations domain.ReservationRepository
	cache        domain.Cache
	cacheTTL     time.Duration
	limitedPct   float64
	sf           singleflight.Group
}

func NewAvailabilityService(res domain.ResourceRepository, rsv domain.ReservationRepository, c domain.Cache, ttl time.Duration, limitedPct float64) *AvailabilityService {
	return &AvailabilityService{resources: res, reservations: rsv, cache: c, cacheTTL: ttl, limitedPct: limitedPct}
}

// Month returns one snapshot per date of the given "YYYY-MM" month.
// Concurrent identical misses are collapsed onto a single derivation.
func (s *AvailabilityService) Month(ctx context.Context, resourceID int64, ym string) ([]domain.Snapshot, error) {
	rng, err := domain.MonthRange(ym)
	if err != nil {
		return nil, err
	}
	key := availabilityKey(resourceID, ym)
	if s.cache != nil {
		var cached []domain.Snapshot
		if ok, _ := s.cache.Get(ctx, key, &cached); ok {
			return cached, nil
		}
	}
	v, err, _ := s.sf.Do(key, func() (any, error) {
		snaps, err := s.derive(ctx, resourceID, rng)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			_ = s.cache.Set(ctx, key, snaps, s.cacheTTL)
		}
		return snaps, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Snapshot), nil
}

// Range derives snapshots for an arbitrary validated range, uncached.
func (s *AvailabilityService) Range(ctx context.Context, resourceID int64, rng domain.DateRange) ([]domain.Snapshot, error) {
	if !rng.Valid() {
		return nil, domain.ErrInvalidRange
	}
	return s.derive(ctx, resourceID, rng)
}

// Remaining reports the capacity split over a range, for booking-form
// pre-checks.
func (s *AvailabilityService) Remaining(ctx context.Context, resourceID int64, rng domain.DateRange) (domain.CapacityReport, error) {
	if !rng.Valid() {
		return domain.CapacityReport{}, domain.ErrInvalidRange
	}
	res, err := s.resources.GetResource(ctx, resourceID)
	if err != nil {
		return domain.CapacityReport{}, err
	}
	active, err := s.reservations.ListActive(ctx, resourceID, rng)
	if err != nil {
		return domain.CapacityReport{}, err
	}
	return domain.RemainingCapacity(res, active, rng), nil
}

func (s *AvailabilityService) derive(ctx context.Context, resourceID int64, rng domain.DateRange) ([]domain.Snapshot, error) {
	res, err := s.resources.GetResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	active, err := s.reservations.ListActive(ctx, resourceID, rng)
	if err != nil {
		return nil, fmt.Errorf("list active reservations: %w", err)
	}
	return domain.BuildSnapshots(res, active, rng, s.limitedPct), nil
}
