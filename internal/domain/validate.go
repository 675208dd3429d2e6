package domain

import "time"

// ValidateRequest runs the booking conflict rules against a resource and
// its currently active reservations. Rules are evaluated in order and the
// first failure wins:
//
//  1. the resource must be active (maintenance/deleted fail with
//     ErrResourceUnavailable);
//  2. the requested range must be well-formed and must not start in the
//     past;
//  3. a single reservation can never alone exceed total capacity, even
//     when the head count is split across guest categories;
//  4. remaining capacity over the requested range must cover the request.
//
// Callers must hold the per-resource mutual-exclusion scope so the check
// and the subsequent insert are atomic.
func ValidateRequest(res Resource, existing []Reservation, rng DateRange, guests GuestCounts, now time.Time) error {
	if !res.Active() {
		return ErrResourceUnavailable
	}
	if !rng.Valid() || rng.Start.Before(Day(now)) {
		return ErrInvalidRange
	}
	if res.Category.SingleDateOnly() && rng.Nights() != 1 {
		return ErrInvalidRange
	}
	total := guests.Total()
	if total <= 0 || total > res.Capacity {
		return ErrCapacityExceeded
	}
	if RemainingCapacity(res, existing, rng).Available < total {
		return ErrCapacityExceeded
	}
	return nil
}
