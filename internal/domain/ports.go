package domain

import (
	"context"
	"time"
)

// ResourceRepository is the catalog port. Create/edit stays with the
// administrative collaborator; the engine only reads, seeds and flips the
// maintenance flag.
type ResourceRepository interface {
	GetResource(ctx context.Context, id int64) (Resource, error)
	ListResources(ctx context.Context) ([]Resource, error)
	UpsertResource(ctx context.Context, r Resource) error
	SetMaintenance(ctx context.Context, id int64, on bool) error
}

// ReservationRepository persists reservations. Writes that depend on
// capacity run inside WithResourceLock so validation and persistence are
// logically atomic per resource.
type ReservationRepository interface {
	GetReservation(ctx context.Context, id int64) (Reservation, error)
	ListReservations(ctx context.Context, q ReservationsQuery) ([]Reservation, error)
	// ListActive returns reservations in a counts-against-capacity state
	// whose range overlaps rng.
	ListActive(ctx context.Context, resourceID int64, rng DateRange) ([]Reservation, error)
	// WithResourceLock opens the per-resource mutual-exclusion scope (a
	// row-level lock on the resource record), loads the locked resource
	// and runs fn inside the same transaction. fn returning an error
	// aborts the transaction.
	WithResourceLock(ctx context.Context, resourceID int64, fn func(ctx context.Context, tx BookingTx, res Resource) error) error
}

// BookingTx is the write surface available under a held resource lock.
type BookingTx interface {
	GetReservation(ctx context.Context, id int64) (Reservation, error)
	ListActive(ctx context.Context, resourceID int64, rng DateRange) ([]Reservation, error)
	InsertReservation(ctx context.Context, r *Reservation) error
	UpdateReservation(ctx context.Context, r *Reservation) error
}

// ReservationsQuery filters the staff dashboard listing.
type ReservationsQuery struct {
	ResourceID *int64
	Status     *Status
	Limit      int
}

// Cache is a read-through JSON cache for derived availability views.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// PaymentsClient talks to the external payment collaborator. The engine
// only consumes a "proof recorded" signal and delegates refund issuance.
type PaymentsClient interface {
	ProofRecorded(ctx context.Context, ref string) (bool, error)
	RequestRefund(ctx context.Context, reservationID int64, amount float64) error
}
