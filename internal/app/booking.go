package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Meliodas1827/Pagsanjan-sub000/internal/adapters/observability"
	"github.com/Meliodas1827/Pagsanjan-sub000/internal/domain"
)

// Policy holds the admin-configurable knobs of the booking engine.
type Policy struct {
	// DepositPct of the total price is due before a reservation may be
	// accepted. The original system charged 50% for rooms without a
	// documented contract for other categories; it is uniform and
	// configurable here.
	DepositPct float64
	// LimitedPct drives the "limited" day-status threshold.
	LimitedPct float64
	// Clock is overridable in tests; nil means time.Now.
	Clock func() time.Time
}

func (p Policy) now() time.Time {
	if p.Clock != nil {
		return p.Clock()
	}
	return time.Now()
}

// BookingService owns the write path: submit, transition, cancel. Every
// capacity-dependent write runs under the per-resource lock scope so two
// concurrent requests can never jointly overstep capacity.
type BookingService struct {
	reservations domain.ReservationRepository
	cache        domain.Cache
	payments     domain.PaymentsClient // nil: trust the locally recorded proof ref
	locks        *ResourceLocks
	policy       Policy
}

func NewBookingService(rsv domain.ReservationRepository, cache domain.Cache, payments domain.PaymentsClient, locks *ResourceLocks, p Policy) *BookingService {
	if p.DepositPct <= 0 {
		p.DepositPct = 0.5
	}
	return &BookingService{reservations: rsv, cache: cache, payments: payments, locks: locks, policy: p}
}

// SubmitRequest is an incoming booking attempt.
type SubmitRequest struct {
	ResourceID   int64
	GuestName    string
	GuestContact string
	Range        domain.DateRange
	Guests       domain.GuestCounts
	Notes        *string
}

// SubmitReservation validates the request against remaining capacity and,
// on success, persists a new pending reservation. Validation and insert
// happen inside one resource-locked transaction.
func (s *BookingService) SubmitReservation(ctx context.Context, req SubmitRequest) (domain.Reservation, error) {
	release, err := s.locks.Acquire(ctx, req.ResourceID)
	if err != nil {
		return domain.Reservation{}, err
	}
	defer release()

	now := s.policy.now()
	var out domain.Reservation
	err = s.reservations.WithResourceLock(ctx, req.ResourceID, func(ctx context.Context, tx domain.BookingTx, res domain.Resource) error {
		existing, err := tx.ListActive(ctx, req.ResourceID, req.Range)
		if err != nil {
			return fmt.Errorf("list active reservations: %w", err)
		}
		if err := domain.ValidateRequest(res, existing, req.Range, req.Guests, now); err != nil {
			return err
		}
		total := res.Price(req.Guests, req.Range)
		out = domain.Reservation{
			ResourceID:   req.ResourceID,
			GuestName:    req.GuestName,
			GuestContact: req.GuestContact,
			Range:        req.Range,
			Guests:       req.Guests,
			TotalPrice:   total,
			DepositDue:   total * s.policy.DepositPct,
			Status:       domain.StatusPending,
			Notes:        req.Notes,
		}
		return tx.InsertReservation(ctx, &out)
	})
	if err != nil {
		observability.ObserveBooking("submit", outcomeLabel(err))
		return domain.Reservation{}, err
	}
	observability.ObserveBooking("submit", "ok")
	s.invalidateAvailability(ctx, req.ResourceID, req.Range)
	log.Info().Int64("reservation", out.ID).Int64("resource", out.ResourceID).
		Int("guests", out.Guests.Total()).Msg("reservation submitted")
	return out, nil
}

// TransitionReservation drives one state-machine step. pending->accepted
// re-validates capacity at confirmation time because other pending
// requests may have been accepted in the interim; on a re-check failure
// the reservation stays pending for manual resolution. Cancellation is
// not reachable from here: it carries the fee split and refund request,
// so it only runs through CancelReservation.
func (s *BookingService) TransitionReservation(ctx context.Context, id int64, target domain.Status, actor domain.Actor) (domain.Reservation, error) {
	if target == domain.StatusCancelled {
		observability.ObserveBooking(string(target), outcomeLabel(domain.ErrInvalidTransition))
		return domain.Reservation{}, domain.ErrInvalidTransition
	}
	rsv, err := s.reservations.GetReservation(ctx, id)
	if err != nil {
		return domain.Reservation{}, err
	}

	release, err := s.locks.Acquire(ctx, rsv.ResourceID)
	if err != nil {
		return domain.Reservation{}, err
	}
	defer release()

	now := s.policy.now()
	err = s.reservations.WithResourceLock(ctx, rsv.ResourceID, func(ctx context.Context, tx domain.BookingTx, res domain.Resource) error {
		rsv, err = tx.GetReservation(ctx, id) // re-read under lock
		if err != nil {
			return err
		}
		if err := rsv.Authorize(target, actor, res.Category, now); err != nil {
			return err
		}
		if target == domain.StatusAccepted {
			if err := s.verifyPaymentProof(ctx, rsv); err != nil {
				return err
			}
			if err := s.recheckCapacity(ctx, tx, res, rsv); err != nil {
				return err
			}
		}
		rsv.Status = target
		return tx.UpdateReservation(ctx, &rsv)
	})
	if err != nil {
		observability.ObserveBooking(string(target), outcomeLabel(err))
		return domain.Reservation{}, err
	}
	observability.ObserveBooking(string(target), "ok")
	s.invalidateAvailability(ctx, rsv.ResourceID, rsv.Range)
	log.Info().Int64("reservation", id).Str("status", string(target)).Str("actor", string(actor)).
		Msg("reservation transitioned")
	return rsv, nil
}

// verifyPaymentProof consults the payments collaborator when configured.
// Without a client the locally attached proof reference is trusted; the
// state-machine guard already requires it to be present.
func (s *BookingService) verifyPaymentProof(ctx context.Context, rsv domain.Reservation) error {
	if s.payments == nil || rsv.PaymentRef == nil {
		return nil
	}
	ok, err := s.payments.ProofRecorded(ctx, *rsv.PaymentRef)
	if err != nil {
		return fmt.Errorf("verify payment proof: %w", err)
	}
	if !ok {
		return domain.ErrPaymentRequired
	}
	return nil
}

// recheckCapacity re-runs the remaining-capacity rule at confirmation
// time, excluding the reservation itself (pending already counts).
func (s *BookingService) recheckCapacity(ctx context.Context, tx domain.BookingTx, res domain.Resource, rsv domain.Reservation) error {
	existing, err := tx.ListActive(ctx, rsv.ResourceID, rsv.Range)
	if err != nil {
		return fmt.Errorf("list active reservations: %w", err)
	}
	others := existing[:0:0]
	for _, e := range existing {
		if e.ID != rsv.ID {
			others = append(others, e)
		}
	}
	if domain.RemainingCapacity(res, others, rsv.Range).Available < rsv.Guests.Total() {
		return domain.ErrCapacityExceeded
	}
	return nil
}

// CancelResult reports the fee split applied on cancellation.
type CancelResult struct {
	Reservation  domain.Reservation `json:"reservation"`
	FeeApplied   float64            `json:"fee_applied"`
	RefundAmount float64            `json:"refund_amount"`
}

// CancelReservation cancels on behalf of the requester, computes the
// tiered cancellation fee and asks the payments collaborator to issue the
// refund. Refund issuance is best-effort; the cancellation itself is not
// rolled back when the collaborator is unreachable.
func (s *BookingService) CancelReservation(ctx context.Context, id int64, actor domain.Actor, reason string) (CancelResult, error) {
	rsv, err := s.reservations.GetReservation(ctx, id)
	if err != nil {
		return CancelResult{}, err
	}

	release, err := s.locks.Acquire(ctx, rsv.ResourceID)
	if err != nil {
		return CancelResult{}, err
	}
	defer release()

	now := s.policy.now()
	var result CancelResult
	err = s.reservations.WithResourceLock(ctx, rsv.ResourceID, func(ctx context.Context, tx domain.BookingTx, res domain.Resource) error {
		rsv, err = tx.GetReservation(ctx, id)
		if err != nil {
			return err
		}
		if err := rsv.Authorize(domain.StatusCancelled, actor, res.Category, now); err != nil {
			return err
		}
		fee, refund := rsv.CancellationFee(now)
		rsv.Status = domain.StatusCancelled
		if reason != "" {
			note := "cancelled: " + reason
			rsv.Notes = &note
		}
		if err := tx.UpdateReservation(ctx, &rsv); err != nil {
			return err
		}
		result = CancelResult{Reservation: rsv, FeeApplied: fee, RefundAmount: refund}
		return nil
	})
	if err != nil {
		observability.ObserveBooking("cancel", outcomeLabel(err))
		return CancelResult{}, err
	}
	observability.ObserveBooking("cancel", "ok")
	s.invalidateAvailability(ctx, rsv.ResourceID, rsv.Range)

	if s.payments != nil && result.RefundAmount > 0 && rsv.PaymentRef != nil {
		if err := s.payments.RequestRefund(ctx, rsv.ID, result.RefundAmount); err != nil {
			log.Warn().Int64("reservation", rsv.ID).Err(err).Msg("refund request failed")
		}
	}
	log.Info().Int64("reservation", id).Float64("fee", result.FeeApplied).
		Float64("refund", result.RefundAmount).Msg("reservation cancelled")
	return result, nil
}

// AttachPaymentProof records the proof-of-payment artifact reference
// supplied by the upload collaborator on a pending reservation.
func (s *BookingService) AttachPaymentProof(ctx context.Context, id int64, ref string) (domain.Reservation, error) {
	rsv, err := s.reservations.GetReservation(ctx, id)
	if err != nil {
		return domain.Reservation{}, err
	}

	release, err := s.locks.Acquire(ctx, rsv.ResourceID)
	if err != nil {
		return domain.Reservation{}, err
	}
	defer release()

	err = s.reservations.WithResourceLock(ctx, rsv.ResourceID, func(ctx context.Context, tx domain.BookingTx, res domain.Resource) error {
		rsv, err = tx.GetReservation(ctx, id)
		if err != nil {
			return err
		}
		if rsv.Status.IsTerminal() {
			return domain.ErrInvalidTransition
		}
		rsv.PaymentRef = &ref
		return tx.UpdateReservation(ctx, &rsv)
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return rsv, nil
}

// GetReservation exposes a single reservation to booking forms.
func (s *BookingService) GetReservation(ctx context.Context, id int64) (domain.Reservation, error) {
	return s.reservations.GetReservation(ctx, id)
}

// ListReservations backs the staff dashboard listing.
func (s *BookingService) ListReservations(ctx context.Context, q domain.ReservationsQuery) ([]domain.Reservation, error) {
	if q.Limit <= 0 || q.Limit > 200 {
		q.Limit = 50
	}
	return s.reservations.ListReservations(ctx, q)
}

// invalidateAvailability drops the cached availability months a write
// touched so calendars re-derive on next read.
func (s *BookingService) invalidateAvailability(ctx context.Context, resourceID int64, rng domain.DateRange) {
	if s.cache == nil {
		return
	}
	keys := make([]string, 0, 2)
	for _, m := range rng.Months() {
		keys = append(keys, availabilityKey(resourceID, m))
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		log.Warn().Int64("resource", resourceID).Err(err).Msg("availability cache invalidation failed")
	}
}

// outcomeLabel keeps metric cardinality bounded: one slug per taxonomy
// entry plus a generic bucket for storage failures.
func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidRange):
		return "invalid_range"
	case errors.Is(err, domain.ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, domain.ErrResourceUnavailable):
		return "resource_unavailable"
	case errors.Is(err, domain.ErrBusy):
		return "busy"
	case errors.Is(err, domain.ErrPaymentRequired):
		return "payment_required"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	}
	return "error"
}
