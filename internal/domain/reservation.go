package domain

import "time"

// Status is the lifecycle state of a reservation.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusBooked    Status = "booked" // boat only: crew assigned, awaiting ride
	StatusOnride    Status = "onride" // boat only: ride in progress
	StatusDeclined  Status = "declined"
	StatusCancelled Status = "cancelled"
	StatusDone      Status = "done"
)

// transitions is the full state machine. Terminal states map to nil.
var transitions = map[Status][]Status{
	StatusPending:   {StatusAccepted, StatusDeclined, StatusCancelled},
	StatusAccepted:  {StatusBooked, StatusDone, StatusCancelled},
	StatusBooked:    {StatusOnride, StatusDone, StatusCancelled},
	StatusOnride:    {StatusDone},
	StatusDeclined:  nil,
	StatusCancelled: nil,
	StatusDone:      nil,
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := transitions[st]; !ok {
		return "", ErrInvalidTransition
	}
	return st, nil
}

// CanTransitionTo checks the raw transition edge, ignoring guards.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions exist.
func (s Status) IsTerminal() bool { return len(transitions[s]) == 0 }

// CountsAgainstCapacity reports whether a reservation in this state
// consumes capacity. Declined, cancelled and done reservations are
// historical records only.
func (s Status) CountsAgainstCapacity() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusBooked, StatusOnride:
		return true
	}
	return false
}

// Actor is the role driving a transition.
type Actor string

const (
	ActorGuest Actor = "guest"
	ActorStaff Actor = "staff"
)

func ParseActor(s string) (Actor, error) {
	switch Actor(s) {
	case ActorGuest, ActorStaff:
		return Actor(s), nil
	}
	return "", ErrForbidden
}

// Reservation is one booking attempt against a resource. Range covers a
// single date for table/landing-area bookings and [check_in, check_out)
// for stays.
type Reservation struct {
	ID           int64       `json:"id"`
	ResourceID   int64       `json:"resource_id"`
	GuestName    string      `json:"guest_name"`
	GuestContact string      `json:"guest_contact"`
	Range        DateRange   `json:"range"`
	Guests       GuestCounts `json:"guests"`
	TotalPrice   float64     `json:"total_price"`
	DepositDue   float64     `json:"deposit_due"`
	Status       Status      `json:"status"`
	PaymentRef   *string     `json:"payment_ref,omitempty"`
	Notes        *string     `json:"notes,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Authorize checks one transition against the state machine and its
// guards. It does not apply the transition; on failure the reservation is
// expected to remain unchanged.
//
// Guards, in order:
//   - the edge must exist in the transition map;
//   - accepted/declined/booked/onride/done are staff actions;
//   - cancelled belongs to the requester; staff turn a request away with
//     declined instead;
//   - booked and onride exist only for boats;
//   - accepted requires a recorded payment proof reference (the capacity
//     re-check at confirmation time happens where current reservations are
//     at hand, not here);
//   - cancelled requires the start date to still be in the future;
//   - done requires the end date to have passed.
func (r *Reservation) Authorize(target Status, actor Actor, cat Category, now time.Time) error {
	if !r.Status.CanTransitionTo(target) {
		return ErrInvalidTransition
	}
	switch target {
	case StatusAccepted, StatusDeclined, StatusBooked, StatusOnride, StatusDone:
		if actor != ActorStaff {
			return ErrForbidden
		}
	case StatusCancelled:
		if actor != ActorGuest {
			return ErrForbidden
		}
	}
	switch target {
	case StatusBooked, StatusOnride:
		if cat != CategoryBoat {
			return ErrInvalidTransition
		}
	case StatusAccepted:
		if r.PaymentRef == nil || *r.PaymentRef == "" {
			return ErrPaymentRequired
		}
	case StatusCancelled:
		if !now.Before(r.Range.Start) {
			return ErrInvalidTransition
		}
	case StatusDone:
		if now.Before(r.Range.End) {
			return ErrInvalidTransition
		}
	}
	return nil
}

// CancellationFee applies the tiered fee policy on the hours remaining
// until the stay starts: free beyond 48h, 25% within 24-48h, 50% under
// 24h. Enforcement (refund issuance) is delegated to the payments
// collaborator; this only computes the split.
func (r *Reservation) CancellationFee(now time.Time) (fee, refund float64) {
	until := r.Range.Start.Sub(now)
	switch {
	case until > 48*time.Hour:
		fee = 0
	case until >= 24*time.Hour:
		fee = r.TotalPrice * 0.25
	default:
		fee = r.TotalPrice * 0.50
	}
	return fee, r.TotalPrice - fee
}
