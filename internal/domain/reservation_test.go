package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/Meliodas1827/Pagsanjan-sub000/internal/domain"
)

func pendingReservation(start, end int) *domain.Reservation {
	ref := "proof-1"
	return &domain.Reservation{
		ID:         7,
		ResourceID: 1,
		Range:      domain.DateRange{Start: d(start), End: d(end)},
		Guests:     domain.GuestCounts{Adult: 2},
		TotalPrice: 1000,
		Status:     domain.StatusPending,
		PaymentRef: &ref,
	}
}

func TestTransitionMap(t *testing.T) {
	cases := []struct {
		from, to domain.Status
		ok       bool
	}{
		{domain.StatusPending, domain.StatusAccepted, true},
		{domain.StatusPending, domain.StatusDeclined, true},
		{domain.StatusPending, domain.StatusCancelled, true},
		{domain.StatusPending, domain.StatusDone, false},
		{domain.StatusAccepted, domain.StatusBooked, true},
		{domain.StatusAccepted, domain.StatusDone, true},
		{domain.StatusBooked, domain.StatusOnride, true},
		{domain.StatusOnride, domain.StatusDone, true},
		{domain.StatusOnride, domain.StatusCancelled, false},
		{domain.StatusDeclined, domain.StatusPending, false},
		{domain.StatusCancelled, domain.StatusAccepted, false},
		{domain.StatusDone, domain.StatusCancelled, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.ok {
			t.Errorf("%s -> %s = %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
	for _, s := range []domain.Status{domain.StatusDeclined, domain.StatusCancelled, domain.StatusDone} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}

func TestCountsAgainstCapacity(t *testing.T) {
	counting := []domain.Status{domain.StatusPending, domain.StatusAccepted, domain.StatusBooked, domain.StatusOnride}
	for _, s := range counting {
		if !s.CountsAgainstCapacity() {
			t.Errorf("%s must count against capacity", s)
		}
	}
	for _, s := range []domain.Status{domain.StatusDeclined, domain.StatusCancelled, domain.StatusDone} {
		if s.CountsAgainstCapacity() {
			t.Errorf("%s must not count against capacity", s)
		}
	}
}

func TestAuthorize_AcceptRequiresStaffAndProof(t *testing.T) {
	now := d(10)
	rsv := pendingReservation(20, 22)

	if err := rsv.Authorize(domain.StatusAccepted, domain.ActorGuest, domain.CategoryRoom, now); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("guest accept: got %v, want ErrForbidden", err)
	}
	if err := rsv.Authorize(domain.StatusAccepted, domain.ActorStaff, domain.CategoryRoom, now); err != nil {
		t.Fatalf("staff accept with proof: %v", err)
	}
	rsv.PaymentRef = nil
	if err := rsv.Authorize(domain.StatusAccepted, domain.ActorStaff, domain.CategoryRoom, now); !errors.Is(err, domain.ErrPaymentRequired) {
		t.Fatalf("accept without proof: got %v, want ErrPaymentRequired", err)
	}
}

func TestAuthorize_RideStagesAreBoatOnly(t *testing.T) {
	now := d(10)
	rsv := pendingReservation(20, 22)
	rsv.Status = domain.StatusAccepted

	if err := rsv.Authorize(domain.StatusBooked, domain.ActorStaff, domain.CategoryRoom, now); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("room booked: got %v, want ErrInvalidTransition", err)
	}
	if err := rsv.Authorize(domain.StatusBooked, domain.ActorStaff, domain.CategoryBoat, now); err != nil {
		t.Fatalf("boat booked: %v", err)
	}
}

func TestAuthorize_DoneOnlyAfterEnd(t *testing.T) {
	rsv := pendingReservation(20, 22)
	rsv.Status = domain.StatusAccepted

	if err := rsv.Authorize(domain.StatusDone, domain.ActorStaff, domain.CategoryRoom, d(21)); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("done before end: got %v, want ErrInvalidTransition", err)
	}
	if err := rsv.Authorize(domain.StatusDone, domain.ActorStaff, domain.CategoryRoom, d(22)); err != nil {
		t.Fatalf("done at end: %v", err)
	}
}

func TestAuthorize_CancelOnlyBeforeStart(t *testing.T) {
	rsv := pendingReservation(20, 22)

	if err := rsv.Authorize(domain.StatusCancelled, domain.ActorGuest, domain.CategoryRoom, d(19)); err != nil {
		t.Fatalf("cancel before start: %v", err)
	}
	if err := rsv.Authorize(domain.StatusCancelled, domain.ActorGuest, domain.CategoryRoom, d(20)); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("cancel on start date: got %v, want ErrInvalidTransition", err)
	}
}

func TestAuthorize_CancelBelongsToTheRequester(t *testing.T) {
	rsv := pendingReservation(20, 22)

	// Staff turn a request away with declined, not cancelled.
	if err := rsv.Authorize(domain.StatusCancelled, domain.ActorStaff, domain.CategoryRoom, d(19)); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("staff cancel: got %v, want ErrForbidden", err)
	}
	if err := rsv.Authorize(domain.StatusDeclined, domain.ActorStaff, domain.CategoryRoom, d(19)); err != nil {
		t.Fatalf("staff decline: %v", err)
	}
}

func TestCancellationFee_Tiers(t *testing.T) {
	rsv := pendingReservation(20, 22)
	rsv.TotalPrice = 1000
	start := rsv.Range.Start

	cases := []struct {
		name           string
		now            time.Time
		fee, refund    float64
	}{
		{"more than 48h free", start.Add(-72 * time.Hour), 0, 1000},
		{"24-48h pays 25%", start.Add(-30 * time.Hour), 250, 750},
		{"exactly 24h pays 25%", start.Add(-24 * time.Hour), 250, 750},
		{"10h pays 50%", start.Add(-10 * time.Hour), 500, 500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fee, refund := rsv.CancellationFee(tc.now)
			if fee != tc.fee || refund != tc.refund {
				t.Fatalf("fee=%v refund=%v, want %v/%v", fee, refund, tc.fee, tc.refund)
			}
		})
	}
}

func TestParseStatusAndActor(t *testing.T) {
	if _, err := domain.ParseStatus("confirmed"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("unknown status: %v", err)
	}
	if s, err := domain.ParseStatus("onride"); err != nil || s != domain.StatusOnride {
		t.Fatalf("parse onride: %v %v", s, err)
	}
	if _, err := domain.ParseActor("owner"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("unknown actor: %v", err)
	}
}
