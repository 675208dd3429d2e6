package domain_test

import (
	"errors"
	"testing"

	"github.com/Meliodas1827/Pagsanjan-sub000/internal/domain"
)

func TestValidateRequest_RuleOrder(t *testing.T) {
	now := d(10)
	res := room(4)
	stay := domain.DateRange{Start: d(20), End: d(22)}

	t.Run("maintenance beats everything", func(t *testing.T) {
		down := res
		down.Maintenance = true
		err := domain.ValidateRequest(down, nil, domain.DateRange{}, domain.GuestCounts{}, now)
		if !errors.Is(err, domain.ErrResourceUnavailable) {
			t.Fatalf("got %v, want ErrResourceUnavailable", err)
		}
	})

	t.Run("past start date", func(t *testing.T) {
		err := domain.ValidateRequest(res, nil, domain.DateRange{Start: d(5), End: d(7)}, domain.GuestCounts{Adult: 1}, now)
		if !errors.Is(err, domain.ErrInvalidRange) {
			t.Fatalf("got %v, want ErrInvalidRange", err)
		}
	})

	t.Run("inverted range", func(t *testing.T) {
		err := domain.ValidateRequest(res, nil, domain.DateRange{Start: d(22), End: d(20)}, domain.GuestCounts{Adult: 1}, now)
		if !errors.Is(err, domain.ErrInvalidRange) {
			t.Fatalf("got %v, want ErrInvalidRange", err)
		}
	})

	t.Run("table bookings are single-date", func(t *testing.T) {
		tbl := res
		tbl.Category = domain.CategoryTable
		err := domain.ValidateRequest(tbl, nil, stay, domain.GuestCounts{Adult: 1}, now)
		if !errors.Is(err, domain.ErrInvalidRange) {
			t.Fatalf("got %v, want ErrInvalidRange", err)
		}
		if err := domain.ValidateRequest(tbl, nil, domain.SingleDay(d(20)), domain.GuestCounts{Adult: 1}, now); err != nil {
			t.Fatalf("single date table: %v", err)
		}
	})

	t.Run("single request over capacity even split across buckets", func(t *testing.T) {
		g := domain.GuestCounts{Adult: 2, Child: 1, Senior: 1, PWD: 1} // 5 > 4
		err := domain.ValidateRequest(res, nil, stay, g, now)
		if !errors.Is(err, domain.ErrCapacityExceeded) {
			t.Fatalf("got %v, want ErrCapacityExceeded", err)
		}
	})

	t.Run("zero guests rejected", func(t *testing.T) {
		err := domain.ValidateRequest(res, nil, stay, domain.GuestCounts{}, now)
		if !errors.Is(err, domain.ErrCapacityExceeded) {
			t.Fatalf("got %v, want ErrCapacityExceeded", err)
		}
	})

	t.Run("insufficient remaining capacity", func(t *testing.T) {
		existing := []domain.Reservation{active(1, 20, 22, 3)}
		err := domain.ValidateRequest(res, existing, stay, domain.GuestCounts{Adult: 2}, now)
		if !errors.Is(err, domain.ErrCapacityExceeded) {
			t.Fatalf("got %v, want ErrCapacityExceeded", err)
		}
		if err := domain.ValidateRequest(res, existing, stay, domain.GuestCounts{Adult: 1}, now); err != nil {
			t.Fatalf("last unit should fit: %v", err)
		}
	})
}

func TestValidateRequest_BackToBackAccepted(t *testing.T) {
	res := room(2)
	existing := []domain.Reservation{active(1, 18, 20, 2)}
	err := domain.ValidateRequest(res, existing, domain.DateRange{Start: d(20), End: d(22)}, domain.GuestCounts{Adult: 2}, d(10))
	if err != nil {
		t.Fatalf("back-to-back stay rejected: %v", err)
	}
}
