package domain

import "time"

// DayStatus is the availability classification for a single date.
// Maintenance is distinct from fully_booked so callers can tell
// operational unavailability from demand-driven unavailability.
type DayStatus string

const (
	DayAvailable   DayStatus = "available"
	DayLimited     DayStatus = "limited"
	DayFullyBooked DayStatus = "fully_booked"
	DayMaintenance DayStatus = "maintenance"
)

// CapacityReport is the result of a remaining-capacity query.
type CapacityReport struct {
	Capacity  int `json:"capacity"`
	Reserved  int `json:"reserved"`
	Available int `json:"available"`
}

// DefaultLimitedPct is the admin-configurable "limited" threshold:
// a day is limited when fewer than max(1, capacity*pct) units remain.
const DefaultLimitedPct = 0.2

// RemainingCapacity sums reserved guest counts for the resource over the
// query range and derives what is left. Only reservations in a
// counts-against-capacity state are considered. For multi-day ranges the
// reserved figure is the busiest single day within the range, so disjoint
// stays inside a long query window do not stack. An inactive resource
// reports zero availability regardless of reservation sums.
func RemainingCapacity(res Resource, reservations []Reservation, rng DateRange) CapacityReport {
	rep := CapacityReport{Capacity: res.Capacity}
	if !res.Active() {
		return rep
	}
	peak := 0
	for _, d := range rng.Dates() {
		if n := reservedOn(reservations, d); n > peak {
			peak = n
		}
	}
	rep.Reserved = peak
	if avail := res.Capacity - peak; avail > 0 {
		rep.Available = avail
	}
	return rep
}

func reservedOn(reservations []Reservation, d time.Time) int {
	day := SingleDay(d)
	sum := 0
	for _, rsv := range reservations {
		if rsv.Status.CountsAgainstCapacity() && rsv.Range.Overlaps(day) {
			sum += rsv.Guests.Total()
		}
	}
	return sum
}

// Snapshot is the derived per-date availability view. It is always
// computed on read from the resource and its active reservations; it is
// never a source of truth.
type Snapshot struct {
	Date           time.Time `json:"date"`
	Status         DayStatus `json:"status"`
	Reserved       int       `json:"reserved"`
	Capacity       int       `json:"capacity"`
	ReservationIDs []int64   `json:"reservation_ids,omitempty"`
}

// BuildSnapshots derives one Snapshot per date in rng. limitedPct <= 0
// falls back to DefaultLimitedPct.
func BuildSnapshots(res Resource, reservations []Reservation, rng DateRange, limitedPct float64) []Snapshot {
	if limitedPct <= 0 {
		limitedPct = DefaultLimitedPct
	}
	out := make([]Snapshot, 0, rng.Nights())
	for _, d := range rng.Dates() {
		snap := Snapshot{Date: d, Capacity: res.Capacity}
		day := SingleDay(d)
		for _, rsv := range reservations {
			if rsv.Status.CountsAgainstCapacity() && rsv.Range.Overlaps(day) {
				snap.Reserved += rsv.Guests.Total()
				snap.ReservationIDs = append(snap.ReservationIDs, rsv.ID)
			}
		}
		snap.Status = dayStatus(res, snap.Reserved, limitedPct)
		out = append(out, snap)
	}
	return out
}

func dayStatus(res Resource, reserved int, limitedPct float64) DayStatus {
	if !res.Active() {
		return DayMaintenance
	}
	avail := res.Capacity - reserved
	if avail <= 0 {
		return DayFullyBooked
	}
	threshold := int(float64(res.Capacity) * limitedPct)
	if threshold < 1 {
		threshold = 1
	}
	if avail < threshold {
		return DayLimited
	}
	return DayAvailable
}
