package domain

import "time"

// DateRange is a half-open interval [Start, End). Start and End are
// calendar dates normalized to midnight UTC; a one-night room stay from
// the 20th to the 21st occupies only the 20th, so back-to-back bookings
// never collide.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NewRange builds a validated half-open range. Zero-length and inverted
// ranges are rejected with ErrInvalidRange rather than evaluated.
func NewRange(start, end time.Time) (DateRange, error) {
	start, end = Day(start), Day(end)
	if !end.After(start) {
		return DateRange{}, ErrInvalidRange
	}
	return DateRange{Start: start, End: end}, nil
}

// SingleDay treats a date d as the interval [d, d+1day). Used for table
// and landing-area bookings, which are per-date rather than per-stay.
func SingleDay(d time.Time) DateRange {
	day := Day(d)
	return DateRange{Start: day, End: day.AddDate(0, 0, 1)}
}

// Overlaps reports whether two half-open intervals intersect:
// a.Start < b.End && b.Start < a.End. A check-out equal to another's
// check-in does not overlap.
func (r DateRange) Overlaps(o DateRange) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

// Valid reports whether the range is well-formed (End strictly after Start).
func (r DateRange) Valid() bool { return r.End.After(r.Start) }

// Nights is the number of occupied nights (whole days covered). A
// single-day booking counts as one night for pricing.
func (r DateRange) Nights() int {
	return int(r.End.Sub(r.Start).Hours() / 24)
}

// Dates lists every calendar date the range covers, End exclusive.
func (r DateRange) Dates() []time.Time {
	var out []time.Time
	for d := r.Start; d.Before(r.End); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// Months lists the distinct "YYYY-MM" keys the range touches. Availability
// caches are keyed per month, so a write invalidates exactly these.
func (r DateRange) Months() []string {
	var out []string
	seen := map[string]bool{}
	for d := r.Start; d.Before(r.End); d = d.AddDate(0, 0, 1) {
		m := d.Format("2006-01")
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

// MonthRange expands a "YYYY-MM" key into the range covering that month.
func MonthRange(ym string) (DateRange, error) {
	t, err := time.Parse("2006-01", ym)
	if err != nil {
		return DateRange{}, ErrInvalidRange
	}
	start := Day(t)
	return DateRange{Start: start, End: start.AddDate(0, 1, 0)}, nil
}
