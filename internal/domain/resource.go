package domain

import "time"

// Category tags a bookable unit. The same overlap and capacity rules apply
// to every category; the tag only changes booking shape (tables and landing
// areas book per-date, rooms and the resort per-stay, boats add ride
// stages to the lifecycle).
type Category string

const (
	CategoryRoom        Category = "room"
	CategoryBoat        Category = "boat"
	CategoryTable       Category = "table"
	CategoryLandingArea Category = "landing_area"
	CategoryResort      Category = "resort"
)

var categories = map[Category]bool{
	CategoryRoom:        true,
	CategoryBoat:        true,
	CategoryTable:       true,
	CategoryLandingArea: true,
	CategoryResort:      true,
}

func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !categories[c] {
		return "", ErrUnknownCategory
	}
	return c, nil
}

// SingleDateOnly reports whether bookings for this category are per-date
// rather than [check_in, check_out) stays.
func (c Category) SingleDateOnly() bool {
	return c == CategoryTable || c == CategoryLandingArea
}

// GuestCategory is the fixed pricing-tier set. Unknown bucket names are
// rejected at the boundary instead of being carried as loose strings.
type GuestCategory string

const (
	GuestAdult  GuestCategory = "adult"
	GuestChild  GuestCategory = "child"
	GuestSenior GuestCategory = "senior"
	GuestPWD    GuestCategory = "pwd"
)

// GuestCounts holds the requested head count per pricing tier.
type GuestCounts struct {
	Adult  int `json:"adult"`
	Child  int `json:"child"`
	Senior int `json:"senior"`
	PWD    int `json:"pwd"`
}

// Total is the seat/guest count a reservation claims against capacity,
// regardless of how it is split across tiers.
func (g GuestCounts) Total() int { return g.Adult + g.Child + g.Senior + g.PWD }

func (g GuestCounts) byCategory() map[GuestCategory]int {
	return map[GuestCategory]int{
		GuestAdult:  g.Adult,
		GuestChild:  g.Child,
		GuestSenior: g.Senior,
		GuestPWD:    g.PWD,
	}
}

// Resource is one bookable unit. Rates maps guest categories to a
// per-guest per-day price; when empty the flat DayPrice applies to the
// whole unit per day. Soft-deleted resources stay referenced by historical
// reservations and report zero availability.
type Resource struct {
	ID          int64                     `json:"id"`
	Category    Category                  `json:"category"`
	Name        string                    `json:"name"`
	Capacity    int                       `json:"capacity"`
	DayPrice    float64                   `json:"day_price"`
	Rates       map[GuestCategory]float64 `json:"rates,omitempty"`
	Maintenance bool                      `json:"maintenance"`
	Deleted     bool                      `json:"-"`
	CreatedAt   time.Time                 `json:"created_at"`
	UpdatedAt   time.Time                 `json:"updated_at"`
}

// Active reports whether the resource can take new reservations.
func (r Resource) Active() bool { return !r.Maintenance && !r.Deleted }

// Price computes the total for a stay: per-guest tiered rates when
// configured, otherwise the flat per-day unit price. Guest categories
// missing a rate fall back to the adult rate.
func (r Resource) Price(g GuestCounts, rng DateRange) float64 {
	nights := rng.Nights()
	if nights < 1 {
		nights = 1
	}
	if len(r.Rates) == 0 {
		return r.DayPrice * float64(nights)
	}
	perDay := 0.0
	for cat, n := range g.byCategory() {
		if n == 0 {
			continue
		}
		rate, ok := r.Rates[cat]
		if !ok {
			rate = r.Rates[GuestAdult]
		}
		perDay += rate * float64(n)
	}
	return perDay * float64(nights)
}
