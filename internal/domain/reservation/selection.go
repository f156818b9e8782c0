package reservation

import (
	"slices"
	"time"
)

// RouteTable maps each direction to the resource ids that serve it.
type RouteTable map[Direction][]int

// DefaultRoutes is the route allowlist used when settings do not override it.
func DefaultRoutes() RouteTable {
	return RouteTable{
		Outbound: {2, 4},
		Return:   {5, 6, 7},
	}
}

// Candidate is a slot chosen for acquisition together with its route.
type Candidate struct {
	ResourceID   int
	ResourceName string
	Slot         Slot
	// Whole minutes from now to the departure, negative when it already left.
	TimeDifference int
}

// IsPast reports whether the departure time is before now.
func (c Candidate) IsPast() bool { return c.TimeDifference < 0 }

// Selector finds departures around now. Tolerances are in minutes.
type Selector struct {
	Routes          RouteTable
	PastTolerance   int
	FutureTolerance int
}

// Select returns the first qualifying slot in resource order then slot order.
// This is the first one found, not the one departing soonest.
func (s Selector) Select(resources []Resource, dir Direction, now time.Time) (Candidate, error) {
	var (
		found Candidate
		ok    bool
	)
	s.scan(resources, dir, now, func(c Candidate) bool {
		found, ok = c, true
		return false
	})
	if !ok {
		return Candidate{}, ErrNoDeparture
	}
	return found, nil
}

// SelectAll returns every qualifying slot in scan order.
func (s Selector) SelectAll(resources []Resource, dir Direction, now time.Time) []Candidate {
	var out []Candidate
	s.scan(resources, dir, now, func(c Candidate) bool {
		out = append(out, c)
		return true
	})
	return out
}

func (s Selector) scan(resources []Resource, dir Direction, now time.Time, yield func(Candidate) bool) {
	routes := s.Routes
	if routes == nil {
		routes = DefaultRoutes()
	}
	allowed := routes[dir]
	today := now.Format(DateLayout)

	for _, r := range resources {
		if !slices.Contains(allowed, r.ID) {
			continue
		}
		for _, slot := range r.Slots {
			if !slot.Available(today) {
				continue
			}
			diff, err := MinutesUntil(now, slot.TimeOfDay)
			if err != nil {
				continue
			}
			if diff < -s.PastTolerance || diff > s.FutureTolerance {
				continue
			}
			if !yield(Candidate{ResourceID: r.ID, ResourceName: r.Name, Slot: slot, TimeDifference: diff}) {
				return
			}
		}
	}
}

// MinutesUntil returns whole minutes from now to hh:mm on now's date, truncated
// toward zero.
func MinutesUntil(now time.Time, hhmm string) (int, error) {
	t, err := time.ParseInLocation(DateTimeLayout, now.Format(DateLayout)+" "+hhmm, now.Location())
	if err != nil {
		return 0, err
	}
	return int(t.Sub(now) / time.Minute), nil
}
