// Package history turns past ride records into display statistics.
package history

import (
	"sort"
	"strings"
	"time"

	"github.com/example/shuttle-pass/internal/domain/reservation"
)

// Hour buckets cover departures from 05:00 up to and including 23:00.
const (
	FirstHour = 5
	LastHour  = 22
)

// Default markers and status names used by the provider.
const (
	DefaultCancelledStatus = "Cancelled"
	DefaultOutboundMarker  = "燕"
	DefaultReturnMarker    = "新"
)

// RouteCount is the number of valid rides on one route.
type RouteCount struct {
	Route string `json:"route"`
	Count int    `json:"count"`
}

// HourCount splits one hour bucket by direction.
type HourCount struct {
	Outbound int `json:"outbound"`
	Return   int `json:"return"`
}

// DeltaHistogram counts sign-in deltas per minute inside a symmetric range.
type DeltaHistogram struct {
	Min     int         `json:"min"`
	Max     int         `json:"max"`
	Buckets map[int]int `json:"buckets"`
}

// Total is the number of deltas in the histogram.
func (h DeltaHistogram) Total() int {
	n := 0
	for _, c := range h.Buckets {
		n += c
	}
	return n
}

// Statistics is recomputed in full on every call to Aggregate.
type Statistics struct {
	ValidCount    int                    `json:"valid_count"`
	RouteCounts   []RouteCount           `json:"route_counts"`
	HourCounts    map[int]HourCount      `json:"hour_counts"`
	StatusCounts  map[string]int         `json:"status_counts"`
	CalendarDates map[time.Time]struct{} `json:"-"`
	EarliestDate  time.Time              `json:"earliest_date"`
	LatestDate    time.Time              `json:"latest_date"`
	SignInDeltas  DeltaHistogram         `json:"sign_in_deltas"`

	// Records with a sign-in time left out of SignInDeltas because a
	// timestamp did not parse.
	SkippedSignIns int `json:"skipped_sign_ins"`
}

// Dates returns the calendar dates in ascending order.
func (s Statistics) Dates() []time.Time {
	out := make([]time.Time, 0, len(s.CalendarDates))
	for d := range s.CalendarDates {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Aggregator holds the provider specific knobs of the aggregation.
type Aggregator struct {
	CancelledStatus string
	// A route is outbound when OutboundMarker occurs before ReturnMarker in its name.
	OutboundMarker string
	ReturnMarker   string
	Today          time.Time
	Location       *time.Location
}

// NewAggregator returns an Aggregator with the provider defaults.
func NewAggregator(today time.Time) Aggregator {
	return Aggregator{
		CancelledStatus: DefaultCancelledStatus,
		OutboundMarker:  DefaultOutboundMarker,
		ReturnMarker:    DefaultReturnMarker,
		Today:           today,
		Location:        today.Location(),
	}
}

func (a Aggregator) Aggregate(records []reservation.RideRecord) Statistics {
	loc := a.Location
	if loc == nil {
		loc = time.Local
	}
	stats := Statistics{
		HourCounts:    map[int]HourCount{},
		StatusCounts:  map[string]int{},
		CalendarDates: map[time.Time]struct{}{},
		SignInDeltas:  DeltaHistogram{Buckets: map[int]int{}},
		LatestDate:    startOfDay(a.Today.In(loc)),
	}
	routes := map[string]int{}
	var deltas []int

	for _, rec := range records {
		appointment, apptErr := parseTimestamp(rec.AppointmentTime, loc)

		if strings.TrimSpace(rec.SignInTime) != "" {
			signIn, err := parseTimestamp(rec.SignInTime, loc)
			if err == nil && apptErr == nil {
				deltas = append(deltas, int(signIn.Sub(appointment)/time.Minute))
			} else {
				stats.SkippedSignIns++
			}
		}

		if rec.StatusName == a.CancelledStatus {
			continue
		}
		stats.ValidCount++
		routes[rec.ResourceName]++
		stats.StatusCounts[rec.StatusName]++

		if apptErr != nil {
			continue
		}
		stats.CalendarDates[startOfDay(appointment)] = struct{}{}

		if bucket, ok := hourBucket(appointment); ok {
			hc := stats.HourCounts[bucket]
			if a.isOutbound(rec.ResourceName) {
				hc.Outbound++
			} else {
				hc.Return++
			}
			stats.HourCounts[bucket] = hc
		}
	}

	for route, n := range routes {
		stats.RouteCounts = append(stats.RouteCounts, RouteCount{Route: route, Count: n})
	}
	sort.Slice(stats.RouteCounts, func(i, j int) bool {
		if stats.RouteCounts[i].Count != stats.RouteCounts[j].Count {
			return stats.RouteCounts[i].Count > stats.RouteCounts[j].Count
		}
		return stats.RouteCounts[i].Route < stats.RouteCounts[j].Route
	})

	for d := range stats.CalendarDates {
		if stats.EarliestDate.IsZero() || d.Before(stats.EarliestDate) {
			stats.EarliestDate = d
		}
	}

	stats.SignInDeltas = histogram(deltas)
	return stats
}

func (a Aggregator) isOutbound(route string) bool {
	outbound := strings.Index(route, a.OutboundMarker)
	if outbound < 0 {
		return false
	}
	ret := strings.Index(route, a.ReturnMarker)
	return ret < 0 || outbound < ret
}

// hourBucket maps a departure to its hour bucket. Buckets start at half past,
// so 05:00-05:29 joins bucket 5 and 23:00 joins bucket 22.
func hourBucket(t time.Time) (int, bool) {
	minute := t.Hour()*60 + t.Minute()
	if minute < FirstHour*60 || minute > (LastHour+1)*60 {
		return 0, false
	}
	bucket := (minute - 30) / 60
	if bucket < FirstHour {
		bucket = FirstHour
	}
	return bucket, true
}

// histogram trims the 2.5% tails, makes the range symmetric around zero,
// widens it by two minutes and clamps every delta into it before counting.
func histogram(deltas []int) DeltaHistogram {
	h := DeltaHistogram{Buckets: map[int]int{}}
	n := len(deltas)
	if n == 0 {
		return h
	}
	sorted := append([]int(nil), deltas...)
	sort.Ints(sorted)

	lo := sorted[int(float64(n)*0.025)]
	hi := sorted[int(float64(n)*0.975)]
	bound := max(abs(lo), abs(hi)) + 2
	h.Min, h.Max = -bound, bound

	for _, d := range deltas {
		h.Buckets[min(max(d, h.Min), h.Max)]++
	}
	return h
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	reservation.DateTimeLayout,
	time.RFC3339,
}

func parseTimestamp(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	var err error
	for _, layout := range timestampLayouts {
		var t time.Time
		if t, err = time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
