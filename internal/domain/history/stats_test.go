package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/shuttle-pass/internal/domain/reservation"
)

var today = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

func newTestAggregator() Aggregator {
	a := NewAggregator(today)
	a.Location = time.UTC
	return a
}

func TestAggregateEmpty(t *testing.T) {
	t.Parallel()

	stats := newTestAggregator().Aggregate(nil)
	assert.Zero(t, stats.ValidCount)
	assert.Empty(t, stats.RouteCounts)
	assert.Empty(t, stats.HourCounts)
	assert.Empty(t, stats.StatusCounts)
	assert.Empty(t, stats.CalendarDates)
	assert.Empty(t, stats.SignInDeltas.Buckets)
	assert.True(t, stats.EarliestDate.IsZero())
	assert.Equal(t, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), stats.LatestDate)
}

func TestAggregateCounts(t *testing.T) {
	t.Parallel()

	records := []reservation.RideRecord{
		{ResourceName: "燕园→新燕园", AppointmentTime: "2026-10-01 07:30", StatusName: "Signed"},
		{ResourceName: "燕园→新燕园", AppointmentTime: "2026-10-02 07:30", StatusName: "Signed"},
		{ResourceName: "新燕园→燕园", AppointmentTime: "2026-10-02 17:45", StatusName: "Missed"},
		{ResourceName: "新燕园→燕园", AppointmentTime: "2026-10-03 17:45", StatusName: "Cancelled"},
		{ResourceName: "燕园→新燕园", AppointmentTime: "2026-09-20 05:10", StatusName: "Signed"},
		{ResourceName: "燕园→新燕园", AppointmentTime: "2026-09-21 23:00", StatusName: "Signed"},
		{ResourceName: "燕园→新燕园", AppointmentTime: "2026-09-22 23:10", StatusName: "Signed"},
		{ResourceName: "燕园→新燕园", AppointmentTime: "2026-09-23 04:59", StatusName: "Signed"},
	}

	stats := newTestAggregator().Aggregate(records)

	assert.Equal(t, 7, stats.ValidCount)
	assert.Equal(t, []RouteCount{{Route: "燕园→新燕园", Count: 6}, {Route: "新燕园→燕园", Count: 1}}, stats.RouteCounts)
	assert.Equal(t, map[string]int{"Signed": 6, "Missed": 1}, stats.StatusCounts)

	sum := 0
	for _, n := range stats.StatusCounts {
		sum += n
	}
	assert.Equal(t, stats.ValidCount, sum)

	assert.Equal(t, HourCount{Outbound: 2}, stats.HourCounts[7])
	assert.Equal(t, HourCount{Return: 1}, stats.HourCounts[17])
	assert.Equal(t, HourCount{Outbound: 1}, stats.HourCounts[5])
	assert.Equal(t, HourCount{Outbound: 1}, stats.HourCounts[22])
	assert.Len(t, stats.HourCounts, 4)

	assert.Equal(t, time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC), stats.EarliestDate)
	assert.Len(t, stats.CalendarDates, 6)
	dates := stats.Dates()
	require.Len(t, dates, 6)
	assert.True(t, dates[0].Before(dates[5]))
}

func TestHourBucket(t *testing.T) {
	t.Parallel()

	cases := []struct {
		clock  string
		bucket int
		ok     bool
	}{
		{"04:59", 0, false},
		{"05:00", 5, true},
		{"05:29", 5, true},
		{"06:29", 5, true},
		{"06:30", 6, true},
		{"12:45", 12, true},
		{"22:59", 22, true},
		{"23:00", 22, true},
		{"23:01", 0, false},
	}
	for _, tc := range cases {
		ts, err := time.Parse("15:04", tc.clock)
		require.NoError(t, err)
		bucket, ok := hourBucket(ts)
		assert.Equal(t, tc.ok, ok, tc.clock)
		if tc.ok {
			assert.Equal(t, tc.bucket, bucket, tc.clock)
		}
	}
}

func TestSignInHistogramIsSymmetricAndClamped(t *testing.T) {
	t.Parallel()

	var records []reservation.RideRecord
	// 40 records with deltas -5..34 plus one far outlier.
	for i := 0; i < 40; i++ {
		delta := i - 5
		records = append(records, reservation.RideRecord{
			ResourceName:    "燕园→新燕园",
			AppointmentTime: "2026-10-01 08:00",
			StatusName:      "Signed",
			SignInTime:      time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC).Add(time.Duration(delta) * time.Minute).Format("2006-01-02 15:04:05"),
		})
	}
	records = append(records,
		reservation.RideRecord{ResourceName: "x", AppointmentTime: "2026-10-01 08:00", StatusName: "Cancelled", SignInTime: "2026-10-01 10:00:00"},
		reservation.RideRecord{ResourceName: "x", AppointmentTime: "2026-10-01 08:00", StatusName: "Signed"},
	)

	h := newTestAggregator().Aggregate(records).SignInDeltas

	// n=41 sorted: index 1 is -4, index 39 is 34.
	assert.Equal(t, -36, h.Min)
	assert.Equal(t, 36, h.Max)
	assert.Equal(t, 41, h.Total())
	for k := range h.Buckets {
		assert.GreaterOrEqual(t, k, h.Min)
		assert.LessOrEqual(t, k, h.Max)
	}
	// the 120 minute outlier collapses into the upper boundary
	assert.Equal(t, 1, h.Buckets[36])
	assert.Equal(t, 1, h.Buckets[-5])
}

func TestSignInDeltaTruncatesTowardZero(t *testing.T) {
	t.Parallel()

	records := []reservation.RideRecord{
		{ResourceName: "r", AppointmentTime: "2026-10-01 08:00", StatusName: "Signed", SignInTime: "2026-10-01 07:58:30"},
	}
	h := newTestAggregator().Aggregate(records).SignInDeltas
	assert.Equal(t, map[int]int{-1: 1}, h.Buckets)
	assert.Equal(t, -3, h.Min)
	assert.Equal(t, 3, h.Max)
}

func TestUnparseableSignInsAreCounted(t *testing.T) {
	t.Parallel()

	records := []reservation.RideRecord{
		{ResourceName: "r", AppointmentTime: "2026-10-01 08:00", StatusName: "Signed", SignInTime: "2026-10-01 07:59:00"},
		{ResourceName: "r", AppointmentTime: "yesterday", StatusName: "Signed", SignInTime: "2026-10-01 07:59:00"},
		{ResourceName: "r", AppointmentTime: "2026-10-01 08:00", StatusName: "Signed", SignInTime: "soon"},
		{ResourceName: "r", AppointmentTime: "2026-10-01 08:00", StatusName: "Signed"},
	}
	stats := newTestAggregator().Aggregate(records)
	assert.Equal(t, 1, stats.SignInDeltas.Total())
	assert.Equal(t, 2, stats.SkippedSignIns)
	assert.Equal(t, 3, stats.SignInDeltas.Total()+stats.SkippedSignIns, "every non-empty sign-in is either plotted or counted as skipped")
}

func TestIsOutbound(t *testing.T) {
	t.Parallel()

	a := newTestAggregator()
	for name, want := range map[string]bool{
		"燕园→新燕园": true,
		"新燕园→燕园": false,
		"燕园校区":   true,
		"新校区":    false,
		"unknown": false,
	} {
		assert.Equal(t, want, a.isOutbound(name), fmt.Sprintf("route %q", name))
	}
}
