package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/shuttle-pass/internal/domain/reservation"
	"github.com/example/shuttle-pass/internal/internaltypes"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sample() []reservation.Resource {
	return []reservation.Resource{{ID: 2, Name: "Route 2", Slots: []reservation.Slot{
		{TimeSlotID: 1, TimeOfDay: "07:30", Date: "2024-05-06", RemainingSeats: 4},
	}}}
}

func TestScheduleRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	_, err := s.GetSchedule(ctx, "2024-05-06")
	require.ErrorIs(t, err, internaltypes.ErrNotFound)

	require.NoError(t, s.PutSchedule(ctx, "2024-05-05", nil))
	require.NoError(t, s.PutSchedule(ctx, "2024-05-06", sample()))
	got, err := s.GetSchedule(ctx, "2024-05-06")
	require.NoError(t, err)
	assert.Equal(t, sample(), got)

	n, err := s.PruneSchedules(ctx, "2024-05-06")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestScheduleCacheFallsBackToStore(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.PutSchedule(ctx, "2024-05-06", sample()))

	c := NewScheduleCache(s)
	got, err := c.Get(ctx, "2024-05-06")
	require.NoError(t, err)
	assert.Equal(t, sample(), got)
	assert.True(t, c.mem.Has("2024-05-06"))

	_, err = c.Get(ctx, "2024-05-07")
	assert.ErrorIs(t, err, internaltypes.ErrNotFound)

	require.NoError(t, c.Put(ctx, "2024-05-07", sample()))
	fresh := NewScheduleCache(s)
	got, err = fresh.Get(ctx, "2024-05-07")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestBoardingLog(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 6, 8, 0, 0, 0, time.UTC)

	require.NoError(t, s.Record(ctx, base, reservation.BoardingResult{RouteName: "A", DepartureTime: "08:00", Code: "1"}))
	require.NoError(t, s.Record(ctx, base.Add(time.Hour), reservation.BoardingResult{RouteName: "B", DepartureTime: "09:00", Code: "2", IsPastDeparture: true}))

	recent, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "B", recent[0].RouteName)
	assert.True(t, recent[0].IsPastDeparture)
	assert.True(t, base.Add(time.Hour).Equal(recent[0].AcquiredAt))
	assert.False(t, recent[1].IsPastDeparture)
}
