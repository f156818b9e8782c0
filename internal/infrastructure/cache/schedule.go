package cache

import (
	"context"
	"errors"
	"time"

	"github.com/bluele/gcache"

	"github.com/example/shuttle-pass/internal/domain/reservation"
)

const (
	memEntries = 16
	memTTL     = 10 * time.Minute
)

// ScheduleCache serves recent schedules from memory and falls back to SQLite.
type ScheduleCache struct {
	mem   gcache.Cache
	store *Store
}

func NewScheduleCache(store *Store) *ScheduleCache {
	return &ScheduleCache{
		mem:   gcache.New(memEntries).LRU().Expiration(memTTL).Build(),
		store: store,
	}
}

func (c *ScheduleCache) Put(ctx context.Context, date string, resources []reservation.Resource) error {
	if err := c.store.PutSchedule(ctx, date, resources); err != nil {
		return err
	}
	return c.mem.Set(date, resources)
}

func (c *ScheduleCache) Get(ctx context.Context, date string) ([]reservation.Resource, error) {
	if v, err := c.mem.Get(date); err == nil {
		return v.([]reservation.Resource), nil
	} else if !errors.Is(err, gcache.KeyNotFoundError) {
		return nil, err
	}
	resources, err := c.store.GetSchedule(ctx, date)
	if err != nil {
		return nil, err
	}
	_ = c.mem.Set(date, resources)
	return resources, nil
}
