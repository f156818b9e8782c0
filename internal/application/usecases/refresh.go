package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/example/shuttle-pass/internal/domain/reservation"
	"github.com/example/shuttle-pass/internal/internaltypes"
)

// DirectionResolver decides which way the user travels at now.
type DirectionResolver interface {
	Resolve(ctx context.Context, now time.Time) reservation.Direction
}

// ScheduleCache keeps the last fetched schedule per date for offline viewing.
// Get returns internaltypes.ErrNotFound on a miss.
type ScheduleCache interface {
	Put(ctx context.Context, date string, resources []reservation.Resource) error
	Get(ctx context.Context, date string) ([]reservation.Resource, error)
}

// BoardingLog records every boarding code handed to the user.
type BoardingLog interface {
	Record(ctx context.Context, at time.Time, res reservation.BoardingResult) error
}

// Report describes one finished refresh cycle.
type Report struct {
	CycleID   string
	Direction reservation.Direction
	Candidate reservation.Candidate
	Outcome   Outcome
}

type NearbyReport struct {
	CycleID   string
	Direction reservation.Direction
	Cards     []Card
}

// Refresher runs the whole chain from silent login to boarding code.
// Cache, Log and Now are optional.
type Refresher struct {
	Login     LoginService
	Schedule  reservation.ScheduleSource
	Direction DirectionResolver
	Selector  reservation.Selector
	Pipeline  Pipeline
	Cache     ScheduleCache
	Log       BoardingLog
	Now       func() time.Time
	Logger    *slog.Logger
}

// Cycle performs one refresh. Stages run one after another and the first
// error ends the cycle.
func (r Refresher) Cycle(ctx context.Context) (Report, error) {
	rep := Report{CycleID: uuid.NewString()}
	log := logger(r.Logger).With("cycle", rep.CycleID)

	sess, now, resources, err := r.prepare(ctx, log)
	if err != nil {
		return rep, err
	}

	rep.Direction = r.Direction.Resolve(ctx, now)
	rep.Candidate, err = r.Selector.Select(resources, rep.Direction, now)
	if err != nil {
		log.Info("no departure", "direction", rep.Direction)
		return rep, fmt.Errorf("select departure (%s): %w", rep.Direction, err)
	}
	log.Info("departure selected",
		"direction", rep.Direction,
		"resource", rep.Candidate.ResourceName,
		"slot", rep.Candidate.Slot.TimeOfDay,
		"diff_min", rep.Candidate.TimeDifference)

	p := r.Pipeline
	p.Logger = log
	rep.Outcome, err = p.Run(ctx, sess, rep.Candidate)
	if err != nil {
		return rep, err
	}
	r.record(ctx, log, now, rep.Outcome.Result)
	return rep, nil
}

// Nearby acquires codes for every qualifying departure in the window at once.
func (r Refresher) Nearby(ctx context.Context) (NearbyReport, error) {
	rep := NearbyReport{CycleID: uuid.NewString()}
	log := logger(r.Logger).With("cycle", rep.CycleID)

	sess, now, resources, err := r.prepare(ctx, log)
	if err != nil {
		return rep, err
	}
	rep.Direction = r.Direction.Resolve(ctx, now)
	candidates := r.Selector.SelectAll(resources, rep.Direction, now)
	if len(candidates) == 0 {
		return rep, fmt.Errorf("select departures (%s): %w", rep.Direction, reservation.ErrNoDeparture)
	}
	log.Info("nearby departures", "direction", rep.Direction, "count", len(candidates))

	p := r.Pipeline
	p.Logger = log
	rep.Cards = p.RunAll(ctx, sess, candidates)
	for _, c := range rep.Cards {
		if c.Err != nil {
			log.Warn("nearby card failed", "resource", c.Candidate.ResourceName, "slot", c.Candidate.Slot.TimeOfDay, "err", c.Err)
			continue
		}
		r.record(ctx, log, now, c.Outcome.Result)
	}
	return rep, nil
}

// FetchSchedule returns the schedule for date. Offline reads only the cache.
func (r Refresher) FetchSchedule(ctx context.Context, date string, offline bool) ([]reservation.Resource, error) {
	if offline {
		if r.Cache == nil {
			return nil, fmt.Errorf("schedule cache: %w", internaltypes.ErrNotFound)
		}
		return r.Cache.Get(ctx, date)
	}
	sess, err := r.Login.SilentLogin(ctx)
	if err != nil {
		return nil, err
	}
	resources, err := r.Schedule.FetchSchedule(ctx, sess, date)
	if err != nil {
		return nil, err
	}
	r.cache(ctx, logger(r.Logger), date, resources)
	return resources, nil
}

func (r Refresher) prepare(ctx context.Context, log *slog.Logger) (reservation.Session, time.Time, []reservation.Resource, error) {
	sess, err := r.Login.SilentLogin(ctx)
	if err != nil {
		if errors.Is(err, internaltypes.ErrNotFound) {
			return sess, time.Time{}, nil, fmt.Errorf("%w (run `shuttlepass login` first)", err)
		}
		return sess, time.Time{}, nil, err
	}
	log.Debug("session ready")

	now := r.now()
	date := now.Format(reservation.DateLayout)
	resources, err := r.Schedule.FetchSchedule(ctx, sess, date)
	if err != nil {
		return sess, now, nil, err
	}
	log.Debug("schedule fetched", "date", date, "resources", len(resources))
	r.cache(ctx, log, date, resources)
	return sess, now, resources, nil
}

func (r Refresher) cache(ctx context.Context, log *slog.Logger, date string, resources []reservation.Resource) {
	if r.Cache == nil {
		return
	}
	if err := r.Cache.Put(ctx, date, resources); err != nil {
		log.Warn("cache schedule", "date", date, "err", err)
	}
}

func (r Refresher) record(ctx context.Context, log *slog.Logger, at time.Time, res reservation.BoardingResult) {
	if r.Log == nil {
		return
	}
	if err := r.Log.Record(ctx, at, res); err != nil {
		log.Warn("record boarding", "err", err)
	}
}

func (r Refresher) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
