// Package scheduler drives refresh cycles: manual refreshes on demand and a
// background refresh after a period without activity.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/example/shuttle-pass/internal/application/usecases"
)

const DefaultIdleAfter = 10 * time.Minute

// CycleFunc runs one refresh cycle. It must stop promptly when ctx is cancelled.
type CycleFunc func(ctx context.Context) (usecases.Report, error)

// NearbyFunc runs one nearby-departures cycle.
type NearbyFunc func(ctx context.Context) (usecases.NearbyReport, error)

var ErrNoNearby = errors.New("scheduler: nearby cycle not configured")

// Scheduler keeps at most one cycle in flight. A manual refresh or nearby run
// cancels the cycle in flight and waits for it to unwind before starting its
// own; a background trigger while a cycle is in flight does nothing.
type Scheduler struct {
	cycle     CycleFunc
	nearby    NearbyFunc
	idleAfter time.Duration
	logger    *slog.Logger
	onResult  func(usecases.Report)

	slot    chan struct{}
	touched chan struct{}

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// New builds a Scheduler. onResult, if set, receives successful background results.
func New(cycle CycleFunc, idleAfter time.Duration, logger *slog.Logger, onResult func(usecases.Report)) *Scheduler {
	if idleAfter <= 0 {
		idleAfter = DefaultIdleAfter
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{
		cycle:     cycle,
		idleAfter: idleAfter,
		logger:    logger,
		onResult:  onResult,
		slot:      make(chan struct{}, 1),
		touched:   make(chan struct{}, 1),
	}
}

// Touch records activity and restarts the idle timer.
func (s *Scheduler) Touch() {
	select {
	case s.touched <- struct{}{}:
	default:
	}
}

// WithNearby lets Nearby share the in-flight slot with refresh cycles.
func (s *Scheduler) WithNearby(fn NearbyFunc) *Scheduler {
	s.nearby = fn
	return s
}

// Refresh runs a cycle now, cancelling any stale one.
func (s *Scheduler) Refresh(ctx context.Context) (usecases.Report, error) {
	var rep usecases.Report
	err := s.exclusive(ctx, func(ctx context.Context) error {
		var err error
		rep, err = s.cycle(ctx)
		return err
	})
	return rep, err
}

// Nearby runs a nearby-departures cycle in the same slot as Refresh, so it
// cancels a stale cycle and holds off background refreshes.
func (s *Scheduler) Nearby(ctx context.Context) (usecases.NearbyReport, error) {
	if s.nearby == nil {
		return usecases.NearbyReport{}, ErrNoNearby
	}
	var rep usecases.NearbyReport
	err := s.exclusive(ctx, func(ctx context.Context) error {
		var err error
		rep, err = s.nearby(ctx)
		return err
	})
	return rep, err
}

// exclusive cancels the cycle in flight, waits for the slot and runs fn in it.
func (s *Scheduler) exclusive(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	gen := s.register(cancel)
	s.mu.Unlock()
	defer s.release(gen)

	select {
	case s.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.slot }()

	s.Touch()
	return fn(ctx)
}

// Run fires a background cycle whenever IdleAfter passes without Touch, until
// ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	timer := time.NewTimer(s.idleAfter)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.touched:
		case <-timer.C:
			s.background(ctx)
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(s.idleAfter)
	}
}

// background runs a cycle unless one is in flight or a manual refresh is
// waiting. Errors are logged, never returned.
func (s *Scheduler) background(ctx context.Context) bool {
	select {
	case s.slot <- struct{}{}:
	default:
		s.logger.Debug("background refresh skipped, cycle in flight")
		return false
	}
	defer func() { <-s.slot }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		s.logger.Debug("background refresh skipped, manual refresh pending")
		return false
	}
	gen := s.register(cancel)
	s.mu.Unlock()
	defer s.release(gen)

	rep, err := s.cycle(ctx)
	if err != nil {
		s.logger.Warn("background refresh failed", "cycle", rep.CycleID, "err", err)
		return true
	}
	s.logger.Info("background refresh done", "cycle", rep.CycleID, "route", rep.Outcome.Result.RouteName)
	if s.onResult != nil {
		s.onResult(rep)
	}
	return true
}

// register must be called with mu held.
func (s *Scheduler) register(cancel context.CancelFunc) uint64 {
	s.gen++
	s.cancel = cancel
	return s.gen
}

func (s *Scheduler) release(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen {
		s.cancel = nil
	}
}
