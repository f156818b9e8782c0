package usecases

import (
	"context"
	"time"

	"github.com/example/shuttle-pass/internal/domain/history"
	"github.com/example/shuttle-pass/internal/domain/reservation"
)

// HistoryService fetches past rides and aggregates them.
type HistoryService struct {
	Login  LoginService
	Source reservation.HistorySource
	// Template carries markers and the cancelled status; Today is set per call.
	Template history.Aggregator
	Now      func() time.Time
}

// Rides returns the user's full ride history from the provider.
func (s HistoryService) Rides(ctx context.Context) ([]reservation.RideRecord, error) {
	sess, err := s.Login.SilentLogin(ctx)
	if err != nil {
		return nil, err
	}
	return s.Source.RideHistory(ctx, sess)
}

// Statistics fetches the history and aggregates it.
func (s HistoryService) Statistics(ctx context.Context) (history.Statistics, error) {
	rides, err := s.Rides(ctx)
	if err != nil {
		return history.Statistics{}, err
	}
	return s.Aggregate(rides), nil
}

// Aggregate computes statistics for records obtained elsewhere, e.g. a CSV export.
func (s HistoryService) Aggregate(records []reservation.RideRecord) history.Statistics {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	a := s.Template
	if a.CancelledStatus == "" && a.OutboundMarker == "" && a.ReturnMarker == "" {
		a = history.NewAggregator(now)
	}
	a.Today = now
	if a.Location == nil {
		a.Location = now.Location()
	}
	return a.Aggregate(records)
}
