package usecases

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/example/shuttle-pass/internal/domain/reservation"
)

const defaultNearbyParallelism = 4

// Card is the state of one departure in the nearby view.
type Card struct {
	Candidate reservation.Candidate
	Outcome   Outcome
	Err       error
}

// RunAll acquires every candidate concurrently. Each card succeeds or fails
// on its own; one error never stops the others.
func (p Pipeline) RunAll(ctx context.Context, s reservation.Session, candidates []reservation.Candidate) []Card {
	cards := make([]Card, len(candidates))
	var g errgroup.Group
	g.SetLimit(defaultNearbyParallelism)
	for i, c := range candidates {
		g.Go(func() error {
			out, err := p.Run(ctx, s, c)
			cards[i] = Card{Candidate: c, Outcome: out, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return cards
}
