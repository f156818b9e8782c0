package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/shuttle-pass/internal/domain/reservation"
)

// State is a step of one acquisition.
type State int

const (
	StateSelecting State = iota
	StatePastBranch
	StateFutureBranch
	StateQRLookup
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateSelecting:
		return "selecting"
	case StatePastBranch:
		return "past"
	case StateFutureBranch:
		return "future"
	case StateQRLookup:
		return "qr-lookup"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

const (
	DefaultLookupAttempts = 3
	DefaultLookupDelay    = time.Second
)

// Outcome carries the boarding result and the states the pipeline went through.
// Result is zero unless the last state is StateDone.
type Outcome struct {
	Result reservation.BoardingResult
	Trace  []State
}

func (o Outcome) Final() State {
	if len(o.Trace) == 0 {
		return StateSelecting
	}
	return o.Trace[len(o.Trace)-1]
}

// Pipeline turns a selected departure into a boarding code. A departed slot
// gets a temporary code; a future one is reserved, looked up in the user's
// reservations, and exchanged for its QR code.
type Pipeline struct {
	Provider reservation.BoardingProvider
	// Reservation listings to scan before giving up on a fresh booking. The
	// listing can lag behind the reserve call.
	LookupAttempts int
	LookupDelay    time.Duration
	Logger         *slog.Logger
}

func (p Pipeline) Run(ctx context.Context, s reservation.Session, c reservation.Candidate) (Outcome, error) {
	log := logger(p.Logger).With("resource", c.ResourceID, "slot", c.Slot.TimeOfDay)
	var out Outcome
	fail := func(err error) (Outcome, error) {
		log.Debug("acquisition failed", "after", out.Final(), "err", err)
		return Outcome{Trace: append(out.Trace, StateFailed)}, err
	}

	state := StateSelecting
	for {
		out.Trace = append(out.Trace, state)
		switch state {
		case StateSelecting:
			if c.IsPast() {
				state = StatePastBranch
			} else {
				state = StateFutureBranch
			}

		case StatePastBranch:
			code, err := p.Provider.TemporaryCode(ctx, s, c.ResourceID, c.Slot.TimeOfDay)
			if err != nil {
				return fail(fmt.Errorf("temporary code: %w", err))
			}
			out.Result = boarding(c, code, true)
			state = StateDone

		case StateFutureBranch:
			if err := p.Provider.Reserve(ctx, s, c.ResourceID, c.Slot.Date, c.Slot.TimeSlotID); err != nil {
				return fail(err)
			}
			log.Info("seat reserved")
			state = StateQRLookup

		case StateQRLookup:
			rec, err := p.findReservation(ctx, s, c)
			if err != nil {
				return fail(err)
			}
			code, err := p.Provider.QRCode(ctx, s, rec.ReservationID, rec.HallAppointmentDataID)
			if err != nil {
				return fail(fmt.Errorf("qr code: %w", err))
			}
			out.Result = boarding(c, code, false)
			state = StateDone

		case StateDone:
			log.Debug("acquisition done", "past", out.Result.IsPastDeparture)
			return out, nil

		default:
			return fail(fmt.Errorf("unexpected state %s", state))
		}
	}
}

// findReservation scans the confirmed reservations for the slot just booked.
// Listing errors are returned at once; only a missing match is retried.
func (p Pipeline) findReservation(ctx context.Context, s reservation.Session, c reservation.Candidate) (reservation.ReservationRecord, error) {
	attempts := p.LookupAttempts
	if attempts <= 0 {
		attempts = DefaultLookupAttempts
	}
	prefix := c.Slot.Date + " " + c.Slot.TimeOfDay

	for i := 1; i <= attempts; i++ {
		recs, err := p.Provider.Reservations(ctx, s)
		if err != nil {
			return reservation.ReservationRecord{}, fmt.Errorf("list reservations: %w", err)
		}
		for _, r := range recs {
			if r.ResourceID == c.ResourceID && strings.HasPrefix(r.AppointmentTime, prefix) {
				return r, nil
			}
		}
		if i < attempts {
			if err := sleep(ctx, p.LookupDelay); err != nil {
				return reservation.ReservationRecord{}, err
			}
		}
	}
	return reservation.ReservationRecord{}, fmt.Errorf("%w: resource %d at %s after %d listings",
		reservation.ErrNoMatchingReservation, c.ResourceID, prefix, attempts)
}

func boarding(c reservation.Candidate, code string, past bool) reservation.BoardingResult {
	return reservation.BoardingResult{
		IsPastDeparture: past,
		RouteName:       c.ResourceName,
		DepartureTime:   c.Slot.TimeOfDay,
		Code:            code,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
