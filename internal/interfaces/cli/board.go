package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/shuttle-pass/internal/application/usecases"
	"github.com/example/shuttle-pass/internal/domain/reservation"
	"github.com/example/shuttle-pass/internal/interfaces/render"
)

type locationFlags struct {
	lat, lon float64
}

func (f *locationFlags) bind(c *cobra.Command) {
	c.Flags().Float64Var(&f.lat, "lat", 0, "current latitude; with --lon picks the direction by distance")
	c.Flags().Float64Var(&f.lon, "lon", 0, "current longitude")
	c.MarkFlagsRequiredTogether("lat", "lon")
}

// locator is nil unless both coordinates were given.
func (f *locationFlags) locator(c *cobra.Command) reservation.Locator {
	if !c.Flags().Changed("lat") || !c.Flags().Changed("lon") {
		return nil
	}
	return reservation.StaticLocator(reservation.Coordinate{Lat: f.lat, Lon: f.lon})
}

func newBoardCmd(opts *rootOptions) *cobra.Command {
	loc := &locationFlags{}
	c := &cobra.Command{
		Use:   "board",
		Short: "Pick the departure closest to now and show its boarding code",
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			rep, err := a.refresher(loc.locator(cmd)).Cycle(cmd.Context())
			if err != nil {
				return err
			}
			return emit(cmd, opts, rep, func() string { return render.Boarding(rep) })
		}),
	}
	loc.bind(c)
	return c
}

func newNearbyCmd(opts *rootOptions) *cobra.Command {
	loc := &locationFlags{}
	c := &cobra.Command{
		Use:   "nearby",
		Short: "Acquire codes for every departure inside the tolerance window",
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			rep, err := a.refresher(loc.locator(cmd)).Nearby(cmd.Context())
			if err != nil {
				return err
			}
			return emit(cmd, opts, nearbyJSON(rep), func() string { return render.Nearby(rep) })
		}),
	}
	loc.bind(c)
	return c
}

type nearbyCardJSON struct {
	Candidate reservation.Candidate       `json:"candidate"`
	Result    *reservation.BoardingResult `json:"result,omitempty"`
	Trace     []usecases.State            `json:"trace"`
	Error     string                      `json:"error,omitempty"`
}

func nearbyJSON(rep usecases.NearbyReport) any {
	cards := make([]nearbyCardJSON, 0, len(rep.Cards))
	for _, c := range rep.Cards {
		card := nearbyCardJSON{Candidate: c.Candidate, Trace: c.Outcome.Trace}
		if c.Err != nil {
			card.Error = c.Err.Error()
		} else {
			res := c.Outcome.Result
			card.Result = &res
		}
		cards = append(cards, card)
	}
	return map[string]any{"cycle_id": rep.CycleID, "direction": rep.Direction, "cards": cards}
}

func newScheduleCmd(opts *rootOptions) *cobra.Command {
	var date string
	var offline bool
	c := &cobra.Command{
		Use:   "schedule",
		Short: "List routes and departures for a date",
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			if date == "" {
				date = a.now().Format(reservation.DateLayout)
			} else if _, err := time.Parse(reservation.DateLayout, date); err != nil {
				return errors.New("--date must be YYYY-MM-DD")
			}
			resources, err := a.refresher(nil).FetchSchedule(cmd.Context(), date, offline)
			if err != nil {
				return err
			}
			return emit(cmd, opts, resources, func() string { return render.Schedule(date, resources) })
		}),
	}
	c.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default today)")
	c.Flags().BoolVar(&offline, "offline", false, "show the last fetched schedule without contacting the service")
	return c
}

func newRecentCmd(opts *rootOptions) *cobra.Command {
	var limit int
	c := &cobra.Command{
		Use:   "recent",
		Short: "Show recently issued boarding codes",
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			if limit <= 0 {
				return errors.New("--limit must be positive")
			}
			entries, err := a.boardings.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return emit(cmd, opts, entries, func() string { return render.Recent(entries) })
		}),
	}
	c.Flags().IntVar(&limit, "limit", 10, "number of entries")
	return c
}
