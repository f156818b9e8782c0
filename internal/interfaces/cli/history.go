package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/shuttle-pass/internal/domain/history"
	"github.com/example/shuttle-pass/internal/infrastructure/ridecsv"
	"github.com/example/shuttle-pass/internal/interfaces/render"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Ride history statistics and export",
	}
	cmd.AddCommand(newHistoryStatsCmd(opts), newHistoryExportCmd(opts))
	return cmd
}

func newHistoryStatsCmd(opts *rootOptions) *cobra.Command {
	var from string
	c := &cobra.Command{
		Use:   "stats",
		Short: "Aggregate ride history by route, hour, status and sign-in offset",
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			svc := a.history()
			var st history.Statistics
			if from != "" {
				f, err := os.Open(from)
				if err != nil {
					return err
				}
				defer f.Close()
				rides, err := ridecsv.Read(f)
				if err != nil {
					return err
				}
				st = svc.Aggregate(rides)
			} else {
				var err error
				if st, err = svc.Statistics(cmd.Context()); err != nil {
					return err
				}
			}
			return emit(cmd, opts, st, func() string { return render.Stats(st) })
		}),
	}
	c.Flags().StringVar(&from, "from", "", "aggregate a CSV export instead of fetching the history")
	return c
}

func newHistoryExportCmd(opts *rootOptions) *cobra.Command {
	var out string
	c := &cobra.Command{
		Use:   "export",
		Short: "Write the full ride history as CSV",
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			rides, err := a.history().Rides(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := ridecsv.Write(w, rides); err != nil {
				return err
			}
			if out != "" && out != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rides to %s\n", len(rides), out)
			}
			return nil
		}),
	}
	c.Flags().StringVarP(&out, "out", "o", "-", "output file, - for stdout")
	return c
}
