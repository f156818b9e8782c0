package cli

import (
	"github.com/spf13/cobra"
)

// Build metadata, set with -ldflags at release time.
var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

type rootOptions struct {
	envFile string
	json    bool
}

func NewRoot() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "shuttlepass",
		Short:         "Campus shuttle boarding pass: reserve the next departure and show its code",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "load environment from this file instead of the default .env locations")
	cmd.PersistentFlags().BoolVar(&opts.json, "json", false, "print JSON instead of formatted text")

	cmd.AddCommand(
		newVersionCmd(),
		newKeysCmd(),
		newHashPasswordCmd(),
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newPingCmd(opts),
		newBoardCmd(opts),
		newNearbyCmd(opts),
		newScheduleCmd(opts),
		newRecentCmd(opts),
		newHistoryCmd(opts),
		newSettingsCmd(opts),
		newServerCmd(opts),
	)
	return cmd
}
