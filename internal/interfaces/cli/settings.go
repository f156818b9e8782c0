package cli

import (
	"fmt"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/example/shuttle-pass/internal/infrastructure/settings"
)

func newSettingsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change refresh settings",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective settings",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig(opts)
				if err != nil {
					return err
				}
				s, err := settings.Load(cfg.SettingsPath())
				if err != nil {
					return err
				}
				return emit(cmd, opts, s, func() string {
					b, err := toml.Marshal(s)
					if err != nil {
						return err.Error()
					}
					return string(b)
				})
			},
		},
		&cobra.Command{
			Use:   "set KEY VALUE",
			Short: "Change one setting and save it",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig(opts)
				if err != nil {
					return err
				}
				path := cfg.SettingsPath()
				s, err := settings.Load(path)
				if err != nil {
					return err
				}
				if err := s.Set(args[0], args[1]); err != nil {
					return err
				}
				if err := settings.Save(path, s); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s updated\n", args[0])
				return nil
			},
		},
	)
	return cmd
}
