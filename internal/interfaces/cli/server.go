package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/shuttle-pass/internal/application/scheduler"
	"github.com/example/shuttle-pass/internal/application/usecases"
	"github.com/example/shuttle-pass/internal/infrastructure/notify"
	"github.com/example/shuttle-pass/internal/interfaces/web"
)

func newServerCmd(opts *rootOptions) *cobra.Command {
	var notifyDesktop bool
	c := &cobra.Command{
		Use:   "server",
		Short: "Start the web UI with background refresh",
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			if err := a.cfg.RequireWeb(); err != nil {
				return err
			}
			tmpl, err := web.ParseTemplates()
			if err != nil {
				return err
			}

			refresher := a.refresher(nil)
			var srv *web.Server
			desktop := notify.NewDesktop(a.logger)
			sched := scheduler.New(refresher.Cycle, a.cfg.IdleRefresh, a.logger, func(rep usecases.Report) {
				srv.Publish(rep)
				if notifyDesktop {
					desktop.Boarding(rep)
				}
			}).WithNearby(refresher.Nearby)
			srv = web.New(a.cfg.ListenAddr, web.Deps{
				Scheduler:    sched,
				Schedules:    refresher,
				Stats:        a.history(),
				Log:          a.boardings,
				Sessions:     web.NewSessionManager(a.cfg.SessionHashKey, a.cfg.SessionBlockKey),
				PasswordHash: a.cfg.UIPasswordBcrypt,
				Templates:    tmpl,
				Logger:       a.logger,
				Now:          a.now,
			})

			go sched.Run(cmd.Context())
			return srv.ListenAndServe(cmd.Context())
		}),
	}
	c.Flags().BoolVar(&notifyDesktop, "notify", true, "raise a desktop notification when a background refresh gets a code")
	return c
}
