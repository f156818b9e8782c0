package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/shuttle-pass/internal/application/usecases"
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var username string
	var passwordStdin bool
	c := &cobra.Command{
		Use:   "login",
		Short: "Log in to the shuttle service and remember the credentials",
		Long:  "Log in to the shuttle service. The credentials are only stored after the service accepts them. The password is read from stdin with --password-stdin or from SHUTTLE_PASSWORD.",
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			password := os.Getenv("SHUTTLE_PASSWORD")
			if passwordStdin {
				pw, err := readLine(cmd)
				if err != nil {
					return err
				}
				password = pw
			}
			if password == "" {
				return errors.New("no password given (use --password-stdin or SHUTTLE_PASSWORD)")
			}
			if _, err := a.login().Login(cmd.Context(), strings.TrimSpace(username), password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", username)
			return nil
		}),
	}
	c.Flags().StringVar(&username, "username", "", "campus account username")
	c.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	_ = c.MarkFlagRequired("username")
	return c
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credentials",
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			if err := a.login().Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		}),
	}
}

func newPingCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the stored credentials still log in",
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			took, err := usecases.PingProvider{Login: a.login()}.Execute(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "shuttle: ok (%s)\n", took.Round(time.Millisecond))
			return nil
		}),
	}
}
