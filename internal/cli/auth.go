package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marketplace-admin/console/internal/core/domain"
)

func newLoginCmd(a *App) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Open a session and remember it for later commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if username == "" {
				if username, err = prompt(a.In, a.Err, "Username: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = prompt(a.In, a.Err, "Password: "); err != nil {
					return err
				}
			}

			res, err := a.sessions.Login(cmd.Context(), domain.Credentials{
				Username: strings.TrimSpace(username),
				Password: password,
			})
			if err != nil {
				var le *domain.LoginError
				if errors.As(err, &le) {
					return errors.New(le.Message)
				}
				return err
			}
			if res.User == nil {
				fmt.Fprintln(a.Out, "Logged in")
				return nil
			}
			fmt.Fprintf(a.Out, "Logged in as %s (%s)\n", res.User.Username, res.User.UserType)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when empty)")
	return cmd
}

func newLogoutCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Close the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// The local session is cleared even when the server call fails.
			if err := a.sessions.Logout(cmd.Context()); err != nil {
				fmt.Fprintf(a.Err, "warning: %s\n", domain.Describe(err))
			}
			fmt.Fprintln(a.Out, "Logged out")
			return nil
		},
	}
}

type statusView struct {
	Authenticated bool         `json:"authenticated"`
	User          *domain.User `json:"user,omitempty"`
	APIURL        string       `json:"api_url"`
}

func newStatusCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the saved session is still valid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.sessions.CheckAuth(cmd.Context())
			s := a.sessions.Session()
			view := statusView{Authenticated: s.IsAuthenticated, User: s.User, APIURL: a.settings.APIURL}
			return render(a.Out, a.settings.Output, view, func(tw tabWriter) {
				fmt.Fprintf(tw, "API:\t%s\n", view.APIURL)
				if !view.Authenticated {
					fmt.Fprintf(tw, "Session:\t%s\n", "not logged in")
					return
				}
				fmt.Fprintf(tw, "Session:\tlogged in as %s (%s)\n", view.User.Username, view.User.UserType)
			})
		},
	}
}
