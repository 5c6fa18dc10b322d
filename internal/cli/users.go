package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marketplace-admin/console/internal/core/domain"
	"github.com/marketplace-admin/console/internal/core/store"
)

// commandError shows the user-facing description of err and keeps the chain
// for errors.Is.
type commandError struct{ err error }

func (e commandError) Error() string { return domain.Describe(e.err) }
func (e commandError) Unwrap() error { return e.err }

func describe(err error) error {
	if err == nil {
		return nil
	}
	return commandError{err: err}
}

type userFlags struct {
	userType string
	search   string
}

func newUsersCmd(a *App) *cobra.Command {
	f := &userFlags{}
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "Manage clients, vendors, financial managers and support staff",
	}
	cmd.PersistentFlags().StringVarP(&f.userType, "type", "t", "", "entity type: client, vendor, financial, technical (default all users)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.store(f)
			if err != nil {
				return err
			}
			defer st.Close()

			if f.search != "" {
				err = st.Search(cmd.Context(), f.search)
			} else {
				err = st.Fetch(cmd.Context())
			}
			if err != nil {
				return describe(err)
			}
			items := st.State().Items
			return render(a.Out, a.settings.Output, items, userTable(items))
		},
	}
	list.Flags().StringVarP(&f.search, "search", "s", "", "match username, email or name")

	cmd.AddCommand(
		list,
		newUserGetCmd(a),
		newUserCreateCmd(a, f),
		newUserUpdateCmd(a, f),
		newUserDeleteCmd(a, f),
		newUserLifecycleCmd(a, f, domain.ActionSuspended),
		newUserLifecycleCmd(a, f, domain.ActionActivated),
		newUserStatsCmd(a, f),
	)
	return cmd
}

// store builds the entity store selected by --type.
func (a *App) store(f *userFlags) (*store.EntityStore, error) {
	var t domain.UserType
	if f.userType != "" {
		parsed, err := domain.ParseUserType(f.userType)
		if err != nil {
			return nil, fmt.Errorf("--type %q: %w", f.userType, err)
		}
		t = parsed
	}
	return store.ForUserType(t, a.users, a.Log, a.storeOptions())
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q", arg)
	}
	return id, nil
}

func newUserGetCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			u, err := a.users.Get(cmd.Context(), id)
			if err != nil {
				return describe(err)
			}
			return render(a.Out, a.settings.Output, u, userDetail(u))
		},
	}
}

// formFlags registers the user form fields on cmd.
func formFlags(cmd *cobra.Command, in *domain.UserInput) {
	fl := cmd.Flags()
	fl.String("user-type", "", "user type when no --type store is selected, or to move a user")
	fl.StringVar(&in.Username, "username", "", "username")
	fl.StringVar(&in.Email, "email", "", "email address")
	fl.StringVar(&in.FirstName, "first-name", "", "first name")
	fl.StringVar(&in.LastName, "last-name", "", "last name")
	fl.StringVar(&in.Password, "password", "", "password")
	fl.StringVar(&in.PasswordConfirm, "password-confirm", "", "password confirmation (defaults to --password)")
	fl.Bool("active", true, "account status")
}

func readForm(cmd *cobra.Command, in *domain.UserInput) {
	if t, _ := cmd.Flags().GetString("user-type"); t != "" {
		in.UserType = domain.UserType(t)
	}
	if in.PasswordConfirm == "" {
		in.PasswordConfirm = in.Password
	}
	if cmd.Flags().Changed("active") {
		active, _ := cmd.Flags().GetBool("active")
		in.IsActive = &active
	}
}

func newUserCreateCmd(a *App, f *userFlags) *cobra.Command {
	var in domain.UserInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user of the selected --type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.store(f)
			if err != nil {
				return err
			}
			defer st.Close()

			readForm(cmd, &in)
			u, err := st.Create(cmd.Context(), in)
			if err != nil {
				return describe(err)
			}
			return render(a.Out, a.settings.Output, u, userDetail(u))
		},
	}
	formFlags(cmd, &in)
	return cmd
}

func newUserUpdateCmd(a *App, f *userFlags) *cobra.Command {
	var in domain.UserInput
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change the given fields of a user; a blank password keeps the current one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			st, err := a.store(f)
			if err != nil {
				return err
			}
			defer st.Close()

			readForm(cmd, &in)
			u, err := st.Update(cmd.Context(), id, in)
			if err != nil {
				return describe(err)
			}
			return render(a.Out, a.settings.Output, u, userDetail(u))
		},
	}
	formFlags(cmd, &in)
	return cmd
}

func newUserDeleteCmd(a *App, f *userFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			st, err := a.store(f)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Delete(cmd.Context(), id); err != nil {
				return describe(err)
			}
			fmt.Fprintf(a.Out, "Deleted user %d\n", id)
			return nil
		},
	}
}

func newUserLifecycleCmd(a *App, f *userFlags, action domain.LifecycleAction) *cobra.Command {
	use, short := "suspend", "Suspend a user"
	if action == domain.ActionActivated {
		use, short = "activate", "Reactivate a suspended user"
	}
	return &cobra.Command{
		Use:   use + " ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			st, err := a.store(f)
			if err != nil {
				return err
			}
			defer st.Close()

			var u *domain.User
			if action == domain.ActionActivated {
				u, err = st.Activate(cmd.Context(), id)
			} else {
				u, err = st.Suspend(cmd.Context(), id)
			}
			if err != nil {
				return describe(err)
			}
			return render(a.Out, a.settings.Output, u, userDetail(u))
		},
	}
}

type statsView struct {
	Scope     string `json:"scope"`
	Total     int    `json:"total"`
	Active    int    `json:"active"`
	NewToday  int    `json:"new_today"`
	ChurnRate string `json:"churn_rate"`
	Derived   bool   `json:"derived"`
}

func newUserStatsCmd(a *App, f *userFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show header counts for the selected --type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.store(f)
			if err != nil {
				return err
			}
			defer st.Close()

			// The fallback derives numbers from the list, so load it first.
			if err := st.Fetch(cmd.Context()); err != nil {
				return describe(err)
			}
			s := st.LoadStats(cmd.Context())
			view := statsView{
				Scope:     st.Entity(),
				Total:     s.Total,
				Active:    s.Active,
				NewToday:  s.NewToday,
				ChurnRate: s.ChurnRate,
				Derived:   s.Derived,
			}
			return render(a.Out, a.settings.Output, view, statsTable(st.Entity(), s))
		},
	}
}
