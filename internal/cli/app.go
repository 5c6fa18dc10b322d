// Package cli implements adminctl, the operator command line over the admin
// API data layer. Commands drive the same session service and entity stores
// a dashboard view would.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/marketplace-admin/console/internal/core/service"
	"github.com/marketplace-admin/console/internal/core/store"
	"github.com/marketplace-admin/console/internal/infrastructure/apiclient"
	"github.com/marketplace-admin/console/internal/infrastructure/csrf"
	"github.com/marketplace-admin/console/internal/pkg/config"
)

// App holds what a single adminctl invocation needs. Zero fields fall back to
// the process defaults (stdio, $HOME, the OS environment).
type App struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
	// Home replaces os.UserHomeDir for the config file and cookie store.
	Home string
	// Env replaces the OS environment for go-envconfig.
	Env envconfig.Lookuper
	Log zerolog.Logger

	v        *viper.Viper
	settings Settings
	cookies  *cookieStore

	client   *apiclient.Client
	sessions *service.SessionService
	users    *service.UserResourceService
}

// Execute runs adminctl with args and returns the first error.
func (a *App) Execute(ctx context.Context, args []string) error {
	root := NewRootCommand(a)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (a *App) defaults() error {
	if a.In == nil {
		a.In = os.Stdin
	}
	if a.Out == nil {
		a.Out = os.Stdout
	}
	if a.Err == nil {
		a.Err = os.Stderr
	}
	if a.Env == nil {
		a.Env = envconfig.OsLookuper()
	}
	if a.Home == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("locate home directory: %w", err)
		}
		a.Home = home
	}
	return nil
}

// connect builds the request pipeline: cookie jar restored from disk, CSRF
// interceptor sharing that jar, then the services on top.
func (a *App) connect(ctx context.Context) error {
	cfg, err := config.LoadWith(ctx, a.Env)
	if err != nil {
		return err
	}
	a.settings, err = loadSettings(a.v, cfg.API, a.Home)
	if err != nil {
		return err
	}
	a.Log = a.Log.Level(a.settings.logLevel())

	client, err := apiclient.New(apiclient.Options{
		BaseURL: a.settings.APIURL,
		Timeout: a.settings.Timeout,
	}, a.Log)
	if err != nil {
		return err
	}

	a.cookies = newCookieStore(filepath.Join(a.Home, ".adminctl", "cookies.json"))
	if err := a.cookies.Load(client.Jar(), client.BaseURL()); err != nil {
		a.Log.Warn().Err(err).Msg("ignoring unreadable cookie store")
	}

	var doc csrf.DocumentSource
	if a.settings.DashboardURL != "" {
		doc = csrf.NewPageDocument(a.settings.DashboardURL, &http.Client{Jar: client.Jar(), Timeout: a.settings.Timeout})
	}
	client.UseTokenResolver(csrf.NewResolver(client.Jar(), client.BaseURL(), doc, client, a.Log))

	a.client = client
	a.sessions = service.NewSessionService(client, a.Log)
	a.users = service.NewUserResourceService(client, a.Log)
	return nil
}

// persist writes the jar back so the next invocation reuses the session.
func (a *App) persist() error {
	if a.client == nil {
		return nil
	}
	return a.cookies.Save(a.client.Jar(), a.client.BaseURL())
}

func (a *App) storeOptions() store.Options {
	return store.Options{SearchDebounce: a.settings.SearchDebounce}
}

// NewRootCommand assembles the command tree bound to a.
func NewRootCommand(a *App) *cobra.Command {
	a.v = viper.New()

	root := &cobra.Command{
		Use:           "adminctl",
		Short:         "Marketplace admin console from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.defaults(); err != nil {
				return err
			}
			cmd.SetOut(a.Out)
			cmd.SetErr(a.Err)
			return a.connect(cmd.Context())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.persist()
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default is $HOME/.adminctl.yaml)")
	flags.String("api-url", "", "admin API base URL (overrides ADMIN_API_BASE_URL)")
	flags.StringP("output", "o", "table", "output format (table, json, yaml)")
	flags.BoolP("verbose", "v", false, "log requests to stderr")

	_ = a.v.BindPFlag(keyConfig, flags.Lookup("config"))
	_ = a.v.BindPFlag(keyAPIURL, flags.Lookup("api-url"))
	_ = a.v.BindPFlag(keyOutput, flags.Lookup("output"))
	_ = a.v.BindPFlag(keyVerbose, flags.Lookup("verbose"))

	root.AddCommand(newLoginCmd(a), newLogoutCmd(a), newStatusCmd(a), newUsersCmd(a))
	return root
}
