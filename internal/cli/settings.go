package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/marketplace-admin/console/internal/pkg/config"
)

const (
	keyConfig       = "config"
	keyAPIURL       = "api_url"
	keyTimeout      = "timeout"
	keyDashboardURL = "dashboard_url"
	keyDebounce     = "search_debounce"
	keyOutput       = "output"
	keyVerbose      = "verbose"
)

// Settings is the effective CLI configuration: environment first, then the
// config file, then flags.
type Settings struct {
	APIURL         string
	Timeout        time.Duration
	DashboardURL   string
	SearchDebounce time.Duration
	Output         string
	Verbose        bool
}

func (s Settings) logLevel() zerolog.Level {
	if s.Verbose {
		return zerolog.DebugLevel
	}
	return zerolog.WarnLevel
}

func loadSettings(v *viper.Viper, api config.APIConfig, home string) (Settings, error) {
	v.SetDefault(keyAPIURL, api.BaseURL)
	v.SetDefault(keyTimeout, api.Timeout)
	v.SetDefault(keyDashboardURL, api.DashboardURL)
	v.SetDefault(keyDebounce, api.SearchDebounce)
	v.SetDefault(keyOutput, "table")

	if file := v.GetString(keyConfig); file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(home)
		v.SetConfigName(".adminctl")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || v.GetString(keyConfig) != "" {
			return Settings{}, fmt.Errorf("read config %s: %w", filepath.Base(v.ConfigFileUsed()), err)
		}
	}

	s := Settings{
		APIURL:         v.GetString(keyAPIURL),
		Timeout:        v.GetDuration(keyTimeout),
		DashboardURL:   v.GetString(keyDashboardURL),
		SearchDebounce: v.GetDuration(keyDebounce),
		Output:         v.GetString(keyOutput),
		Verbose:        v.GetBool(keyVerbose),
	}
	switch s.Output {
	case "table", "json", "yaml":
	default:
		return Settings{}, fmt.Errorf("unknown output format %q", s.Output)
	}
	return s, nil
}
