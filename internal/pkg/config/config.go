package config

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	API    APIConfig
	Server ServerConfig
	Mongo  MongoConfig
	Redis  RedisConfig
}

// APIConfig is read by the client-side data layer.
type APIConfig struct {
	BaseURL string        `env:"ADMIN_API_BASE_URL, default=http://localhost:8080/api"`
	Timeout time.Duration `env:"ADMIN_API_TIMEOUT,  default=15s"`
	// DashboardURL points at the HTML page whose <meta name="csrf-token">
	// is the second CSRF source. Empty disables that source.
	DashboardURL   string        `env:"ADMIN_DASHBOARD_URL"`
	SearchDebounce time.Duration `env:"ADMIN_SEARCH_DEBOUNCE, default=300ms"`
}

// ServerConfig is read by the reference backend only.
type ServerConfig struct {
	Port          string        `env:"PORT,           default=8080"`
	BasePath      string        `env:"API_BASE_PATH,  default=/api"`
	JWTSecret     string        `env:"JWT_SECRET,     default=dev-only-session-secret"`
	SessionTTL    time.Duration `env:"SESSION_TTL,    default=12h"`
	Workers       int           `env:"LIFECYCLE_WORKERS, default=4"`
	AdminUsername string        `env:"SEED_ADMIN_USERNAME, default=admin"`
	AdminPassword string        `env:"SEED_ADMIN_PASSWORD"`
	SecureCookies bool          `env:"SECURE_COOKIES, default=false"`
}

// MongoConfig is optional: an empty URI selects in-memory repositories.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB, default=marketplace_admin"`
}

// RedisConfig is optional: an empty address selects the in-memory revocation store.
type RedisConfig struct {
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB, default=0"`
}

// Load reads configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration from an arbitrary lookuper (tests use
// envconfig.MapLookuper).
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.API.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// MustLoad is Load for binaries that cannot start without configuration.
func MustLoad(ctx context.Context) *Config {
	cfg, err := Load(ctx)
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c APIConfig) validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("ADMIN_API_BASE_URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("ADMIN_API_BASE_URL: unsupported scheme %q", u.Scheme)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("ADMIN_API_TIMEOUT must be positive")
	}
	return nil
}
