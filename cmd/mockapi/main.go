// Command mockapi runs the reference admin backend the console data layer
// talks to.
//
// @title        Marketplace Admin API
// @version      1.0
// @description  Reference backend for the marketplace admin console data layer.
// @BasePath     /api
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	_ "github.com/marketplace-admin/console/docs"
	"github.com/marketplace-admin/console/internal/api"
	"github.com/marketplace-admin/console/internal/api/handler"
	"github.com/marketplace-admin/console/internal/core/domain"
	"github.com/marketplace-admin/console/internal/core/ports"
	"github.com/marketplace-admin/console/internal/core/service"
	"github.com/marketplace-admin/console/internal/infrastructure/db/memory"
	"github.com/marketplace-admin/console/internal/infrastructure/db/mongo"
	"github.com/marketplace-admin/console/internal/infrastructure/db/redis"
	"github.com/marketplace-admin/console/internal/infrastructure/queue"
	"github.com/marketplace-admin/console/internal/pkg/config"
	"github.com/marketplace-admin/console/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad(ctx)
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, App: "mockapi"})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("mockapi stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	checks := map[string]handler.CheckFunc{}

	// --- Storage ---
	var (
		users      ports.UserRepository
		lifecycles ports.LifecycleRepository
		revoker    ports.SessionRevoker
	)
	if cfg.Mongo.URI != "" {
		store, err := mongo.Open(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database, AppName: "mockapi"})
		if err != nil {
			return err
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = store.Close(closeCtx)
		}()
		users, lifecycles = store.Users, store.Lifecycles
		checks["mongodb"] = store.Ping
		log.Info().Str("database", cfg.Mongo.Database).Msg("using mongodb repositories")
	} else {
		users, lifecycles = memory.NewUserRepository(), memory.NewLifecycleRepository()
		log.Warn().Msg("MONGO_URI not set, using in-memory repositories")
	}

	if cfg.Redis.Addr != "" {
		rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer rdb.Close()
		revoker = redis.NewRevoker(rdb)
		checks["redis"] = func(ctx context.Context) error { return pingRedis(ctx, rdb) }
	} else {
		revoker = memory.NewRevoker()
	}

	// --- Services ---
	dispatcher := queue.NewDispatcher(cfg.Server.Workers, service.NewLifecycleService(lifecycles, log), log)
	dispatcher.Start(context.WithoutCancel(ctx))
	defer dispatcher.Stop()

	directory := service.NewDirectoryService(users, dispatcher, log)
	accounts := service.NewAccountService(users, revoker, cfg.Server.JWTSecret, cfg.Server.SessionTTL, log)

	if err := seedAdmin(ctx, directory, cfg.Server, log); err != nil {
		return err
	}

	e := api.NewRouter(api.Deps{
		Accounts:      accounts,
		Directory:     directory,
		Checks:        checks,
		BasePath:      cfg.Server.BasePath,
		SessionTTL:    cfg.Server.SessionTTL,
		SecureCookies: cfg.Server.SecureCookies,
		Log:           log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("base_path", cfg.Server.BasePath).Msg("mockapi listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
		_ = srv.Close()
	}
	log.Info().Msg("mockapi stopped gracefully")
	return nil
}

// seedAdmin makes sure an admin account exists. Without SEED_ADMIN_PASSWORD a
// random password is generated and logged once.
func seedAdmin(ctx context.Context, directory *service.DirectoryService, cfg config.ServerConfig, log zerolog.Logger) error {
	password := cfg.AdminPassword
	generated := password == ""
	if generated {
		password = uuid.NewString()
	}

	_, err := directory.Create(ctx, domain.UserInput{
		Username:        cfg.AdminUsername,
		Email:           cfg.AdminUsername + "@localhost",
		FirstName:       "Admin",
		LastName:        "User",
		Password:        password,
		PasswordConfirm: password,
		UserType:        domain.UserTypeAdmin,
	})
	var verr *domain.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &verr) && len(verr.Fields["username"]) > 0:
		log.Info().Str("username", cfg.AdminUsername).Msg("admin account already present")
		return nil
	default:
		return err
	}

	ev := log.Info().Str("username", cfg.AdminUsername)
	if generated {
		ev = ev.Str("password", password)
	}
	ev.Msg("admin account seeded")
	return nil
}

func pingRedis(ctx context.Context, rdb *goredis.Client) error {
	return rdb.Ping(ctx).Err()
}
