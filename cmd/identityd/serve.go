package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	goIdentity "github.com/MrEthical07/goIdentity"
	"github.com/MrEthical07/goIdentity/internal/config"
	"github.com/MrEthical07/goIdentity/internal/fieldcrypt"
	"github.com/MrEthical07/goIdentity/internal/httpapi"
	promexport "github.com/MrEthical07/goIdentity/metrics/export/prometheus"
	"github.com/MrEthical07/goIdentity/store/memory"
	"github.com/MrEthical07/goIdentity/store/postgres"
	"github.com/MrEthical07/goIdentity/store/redisstore"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().String("store", config.StoreMemory, "user store: memory, redis or postgres")
	cmd.Flags().String("dsn", "", "postgres DSN")
	cmd.Flags().String("redis-addr", "", "redis address")
	cmd.Flags().String("key-path", "", "PEM private key path; empty means an ephemeral key")
	cmd.Flags().Duration("token-ttl", 0, "token lifetime")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log, cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := openDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	engine, err := goIdentity.New().
		WithConfig(cfg.Config).
		WithUserStore(deps.store).
		WithRedis(deps.redis).
		WithLogger(logger).
		WithAuditSink(goIdentity.NewLogSink(logger)).
		Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	codec, err := fieldcrypt.New(fieldcrypt.Mode(cfg.Fields.Mode), cfg.Fields.Secret)
	if err != nil {
		return err
	}

	opts := httpapi.Options{
		Service: engine,
		Codec:   codec,
		Logger:  logger,
		Health:  deps.health,
	}
	if cfg.Metrics.Enabled {
		opts.Metrics = promexport.NewPrometheusExporter(engine).Handler()
	}

	gin.SetMode(gin.ReleaseMode)
	router, err := httpapi.NewRouter(opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Str("store", cfg.Store.Driver).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

type serveDeps struct {
	store  goIdentity.UserStore
	redis  redis.UniversalClient
	pool   *pgxpool.Pool
	health map[string]httpapi.HealthCheck
}

func (d *serveDeps) Close() {
	if d.redis != nil {
		_ = d.redis.Close()
	}
	if d.pool != nil {
		d.pool.Close()
	}
}

// openDeps connects the configured store and, when needed, Redis.
func openDeps(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*serveDeps, error) {
	deps := &serveDeps{health: map[string]httpapi.HealthCheck{}}

	if cfg.NeedsRedis() {
		deps.redis = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{cfg.Redis.Addr},
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		client := deps.redis
		deps.health["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
	}

	switch cfg.Store.Driver {
	case config.StoreMemory:
		logger.Warn().Msg("using the in-memory user store; identities are lost on restart")
		deps.store = memory.New()

	case config.StoreRedis:
		deps.store = redisstore.New(deps.redis, cfg.Store.Prefix)

	case config.StorePostgres:
		if cfg.Store.Migrate {
			if err := postgres.Migrate(cfg.Store.DSN); err != nil {
				deps.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
			logger.Info().Msg("database migrations applied")
		}

		pool, err := postgres.Connect(ctx, postgres.ConnectConfig{
			DSN:         cfg.Store.DSN,
			MaxRetries:  cfg.Store.Retries,
			BaseBackoff: cfg.Store.BaseBackoff,
		}, logger)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.pool = pool
		deps.store = postgres.New(pool)
		deps.health["postgres"] = pool.Ping

	default:
		deps.Close()
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	return deps, nil
}
