package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hackgods/healsync/internal/api"
	"github.com/hackgods/healsync/internal/appointment"
	"github.com/hackgods/healsync/internal/config"
	"github.com/hackgods/healsync/internal/db"
	"github.com/hackgods/healsync/internal/logging"
	redisclient "github.com/hackgods/healsync/internal/redis"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "api-server",
		Short: "HealSync appointment API",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			logger := logging.New(cfg.Env)

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, db.PoolOptions{MaxConns: 2})
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := db.Migrate(ctx, pool)
			if err != nil {
				return err
			}
			logger.Info().Strs("applied", applied).Msg("migrations complete")
			return nil
		},
	}
}

func runServer(migrate bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := logging.New(cfg.Env).With().Str("service", "api-server").Logger()
	logger.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, db.PoolOptions{})
	cancelPg()
	if err != nil {
		return err
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	if migrate {
		applied, err := db.Migrate(rootCtx, pgPool)
		if err != nil {
			return err
		}
		logger.Info().Strs("applied", applied).Msg("migrations complete")
	}

	rdb, err := redisclient.NewRedisClient(rootCtx, redisclient.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing redis")
		}
	}()
	logger.Info().Str("addr", cfg.RedisAddr).Msg("connected to Redis")

	repo := appointment.NewPgRepository(pgPool)
	locker := redisclient.NewRedisDoctorLocker(rdb, cfg.LockTTL)
	svc := appointment.NewService(repo, locker, cfg, logger)

	router := api.NewRouter(api.RouterConfig{
		Service:  svc,
		Postgres: pgPool,
		Redis:    api.RedisPinger{Client: rdb},
		Logger:   logger,
		Env:      cfg.Env,
		Version:  version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-rootCtx.Done():
	}

	return shutdown(srv, cfg.ShutdownTimeout, logger)
}

func shutdown(srv *http.Server, timeout time.Duration, logger zerolog.Logger) error {
	logger.Info().Dur("timeout", timeout).Msg("shutting down api-server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info().Msg("api-server stopped")
	return nil
}
