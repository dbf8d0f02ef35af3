package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/healsync/internal/appointment"
	"github.com/hackgods/healsync/internal/config"
	"github.com/hackgods/healsync/internal/db"
	"github.com/hackgods/healsync/internal/logging"
	redisclient "github.com/hackgods/healsync/internal/redis"
)

type completer interface {
	CompleteElapsedAppointments(ctx context.Context) (int, error)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New("")
		bootLogger.Fatal().Err(err).Msg("config load error")
	}

	logger := logging.New(cfg.Env).With().Str("service", "completion-worker").Logger()
	logger.Info().Str("env", cfg.Env).Dur("interval", cfg.WorkerInterval).Msg("completion worker starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, db.PoolOptions{MaxConns: 4})
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(rootCtx, redisclient.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
		PoolSize: 2,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing redis")
		}
	}()

	repo := appointment.NewPgRepository(pgPool)
	locker := redisclient.NewRedisDoctorLocker(rdb, cfg.LockTTL)
	svc := appointment.NewService(repo, locker, cfg, logger)

	run(rootCtx, svc, cfg.WorkerInterval, logger)
}

// run completes elapsed appointments once at startup and then on every
// tick until ctx is done.
func run(ctx context.Context, svc completer, interval time.Duration, logger zerolog.Logger) {
	runOnce(ctx, svc, logger)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutdown signal received, stopping completion worker")
			return
		case <-ticker.C:
			runOnce(ctx, svc, logger)
		}
	}
}

func runOnce(ctx context.Context, svc completer, logger zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	n, err := svc.CompleteElapsedAppointments(runCtx)
	if err != nil {
		logger.Error().Err(err).Msg("completion run error")
		return
	}
	logger.Info().Int("completed", n).Dur("took", time.Since(start)).Msg("completion run complete")
}
