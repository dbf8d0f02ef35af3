package main

import (
	"context"
	"flag"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hackgods/healsync/internal/config"
	"github.com/hackgods/healsync/internal/db"
	"github.com/hackgods/healsync/internal/logging"
)

var specialties = []string{
	"Cardiology",
	"Dermatology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

var genders = []string{"male", "female", "other"}

func main() {
	doctors := flag.Int("doctors", 40, "number of doctors to create")
	patients := flag.Int("patients", 2000, "number of patients to create")
	migrate := flag.Bool("migrate", true, "apply migrations first")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New("")
		bootLogger.Fatal().Err(err).Msg("config load error")
	}
	logger := logging.New(cfg.Env).With().Str("service", "seed").Logger()
	logger.Info().Msg("seed starting")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, db.PoolOptions{MaxConns: 4})
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	if *migrate {
		if _, err := db.Migrate(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("migrate")
		}
	}

	faker := gofakeit.New(uint64(time.Now().UnixNano()))

	if err := seedDoctors(ctx, pool, faker, *doctors, logger); err != nil {
		logger.Fatal().Err(err).Msg("seed doctors")
	}
	if err := seedPatients(ctx, pool, faker, *patients, logger); err != nil {
		logger.Fatal().Err(err).Msg("seed patients")
	}

	logger.Info().Msg("seed complete")
}

// seedDoctors spreads doctors round-robin over the specialties so every
// specialty has someone to book.
func seedDoctors(ctx context.Context, pool *pgxpool.Pool, faker *gofakeit.Faker, count int, logger zerolog.Logger) error {
	logger.Info().Int("count", count).Msg("seeding doctors")

	rows := make([][]any, 0, count)
	for i := 0; i < count; i++ {
		rows = append(rows, []any{
			uuid.New(),
			"Dr. " + faker.FirstName() + " " + faker.LastName(),
			specialties[i%len(specialties)],
		})
	}

	n, err := pool.CopyFrom(ctx,
		pgx.Identifier{"doctors"},
		[]string{"id", "name", "specialty"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return err
	}

	logger.Info().Int64("inserted", n).Msg("doctors seeded")
	return nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, faker *gofakeit.Faker, count int, logger zerolog.Logger) error {
	logger.Info().Int("count", count).Msg("seeding patients")

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		rows := make([][]any, 0, end-offset)
		for i := offset; i < end; i++ {
			rows = append(rows, []any{
				uuid.New(),
				faker.Name(),
				faker.Email(),
				faker.Number(1, 95),
				genders[faker.Number(0, len(genders)-1)],
				faker.Phone(),
			})
		}

		if _, err := pool.CopyFrom(ctx,
			pgx.Identifier{"patients"},
			[]string{"id", "name", "email", "age", "gender", "mobile_no"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return err
		}

		logger.Info().Int("seeded", end).Int("total", count).Msg("patients batch")
	}

	logger.Info().Msg("patients seeded")
	return nil
}
