package main

import (
	"context"
	"database/sql"
	"delivery-sim-service/internal/adapters/repositories"
	"delivery-sim-service/internal/config"
	"delivery-sim-service/internal/platform/db"
	"delivery-sim-service/internal/platform/logging"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	if _, err := logging.Setup(config.Get("LOG_LEVEL", "info"), true); err != nil {
		log.Fatal().Err(err).Msg("setup logging")
	}
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found (using environment variables)")
	}

	databaseURL := config.Get("DATABASE_URL", "")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal().Msg("DATABASE_URL is required")
	}

	conn, dialect, err := db.Open(config.Get("DB_DRIVER", string(db.Postgres)), databaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer conn.Close()

	seedPath := config.Get("SEED_PATH", "data/seeds/packages.json")
	if err := initAndSeed(context.Background(), conn, dialect, seedPath); err != nil {
		log.Fatal().Err(err).Msg("init and seed")
	}
}

func initAndSeed(ctx context.Context, conn *sql.DB, dialect db.Dialect, seedPath string) error {
	log.Info().Str("dialect", string(dialect)).Msg("initializing database schema")
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	log.Info().Msg("schema ready")

	log.Info().Str("seed", seedPath).Msg("seeding database")
	if err := repositories.SeedFromJSON(ctx, conn, dialect, seedPath); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	log.Info().Msg("seeding complete")

	return nil
}
