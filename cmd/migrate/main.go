package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"

	"github.com/EpicAlbin03/hermitcraft/internal/db"
	"github.com/EpicAlbin03/hermitcraft/internal/logging"
)

func main() {
	steps := flag.Int("steps", 0, "number of migrations to roll back with down (0 = all)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: migrate [-steps N] up|down|version\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	_ = godotenv.Load()
	logger := logging.Init(os.Getenv("LOG_LEVEL"), "hermitcraft-migrate")

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		logger.Fatal().Msg("DATABASE_URL is required")
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	m, err := db.NewMigrator(url)
	if err != nil {
		logger.Fatal().Err(err).Msg("open migrator")
	}
	defer m.Close()

	switch cmd := flag.Arg(0); cmd {
	case "up":
		err = m.Up()
	case "down":
		if *steps > 0 {
			err = m.Steps(-*steps)
		} else {
			err = m.Down()
		}
	case "version":
		v, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			logger.Info().Msg("no migrations applied")
			return
		}
		if verr != nil {
			logger.Fatal().Err(verr).Msg("read version")
		}
		logger.Info().Uint("version", v).Bool("dirty", dirty).Msg("schema version")
		return
	default:
		flag.Usage()
		os.Exit(2)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info().Msg("no change")
		return
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("migration failed")
	}
	logger.Info().Msg("migration complete")
}
