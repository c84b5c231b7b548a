package main

import (
	"fmt"

	"admissions/internal/db"
	"admissions/pkg/types"

	"github.com/urfave/cli/v2"
)

var migrateCommand = &cli.Command{
	Name:  "migrate",
	Usage: "Apply database migrations",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if cfg.Backend != types.BackendPostgres {
			return fmt.Errorf("migrations only apply to the %s backend", types.BackendPostgres)
		}

		logger, err := newLogger(c)
		if err != nil {
			return err
		}

		return db.Migrate(cfg.DatabaseURL, logger)
	},
}
