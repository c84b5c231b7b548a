package main

import (
	"context"
	"fmt"

	"admissions/internal/db"
	"admissions/internal/formschema"
	"admissions/internal/seed"
	"admissions/internal/store"
	"admissions/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the database with institutes, courses and default forms",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "overwrite-forms",
			Usage: "Replace saved form configurations with the default form",
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if cfg.Backend != types.BackendPostgres {
			return fmt.Errorf("seeding only applies to the %s backend", types.BackendPostgres)
		}

		ctx := context.Background()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logrus.Info("Connected to database")

		logrus.Info("Seeding institutions...")
		if err := seed.SeedInstitutions(ctx, store.NewInstitutionRepository(pool)); err != nil {
			return fmt.Errorf("failed to seed institutions: %w", err)
		}

		logrus.Info("Seeding forms...")
		if err := seed.SeedForms(ctx, store.NewFormsRepository(pool), formschema.DefaultCatalog(), c.Bool("overwrite-forms")); err != nil {
			return fmt.Errorf("failed to seed forms: %w", err)
		}

		logrus.Info("Seed complete")

		return nil
	},
}
